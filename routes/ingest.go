package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"docs-rag-service/internal/logger"
	"docs-rag-service/internal/queue"
	"docs-rag-service/internal/store"
	"docs-rag-service/services"
	"docs-rag-service/utils"
)

// SetupIngestRoutes registers the ingestion trigger and run history endpoints.
// runStore may be nil when run history is disabled.
func SetupIngestRoutes(router *gin.Engine, asynqClient *asynq.Client, runStore *store.RunStore) {
	api := router.Group("/api")

	api.POST("/ingest", func(c *gin.Context) {
		if asynqClient == nil {
			utils.RespondWithServiceUnavailable(c, "Background ingestion is not configured")
			return
		}

		task, err := queue.NewIngestSiteTask("api")
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build ingestion task", nil)
			return
		}

		info, err := asynqClient.Enqueue(task)
		if err != nil {
			logger.Error("Failed to enqueue ingestion task", "error", err)
			utils.RespondWithInternalError(c, "Failed to enqueue ingestion task", nil)
			return
		}

		logger.Info("Ingestion task enqueued", "task_id", info.ID, "queue", info.Queue)
		c.JSON(http.StatusAccepted, gin.H{
			"task_id": info.ID,
			"queue":   info.Queue,
			"status":  "enqueued",
		})
	})

	api.GET("/runs", func(c *gin.Context) {
		if runStore == nil {
			utils.RespondWithServiceUnavailable(c, "Run history is not configured")
			return
		}

		runs, err := runStore.ListRuns(c.Request.Context(), 20)
		if err != nil {
			logger.Error("Failed to list ingestion runs", "error", err)
			utils.RespondWithInternalError(c, "Failed to list ingestion runs", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
	})

	api.GET("/runs/:id", func(c *gin.Context) {
		if runStore == nil {
			utils.RespondWithServiceUnavailable(c, "Run history is not configured")
			return
		}

		run, err := runStore.GetRun(c.Request.Context(), c.Param("id"))
		if err != nil {
			logger.Error("Failed to load ingestion run", "run_id", c.Param("id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to load ingestion run", nil)
			return
		}
		if run == nil {
			utils.RespondWithNotFound(c, "Run not found")
			return
		}
		c.JSON(http.StatusOK, run)
	})

	api.GET("/runs/:id/report", func(c *gin.Context) {
		if runStore == nil {
			utils.RespondWithServiceUnavailable(c, "Run history is not configured")
			return
		}

		run, err := runStore.GetRun(c.Request.Context(), c.Param("id"))
		if err != nil {
			logger.Error("Failed to load ingestion run", "run_id", c.Param("id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to load ingestion run", nil)
			return
		}
		if run == nil {
			utils.RespondWithNotFound(c, "Run not found")
			return
		}

		data, err := services.RunReportBytes(run)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate report", nil)
			return
		}

		c.Header("Content-Disposition", "attachment; filename=ingestion_report.xlsx")
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	})
}
