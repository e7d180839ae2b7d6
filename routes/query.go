package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docs-rag-service/internal/config"
	"docs-rag-service/internal/logger"
	"docs-rag-service/models"
	"docs-rag-service/services"
	"docs-rag-service/utils"
)

// Retriever answers similarity queries. Implemented by services.RetrievalService.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (*models.RetrievalResponse, error)
}

// Answerer composes grounded answers. Implemented by ai.AnswerClient.
type Answerer interface {
	Answer(ctx context.Context, question string, results []models.RetrievalResult) (string, error)
	AnswerAboutSelection(ctx context.Context, question, selectedText string) (string, error)
}

type QueryRequest struct {
	Question     string `json:"question" binding:"required"`
	SelectedText string `json:"selected_text,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
}

type QueryResponse struct {
	Answer          string                   `json:"answer"`
	Sources         []models.RetrievalResult `json:"sources"`
	Success         bool                     `json:"success"`
	Error           string                   `json:"error,omitempty"`
	RetrievalTimeMs float64                  `json:"retrieval_time_ms,omitempty"`
}

func SetupQueryRoutes(router *gin.Engine, cfg *config.Config, retriever Retriever, answerer Answerer) {
	api := router.Group("/api")

	// Pipeline failures come back as success=false with empty sources so the
	// frontend never has to parse a 5xx body.
	api.POST("/query", func(c *gin.Context) {
		var req QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if answerer == nil {
			utils.RespondWithServiceUnavailable(c, "Answer generation is not configured")
			return
		}

		// Selected-text mode skips retrieval entirely
		if req.SelectedText != "" {
			answer, err := answerer.AnswerAboutSelection(c.Request.Context(), req.Question, req.SelectedText)
			if err != nil {
				logger.Error("Selection answer failed", "error", err)
				c.JSON(http.StatusOK, QueryResponse{Success: false, Error: err.Error(), Sources: []models.RetrievalResult{}})
				return
			}
			c.JSON(http.StatusOK, QueryResponse{Answer: answer, Sources: []models.RetrievalResult{}, Success: true})
			return
		}

		topK := req.TopK
		if topK == 0 {
			topK = cfg.DefaultTopK
		}

		retrieval, err := retriever.Retrieve(c.Request.Context(), req.Question, topK)
		if err != nil {
			logger.Error("Query retrieval failed", "error", err)
			c.JSON(http.StatusOK, QueryResponse{Success: false, Error: err.Error(), Sources: []models.RetrievalResult{}})
			return
		}

		answer, err := answerer.Answer(c.Request.Context(), req.Question, retrieval.Results)
		if err != nil {
			logger.Error("Answer generation failed", "error", err)
			c.JSON(http.StatusOK, QueryResponse{Success: false, Error: err.Error(), Sources: []models.RetrievalResult{}})
			return
		}

		c.JSON(http.StatusOK, QueryResponse{
			Answer:          answer,
			Sources:         retrieval.Results,
			Success:         true,
			RetrievalTimeMs: retrieval.RetrievalTimeMs,
		})
	})

	// Raw retrieval endpoint with real status codes, for clients that do
	// their own answer composition.
	api.POST("/retrieve", func(c *gin.Context) {
		var req struct {
			Query string `json:"query" binding:"required"`
			TopK  int    `json:"top_k,omitempty"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		topK := req.TopK
		if topK == 0 {
			topK = cfg.DefaultTopK
		}

		retrieval, err := retriever.Retrieve(c.Request.Context(), req.Query, topK)
		if err != nil {
			var vErr *services.ValidationError
			if errors.As(err, &vErr) {
				utils.RespondWithBadRequest(c, vErr.Message, gin.H{"field": vErr.Field})
				return
			}
			logger.Error("Retrieval failed", "error", err)
			utils.RespondWithInternalError(c, "Retrieval failed", nil)
			return
		}

		c.JSON(http.StatusOK, retrieval)
	})
}
