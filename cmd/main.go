package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"docs-rag-service/internal/ai"
	"docs-rag-service/internal/config"
	"docs-rag-service/internal/logger"
	"docs-rag-service/internal/store"
	"docs-rag-service/internal/telemetry"
	"docs-rag-service/internal/vectordb"
	"docs-rag-service/middleware"
	"docs-rag-service/routes"
	"docs-rag-service/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("docs-rag-service")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	embedder := ai.NewCohereClient(cfg, nil)
	qdrant := vectordb.NewQdrantClient(cfg, nil)
	retrieval := services.NewRetrievalService(cfg, embedder, qdrant)

	answerer, err := ai.NewAnswerClient(context.Background(), cfg)
	if err != nil {
		logger.Warn("Answer generation disabled", "error", err)
	} else {
		defer answerer.Close()
	}

	// Run history is optional; the query path works without Mongo
	var runStore *store.RunStore
	if mongoClient, err := store.ConnectMongoDB(cfg); err != nil {
		logger.Warn("Run history disabled", "error", err)
	} else {
		runStore = store.NewRunStore(mongoClient, cfg.DBName)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()
	}

	// Background ingestion needs redis; the query path works without it
	var asynqClient *asynq.Client
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Background ingestion disabled", "error", err)
	} else {
		defer redisClient.Close()
		// Reuse the resolved options so URL-form REDIS_URL works for asynq too
		opt := redisClient.Options()
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:      opt.Addr,
			Username:  opt.Username,
			Password:  opt.Password,
			DB:        opt.DB,
			TLSConfig: opt.TLSConfig,
		})
		defer asynqClient.Close()
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(otelgin.Middleware("docs-rag-service"))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		health := gin.H{"status": "healthy", "timestamp": time.Now()}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				health["redis"] = "unreachable"
			} else {
				health["redis"] = "ok"
			}
		}
		c.JSON(http.StatusOK, health)
	})

	var answererIface routes.Answerer
	if answerer != nil {
		answererIface = answerer
	}
	routes.SetupQueryRoutes(router, cfg, retrieval, answererIface)
	routes.SetupIngestRoutes(router, asynqClient, runStore)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
