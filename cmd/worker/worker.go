package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"docs-rag-service/internal/ai"
	"docs-rag-service/internal/config"
	"docs-rag-service/internal/crawler"
	"docs-rag-service/internal/logger"
	"docs-rag-service/internal/queue"
	"docs-rag-service/internal/store"
	"docs-rag-service/internal/vectordb"
	"docs-rag-service/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	embedder := ai.NewCohereClient(cfg, nil)
	qdrant := vectordb.NewQdrantClient(cfg, nil)
	extractor := crawler.NewExtractor(nil, cfg.RenderJS)
	discoverer := services.NewSiteDiscoverer(cfg)

	// Run history is optional; ingestion works without Mongo
	var recorder services.RunRecorder
	if mongoClient, err := store.ConnectMongoDB(cfg); err != nil {
		logger.Warn("Run history disabled", "error", err)
	} else {
		recorder = store.NewRunStore(mongoClient, cfg.DBName)
		defer mongoClient.Disconnect(context.Background())
	}

	pipeline, err := services.NewIngestionPipeline(cfg, discoverer, extractor, embedder, qdrant, recorder)
	if err != nil {
		log.Fatal("Failed to build ingestion pipeline:", err)
	}

	// REDIS_URL may be a full redis:// URL; resolve it once for asynq
	opt, err := config.RedisOptions(cfg)
	if err != nil {
		log.Fatal("Failed to resolve Redis options:", err)
	}
	redisOpt := asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}

	// Ingestion runs are heavyweight; one at a time per worker
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"ingest":  6,
				"default": 3,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(pipeline)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestSite, processor.IngestSite)

	// Scheduled refresh re-enqueues ingestion through the same queue, so a
	// cron tick and an API trigger take the identical path
	if cfg.IngestCron != "" {
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()

		scheduler := services.NewRefreshScheduler()
		err := scheduler.ScheduleRefresh(cfg.IngestCron, func() error {
			task, err := queue.NewIngestSiteTask("cron")
			if err != nil {
				return err
			}
			_, err = asynqClient.Enqueue(task)
			return err
		})
		if err != nil {
			log.Fatal("Failed to schedule ingestion refresh:", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("Scheduled ingestion refresh", "cron", cfg.IngestCron)
	}

	logger.Info("Starting worker", "redis", redisOpt.Addr)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
