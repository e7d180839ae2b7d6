package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"docs-rag-service/internal/ai"
	"docs-rag-service/internal/config"
	"docs-rag-service/internal/crawler"
	"docs-rag-service/internal/logger"
	"docs-rag-service/internal/store"
	"docs-rag-service/internal/vectordb"
	"docs-rag-service/services"
)

// One-shot ingestion. Flags override the environment so a single site can be
// re-indexed without editing .env.
func main() {
	sitemapURL := flag.String("sitemap", "", "sitemap URL to ingest (overrides SITEMAP_URL)")
	collection := flag.String("collection", "", "target collection (overrides COLLECTION_NAME)")
	chunkSize := flag.Int("chunk-size", 0, "chunk size in characters (overrides MAX_CHUNK_SIZE)")
	chunkOverlap := flag.Int("chunk-overlap", -1, "chunk overlap in characters (overrides CHUNK_OVERLAP)")
	reportPath := flag.String("report", "", "write an xlsx run report to this path")
	skipHistory := flag.Bool("no-history", false, "do not record the run in Mongo")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if *sitemapURL != "" {
		cfg.SitemapURL = *sitemapURL
	}
	if *collection != "" {
		cfg.CollectionName = *collection
	}
	if *chunkSize > 0 {
		cfg.MaxChunkSize = *chunkSize
	}
	if *chunkOverlap >= 0 {
		cfg.ChunkOverlap = *chunkOverlap
	}

	embedder := ai.NewCohereClient(cfg, nil)
	qdrant := vectordb.NewQdrantClient(cfg, nil)
	extractor := crawler.NewExtractor(nil, cfg.RenderJS)
	discoverer := services.NewSiteDiscoverer(cfg)

	var recorder services.RunRecorder
	if !*skipHistory {
		if mongoClient, err := store.ConnectMongoDB(cfg); err != nil {
			logger.Warn("Run history disabled", "error", err)
		} else {
			recorder = store.NewRunStore(mongoClient, cfg.DBName)
			defer mongoClient.Disconnect(context.Background())
		}
	}

	pipeline, err := services.NewIngestionPipeline(cfg, discoverer, extractor, embedder, qdrant, recorder)
	if err != nil {
		log.Fatal("Failed to build ingestion pipeline:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatal("Ingestion failed:", err)
	}

	if *reportPath != "" {
		if err := services.WriteRunReport(run, *reportPath); err != nil {
			logger.Error("Failed to write run report", "path", *reportPath, "error", err)
			os.Exit(1)
		}
		logger.Info("Run report written", "path", *reportPath)
	}
}
