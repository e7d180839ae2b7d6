package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docs-rag-service/internal/ai"
	"docs-rag-service/internal/config"
	"docs-rag-service/internal/crawler"
	"docs-rag-service/internal/logger"
	"docs-rag-service/internal/telemetry"
	"docs-rag-service/internal/vectordb"
	"docs-rag-service/models"
)

// URLDiscoverer lists the page URLs one ingestion pass should cover.
type URLDiscoverer interface {
	Discover(ctx context.Context) ([]string, error)
}

// DocumentSource produces cleaned documents from URLs.
type DocumentSource interface {
	Extract(ctx context.Context, pageURL string) (models.Document, error)
}

// Embedder converts texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string, inputType ai.InputType) ([][]float64, error)
	EmbedQuery(ctx context.Context, query string) ([]float64, error)
}

// VectorStore is the durable home of all points.
type VectorStore interface {
	CheckConnection(ctx context.Context, collection string) error
	EnsureCollection(ctx context.Context, collection string) error
	Upsert(ctx context.Context, collection string, chunks []string, embeddings [][]float64, url, title string) error
	Search(ctx context.Context, collection string, queryVector []float64, limit int) ([]vectordb.ScoredPoint, error)
}

// RunRecorder persists ingestion run summaries. Optional; a nil recorder
// disables history.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *models.IngestionRun) error
}

// IngestionPipeline orchestrates fetch, chunk, embed and upsert per document.
// One document's failure never aborts the run.
type IngestionPipeline struct {
	cfg        *config.Config
	discoverer URLDiscoverer
	source     DocumentSource
	chunker    *Chunker
	embedder   Embedder
	store      VectorStore
	recorder   RunRecorder
	metrics    *telemetry.Metrics
}

func NewIngestionPipeline(cfg *config.Config, discoverer URLDiscoverer, source DocumentSource, embedder Embedder, store VectorStore, recorder RunRecorder) (*IngestionPipeline, error) {
	chunker, err := NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}
	return &IngestionPipeline{
		cfg:        cfg,
		discoverer: discoverer,
		source:     source,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		recorder:   recorder,
		metrics:    metrics,
	}, nil
}

// Run executes one full ingestion pass over the site's URLs, in the order the
// discovery step returned them.
func (p *IngestionPipeline) Run(ctx context.Context) (*models.IngestionRun, error) {
	run := &models.IngestionRun{
		RunID:      uuid.NewString(),
		SitemapURL: p.cfg.SitemapURL,
		Collection: p.cfg.CollectionName,
		StartedAt:  time.Now(),
	}

	logger.Info("Starting ingestion run", "run_id", run.RunID, "sitemap_url", run.SitemapURL)

	if err := p.store.EnsureCollection(ctx, run.Collection); err != nil {
		return nil, err
	}

	urls, err := p.discoverer.Discover(ctx)
	if err != nil {
		return nil, err
	}
	run.URLsFound = len(urls)
	logger.Info("Found URLs", "count", len(urls))

	for i, pageURL := range urls {
		logger.Info("Processing document", "position", i+1, "total", len(urls), "url", pageURL)
		status := p.processDocument(ctx, run.Collection, pageURL)
		run.Documents = append(run.Documents, status)
		p.metrics.RecordDocument(status.Status)
		if status.Status == "stored" {
			run.Processed++
			run.TotalChunks += status.Chunks
			p.metrics.RecordChunks(status.Chunks)
		}
	}

	run.FinishedAt = time.Now()
	logger.Info("Ingestion run complete",
		"run_id", run.RunID,
		"processed", run.Processed,
		"urls_found", run.URLsFound,
		"total_chunks", run.TotalChunks,
		"duration", run.FinishedAt.Sub(run.StartedAt).String())

	if p.recorder != nil {
		if err := p.recorder.SaveRun(ctx, run); err != nil {
			logger.Warn("Failed to persist ingestion run", "run_id", run.RunID, "error", err)
		}
	}

	return run, nil
}

// SiteDiscoverer resolves the URL list from the configured sitemap, falling
// back to a bounded link crawl from the site root.
type SiteDiscoverer struct {
	cfg *config.Config
}

func NewSiteDiscoverer(cfg *config.Config) *SiteDiscoverer {
	return &SiteDiscoverer{cfg: cfg}
}

func (d *SiteDiscoverer) Discover(_ context.Context) ([]string, error) {
	if d.cfg.SitemapURL != "" {
		return crawler.FetchSitemapURLs(d.cfg.SitemapURL)
	}
	if d.cfg.BaseURL == "" {
		return nil, fmt.Errorf("no SITEMAP_URL or BASE_URL configured")
	}
	return crawler.DiscoverURLs(crawler.DiscoverConfig{
		StartURL: d.cfg.BaseURL,
		MaxPages: d.cfg.MaxPages,
	})
}

// processDocument walks one document through fetched → chunked → embedded →
// stored. Any stage failure marks it skipped and the run moves on.
func (p *IngestionPipeline) processDocument(ctx context.Context, collection, pageURL string) models.DocumentStatus {
	start := time.Now()
	status := models.DocumentStatus{URL: pageURL, Status: "skipped"}

	doc, err := p.source.Extract(ctx, pageURL)
	if err != nil {
		logger.Error("Error processing document", "url", pageURL, "stage", "fetched", "error", err)
		status.Error = err.Error()
		return status
	}
	status.Title = doc.Title
	logger.Info("Extracted text", "url", pageURL, "characters", len(doc.Text))

	if len(doc.Text) == 0 {
		logger.Warn("Document produced no text, skipping", "url", pageURL)
		status.Error = "empty extracted text"
		return status
	}

	chunks := p.chunker.Chunk(doc.Text)
	logger.Info("Created chunks", "url", pageURL, "chunks", len(chunks))
	if len(chunks) == 0 {
		// No embedding call for empty input
		status.Error = "no chunks produced"
		return status
	}

	embeddings, err := p.embedder.Embed(ctx, chunks, ai.InputTypeDocument)
	if err != nil {
		logger.Error("Error processing document", "url", pageURL, "stage", "embedded", "error", err)
		status.Error = err.Error()
		return status
	}

	if err := p.store.Upsert(ctx, collection, chunks, embeddings, doc.URL, doc.Title); err != nil {
		logger.Error("Error processing document", "url", pageURL, "stage", "stored", "error", err)
		status.Error = err.Error()
		return status
	}

	status.Status = "stored"
	status.Chunks = len(chunks)
	status.DurationMs = float64(time.Since(start).Microseconds()) / 1000.0
	logger.Info("Document stored", "url", pageURL, "chunks", len(chunks), "duration_ms", status.DurationMs)
	return status
}
