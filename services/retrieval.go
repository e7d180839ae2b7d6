package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docs-rag-service/internal/config"
	"docs-rag-service/internal/logger"
	"docs-rag-service/internal/telemetry"
	"docs-rag-service/internal/vectordb"
	"docs-rag-service/models"
)

const (
	minTopK = 1
	maxTopK = 100
)

// Validation failures are typed so handlers can map them to 400s.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RetrievalService answers similarity queries against the ingested corpus.
type RetrievalService struct {
	cfg       *config.Config
	embedder  Embedder
	store     VectorStore
	validator *ResultValidator
	tracer    trace.Tracer
	metrics   *telemetry.Metrics
}

func NewRetrievalService(cfg *config.Config, embedder Embedder, store VectorStore) *RetrievalService {
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}
	return &RetrievalService{
		cfg:       cfg,
		embedder:  embedder,
		store:     store,
		validator: NewResultValidator(),
		tracer:    otel.Tracer("docs-rag-service/retrieval"),
		metrics:   metrics,
	}
}

// Retrieve embeds the query, searches the collection and returns the top
// matches in the order the vector store ranked them. Invalid input fails
// before any network call is made.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) (*models.RetrievalResponse, error) {
	ctx, span := s.tracer.Start(ctx, "retrieval.retrieve", trace.WithAttributes(
		attribute.Int("retrieval.top_k", topK),
	))
	defer span.End()

	if err := s.validateQuery(query, topK); err != nil {
		return nil, err
	}

	totalStart := time.Now()
	var timings models.TimingInfo

	// Stage 1: confirm the store is reachable before paying for an embedding
	stageStart := time.Now()
	if err := s.store.CheckConnection(ctx, s.cfg.CollectionName); err != nil {
		return nil, fmt.Errorf("vector store connection check failed: %w", err)
	}
	timings.ClientInitializationMs = msSince(stageStart)
	s.metrics.RecordRetrievalStage("connect", timings.ClientInitializationMs)

	// Stage 2: query embedding
	stageStart = time.Now()
	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	timings.EmbeddingGenerationMs = msSince(stageStart)
	s.metrics.RecordRetrievalStage("embed", timings.EmbeddingGenerationMs)

	// Stage 3: similarity search
	stageStart = time.Now()
	points, err := s.store.Search(ctx, s.cfg.CollectionName, queryVector, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	timings.SearchExecutionMs = msSince(stageStart)
	s.metrics.RecordRetrievalStage("search", timings.SearchExecutionMs)

	results := formatResults(points)
	timings.TotalRetrievalMs = msSince(totalStart)
	s.metrics.RecordRetrievalStage("total", timings.TotalRetrievalMs)
	s.metrics.RecordRetrieval(len(results))

	// Advisory only. A malformed payload is worth a warning, not a failure.
	if !s.validator.Validate(results) {
		logger.Warn("Retrieval results failed validation", "query_length", utf8.RuneCountInString(query), "results", len(results))
	}

	span.SetAttributes(attribute.Int("retrieval.results", len(results)))

	logger.Info("Retrieval complete",
		"results", len(results),
		"top_k", topK,
		"total_ms", timings.TotalRetrievalMs)

	return &models.RetrievalResponse{
		Query:           query,
		Results:         results,
		RetrievalTimeMs: timings.TotalRetrievalMs,
		TotalResults:    len(results),
		TopKRequested:   topK,
		TimingInfo:      timings,
	}, nil
}

func (s *RetrievalService) validateQuery(query string, topK int) error {
	if strings.TrimSpace(query) == "" {
		return &ValidationError{Field: "query", Message: "query must not be empty"}
	}
	if utf8.RuneCountInString(query) > s.cfg.MaxQueryLength {
		return &ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("query exceeds maximum length of %d characters", s.cfg.MaxQueryLength),
		}
	}
	if topK < minTopK || topK > maxTopK {
		return &ValidationError{
			Field:   "top_k",
			Message: fmt.Sprintf("top_k must be between %d and %d", minTopK, maxTopK),
		}
	}
	return nil
}

// formatResults flattens store payloads into API results, preserving the
// store's ranking order. Missing payload fields degrade to zero values.
func formatResults(points []vectordb.ScoredPoint) []models.RetrievalResult {
	results := make([]models.RetrievalResult, 0, len(points))
	for _, point := range points {
		result := models.RetrievalResult{SimilarityScore: point.Score}
		if text, ok := point.Payload["text"].(string); ok {
			result.Text = text
		}
		if url, ok := point.Payload["url"].(string); ok {
			result.URL = url
		}
		if title, ok := point.Payload["title"].(string); ok {
			result.Title = title
		}
		switch idx := point.Payload["chunk_index"].(type) {
		case float64:
			result.ChunkIndex = int(idx)
		case int:
			result.ChunkIndex = idx
		}
		results = append(results, result)
	}
	return results
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
