package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. A nil *Metrics is a no-op, so
// callers can record unconditionally.
type Metrics struct {
	RetrievalRequests  metric.Int64Counter
	RetrievalDuration  metric.Float64Histogram
	DocumentsProcessed metric.Int64Counter
	ChunksStored       metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("docs-rag-service")

	retrievalRequests, err := meter.Int64Counter(
		"retrieval.requests.total",
		metric.WithDescription("Total completed retrieval requests"),
	)
	if err != nil {
		return nil, err
	}

	retrievalDuration, err := meter.Float64Histogram(
		"retrieval.stage.duration",
		metric.WithDescription("Retrieval stage duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	documentsProcessed, err := meter.Int64Counter(
		"ingest.documents.total",
		metric.WithDescription("Documents processed by ingestion runs"),
	)
	if err != nil {
		return nil, err
	}

	chunksStored, err := meter.Int64Counter(
		"ingest.chunks.total",
		metric.WithDescription("Chunks written to the vector store"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RetrievalRequests:  retrievalRequests,
		RetrievalDuration:  retrievalDuration,
		DocumentsProcessed: documentsProcessed,
		ChunksStored:       chunksStored,
	}, nil
}

// RecordRetrievalStage records the duration of one retrieval stage
func (m *Metrics) RecordRetrievalStage(stage string, durationMs float64) {
	if m == nil {
		return
	}
	m.RetrievalDuration.Record(context.Background(), durationMs,
		metric.WithAttributes(attribute.String("retrieval.stage", stage)))
}

// RecordRetrieval records one completed retrieval request
func (m *Metrics) RecordRetrieval(results int) {
	if m == nil {
		return
	}
	m.RetrievalRequests.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Int("retrieval.results", results)))
}

// RecordDocument records the outcome of one ingested document
func (m *Metrics) RecordDocument(status string) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("ingest.status", status)))
}

// RecordChunks records chunks written to the vector store
func (m *Metrics) RecordChunks(count int) {
	if m == nil {
		return
	}
	m.ChunksStored.Add(context.Background(), int64(count))
}
