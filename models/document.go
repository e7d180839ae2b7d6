package models

import "time"

// Document is a single extracted page. It only lives for the duration of one
// ingestion pass; the vector store keeps the durable copy as points.
type Document struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// RetrievalResult is one matched chunk, ordered by descending similarity.
type RetrievalResult struct {
	Text            string  `json:"text"`
	URL             string  `json:"url"`
	Title           string  `json:"title"`
	ChunkIndex      int     `json:"chunk_index"`
	SimilarityScore float64 `json:"similarity_score"`
}

// TimingInfo captures per-stage wall-clock timings for one retrieval call.
type TimingInfo struct {
	ClientInitializationMs float64 `json:"client_initialization_ms"`
	EmbeddingGenerationMs  float64 `json:"embedding_generation_ms"`
	SearchExecutionMs      float64 `json:"search_execution_ms"`
	TotalRetrievalMs       float64 `json:"total_retrieval_ms"`
}

// RetrievalResponse is constructed fresh per query and never persisted.
type RetrievalResponse struct {
	Query           string            `json:"query"`
	Results         []RetrievalResult `json:"results"`
	RetrievalTimeMs float64           `json:"retrieval_time_ms"`
	TotalResults    int               `json:"total_results"`
	TopKRequested   int               `json:"top_k_requested"`
	TimingInfo      TimingInfo        `json:"timing_info"`
}

// DocumentStatus records the outcome of one document inside an ingestion run.
type DocumentStatus struct {
	URL        string  `json:"url" bson:"url"`
	Title      string  `json:"title" bson:"title"`
	Status     string  `json:"status" bson:"status"` // stored | skipped
	Chunks     int     `json:"chunks" bson:"chunks"`
	DurationMs float64 `json:"duration_ms" bson:"duration_ms"`
	Error      string  `json:"error,omitempty" bson:"error,omitempty"`
}

// IngestionRun is the persisted summary of one pipeline execution.
type IngestionRun struct {
	RunID       string           `json:"run_id" bson:"run_id"`
	SitemapURL  string           `json:"sitemap_url" bson:"sitemap_url"`
	Collection  string           `json:"collection" bson:"collection"`
	StartedAt   time.Time        `json:"started_at" bson:"started_at"`
	FinishedAt  time.Time        `json:"finished_at" bson:"finished_at"`
	URLsFound   int              `json:"urls_found" bson:"urls_found"`
	Processed   int              `json:"processed" bson:"processed"`
	TotalChunks int              `json:"total_chunks" bson:"total_chunks"`
	Documents   []DocumentStatus `json:"documents" bson:"documents"`
}
