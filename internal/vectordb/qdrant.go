package vectordb

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docs-rag-service/internal/config"
	"docs-rag-service/internal/logger"
	"docs-rag-service/internal/retry"
)

// ScoredPoint is one nearest-neighbor match with its stored payload.
type ScoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// QdrantClient is a minimal REST client for Qdrant. It owns the authoritative
// copy of all stored points; everything else only writes through Upsert or
// reads through Search.
type QdrantClient struct {
	baseURL    string
	apiKey     string
	dimension  int
	httpClient *http.Client
	policy     *retry.Policy
}

func NewQdrantClient(cfg *config.Config, policy *retry.Policy) *QdrantClient {
	if policy == nil {
		policy = retry.Default()
	}
	return &QdrantClient{
		baseURL:    strings.TrimRight(cfg.QdrantURL, "/"),
		apiKey:     cfg.QdrantAPIKey,
		dimension:  cfg.VectorSize,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		policy:     policy,
	}
}

// ChunkID returns the deterministic point identifier for a chunk. Re-ingesting
// the same URL overwrites its chunks instead of duplicating them.
func ChunkID(url string, chunkIndex int) string {
	sum := md5.Sum([]byte(url + ":" + strconv.Itoa(chunkIndex)))
	return hex.EncodeToString(sum[:])
}

// CheckConnection verifies the store is reachable. A missing collection is
// only a warning; it may simply not have been created yet.
func (q *QdrantClient) CheckConnection(ctx context.Context, collection string) error {
	return q.policy.Do(ctx, "qdrant.check_connection", func() error {
		err := q.doRequest(ctx, http.MethodGet, "/collections/"+collection, nil, nil)
		if err != nil {
			if strings.Contains(err.Error(), "404") {
				logger.Warn("Collection does not exist yet, but Qdrant is reachable", "collection", collection)
				return nil
			}
			return err
		}
		return nil
	})
}

// EnsureCollection creates the collection if absent: configured vector
// dimension, cosine distance. Idempotent; never errors on already-exists.
func (q *QdrantClient) EnsureCollection(ctx context.Context, collection string) error {
	return q.policy.Do(ctx, "qdrant.ensure_collection", func() error {
		if err := q.doRequest(ctx, http.MethodGet, "/collections/"+collection, nil, nil); err == nil {
			logger.Info("Collection already exists", "collection", collection)
			return nil
		}
		body := map[string]any{
			"vectors": map[string]any{
				"size":     q.dimension,
				"distance": "Cosine",
			},
		}
		if err := q.doRequest(ctx, http.MethodPut, "/collections/"+collection, body, nil); err != nil {
			return err
		}
		logger.Info("Created collection", "collection", collection, "dimension", q.dimension)
		return nil
	})
}

// Upsert writes one point per (chunk, embedding) pair under a deterministic
// ID derived from the URL and chunk index. A re-ingestion that produces fewer
// chunks than before leaves the stale tail in place; that shrinkage case is a
// known inconsistency, not silently repaired here.
func (q *QdrantClient) Upsert(ctx context.Context, collection string, chunks []string, embeddings [][]float64, url, title string) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunks and embeddings length mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		if len(embeddings[i]) != q.dimension {
			return fmt.Errorf("point %d has %d dimensions, expected %d", i, len(embeddings[i]), q.dimension)
		}
		points[i] = map[string]any{
			"id":     ChunkID(url, i),
			"vector": embeddings[i],
			"payload": map[string]any{
				"text":        chunks[i],
				"url":         url,
				"title":       title,
				"chunk_index": i,
			},
		}
	}
	body := map[string]any{"points": points}
	err := q.policy.Do(ctx, "qdrant.upsert", func() error {
		return q.doRequest(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body, nil)
	})
	if err != nil {
		return err
	}
	logger.Info("Saved chunks to collection", "chunks", len(chunks), "url", url, "collection", collection)
	return nil
}

// Search returns up to limit points ordered by descending similarity. The
// configured similarity threshold is advisory; no minimum is enforced here.
func (q *QdrantClient) Search(ctx context.Context, collection string, queryVector []float64, limit int) ([]ScoredPoint, error) {
	if len(queryVector) != q.dimension {
		return nil, fmt.Errorf("query vector has %d dimensions, expected %d", len(queryVector), q.dimension)
	}
	request := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	var response struct {
		Result []ScoredPoint `json:"result"`
	}
	err := q.policy.Do(ctx, "qdrant.search", func() error {
		return q.doRequest(ctx, http.MethodPost, "/collections/"+collection+"/points/search", request, &response)
	})
	if err != nil {
		return nil, err
	}
	return response.Result, nil
}

func (q *QdrantClient) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var buf *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: marshal request: %w", err)
		}
		buf = bytes.NewReader(payload)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("qdrant: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: request failed: %w", err)
	}
	defer resp.Body.Close()
	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("qdrant: read response: %w", readErr)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Status struct {
				Error string `json:"error"`
			} `json:"status"`
		}
		if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Status.Error != "" {
			return fmt.Errorf("qdrant: %s %s failed with status %d: %s", method, path, resp.StatusCode, apiErr.Status.Error)
		}
		return fmt.Errorf("qdrant: %s %s failed with status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("qdrant: decode response: %w", err)
		}
	}
	return nil
}
