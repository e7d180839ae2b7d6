package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"docs-rag-service/internal/config"
	"docs-rag-service/internal/logger"
	"docs-rag-service/internal/retry"
)

// InputType tags an embed call for the provider. Document and query
// embeddings have different geometry; mixing them degrades similarity.
type InputType string

const (
	InputTypeDocument InputType = "search_document"
	InputTypeQuery    InputType = "search_query"
)

// ErrDimensionMismatch marks a provider contract violation. It is fatal and
// never retried: the provider returned vectors of the wrong size, which no
// amount of retrying will fix.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// CohereClient generates embeddings through Cohere's REST API, guarded by a
// circuit breaker and a client-side rate limiter.
type CohereClient struct {
	apiKey      string
	baseURL     string
	model       string
	vectorSize  int
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	policy      *retry.Policy
}

type embedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Message    string      `json:"message,omitempty"`
}

func NewCohereClient(cfg *config.Config, policy *retry.Policy) *CohereClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CohereAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// Cohere trial keys allow 100 req/min; stay under it
	rateLimiter := rate.NewLimiter(rate.Limit(90.0/60.0), 10)

	if policy == nil {
		policy = retry.Default()
	}

	return &CohereClient{
		apiKey:      cfg.CohereAPIKey,
		baseURL:     cfg.CohereAPIURL,
		model:       cfg.EmbeddingModel,
		vectorSize:  cfg.VectorSize,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		breaker:     breaker,
		rateLimiter: rateLimiter,
		policy:      policy,
	}
}

// Embed converts texts into fixed-dimension vectors, one per input text,
// order-preserving. The HTTP call is retried on transient failure; a
// dimension mismatch aborts immediately.
func (c *CohereClient) Embed(ctx context.Context, texts []string, inputType InputType) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	embeddings, err := retry.DoValue(ctx, c.policy, "cohere.embed", func() ([][]float64, error) {
		return c.embedOnce(ctx, texts, inputType)
	})
	if err != nil {
		return nil, err
	}

	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddings))
	}
	for i, embedding := range embeddings {
		if len(embedding) != c.vectorSize {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(embedding), c.vectorSize)
		}
	}

	return embeddings, nil
}

// EmbedQuery embeds a single query string in query mode.
func (c *CohereClient) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	embeddings, err := c.Embed(ctx, []string{query}, InputTypeQuery)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (c *CohereClient) embedOnce(ctx context.Context, texts []string, inputType InputType) ([][]float64, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		payload, err := json.Marshal(embedRequest{
			Texts:     texts,
			Model:     c.model,
			InputType: string(inputType),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal embed request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create embed request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("embed request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read embed response: %w", err)
		}

		var decoded embedResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode embed response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("embed API returned %d: %s", resp.StatusCode, decoded.Message)
		}

		return decoded.Embeddings, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([][]float64), nil
}
