package ai

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docs-rag-service/internal/config"
	"docs-rag-service/models"
)

// AnswerClient composes grounded answers from retrieved chunks. The language
// model is a black-box text generator here; the retrieval contract is what
// this repository guarantees.
type AnswerClient struct {
	client *genai.Client
	model  string
}

func NewAnswerClient(ctx context.Context, cfg *config.Config) (*AnswerClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for answer generation")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	return &AnswerClient{client: client, model: cfg.GeminiModel}, nil
}

// Answer generates a response to the question grounded in the retrieved
// results. Results are serialized in store order so the model sees them by
// descending similarity.
func (a *AnswerClient) Answer(ctx context.Context, question string, results []models.RetrievalResult) (string, error) {
	model := a.client.GenerativeModel(a.model)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(1024)

	prompt := buildAnswerPrompt(question, results)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no answer returned")
	}
	return sb.String(), nil
}

// AnswerAboutSelection answers using only a user-highlighted passage instead
// of the retrieved corpus context.
func (a *AnswerClient) AnswerAboutSelection(ctx context.Context, question, selectedText string) (string, error) {
	model := a.client.GenerativeModel(a.model)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(1024)

	prompt := fmt.Sprintf(
		"Answer the user's question based only on the following passage they highlighted. "+
			"If the passage doesn't contain sufficient information, say so.\n\n"+
			"Passage: %s\n\nQuestion: %s",
		selectedText, question)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no answer returned")
	}
	return sb.String(), nil
}

func (a *AnswerClient) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// FormatContext turns retrieved chunks into the grounding context string
// passed to the model.
func FormatContext(results []models.RetrievalResult) string {
	parts := []string{"Here is the relevant information to answer the user's question:"}
	for i, result := range results {
		parts = append(parts, fmt.Sprintf(
			"Document %d: %s\nURL: %s\nSimilarity: %.3f\nContent: %s\n",
			i+1, result.Title, result.URL, result.SimilarityScore, result.Text))
	}
	return strings.Join(parts, "\n")
}

func buildAnswerPrompt(question string, results []models.RetrievalResult) string {
	return fmt.Sprintf(
		"Answer the user's question based on the following documentation excerpts. "+
			"If the context doesn't contain sufficient information, say so. "+
			"Cite the source URL when drawing from an excerpt.\n\n%s\nQuestion: %s",
		FormatContext(results), question)
}
