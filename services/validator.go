package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"docs-rag-service/internal/logger"
	"docs-rag-service/models"
)

// urlPattern accepts HTTP(S) URLs with a domain, localhost or an IPv4 host,
// an optional port and an optional path.
var urlPattern = regexp.MustCompile(
	`^https?://` +
		`(?:(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,6}\.?|` +
		`localhost|` +
		`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`)

// ResultValidator enforces the retrieval output contract before results are
// trusted by downstream consumers. Pure checks, no side effects beyond logs.
type ResultValidator struct{}

func NewResultValidator() *ResultValidator {
	return &ResultValidator{}
}

// Validate reports whether every result carries the required, well-formed
// fields. It short-circuits to false on the first failure.
func (v *ResultValidator) Validate(results []models.RetrievalResult) bool {
	for i, result := range results {
		if strings.TrimSpace(result.Text) == "" {
			logger.Warn("Result validation failed: empty text", "index", i)
			return false
		}
		if result.URL == "" || !urlPattern.MatchString(result.URL) {
			logger.Warn("Result validation failed: malformed URL", "index", i, "url", result.URL)
			return false
		}
		if strings.TrimSpace(result.Title) == "" {
			logger.Warn("Result validation failed: empty title", "index", i)
			return false
		}
		if result.ChunkIndex < 0 {
			logger.Warn("Result validation failed: negative chunk index", "index", i, "chunk_index", result.ChunkIndex)
			return false
		}
	}
	return true
}

// ValidateRaw checks a raw payload map before it is decoded into a typed
// result: all five required fields present, chunk_index coercible to an
// integer and similarity_score coercible to a float.
func (v *ResultValidator) ValidateRaw(results []map[string]any) bool {
	required := []string{"text", "url", "title", "chunk_index", "similarity_score"}
	for i, result := range results {
		for _, key := range required {
			if _, ok := result[key]; !ok {
				logger.Warn("Result validation failed: missing field", "index", i, "field", key)
				return false
			}
		}
		if _, err := coerceInt(result["chunk_index"]); err != nil {
			logger.Warn("Result validation failed: chunk_index not an integer", "index", i)
			return false
		}
		if _, err := coerceFloat(result["similarity_score"]); err != nil {
			logger.Warn("Result validation failed: similarity_score not a number", "index", i)
			return false
		}
		typed := models.RetrievalResult{
			Text:  fmt.Sprint(result["text"]),
			URL:   fmt.Sprint(result["url"]),
			Title: fmt.Sprint(result["title"]),
		}
		if !v.Validate([]models.RetrievalResult{typed}) {
			return false
		}
	}
	return true
}

// ValidateAgainstOriginals compares retrieved texts with the original stored
// texts (substring containment). Used in test and demo contexts only.
func (v *ResultValidator) ValidateAgainstOriginals(results []models.RetrievalResult, originalTexts []string) bool {
	if !v.Validate(results) {
		return false
	}
	for i, result := range results {
		if i >= len(originalTexts) {
			break
		}
		original := strings.TrimSpace(originalTexts[i])
		retrieved := strings.TrimSpace(result.Text)
		if original != "" && !strings.Contains(original, retrieved) {
			logger.Warn("Retrieved text does not match original", "index", i)
			return false
		}
	}
	return true
}

// ValidateMetadata compares result metadata with known originals by exact
// field equality. Used in test and demo contexts only.
func (v *ResultValidator) ValidateMetadata(results []models.RetrievalResult, originals []models.RetrievalResult) bool {
	if !v.Validate(results) {
		return false
	}
	for i, result := range results {
		if i >= len(originals) {
			break
		}
		if result.URL != originals[i].URL {
			logger.Warn("Retrieved URL does not match original", "index", i)
			return false
		}
		if result.Title != originals[i].Title {
			logger.Warn("Retrieved title does not match original", "index", i)
			return false
		}
		if result.ChunkIndex != originals[i].ChunkIndex {
			logger.Warn("Retrieved chunk_index does not match original", "index", i)
			return false
		}
	}
	return true
}

func coerceInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("cannot coerce %T to int", value)
	}
}

func coerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot coerce %T to float", value)
	}
}
