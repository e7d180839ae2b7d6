package services

import (
	"context"
	"fmt"

	"docs-rag-service/internal/ai"
	"docs-rag-service/internal/config"
	"docs-rag-service/internal/vectordb"
	"docs-rag-service/models"
)

func testConfig() *config.Config {
	return &config.Config{
		CollectionName:      "docs_test",
		VectorSize:          4,
		MaxChunkSize:        100,
		ChunkOverlap:        20,
		MaxQueryLength:      2000,
		DefaultTopK:         5,
		SimilarityThreshold: 0.3,
		SitemapURL:          "https://docs.example.com/sitemap.xml",
	}
}

type fakeDiscoverer struct {
	urls []string
	err  error
}

func (d *fakeDiscoverer) Discover(context.Context) ([]string, error) {
	return d.urls, d.err
}

type fakeSource struct {
	docs map[string]models.Document
	errs map[string]error
}

func (s *fakeSource) Extract(_ context.Context, pageURL string) (models.Document, error) {
	if err, ok := s.errs[pageURL]; ok {
		return models.Document{}, err
	}
	doc, ok := s.docs[pageURL]
	if !ok {
		return models.Document{}, fmt.Errorf("no fixture for %s", pageURL)
	}
	return doc, nil
}

type fakeEmbedder struct {
	dimension  int
	embedErr   error
	calls      int
	inputTypes []ai.InputType
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string, inputType ai.InputType) ([][]float64, error) {
	e.calls++
	e.inputTypes = append(e.inputTypes, inputType)
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = make([]float64, e.dimension)
	}
	return vectors, nil
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	vectors, err := e.Embed(ctx, []string{query}, ai.InputTypeQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type upsertCall struct {
	url    string
	title  string
	chunks []string
}

type fakeStore struct {
	connectErr   error
	ensureErr    error
	upsertErr    error
	searchErr    error
	searchPoints []vectordb.ScoredPoint
	upserts      []upsertCall
	ensured      int
	searches     int
}

func (s *fakeStore) CheckConnection(context.Context, string) error {
	return s.connectErr
}

func (s *fakeStore) EnsureCollection(context.Context, string) error {
	s.ensured++
	return s.ensureErr
}

func (s *fakeStore) Upsert(_ context.Context, _ string, chunks []string, _ [][]float64, url, title string) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, upsertCall{url: url, title: title, chunks: chunks})
	return nil
}

func (s *fakeStore) Search(context.Context, string, []float64, int) ([]vectordb.ScoredPoint, error) {
	s.searches++
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.searchPoints, nil
}

type fakeRecorder struct {
	runs []*models.IngestionRun
	err  error
}

func (r *fakeRecorder) SaveRun(_ context.Context, run *models.IngestionRun) error {
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}
