package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-rag-service/internal/ai"
	"docs-rag-service/models"
)

func newTestPipeline(t *testing.T, discoverer URLDiscoverer, source DocumentSource, embedder Embedder, store VectorStore, recorder RunRecorder) *IngestionPipeline {
	t.Helper()
	pipeline, err := NewIngestionPipeline(testConfig(), discoverer, source, embedder, store, recorder)
	require.NoError(t, err)
	return pipeline
}

func TestIngestionPipeline_Run(t *testing.T) {
	t.Run("Should process every discovered URL and record a run summary", func(t *testing.T) {
		discoverer := &fakeDiscoverer{urls: []string{
			"https://docs.example.com/intro",
			"https://docs.example.com/guide",
		}}
		source := &fakeSource{docs: map[string]models.Document{
			"https://docs.example.com/intro": {
				URL:   "https://docs.example.com/intro",
				Title: "Introduction",
				Text:  strings.Repeat("a", 250),
			},
			"https://docs.example.com/guide": {
				URL:   "https://docs.example.com/guide",
				Title: "Guide",
				Text:  "short page",
			},
		}}
		embedder := &fakeEmbedder{dimension: 4}
		store := &fakeStore{}
		recorder := &fakeRecorder{}

		pipeline := newTestPipeline(t, discoverer, source, embedder, store, recorder)
		run, err := pipeline.Run(context.Background())

		require.NoError(t, err)
		assert.NotEmpty(t, run.RunID)
		assert.Equal(t, 2, run.URLsFound)
		assert.Equal(t, 2, run.Processed)
		assert.Equal(t, 1, store.ensured)
		require.Len(t, store.upserts, 2)
		assert.Equal(t, "https://docs.example.com/intro", store.upserts[0].url)
		assert.Equal(t, "Introduction", store.upserts[0].title)
		// 250 chars through a 100/20 chunker
		assert.Len(t, store.upserts[0].chunks, 3)
		assert.Equal(t, 4, run.TotalChunks)
		require.Len(t, recorder.runs, 1)
		assert.Equal(t, run.RunID, recorder.runs[0].RunID)
		assert.False(t, run.FinishedAt.Before(run.StartedAt))
	})

	t.Run("Should embed documents with the document input type", func(t *testing.T) {
		discoverer := &fakeDiscoverer{urls: []string{"https://docs.example.com/intro"}}
		source := &fakeSource{docs: map[string]models.Document{
			"https://docs.example.com/intro": {URL: "https://docs.example.com/intro", Title: "Intro", Text: "hello world"},
		}}
		embedder := &fakeEmbedder{dimension: 4}

		pipeline := newTestPipeline(t, discoverer, source, embedder, &fakeStore{}, nil)
		_, err := pipeline.Run(context.Background())

		require.NoError(t, err)
		require.Len(t, embedder.inputTypes, 1)
		assert.Equal(t, ai.InputTypeDocument, embedder.inputTypes[0])
	})

	t.Run("Should continue past a failing document", func(t *testing.T) {
		discoverer := &fakeDiscoverer{urls: []string{
			"https://docs.example.com/good",
			"https://docs.example.com/broken",
			"https://docs.example.com/also-good",
		}}
		source := &fakeSource{
			docs: map[string]models.Document{
				"https://docs.example.com/good":      {URL: "https://docs.example.com/good", Title: "Good", Text: "good content"},
				"https://docs.example.com/also-good": {URL: "https://docs.example.com/also-good", Title: "Also", Text: "more content"},
			},
			errs: map[string]error{
				"https://docs.example.com/broken": errors.New("fetch failed: 500"),
			},
		}
		store := &fakeStore{}

		pipeline := newTestPipeline(t, discoverer, source, &fakeEmbedder{dimension: 4}, store, nil)
		run, err := pipeline.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, run.Processed)
		assert.Len(t, store.upserts, 2)
		require.Len(t, run.Documents, 3)
		assert.Equal(t, "skipped", run.Documents[1].Status)
		assert.Contains(t, run.Documents[1].Error, "fetch failed")
		assert.Equal(t, "stored", run.Documents[2].Status)
	})

	t.Run("Should skip empty documents without calling the embedder", func(t *testing.T) {
		discoverer := &fakeDiscoverer{urls: []string{"https://docs.example.com/empty"}}
		source := &fakeSource{docs: map[string]models.Document{
			"https://docs.example.com/empty": {URL: "https://docs.example.com/empty", Title: "Empty", Text: ""},
		}}
		embedder := &fakeEmbedder{dimension: 4}

		pipeline := newTestPipeline(t, discoverer, source, embedder, &fakeStore{}, nil)
		run, err := pipeline.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, run.Processed)
		assert.Equal(t, 0, embedder.calls)
		require.Len(t, run.Documents, 1)
		assert.Equal(t, "skipped", run.Documents[0].Status)
	})

	t.Run("Should skip a document when embedding fails", func(t *testing.T) {
		discoverer := &fakeDiscoverer{urls: []string{"https://docs.example.com/intro"}}
		source := &fakeSource{docs: map[string]models.Document{
			"https://docs.example.com/intro": {URL: "https://docs.example.com/intro", Title: "Intro", Text: "content here"},
		}}
		embedder := &fakeEmbedder{dimension: 4, embedErr: errors.New("embed provider down")}
		store := &fakeStore{}

		pipeline := newTestPipeline(t, discoverer, source, embedder, store, nil)
		run, err := pipeline.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, run.Processed)
		assert.Empty(t, store.upserts)
		assert.Contains(t, run.Documents[0].Error, "embed provider down")
	})

	t.Run("Should fail the run when the collection cannot be ensured", func(t *testing.T) {
		store := &fakeStore{ensureErr: errors.New("qdrant unreachable")}
		pipeline := newTestPipeline(t, &fakeDiscoverer{}, &fakeSource{}, &fakeEmbedder{dimension: 4}, store, nil)

		_, err := pipeline.Run(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "qdrant unreachable")
	})

	t.Run("Should fail the run when URL discovery fails", func(t *testing.T) {
		discoverer := &fakeDiscoverer{err: errors.New("sitemap fetch failed")}
		pipeline := newTestPipeline(t, discoverer, &fakeSource{}, &fakeEmbedder{dimension: 4}, &fakeStore{}, nil)

		_, err := pipeline.Run(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "sitemap fetch failed")
	})

	t.Run("Should finish the run even when persisting history fails", func(t *testing.T) {
		discoverer := &fakeDiscoverer{urls: []string{"https://docs.example.com/intro"}}
		source := &fakeSource{docs: map[string]models.Document{
			"https://docs.example.com/intro": {URL: "https://docs.example.com/intro", Title: "Intro", Text: "content"},
		}}
		recorder := &fakeRecorder{err: errors.New("mongo down")}

		pipeline := newTestPipeline(t, discoverer, source, &fakeEmbedder{dimension: 4}, &fakeStore{}, recorder)
		run, err := pipeline.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, run.Processed)
	})
}
