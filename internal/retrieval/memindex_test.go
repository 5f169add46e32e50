package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex() *MemoryIndex {
	idx := NewMemoryIndex()
	idx.Add(1, SearchResult{ChunkID: 1, DocumentID: 10, Content: "the invoice total is due"}, []float32{1, 0, 0})
	idx.Add(1, SearchResult{ChunkID: 2, DocumentID: 10, Content: "shipping address details"}, []float32{0.9, 0.1, 0})
	idx.Add(1, SearchResult{ChunkID: 3, DocumentID: 20, Content: "invoice archive"}, []float32{0, 1, 0})
	idx.Add(2, SearchResult{ChunkID: 4, DocumentID: 30, Content: "another user's invoice"}, nil)
	return idx
}

func TestMemoryIndexSemanticSearch(t *testing.T) {
	idx := buildIndex()
	ctx := context.Background()

	results, err := idx.SemanticSearch(ctx, []float32{1, 0, 0}, SearchOptions{Limit: 10, Threshold: 0.5, UserID: 1})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint(1), results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, RelevanceSemantic, results[0].Relevance)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryIndexSemanticSearchDocumentFilter(t *testing.T) {
	idx := buildIndex()
	results, err := idx.SemanticSearch(context.Background(), []float32{1, 0, 0}, SearchOptions{
		Limit: 10, UserID: 1, DocumentIDs: []uint{20},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(3), results[0].ChunkID)
}

func TestMemoryIndexSemanticSearchDimensionMismatch(t *testing.T) {
	idx := buildIndex()
	_, err := idx.SemanticSearch(context.Background(), []float32{1, 0}, SearchOptions{Limit: 10, UserID: 1})
	assert.Error(t, err)
}

func TestMemoryIndexKeywordSearch(t *testing.T) {
	idx := buildIndex()

	results, err := idx.KeywordSearch(context.Background(), "invoice total", SearchOptions{Limit: 10, UserID: 1})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint(1), results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, uint(3), results[1].ChunkID)
	assert.InDelta(t, 0.5, results[1].Score, 1e-9)
}

func TestMemoryIndexKeywordSearchNoKeywords(t *testing.T) {
	idx := buildIndex()
	results, err := idx.KeywordSearch(context.Background(), "?!", SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryIndexRemoveDocument(t *testing.T) {
	idx := buildIndex()
	idx.RemoveDocument(10)

	results, err := idx.KeywordSearch(context.Background(), "invoice", SearchOptions{Limit: 10, UserID: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(3), results[0].ChunkID)
}
