package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/retrieval"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.vec, 1, nil
}

type failingSearcher struct{ err error }

func (f failingSearcher) SemanticSearch(ctx context.Context, queryVec []float32, opts retrieval.SearchOptions) ([]retrieval.SearchResult, error) {
	return nil, f.err
}

func (f failingSearcher) KeywordSearch(ctx context.Context, query string, opts retrieval.SearchOptions) ([]retrieval.SearchResult, error) {
	return nil, f.err
}

func seededIndex() *retrieval.MemoryIndex {
	idx := retrieval.NewMemoryIndex()
	idx.Add(1, retrieval.SearchResult{
		ChunkID: 1, DocumentID: 10, DocumentName: "report.pdf", ChunkIndex: 0,
		Content: "The invoice total for March came to 4200 euro.",
	}, []float32{1, 0, 0})
	idx.Add(1, retrieval.SearchResult{
		ChunkID: 2, DocumentID: 10, DocumentName: "report.pdf", ChunkIndex: 1,
		Content: "Delivery schedules slipped by two weeks in Q2.",
	}, []float32{0, 1, 0})
	idx.Add(2, retrieval.SearchResult{
		ChunkID: 3, DocumentID: 20, DocumentName: "other.txt", ChunkIndex: 0,
		Content: "The invoice total is confidential.",
	}, []float32{1, 0, 0})
	return idx
}

func newTestSearchService(idx *retrieval.MemoryIndex, vec []float32) *SearchService {
	return NewSearchService(&fakeEmbedder{vec: vec}, idx, idx, 10, 0.1, retrieval.DefaultHybridAlpha)
}

func TestSearchBlendsSemanticAndKeyword(t *testing.T) {
	idx := seededIndex()
	svc := newTestSearchService(idx, []float32{1, 0, 0})

	results, err := svc.Search(context.Background(), "invoice total", retrieval.SearchOptions{UserID: 1})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Chunk 1 matches both branches, so it blends to the top as hybrid.
	assert.Equal(t, uint(1), results[0].ChunkID)
	assert.Equal(t, retrieval.RelevanceHybrid, results[0].Relevance)
	for _, r := range results {
		assert.NotEqual(t, uint(3), r.ChunkID, "other user's chunks must not leak")
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := newTestSearchService(seededIndex(), []float32{1, 0, 0})

	_, err := svc.Search(context.Background(), "   ", retrieval.SearchOptions{UserID: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearchRespectsLimit(t *testing.T) {
	idx := seededIndex()
	svc := newTestSearchService(idx, []float32{1, 0, 0})

	results, err := svc.Search(context.Background(), "invoice delivery", retrieval.SearchOptions{UserID: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchDocumentFilter(t *testing.T) {
	idx := seededIndex()
	svc := newTestSearchService(idx, []float32{1, 0, 0})

	results, err := svc.Search(context.Background(), "invoice", retrieval.SearchOptions{UserID: 1, DocumentIDs: []uint{99}})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchAlphaOverride(t *testing.T) {
	idx := seededIndex()
	svc := newTestSearchService(idx, []float32{0, 1, 0})

	// Alpha 1 keeps only semantic scores, so the vector match outranks the
	// keyword-only hit regardless of keyword coverage.
	results, err := svc.Search(context.Background(), "invoice total", retrieval.SearchOptions{UserID: 1, Alpha: 1})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, uint(2), results[0].ChunkID)
}

func TestSearchEmbedFailure(t *testing.T) {
	idx := seededIndex()
	svc := NewSearchService(&fakeEmbedder{err: errors.New("provider down")}, idx, idx, 10, 0.1, retrieval.DefaultHybridAlpha)

	_, err := svc.Search(context.Background(), "invoice", retrieval.SearchOptions{UserID: 1})
	assert.ErrorContains(t, err, "embed query failed")
}

func TestSearchBranchFailurePropagates(t *testing.T) {
	branchErr := errors.New("index unavailable")
	svc := NewSearchService(&fakeEmbedder{vec: []float32{1, 0, 0}}, failingSearcher{err: branchErr}, seededIndex(), 10, 0.1, retrieval.DefaultHybridAlpha)

	_, err := svc.Search(context.Background(), "invoice", retrieval.SearchOptions{UserID: 1})
	assert.ErrorIs(t, err, branchErr)
}
