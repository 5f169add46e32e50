package retrieval

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory implementation of SemanticSearcher and
// KeywordSearcher. It backs tests and small single-process deployments where
// a vector database is not worth running; the persisted index in
// internal/repository is the production path.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []memEntry
}

type memEntry struct {
	result SearchResult
	userID uint
	vec    []float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add registers a chunk with its embedding. A nil vector keeps the chunk
// visible to keyword search only.
func (m *MemoryIndex) Add(userID uint, result SearchResult, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, memEntry{result: result, userID: userID, vec: vec})
}

// RemoveDocument drops every chunk belonging to the document.
func (m *MemoryIndex) RemoveDocument(documentID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.result.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
}

func (m *MemoryIndex) SemanticSearch(ctx context.Context, queryVec []float32, opts SearchOptions) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []SearchResult
	for _, e := range m.entries {
		if e.vec == nil || !matchesFilter(e, opts) {
			continue
		}
		sim, err := CosineSimilarity(queryVec, e.vec)
		if err != nil {
			return nil, err
		}
		if sim < opts.Threshold {
			continue
		}
		r := e.result
		r.Score = sim
		r.Relevance = RelevanceSemantic
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return capResults(results, opts.Limit), nil
}

func (m *MemoryIndex) KeywordSearch(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []SearchResult
	for _, e := range m.entries {
		if !matchesFilter(e, opts) {
			continue
		}
		score := ScoreKeywords(e.result.Content, keywords)
		if score <= 0 {
			continue
		}
		r := e.result
		r.Score = score
		r.Relevance = RelevanceKeyword
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return capResults(results, opts.Limit), nil
}

func matchesFilter(e memEntry, opts SearchOptions) bool {
	if opts.UserID != 0 && e.userID != opts.UserID {
		return false
	}
	if len(opts.DocumentIDs) == 0 {
		return true
	}
	for _, id := range opts.DocumentIDs {
		if e.result.DocumentID == id {
			return true
		}
	}
	return false
}

func capResults(results []SearchResult, limit int) []SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
