package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docassist/internal/retrieval"
)

type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, int, error)
}

type SearchService struct {
	embedder QueryEmbedder
	semantic retrieval.SemanticSearcher
	keyword  retrieval.KeywordSearcher

	defaultLimit     int
	defaultThreshold float64
	alpha            float64
}

func NewSearchService(
	embedder QueryEmbedder,
	semantic retrieval.SemanticSearcher,
	keyword retrieval.KeywordSearcher,
	defaultLimit int,
	defaultThreshold float64,
	alpha float64,
) *SearchService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &SearchService{
		embedder:         embedder,
		semantic:         semantic,
		keyword:          keyword,
		defaultLimit:     defaultLimit,
		defaultThreshold: defaultThreshold,
		alpha:            alpha,
	}
}

// Search runs semantic and keyword retrieval concurrently and returns the
// blended ranking. Either branch failing fails the whole search.
func (s *SearchService) Search(ctx context.Context, query string, opts retrieval.SearchOptions) ([]retrieval.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}
	if opts.Limit <= 0 {
		opts.Limit = s.defaultLimit
	}
	if opts.Threshold <= 0 {
		opts.Threshold = s.defaultThreshold
	}
	alpha := opts.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = s.alpha
	}

	queryVec, _, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	// Both branches over-fetch so the merged ranking has enough candidates
	// to fill the caller's limit after dedup.
	branchOpts := opts
	branchOpts.Limit = opts.Limit * 2

	var (
		wg         sync.WaitGroup
		semResults []retrieval.SearchResult
		kwResults  []retrieval.SearchResult
		semErr     error
		keywordErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		semResults, semErr = s.semantic.SemanticSearch(ctx, queryVec, branchOpts)
	}()
	go func() {
		defer wg.Done()
		kwOpts := branchOpts
		kwOpts.Threshold = 0
		kwResults, keywordErr = s.keyword.KeywordSearch(ctx, query, kwOpts)
	}()
	wg.Wait()

	if semErr != nil {
		return nil, fmt.Errorf("semantic search failed: %w", semErr)
	}
	if keywordErr != nil {
		return nil, fmt.Errorf("keyword search failed: %w", keywordErr)
	}

	merged := retrieval.MergeResults(semResults, kwResults, alpha)
	if len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged, nil
}
