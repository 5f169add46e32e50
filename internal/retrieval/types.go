// Package retrieval implements the hybrid document retrieval core: paragraph
// chunking, keyword extraction, semantic/keyword result merging, token
// budgeting, and per-model context assembly.
package retrieval

import "context"

// RelevanceType tags how a search result was found.
type RelevanceType string

const (
	RelevanceSemantic RelevanceType = "semantic"
	RelevanceKeyword  RelevanceType = "keyword"
	RelevanceHybrid   RelevanceType = "hybrid"
)

// SearchResult is a ranked reference to a chunk. Score is in [0,1]. Results
// are produced fresh per query and never persisted.
type SearchResult struct {
	ChunkID      uint          `json:"chunk_id"`
	DocumentID   uint          `json:"document_id"`
	DocumentName string        `json:"document_name"`
	Content      string        `json:"content"`
	ChunkIndex   int           `json:"chunk_index"`
	Score        float64       `json:"score"`
	Relevance    RelevanceType `json:"relevance_type"`
	Metadata     string        `json:"metadata,omitempty"`
}

// SearchOptions narrows a semantic or keyword query. UserID and DocumentIDs
// are optional filters; zero values mean "no restriction". Alpha is the
// semantic weight for the hybrid merge; zero means the configured default.
// Accessors ignore Alpha, it only affects the merge step.
type SearchOptions struct {
	Limit       int
	Threshold   float64
	Alpha       float64
	UserID      uint
	DocumentIDs []uint
}

// SemanticSearcher executes nearest-neighbor queries against stored chunk
// embeddings. The query vector's dimensionality must match the stored vectors.
type SemanticSearcher interface {
	SemanticSearch(ctx context.Context, queryVec []float32, opts SearchOptions) ([]SearchResult, error)
}

// KeywordSearcher matches extracted query keywords against chunk content.
type KeywordSearcher interface {
	KeywordSearch(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}
