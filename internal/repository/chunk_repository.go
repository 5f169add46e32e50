package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"docassist/internal/model"
	"docassist/internal/retrieval"
)

// ChunkRepository persists chunks and executes both halves of the hybrid
// search against Postgres: nearest-neighbor queries through pgvector's `<=>`
// cosine-distance operator and keyword candidate matching through ILIKE. It
// implements retrieval.SemanticSearcher and retrieval.KeywordSearcher.
type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ReplaceChunks swaps a document's chunk set atomically: delete-then-insert
// inside one transaction so concurrent readers never observe a partially
// replaced set.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID uint, chunks []model.Chunk) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.Create(&chunks).Error
	})
	if err != nil {
		return fmt.Errorf("replace chunks for document %d failed: %w", documentID, err)
	}
	return nil
}

func (r *ChunkRepository) ListByDocumentID(ctx context.Context, documentID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks failed: %w", err)
	}
	return chunks, nil
}

type searchRow struct {
	ID           uint
	DocumentID   uint
	DocumentName string
	Content      string
	ChunkIndex   int
	Metadata     string
	Score        float64
}

func (row searchRow) toResult(rel retrieval.RelevanceType) retrieval.SearchResult {
	return retrieval.SearchResult{
		ChunkID:      row.ID,
		DocumentID:   row.DocumentID,
		DocumentName: row.DocumentName,
		Content:      row.Content,
		ChunkIndex:   row.ChunkIndex,
		Score:        row.Score,
		Relevance:    rel,
		Metadata:     row.Metadata,
	}
}

// SemanticSearch delegates nearest-neighbor ranking to the pgvector index.
// Similarity is 1 - cosine distance; chunks without a stored vector are
// excluded, and rows below opts.Threshold are filtered out.
func (r *ChunkRepository) SemanticSearch(ctx context.Context, queryVec []float32, opts retrieval.SearchOptions) ([]retrieval.SearchResult, error) {
	if len(queryVec) != retrieval.EmbeddingDim {
		return nil, fmt.Errorf("query vector dimension mismatch: want %d, got %d", retrieval.EmbeddingDim, len(queryVec))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(queryVec)

	q := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.id, chunks.document_id, documents.name AS document_name, chunks.content, chunks.chunk_index, chunks.metadata, 1 - (chunks.embedding <=> ?) AS score", vec).
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("chunks.embedding IS NOT NULL").
		Where("1 - (chunks.embedding <=> ?) >= ?", vec, opts.Threshold)
	if opts.UserID != 0 {
		q = q.Where("documents.user_id = ?", opts.UserID)
	}
	if len(opts.DocumentIDs) > 0 {
		q = q.Where("chunks.document_id IN ?", opts.DocumentIDs)
	}

	var rows []searchRow
	if err := q.Order(gorm.Expr("chunks.embedding <=> ?", vec)).Limit(limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	results := make([]retrieval.SearchResult, len(rows))
	for i, row := range rows {
		results[i] = row.toResult(retrieval.RelevanceSemantic)
	}
	return results, nil
}

// KeywordSearch extracts keywords from the query, fetches chunks containing
// any of them (case-insensitive substring), and scores each candidate by the
// fraction of distinct keywords present. No keywords means no results, not an
// error. Extracted keywords contain only letters, digits, and CJK characters,
// so no LIKE wildcard escaping is needed.
func (r *ChunkRepository) KeywordSearch(ctx context.Context, query string, opts retrieval.SearchOptions) ([]retrieval.SearchResult, error) {
	keywords := retrieval.ExtractKeywords(query)
	if len(keywords) == 0 {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	q := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.id, chunks.document_id, documents.name AS document_name, chunks.content, chunks.chunk_index, chunks.metadata").
		Joins("JOIN documents ON documents.id = chunks.document_id")
	if opts.UserID != 0 {
		q = q.Where("documents.user_id = ?", opts.UserID)
	}
	if len(opts.DocumentIDs) > 0 {
		q = q.Where("chunks.document_id IN ?", opts.DocumentIDs)
	}

	match := r.db.Where("chunks.content ILIKE ?", "%"+keywords[0]+"%")
	for _, kw := range keywords[1:] {
		match = match.Or("chunks.content ILIKE ?", "%"+kw+"%")
	}
	// Cap the candidate fetch so a ubiquitous keyword cannot pull the whole
	// corpus into memory before scoring.
	q = q.Where(match).Limit(limit * 10)

	var rows []searchRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	results := make([]retrieval.SearchResult, 0, len(rows))
	for _, row := range rows {
		row.Score = retrieval.ScoreKeywords(row.Content, keywords)
		if row.Score <= 0 {
			continue
		}
		results = append(results, row.toResult(retrieval.RelevanceKeyword))
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
