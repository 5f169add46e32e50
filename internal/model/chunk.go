package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Chunk is a contiguous slice of a document's extracted text. ChunkIndex is
// 0-based and contiguous per document; start/end offsets are approximate
// positions into the source text (separator-inclusive, see retrieval.SplitText).
// Embedding stays nil until the chunk has been embedded.
type Chunk struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	DocumentID    uint             `gorm:"not null;index;uniqueIndex:idx_chunks_doc_ordinal" json:"document_id"`
	ChunkIndex    int              `gorm:"not null;uniqueIndex:idx_chunks_doc_ordinal" json:"chunk_index"`
	Content       string           `gorm:"type:text;not null" json:"content"`
	StartPosition int              `gorm:"not null" json:"start_position"`
	EndPosition   int              `gorm:"not null" json:"end_position"`
	PageIndex     *int             `json:"page_index,omitempty"`
	Metadata      string           `gorm:"type:text" json:"metadata,omitempty"`
	Embedding     *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	CreatedAt     time.Time        `json:"created_at"`
}

// SetEmbedding stores the vector; a nil or empty slice clears it.
func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = nil
		return
	}
	v := pgvector.NewVector(vec)
	c.Embedding = &v
}
