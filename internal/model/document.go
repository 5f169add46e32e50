package model

import "time"

// ParseStatus tracks the lifecycle of text extraction for a document.
type ParseStatus string

const (
	ParseStatusPending    ParseStatus = "pending"
	ParseStatusProcessing ParseStatus = "processing"
	ParseStatusCompleted  ParseStatus = "completed"
	ParseStatusFailed     ParseStatus = "failed"
)

// Document is an uploaded file. FullText stays empty until the parse worker
// extracts it; chunks and embeddings are produced on demand afterwards.
type Document struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;index;uniqueIndex:idx_documents_user_hash" json:"user_id"`
	Name        string      `gorm:"size:256;not null" json:"name"`
	MimeType    string      `gorm:"size:128" json:"mime_type"`
	Size        int64       `json:"size"`
	StoragePath string      `gorm:"size:512" json:"-"`
	ContentHash string      `gorm:"size:64;uniqueIndex:idx_documents_user_hash" json:"content_hash"`
	FullText    string      `gorm:"type:text" json:"-"`
	PreviewText string      `gorm:"type:text" json:"preview_text"`
	ParseStatus ParseStatus `gorm:"size:16;not null;default:pending" json:"parse_status"`
	ParseError  string      `gorm:"size:512" json:"parse_error,omitempty"`
	Embedded    bool        `gorm:"not null;default:false" json:"embedded"`
	ChunkCount  int         `gorm:"not null;default:0" json:"chunk_count"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
