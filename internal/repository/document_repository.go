package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docassist/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// GetByContentHash is the duplicate-upload check; content hashes are unique
// per user when present.
func (r *DocumentRepository) GetByContentHash(ctx context.Context, userID uint, hash string) (*model.Document, error) {
	if hash == "" {
		return nil, nil
	}
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("user_id = ? AND content_hash = ?", userID, hash).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by hash failed: %w", err)
	}
	return &doc, nil
}

// CountByStoragePath reports how many documents reference a stored blob.
// Blobs are content-addressed, so documents of different users can share one.
func (r *DocumentRepository) CountByStoragePath(ctx context.Context, path string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("storage_path = ?", path).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count documents by storage path failed: %w", err)
	}
	return count, nil
}

func (r *DocumentRepository) ListByUserID(ctx context.Context, userID uint) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) UpdateParseStatus(ctx context.Context, id uint, status model.ParseStatus, parseErr string) error {
	updates := map[string]interface{}{
		"parse_status": status,
		"parse_error":  parseErr,
	}
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update parse status failed: %w", err)
	}
	return nil
}

// SetParsedText records the extraction result and completes the parse.
func (r *DocumentRepository) SetParsedText(ctx context.Context, id uint, fullText, preview string) error {
	updates := map[string]interface{}{
		"full_text":    fullText,
		"preview_text": preview,
		"parse_status": model.ParseStatusCompleted,
		"parse_error":  "",
	}
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("set parsed text failed: %w", err)
	}
	return nil
}

// MarkEmbedded flags the document as chunked+embedded with its chunk count.
func (r *DocumentRepository) MarkEmbedded(ctx context.Context, id uint, chunkCount int) error {
	updates := map[string]interface{}{
		"embedded":    true,
		"chunk_count": chunkCount,
	}
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("mark document embedded failed: %w", err)
	}
	return nil
}

// DeleteByIDAndUserID removes the document and its chunks in one transaction
// and returns the deleted row so the caller can clean up stored files.
func (r *DocumentRepository) DeleteByIDAndUserID(ctx context.Context, id, userID uint) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Document{}, doc.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete document failed: %w", err)
	}
	return &doc, nil
}
