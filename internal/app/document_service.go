package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"unicode/utf8"

	"docassist/internal/model"
	"docassist/internal/pkg/textextract"
	"docassist/internal/retrieval"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrDuplicateDocument = errors.New("document already uploaded")
	ErrNoContent         = errors.New("document has no extractable content")
)

const previewRunes = 500

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id uint) (*model.Document, error)
	GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Document, error)
	GetByContentHash(ctx context.Context, userID uint, hash string) (*model.Document, error)
	CountByStoragePath(ctx context.Context, path string) (int64, error)
	ListByUserID(ctx context.Context, userID uint) ([]model.Document, error)
	UpdateParseStatus(ctx context.Context, id uint, status model.ParseStatus, parseErr string) error
	SetParsedText(ctx context.Context, id uint, fullText, previewText string) error
	MarkEmbedded(ctx context.Context, id uint, chunkCount int) error
	DeleteByIDAndUserID(ctx context.Context, id, userID uint) (*model.Document, error)
}

type ChunkStore interface {
	ReplaceChunks(ctx context.Context, documentID uint, chunks []model.Chunk) error
}

type BlobStore interface {
	Save(ctx context.Context, name string, r io.Reader) (path string, hash string, size int64, err error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, int, error)
}

type EmbeddingCache interface {
	Get(ctx context.Context, text string) ([]float32, bool, error)
	Set(ctx context.Context, text string, vec []float32) error
}

type ParseJobPublisher interface {
	PublishParseJob(ctx context.Context, documentID uint) error
}

// ProcessResult reports what a chunking-and-embedding pass produced.
type ProcessResult struct {
	ChunksCreated int `json:"chunks_created"`
	TokensUsed    int `json:"tokens_used"`
}

type DocumentService struct {
	docs      DocumentStore
	chunks    ChunkStore
	blobs     BlobStore
	embedder  Embedder
	cache     EmbeddingCache
	publisher ParseJobPublisher
	model     string
}

func NewDocumentService(
	docs DocumentStore,
	chunks ChunkStore,
	blobs BlobStore,
	embedder Embedder,
	cache EmbeddingCache,
	publisher ParseJobPublisher,
	modelName string,
) *DocumentService {
	return &DocumentService{
		docs:      docs,
		chunks:    chunks,
		blobs:     blobs,
		embedder:  embedder,
		cache:     cache,
		publisher: publisher,
		model:     modelName,
	}
}

// Upload persists the raw file, dedupes on content hash, and submits an
// async parse job for the new document.
func (s *DocumentService) Upload(ctx context.Context, userID uint, name, mimeType string, r io.Reader) (*model.Document, error) {
	if userID == 0 || name == "" {
		return nil, fmt.Errorf("%w: user and file name are required", ErrInvalidInput)
	}

	path, hash, size, err := s.blobs.Save(ctx, name, r)
	if err != nil {
		return nil, fmt.Errorf("save uploaded file failed: %w", err)
	}

	existing, err := s.docs.GetByContentHash(ctx, userID, hash)
	if err != nil {
		s.discardBlobIfUnreferenced(ctx, path)
		return nil, err
	}
	if existing != nil {
		// The store is content-addressed: identical content lands on the
		// same path, so removing it here would strand the existing
		// document (and anyone else's document sharing the blob).
		s.discardBlobIfUnreferenced(ctx, path)
		return existing, ErrDuplicateDocument
	}

	doc := &model.Document{
		UserID:      userID,
		Name:        name,
		MimeType:    mimeType,
		Size:        size,
		StoragePath: path,
		ContentHash: hash,
		ParseStatus: model.ParseStatusPending,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.discardBlobIfUnreferenced(ctx, path)
		return nil, err
	}

	if err := s.publisher.PublishParseJob(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("submit parse job failed: %w", err)
	}
	return doc, nil
}

// ParseUploaded runs the async half of the upload pipeline: extract text,
// store it on the document, then chunk and embed. Called by the parse worker.
func (s *DocumentService) ParseUploaded(ctx context.Context, documentID uint) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.docs.UpdateParseStatus(ctx, doc.ID, model.ParseStatusProcessing, ""); err != nil {
		return err
	}

	if err := s.parseAndEmbed(ctx, doc); err != nil {
		if markErr := s.docs.UpdateParseStatus(ctx, doc.ID, model.ParseStatusFailed, err.Error()); markErr != nil {
			log.Printf("mark document %d parse failure: %v", doc.ID, markErr)
		}
		return err
	}
	return nil
}

func (s *DocumentService) parseAndEmbed(ctx context.Context, doc *model.Document) error {
	blob, err := s.blobs.Open(ctx, doc.StoragePath)
	if err != nil {
		return fmt.Errorf("open stored file failed: %w", err)
	}
	defer blob.Close()

	fullText, err := textextract.ExtractText(blob, doc.MimeType)
	if err != nil {
		return fmt.Errorf("extract text failed: %w", err)
	}
	if fullText == "" {
		return ErrNoContent
	}

	if err := s.docs.SetParsedText(ctx, doc.ID, fullText, previewOf(fullText)); err != nil {
		return err
	}

	_, err = s.ProcessDocument(ctx, doc.UserID, doc.ID)
	return err
}

// ProcessDocument re-chunks and re-embeds a parsed document from its stored
// full text. Existing chunks are replaced atomically.
func (s *DocumentService) ProcessDocument(ctx context.Context, userID, documentID uint) (*ProcessResult, error) {
	doc, err := s.docs.GetByIDAndUserID(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.FullText == "" {
		return nil, ErrNoContent
	}

	cfg := retrieval.SelectBudgetConfig(s.model, len(doc.FullText))
	pieces := retrieval.SplitText(doc.FullText, cfg.ChunkOptions())
	if len(pieces) == 0 {
		return nil, ErrNoContent
	}

	vectors, tokens, err := s.embedPieces(ctx, pieces)
	if err != nil {
		return nil, err
	}

	chunks := make([]model.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunk := model.Chunk{
			DocumentID:    doc.ID,
			ChunkIndex:    piece.Index,
			Content:       piece.Content,
			StartPosition: piece.Start,
			EndPosition:   piece.End,
		}
		chunk.SetEmbedding(vectors[i])
		chunks = append(chunks, chunk)
	}

	if err := s.chunks.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return nil, err
	}
	if err := s.docs.MarkEmbedded(ctx, doc.ID, len(chunks)); err != nil {
		return nil, err
	}

	return &ProcessResult{ChunksCreated: len(chunks), TokensUsed: tokens}, nil
}

// embedPieces resolves vectors through the cache first so re-processing an
// unchanged document does not hit the embedding provider again.
func (s *DocumentService) embedPieces(ctx context.Context, pieces []retrieval.TextChunk) ([][]float32, int, error) {
	vectors := make([][]float32, len(pieces))
	missIdx := make([]int, 0, len(pieces))
	missTexts := make([]string, 0, len(pieces))

	for i, piece := range pieces {
		if s.cache != nil {
			vec, ok, err := s.cache.Get(ctx, piece.Content)
			if err != nil {
				log.Printf("embedding cache get: %v", err)
			} else if ok {
				vectors[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, piece.Content)
	}

	tokens := 0
	if len(missTexts) > 0 {
		embedded, used, err := s.embedder.EmbedMany(ctx, missTexts)
		if err != nil {
			return nil, 0, fmt.Errorf("embed chunks failed: %w", err)
		}
		tokens = used
		for j, i := range missIdx {
			vectors[i] = embedded[j]
			if s.cache != nil {
				if err := s.cache.Set(ctx, pieces[i].Content, embedded[j]); err != nil {
					log.Printf("embedding cache set: %v", err)
				}
			}
		}
	}
	return vectors, tokens, nil
}

func (s *DocumentService) List(ctx context.Context, userID uint) ([]model.Document, error) {
	return s.docs.ListByUserID(ctx, userID)
}

func (s *DocumentService) Get(ctx context.Context, userID, documentID uint) (*model.Document, error) {
	doc, err := s.docs.GetByIDAndUserID(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, userID, documentID uint) error {
	doc, err := s.docs.DeleteByIDAndUserID(ctx, documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if doc.StoragePath != "" {
		s.discardBlobIfUnreferenced(ctx, doc.StoragePath)
	}
	return nil
}

// discardBlobIfUnreferenced removes a stored file only when no document row
// still points at it. Blobs are content-addressed, so the same file can back
// documents owned by different users.
func (s *DocumentService) discardBlobIfUnreferenced(ctx context.Context, path string) {
	refs, err := s.docs.CountByStoragePath(ctx, path)
	if err != nil {
		log.Printf("count references for stored file %s: %v", path, err)
		return
	}
	if refs > 0 {
		return
	}
	if err := s.blobs.Remove(ctx, path); err != nil {
		log.Printf("remove stored file %s: %v", path, err)
	}
}

func previewOf(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes])
}
