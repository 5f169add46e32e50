package app

import (
	"context"
	"fmt"
	"strings"

	"docassist/internal/ai"
	"docassist/internal/model"
	"docassist/internal/retrieval"
)

const emptyContextMarker = "No document content is available for this question. " +
	"Tell the user their document could not be used as context."

type DocumentReader interface {
	GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Document, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, opts retrieval.SearchOptions) ([]retrieval.SearchResult, error)
}

type Completer interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
	Stream(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, onChunk func(chunk string) error) (string, error)
}

type AskRequest struct {
	UserID     uint
	DocumentID uint // 0 means search across all of the user's documents
	Question   string
}

type ChatService struct {
	docs     DocumentReader
	searcher Searcher
	llm      Completer
	llmCfg   ai.ChatConfig
}

func NewChatService(docs DocumentReader, searcher Searcher, llm Completer, llmCfg ai.ChatConfig) *ChatService {
	return &ChatService{
		docs:     docs,
		searcher: searcher,
		llm:      llm,
		llmCfg:   llmCfg,
	}
}

// Ask answers a question grounded in the user's documents, streaming the
// completion through onChunk. It returns the full answer text.
func (s *ChatService) Ask(ctx context.Context, req AskRequest, onChunk func(chunk string) error) (string, error) {
	question := strings.TrimSpace(req.Question)
	if req.UserID == 0 || question == "" {
		return "", fmt.Errorf("%w: user and question are required", ErrInvalidInput)
	}

	docContext, err := s.BuildDocumentContext(ctx, req.UserID, req.DocumentID, question)
	if err != nil {
		return "", err
	}

	messages := []ai.ChatMessage{
		{Role: "system", Content: docContext},
		{Role: "user", Content: question},
	}
	return s.llm.Stream(ctx, s.llmCfg, messages, onChunk)
}

// BuildDocumentContext resolves the grounding text for a question. With a
// document ID it tries the full text first, then the stored preview, then
// retrieval over that document's chunks. Without one it goes straight to
// retrieval across all of the user's documents. When nothing fits or nothing
// matches, the returned context says so explicitly instead of being empty.
func (s *ChatService) BuildDocumentContext(ctx context.Context, userID, documentID uint, question string) (string, error) {
	if documentID == 0 {
		return s.retrievalContext(ctx, userID, nil, question, retrieval.SelectBudgetConfig(s.llmCfg.Model, 0))
	}

	doc, err := s.docs.GetByIDAndUserID(ctx, documentID, userID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", ErrDocumentNotFound
	}

	cfg := retrieval.SelectBudgetConfig(s.llmCfg.Model, len(doc.FullText))

	if doc.FullText != "" {
		full := retrieval.BuildFullContext(doc.FullText)
		if retrieval.EstimateTokens(full) <= cfg.Available() {
			return full, nil
		}
	}
	if doc.PreviewText != "" {
		preview := retrieval.BuildFullContext(doc.PreviewText)
		if retrieval.EstimateTokens(preview) <= cfg.Available() {
			return preview, nil
		}
	}
	return s.retrievalContext(ctx, userID, []uint{doc.ID}, question, cfg)
}

func (s *ChatService) retrievalContext(
	ctx context.Context,
	userID uint,
	documentIDs []uint,
	question string,
	cfg retrieval.BudgetConfig,
) (string, error) {
	results, err := s.searcher.Search(ctx, question, retrieval.SearchOptions{
		UserID:      userID,
		DocumentIDs: documentIDs,
		Limit:       cfg.MaxChunks,
	})
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return emptyContextMarker, nil
	}
	return retrieval.BuildChunkContext(results, cfg), nil
}
