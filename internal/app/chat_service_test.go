package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/ai"
	"docassist/internal/model"
	"docassist/internal/retrieval"
)

type fakeDocReader struct {
	doc *model.Document
	err error
}

func (f *fakeDocReader) GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Document, error) {
	return f.doc, f.err
}

type fakeSearcher struct {
	results []retrieval.SearchResult
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, opts retrieval.SearchOptions) ([]retrieval.SearchResult, error) {
	return f.results, f.err
}

type fakeCompleter struct {
	systemPrompt string
	chunks       []string
}

func (f *fakeCompleter) Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error) {
	f.systemPrompt = messages[0].Content
	return strings.Join(f.chunks, ""), nil
}

func (f *fakeCompleter) Stream(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, onChunk func(chunk string) error) (string, error) {
	f.systemPrompt = messages[0].Content
	var full strings.Builder
	for _, chunk := range f.chunks {
		if err := onChunk(chunk); err != nil {
			return "", err
		}
		full.WriteString(chunk)
	}
	return full.String(), nil
}

func newTestChatService(doc *model.Document, results []retrieval.SearchResult, llm *fakeCompleter) *ChatService {
	return NewChatService(
		&fakeDocReader{doc: doc},
		&fakeSearcher{results: results},
		llm,
		ai.ChatConfig{Model: "gpt-4"},
	)
}

func TestBuildDocumentContextUsesFullText(t *testing.T) {
	doc := &model.Document{ID: 10, UserID: 1, FullText: "Short full text about invoices.", PreviewText: "preview"}
	svc := newTestChatService(doc, nil, &fakeCompleter{})

	got, err := svc.BuildDocumentContext(context.Background(), 1, 10, "what is this about?")
	require.NoError(t, err)
	assert.Equal(t, doc.FullText, got)
}

func TestBuildDocumentContextFallsBackToPreview(t *testing.T) {
	// Full text far exceeds the gpt-4 budget; the stored preview does not.
	doc := &model.Document{
		ID:          10,
		UserID:      1,
		FullText:    strings.Repeat("word ", 6000),
		PreviewText: "A short preview of the document.",
	}
	svc := newTestChatService(doc, nil, &fakeCompleter{})

	got, err := svc.BuildDocumentContext(context.Background(), 1, 10, "what is this about?")
	require.NoError(t, err)
	assert.Equal(t, doc.PreviewText, got)
}

func TestBuildDocumentContextFallsBackToRetrieval(t *testing.T) {
	doc := &model.Document{ID: 10, UserID: 1}
	results := []retrieval.SearchResult{
		{ChunkID: 1, DocumentID: 10, DocumentName: "report.pdf", ChunkIndex: 0, Content: "The invoice total was 4200 euro.", Score: 0.9},
	}
	svc := newTestChatService(doc, results, &fakeCompleter{})

	got, err := svc.BuildDocumentContext(context.Background(), 1, 10, "invoice total?")
	require.NoError(t, err)
	assert.Contains(t, got, "report.pdf")
	assert.Contains(t, got, "The invoice total was 4200 euro.")
}

func TestBuildDocumentContextEmptyMarker(t *testing.T) {
	doc := &model.Document{ID: 10, UserID: 1}
	svc := newTestChatService(doc, nil, &fakeCompleter{})

	got, err := svc.BuildDocumentContext(context.Background(), 1, 10, "anything?")
	require.NoError(t, err)
	assert.Equal(t, emptyContextMarker, got)
}

func TestBuildDocumentContextUnknownDocument(t *testing.T) {
	svc := newTestChatService(nil, nil, &fakeCompleter{})

	_, err := svc.BuildDocumentContext(context.Background(), 1, 99, "anything?")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestAskStreamsAnswer(t *testing.T) {
	doc := &model.Document{ID: 10, UserID: 1, FullText: "Facts about invoices."}
	llm := &fakeCompleter{chunks: []string{"hel", "lo"}}
	svc := newTestChatService(doc, nil, llm)

	var streamed []string
	full, err := svc.Ask(context.Background(), AskRequest{UserID: 1, DocumentID: 10, Question: "hi?"}, func(chunk string) error {
		streamed = append(streamed, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", full)
	assert.Equal(t, []string{"hel", "lo"}, streamed)
	assert.Equal(t, doc.FullText, llm.systemPrompt)
}

func TestAskWithoutDocumentSearchesAllUserDocs(t *testing.T) {
	results := []retrieval.SearchResult{
		{ChunkID: 1, DocumentID: 10, DocumentName: "report.pdf", Content: "Some grounding content.", Score: 0.8},
	}
	llm := &fakeCompleter{chunks: []string{"ok"}}
	svc := newTestChatService(nil, results, llm)

	_, err := svc.Ask(context.Background(), AskRequest{UserID: 1, Question: "hi?"}, func(string) error { return nil })
	require.NoError(t, err)
	assert.Contains(t, llm.systemPrompt, "Some grounding content.")
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	svc := newTestChatService(nil, nil, &fakeCompleter{})

	_, err := svc.Ask(context.Background(), AskRequest{UserID: 1, Question: "  "}, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidInput)
}
