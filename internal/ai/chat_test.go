package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"the answer"}}]}`)
	}))
	defer srv.Close()

	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}
	out, err := NewChatClient().Complete(context.Background(), cfg, []ChatMessage{
		{Role: "system", Content: "ctx"},
		{Role: "user", Content: "q"},
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	var chunks []string
	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}
	full, err := NewChatClient().Stream(context.Background(), cfg, []ChatMessage{{Role: "user", Content: "q"}},
		func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "hello", full)
	assert.Equal(t, []string{"hel", "lo"}, chunks)
}

func TestChatStreamCallbackErrorAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}
	_, err := NewChatClient().Stream(context.Background(), cfg, nil, func(string) error {
		return fmt.Errorf("client went away")
	})
	assert.ErrorContains(t, err, "client went away")
}

func TestChatCompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}
	_, err := NewChatClient().Complete(context.Background(), cfg, nil)
	assert.Error(t, err)
}
