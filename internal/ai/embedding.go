package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// embeddingBatchSize keeps each request comfortably under the embedding
	// model's context ceiling.
	embeddingBatchSize = 5
	// embeddingBatchInterval paces sequential batches; the provider
	// rate-limits aggressively, so this delay is deliberate backpressure.
	embeddingBatchInterval = 200 * time.Millisecond
	// maxEmbeddingChars is the deterministic truncation ceiling applied when
	// a single input still exceeds the model's context limit.
	maxEmbeddingChars = 6000

	defaultEmbeddingDim = 1536
)

// EmbeddingConfig holds API settings for text embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
}

// EmbeddingClient turns text into fixed-length vectors. Batches are processed
// sequentially with a short delay between them; context-length failures
// degrade per item (lossy truncation, single retry) while any other failure
// propagates to the caller.
type EmbeddingClient struct {
	cfg        EmbeddingConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewEmbeddingClient(cfg EmbeddingConfig) *EmbeddingClient {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaultEmbeddingDim
	}
	return &EmbeddingClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(embeddingBatchInterval), 1),
	}
}

// apiError carries the provider's structured error body.
type apiError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("embedding api status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func isContextLengthError(err error) bool {
	var ae *apiError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Code == "context_length_exceeded" ||
		strings.Contains(ae.Message, "maximum context length") ||
		strings.Contains(ae.Message, "input is too long")
}

// EmbedOne returns the embedding for a single text plus the token usage the
// provider reported. If the text exceeds the model's context limit it is
// truncated to maxEmbeddingChars and retried exactly once.
func (c *EmbeddingClient) EmbedOne(ctx context.Context, text string) ([]float32, int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, 0, fmt.Errorf("embedding input is empty")
	}

	vecs, tokens, err := c.request(ctx, text)
	if err != nil {
		if !isContextLengthError(err) {
			return nil, 0, err
		}
		vecs, tokens, err = c.request(ctx, truncateText(text, maxEmbeddingChars))
		if err != nil {
			return nil, 0, fmt.Errorf("embedding retry after truncation failed: %w", err)
		}
	}
	if len(vecs) != 1 {
		return nil, 0, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	return vecs[0], tokens, nil
}

// EmbedMany embeds texts in sequential batches of embeddingBatchSize. A batch
// that fails on context length falls back to one-at-a-time processing
// (EmbedOne's truncation path); other failures are fatal for the whole call.
func (c *EmbeddingClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, int, error) {
	if len(texts) == 0 {
		return nil, 0, nil
	}

	out := make([][]float32, 0, len(texts))
	totalTokens := 0

	for start := 0; start < len(texts); start += embeddingBatchSize {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("embedding batch pacing interrupted: %w", err)
		}

		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, tokens, err := c.request(ctx, batch)
		if err != nil {
			if !isContextLengthError(err) {
				return nil, 0, err
			}
			// One of the inputs blew the context limit; retry the batch one
			// text at a time so only the offender gets truncated.
			for _, t := range batch {
				vec, tk, ierr := c.EmbedOne(ctx, t)
				if ierr != nil {
					return nil, 0, ierr
				}
				out = append(out, vec)
				totalTokens += tk
			}
			continue
		}
		if len(vecs) != len(batch) {
			return nil, 0, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(batch), len(vecs))
		}
		out = append(out, vecs...)
		totalTokens += tokens
	}
	return out, totalTokens, nil
}

// request posts one embeddings call. input is a string or []string.
func (c *EmbeddingClient) request(ctx context.Context, input interface{}) ([][]float32, int, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model": c.cfg.Model,
		"input": input,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal embedding request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build embedding request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read embedding response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, 0, parseAPIError(resp.StatusCode, raw)
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, 0, fmt.Errorf("parse embedding json failed: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, 0, fmt.Errorf("empty embedding response")
	}

	vecs := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		vec := parsed.Data[i].Embedding
		if len(vec) != c.cfg.Dimensions {
			return nil, 0, fmt.Errorf("embedding dimension mismatch: want %d, got %d", c.cfg.Dimensions, len(vec))
		}
		vecs[i] = vec
	}
	return vecs, parsed.Usage.TotalTokens, nil
}

func parseAPIError(status int, raw []byte) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Message == "" {
		return &apiError{StatusCode: status, Message: string(raw)}
	}
	return &apiError{StatusCode: status, Code: body.Error.Code, Message: body.Error.Message}
}

func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
