/**
 * Embedding client.
 *
 * Generates 1024-dimensional text embeddings through an external HTTP API so
 * recognized documents can be indexed for semantic search. Optional; the
 * pipeline skips indexing when no endpoint is configured.
 */

package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// embeddingDimensions must match the vector collection configuration.
const embeddingDimensions = 1024

// maxEmbeddingChars bounds the request body; the API enforces token limits.
const maxEmbeddingChars = 16000

// EmbeddingClient generates text embeddings via an HTTP API.
type EmbeddingClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// NewEmbeddingClient creates a new embedding client
func NewEmbeddingClient(baseURL, apiKey string) (*EmbeddingClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("embedding API URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}

	return &EmbeddingClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   "voyage-3",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GenerateEmbedding generates an embedding for the given text.
func (e *EmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	text = truncateToRuneBoundary(text, maxEmbeddingChars)

	reqBody := embeddingRequest{
		Input: text,
		Model: e.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.apiKey))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("no embedding data in response")
	}

	embedding := parsed.Data[0].Embedding
	if len(embedding) != embeddingDimensions {
		return nil, fmt.Errorf("unexpected embedding dimensions: got %d, expected %d",
			len(embedding), embeddingDimensions)
	}

	return embedding, nil
}

// truncateToRuneBoundary caps text at max bytes without splitting a UTF-8
// sequence, backing up to the start of the rune spanning the cut.
func truncateToRuneBoundary(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
