package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"
)

const (
	embeddingAPI      = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	batchEmbeddingAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:batchEmbedContents"
	embeddingModel    = "models/gemini-embedding-001"
	embeddingDim      = 768

	maxRetries      = 3
	initialBackoff  = time.Second
	upstreamTimeout = 30 * time.Second
)

// Embedder turns text into vectors in the chunk index's vector space
type Embedder interface {
	// EmbedQuery embeds a retrieval query
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedPassages embeds document chunks for indexing
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiEmbedder calls the Gemini embedding API over HTTP
type GeminiEmbedder struct {
	apiKey string
	client *http.Client
}

// NewGeminiEmbedder creates an embedder using GEMINI_API_KEY from the environment
func NewGeminiEmbedder() *GeminiEmbedder {
	return &GeminiEmbedder{
		apiKey: os.Getenv("GEMINI_API_KEY"),
		client: &http.Client{Timeout: upstreamTimeout},
	}
}

type embeddingRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding embeddingData `json:"embedding"`
}

type embeddingData struct {
	Values []float64 `json:"values"`
}

type batchEmbeddingRequest struct {
	Requests []embeddingRequest `json:"requests"`
}

type batchEmbeddingResponse struct {
	Embeddings []embeddingData `json:"embeddings"`
}

// EmbedQuery embeds a single retrieval query and L2-normalizes the result
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model: embeddingModel,
		Content: contentInput{
			Parts: []partInput{{Text: text}},
		},
		TaskType:             "RETRIEVAL_QUERY",
		OutputDimensionality: embeddingDim,
	}

	var resp embeddingResponse
	if err := e.post(ctx, embeddingAPI, reqBody, &resp); err != nil {
		return nil, err
	}
	return normalize(resp.Embedding.Values), nil
}

// EmbedPassages embeds a batch of document chunks for indexing
func (e *GeminiEmbedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := batchEmbeddingRequest{}
	for _, text := range texts {
		reqBody.Requests = append(reqBody.Requests, embeddingRequest{
			Model: embeddingModel,
			Content: contentInput{
				Parts: []partInput{{Text: text}},
			},
			TaskType:             "RETRIEVAL_DOCUMENT",
			OutputDimensionality: embeddingDim,
		})
	}

	var resp batchEmbeddingResponse
	if err := e.post(ctx, batchEmbeddingAPI, reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrUpstreamUnavailable, len(texts), len(resp.Embeddings))
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, item := range resp.Embeddings {
		embeddings[i] = normalize(item.Values)
	}
	return embeddings, nil
}

// post sends a request with retry and exponential backoff. Client errors
// (400/401) are not retried; everything else maps to ErrUpstreamUnavailable
// after the last attempt.
func (e *GeminiEmbedder) post(ctx context.Context, url string, body interface{}, out interface{}) error {
	if e.apiKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY not set", ErrUpstreamUnavailable)
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, ctx.Err())
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			decodeErr := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if decodeErr != nil {
				if attempt == maxRetries-1 {
					return fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, decodeErr)
				}
				continue
			}
			return nil
		}
		resp.Body.Close()

		// 400/401 will not improve on retry
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: embedding API returned %d", ErrUpstreamUnavailable, resp.StatusCode)
		}
		if attempt == maxRetries-1 {
			return fmt.Errorf("%w: embedding API returned %d after %d attempts", ErrUpstreamUnavailable, resp.StatusCode, maxRetries)
		}
	}

	return ErrUpstreamUnavailable
}

// normalize L2-normalizes and narrows to float32 for pgvector storage
func normalize(values []float64) []float32 {
	norm := 0.0
	for _, v := range values {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(values))
	for i, v := range values {
		if norm > 0 {
			v /= norm
		}
		out[i] = float32(v)
	}
	return out
}
