package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

const (
	perplexityAPI   = "https://api.perplexity.ai/chat/completions"
	perplexityModel = "sonar"
)

// WebSearchResult is a synthesized answer with the pages it drew from
type WebSearchResult struct {
	Summary string   `json:"summary"`
	Sources []string `json:"sources"`
}

// WebSearchService answers questions from the live web via Perplexity
type WebSearchService struct {
	apiKey string
	client *http.Client
}

// NewWebSearchService creates a web search service using PERPLEXITY_API_KEY
// from the environment
func NewWebSearchService() *WebSearchService {
	return &WebSearchService{
		apiKey: os.Getenv("PERPLEXITY_API_KEY"),
		client: &http.Client{Timeout: upstreamTimeout},
	}
}

type perplexityRequest struct {
	Model    string              `json:"model"`
	Messages []perplexityMessage `json:"messages"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityResponse struct {
	Choices []struct {
		Message perplexityMessage `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Search asks Perplexity to research the query and returns its answer with
// source URLs
func (s *WebSearchService) Search(ctx context.Context, query string) (*WebSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: PERPLEXITY_API_KEY not set", ErrUpstreamUnavailable)
	}

	reqBody := perplexityRequest{
		Model: perplexityModel,
		Messages: []perplexityMessage{
			{Role: "system", Content: "Give a concise, well-sourced answer. Cite your sources."},
			{Role: "user", Content: query},
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", perplexityAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search API returned %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: search API returned no answer", ErrUpstreamUnavailable)
	}

	return &WebSearchResult{
		Summary: parsed.Choices[0].Message.Content,
		Sources: parsed.Citations,
	}, nil
}
