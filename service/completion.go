package service

import (
	"context"
	"fmt"
	"strings"

	"rarebridge-backend/models"

	"github.com/google/generative-ai-go/genai"
)

const generationModel = "gemini-3-pro-preview"

// Completer produces model completions, grounded or not
type Completer interface {
	// Generate answers a single prompt
	Generate(ctx context.Context, prompt string) (string, error)
	// Chat continues a user/assistant transcript; the last message must be
	// a user turn
	Chat(ctx context.Context, history []models.ChatMessage) (string, error)
}

// GeminiCompleter wraps the Gemini SDK client
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a completer backed by the given client
func NewGeminiCompleter(client *genai.Client) *GeminiCompleter {
	return &GeminiCompleter{client: client, model: generationModel}
}

// Generate runs a single-prompt completion with a bounded timeout
func (c *GeminiCompleter) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return extractText(resp)
}

// Chat continues a transcript. History turns are replayed into the session;
// the trailing user turn becomes the request.
func (c *GeminiCompleter) Chat(ctx context.Context, history []models.ChatMessage) (string, error) {
	if len(history) == 0 || history[len(history)-1].Role != "user" {
		return "", fmt.Errorf("%w: transcript must end with a user turn", ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.4)

	session := model.StartChat()
	for _, msg := range history[:len(history)-1] {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(history[len(history)-1].Content))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return extractText(resp)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty completion", ErrUpstreamUnavailable)
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	content := strings.TrimSpace(builder.String())
	if content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUpstreamUnavailable)
	}
	return content, nil
}
