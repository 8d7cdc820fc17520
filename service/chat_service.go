package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rarebridge-backend/models"
	"rarebridge-backend/repository"

	"github.com/google/uuid"
)

const (
	// confidenceThreshold is the minimum best-match similarity for a
	// knowledge-base answer. Below it the service returns an empty reply
	// carrying the measured score; escalating to the general model is the
	// caller's decision, never this service's.
	confidenceThreshold = 0.7

	// topKChunks is how many nearest chunks ground an answer
	topKChunks = 5
)

// UploadStore is the persistence surface for uploaded documents
type UploadStore interface {
	Create(ctx context.Context, upload *models.UploadedDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UploadedDocument, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChatService answers questions against the knowledge base, against a single
// uploaded document, or with an unscoped general completion.
type ChatService struct {
	chunks    ChunkStore
	uploads   UploadStore
	embedder  Embedder
	completer Completer
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// ChatWithChunkStore sets the chunk store
func ChatWithChunkStore(store ChunkStore) ChatServiceOption {
	return func(s *ChatService) {
		s.chunks = store
	}
}

// ChatWithUploadStore sets the upload store
func ChatWithUploadStore(store UploadStore) ChatServiceOption {
	return func(s *ChatService) {
		s.uploads = store
	}
}

// ChatWithEmbedder sets the embedding provider
func ChatWithEmbedder(embedder Embedder) ChatServiceOption {
	return func(s *ChatService) {
		s.embedder = embedder
	}
}

// ChatWithCompleter sets the completion provider
func ChatWithCompleter(completer Completer) ChatServiceOption {
	return func(s *ChatService) {
		s.completer = completer
	}
}

// NewChatService creates a new chat service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AskKnowledgeBase answers the latest user turn from the approved knowledge
// base. A best similarity at or above the confidence threshold yields a
// grounded answer with citations; below it the reply has empty content and
// the measured score so the caller can decide whether to fall back.
func (s *ChatService) AskKnowledgeBase(ctx context.Context, messages []models.ChatMessage) (*models.ChatMessage, error) {
	question, err := latestUserTurn(messages)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunks.SearchKnowledge(ctx, embedding, topKChunks)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNotReady
	}

	best := clampScore(chunks[0].Similarity)
	if best < confidenceThreshold {
		return &models.ChatMessage{
			Role:            "assistant",
			Content:         "",
			Source:          models.SourceKnowledgeBase,
			SimilarityScore: &best,
		}, nil
	}

	answer, err := s.completer.Generate(ctx, groundedPrompt(question, chunks))
	if err != nil {
		return nil, err
	}

	return &models.ChatMessage{
		Role:            "assistant",
		Content:         answer,
		Source:          models.SourceKnowledgeBase,
		SimilarityScore: &best,
		Citations:       citationsFrom(chunks),
	}, nil
}

// AskUploadedDocument answers the latest user turn from one uploaded
// document's chunks only. There is no fallback branch: a document with no
// indexed chunks fails with ErrNotReady.
func (s *ChatService) AskUploadedDocument(ctx context.Context, uploadID uuid.UUID, messages []models.ChatMessage) (*models.ChatMessage, error) {
	question, err := latestUserTurn(messages)
	if err != nil {
		return nil, err
	}

	upload, err := s.uploads.GetByID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load uploaded document: %w", err)
	}

	embedding, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunks.SearchUploaded(ctx, upload.ID, embedding, topKChunks)
	if err != nil {
		return nil, fmt.Errorf("failed to search document chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNotReady
	}

	answer, err := s.completer.Generate(ctx, groundedPrompt(question, chunks))
	if err != nil {
		return nil, err
	}

	best := clampScore(chunks[0].Similarity)
	return &models.ChatMessage{
		Role:            "assistant",
		Content:         answer,
		Source:          models.SourceUploadedDocument,
		SimilarityScore: &best,
		Citations:       citationsFrom(chunks),
	}, nil
}

// GeneralResponse sends the full transcript to an unscoped completion with
// no retrieval grounding and no citations.
func (s *ChatService) GeneralResponse(ctx context.Context, messages []models.ChatMessage) (*models.ChatMessage, error) {
	if _, err := latestUserTurn(messages); err != nil {
		return nil, err
	}

	answer, err := s.completer.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	return &models.ChatMessage{
		Role:    "assistant",
		Content: answer,
		Source:  models.SourceGeneral,
	}, nil
}

// clampScore floors cosine similarity at zero; a fully dissimilar match is
// reported as 0, not a negative score.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	return score
}

func latestUserTurn(messages []models.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: messages are required", ErrValidation)
	}
	last := messages[len(messages)-1]
	if last.Role != "user" || strings.TrimSpace(last.Content) == "" {
		return "", fmt.Errorf("%w: transcript must end with a non-empty user turn", ErrValidation)
	}
	return strings.TrimSpace(last.Content), nil
}

func groundedPrompt(question string, chunks []*models.DocumentChunk) string {
	var builder strings.Builder

	builder.WriteString("You are a careful assistant answering questions for families dealing with rare diseases.\n\n")
	builder.WriteString("CONTEXT (excerpts from the document collection):\n\n")
	for _, chunk := range chunks {
		builder.WriteString(fmt.Sprintf("[%s, page %d]\n%s\n\n", chunk.SourceTitle, chunk.PageNumber, chunk.Content))
	}
	builder.WriteString("QUESTION:\n")
	builder.WriteString(question)
	builder.WriteString("\n\nAnswer using only the context above. If the context does not contain the answer, say so plainly. Do not invent facts, dosages, or medical advice beyond the excerpts. Keep the answer concise and in plain language.")

	return builder.String()
}

// citationsFrom dedupes chunk provenance into citation records, keeping the
// first (most similar) page seen per source document.
func citationsFrom(chunks []*models.DocumentChunk) []models.Citation {
	seen := make(map[uuid.UUID]bool)
	var citations []models.Citation
	for _, chunk := range chunks {
		if seen[chunk.DocumentID] {
			continue
		}
		seen[chunk.DocumentID] = true
		page := chunk.PageNumber
		citations = append(citations, models.Citation{
			Title:  chunk.SourceTitle,
			Author: chunk.SourceName,
			Page:   &page,
		})
	}
	return citations
}
