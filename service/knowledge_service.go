package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"rarebridge-backend/models"
	"rarebridge-backend/repository"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
	maxPopular     = 20
	indexTimeout   = 2 * time.Minute
)

// DocumentStore is the persistence surface the knowledge service needs
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	Search(ctx context.Context, q string, category *string, limit, offset int) ([]*models.Document, error)
	CountSearch(ctx context.Context, q string, category *string) (int, error)
	ListPending(ctx context.Context) ([]*models.Document, error)
	ListPopular(ctx context.Context, limit int) ([]*models.Document, error)
	ListCategories(ctx context.Context) ([]string, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	ModeratePending(ctx context.Context, id uuid.UUID, action models.ModerationAction, actorID uuid.UUID) (*models.Document, error)
}

// AuditStore records moderation decisions
type AuditStore interface {
	Record(ctx context.Context, event *models.ModerationEvent) error
}

// ChunkStore is the persistence surface for the embedding index
type ChunkStore interface {
	InsertBatch(ctx context.Context, chunks []*models.DocumentChunk) error
	SearchUploaded(ctx context.Context, documentID uuid.UUID, embedding []float32, limit int) ([]*models.DocumentChunk, error)
	SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*models.DocumentChunk, error)
	CountByDocument(ctx context.Context, documentID uuid.UUID, kind models.ChunkKind) (int, error)
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
}

// KnowledgeService handles document submission, search and moderation
type KnowledgeService struct {
	docs     DocumentStore
	audit    AuditStore
	chunks   ChunkStore
	embedder Embedder
}

// KnowledgeServiceOption is a functional option for KnowledgeService
type KnowledgeServiceOption func(*KnowledgeService)

// WithDocumentStore sets the document store
func WithDocumentStore(store DocumentStore) KnowledgeServiceOption {
	return func(s *KnowledgeService) {
		s.docs = store
	}
}

// WithAuditStore sets the moderation audit store
func WithAuditStore(store AuditStore) KnowledgeServiceOption {
	return func(s *KnowledgeService) {
		s.audit = store
	}
}

// WithChunkStore sets the chunk store used for post-approval indexing
func WithChunkStore(store ChunkStore) KnowledgeServiceOption {
	return func(s *KnowledgeService) {
		s.chunks = store
	}
}

// WithEmbedder sets the embedding provider used for post-approval indexing
func WithEmbedder(embedder Embedder) KnowledgeServiceOption {
	return func(s *KnowledgeService) {
		s.embedder = embedder
	}
}

// NewKnowledgeService creates a new knowledge service
func NewKnowledgeService(opts ...KnowledgeServiceOption) *KnowledgeService {
	s := &KnowledgeService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRequest represents a document submission
type SubmitRequest struct {
	Title       string
	Content     *string
	DocumentURL *string
	AuthorEmail string
	AuthorName  *string
	Category    *string
	Tags        []string
}

// Submit creates a new document in pending status. Nothing is embedded
// synchronously; indexing happens after approval.
func (s *KnowledgeService) Submit(ctx context.Context, req SubmitRequest) (*models.Document, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(req.AuthorEmail) == "" {
		return nil, fmt.Errorf("%w: author_email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.AuthorEmail); err != nil {
		return nil, fmt.Errorf("%w: author_email is malformed", ErrValidation)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	doc := &models.Document{
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		DocumentURL: req.DocumentURL,
		AuthorEmail: req.AuthorEmail,
		AuthorName:  req.AuthorName,
		Category:    req.Category,
		Tags:        tags,
		Status:      models.StatusPending,
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

// Search returns one page of approved documents. Page numbers are 1-indexed;
// per_page is clamped to [1,100]; a page past the end yields an empty item
// list without error.
func (s *KnowledgeService) Search(ctx context.Context, q string, page, perPage int, category *string) (*models.SearchPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	q = strings.TrimSpace(q)

	total, err := s.docs.CountSearch(ctx, q, category)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	items := []*models.Document{}
	if total > 0 {
		offset := (page - 1) * perPage
		if offset < total {
			items, err = s.docs.Search(ctx, q, category, perPage, offset)
			if err != nil {
				return nil, fmt.Errorf("failed to search documents: %w", err)
			}
		}
	}

	return &models.SearchPage{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Get fetches a single document if the identity is permitted to see it.
// Each permitted fetch bumps the view counter; the increment is best-effort
// and never fails the read.
func (s *KnowledgeService) Get(ctx context.Context, id uuid.UUID, identity *models.Identity) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if !doc.VisibleTo(identity) {
		// Hide the existence of non-approved documents from other callers
		return nil, ErrNotFound
	}

	if err := s.docs.IncrementViewCount(ctx, id); err != nil {
		zap.S().Warnw("failed to increment view count", "document_id", id, "error", err)
	} else {
		doc.ViewCount++
	}
	return doc, nil
}

// ListPending returns the moderation queue. Admin only.
func (s *KnowledgeService) ListPending(ctx context.Context, identity *models.Identity) ([]*models.Document, error) {
	if !identity.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.docs.ListPending(ctx)
}

// ListPopular returns the most viewed approved documents
func (s *KnowledgeService) ListPopular(ctx context.Context, limit int) ([]*models.Document, error) {
	if limit < 1 {
		limit = 5
	}
	if limit > maxPopular {
		limit = maxPopular
	}
	return s.docs.ListPopular(ctx, limit)
}

// ListCategories returns the distinct categories of approved documents
func (s *KnowledgeService) ListCategories(ctx context.Context) ([]string, error) {
	return s.docs.ListCategories(ctx)
}

// Moderate applies an approve/reject decision to a pending document.
// Transitions out of approved or rejected are refused with ErrInvalidState;
// re-submission means creating a new document. The underlying update is
// conditional on status, so concurrent decisions cannot both win.
func (s *KnowledgeService) Moderate(ctx context.Context, id uuid.UUID, action models.ModerationAction, reason *string, identity *models.Identity) (*models.Document, error) {
	if !identity.IsAdmin() {
		return nil, ErrForbidden
	}
	if !action.Valid() {
		return nil, fmt.Errorf("%w: action must be approved or rejected", ErrValidation)
	}

	doc, err := s.docs.ModeratePending(ctx, id, action, identity.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrNotPending):
			return nil, ErrInvalidState
		default:
			return nil, fmt.Errorf("failed to moderate document: %w", err)
		}
	}

	if err := s.audit.Record(ctx, &models.ModerationEvent{
		DocumentID: doc.ID,
		ActorID:    identity.ID,
		Action:     action,
		Reason:     reason,
	}); err != nil {
		zap.S().Errorw("failed to record moderation event", "document_id", doc.ID, "action", action, "error", err)
	}

	// Approval makes the document eligible for the knowledge chunk index;
	// indexing runs detached from the request.
	if action == models.ActionApprove && s.chunks != nil && s.embedder != nil {
		go func(doc *models.Document) {
			ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
			defer cancel()
			if err := s.IndexDocument(ctx, doc); err != nil {
				zap.S().Errorw("failed to index approved document", "document_id", doc.ID, "error", err)
			}
		}(doc)
	}

	return doc, nil
}

// IndexDocument chunks and embeds a document's text content into the
// knowledge chunk index. Documents without inline content (URL-only
// submissions) are skipped.
func (s *KnowledgeService) IndexDocument(ctx context.Context, doc *models.Document) error {
	if doc.Content == nil || strings.TrimSpace(*doc.Content) == "" {
		zap.S().Infow("skipping index of document without inline content", "document_id", doc.ID)
		return nil
	}

	existing, err := s.chunks.CountByDocument(ctx, doc.ID, models.ChunkKindKnowledge)
	if err != nil {
		return fmt.Errorf("failed to check existing chunks: %w", err)
	}
	if existing > 0 {
		return nil
	}

	pieces := chunkPages([]pageText{{text: *doc.Content, page: 1}})
	if len(pieces) == 0 {
		return nil
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.text
	}

	embeddings, err := s.embedder.EmbedPassages(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed document chunks: %w", err)
	}

	chunks := make([]*models.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &models.DocumentChunk{
			DocumentID: doc.ID,
			Kind:       models.ChunkKindKnowledge,
			ChunkIndex: i,
			PageNumber: piece.page,
			Content:    piece.text,
			Embedding:  pgvector.NewVector(embeddings[i]),
		}
	}

	if err := s.chunks.InsertBatch(ctx, chunks); err != nil {
		return fmt.Errorf("failed to store document chunks: %w", err)
	}

	zap.S().Infow("indexed document", "document_id", doc.ID, "chunks", len(chunks))
	return nil
}
