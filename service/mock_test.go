package service

import (
	"context"
	"fmt"

	"rarebridge-backend/models"
	"rarebridge-backend/repository"

	"github.com/google/uuid"
)

// fakeDocumentStore is an in-memory DocumentStore
type fakeDocumentStore struct {
	docs map[uuid.UUID]*models.Document

	createErr    error
	incrementErr error
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: make(map[uuid.UUID]*models.Document)}
}

func (f *fakeDocumentStore) Create(ctx context.Context, doc *models.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	doc.ID = uuid.New()
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocumentStore) Search(ctx context.Context, q string, category *string, limit, offset int) ([]*models.Document, error) {
	approved := f.approved()
	if offset >= len(approved) {
		return []*models.Document{}, nil
	}
	end := offset + limit
	if end > len(approved) {
		end = len(approved)
	}
	return approved[offset:end], nil
}

func (f *fakeDocumentStore) CountSearch(ctx context.Context, q string, category *string) (int, error) {
	return len(f.approved()), nil
}

func (f *fakeDocumentStore) ListPending(ctx context.Context) ([]*models.Document, error) {
	var pending []*models.Document
	for _, doc := range f.docs {
		if doc.Status == models.StatusPending {
			pending = append(pending, doc)
		}
	}
	return pending, nil
}

func (f *fakeDocumentStore) ListPopular(ctx context.Context, limit int) ([]*models.Document, error) {
	approved := f.approved()
	if limit < len(approved) {
		approved = approved[:limit]
	}
	return approved, nil
}

func (f *fakeDocumentStore) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	for _, doc := range f.approved() {
		if doc.Category != nil {
			categories = append(categories, *doc.Category)
		}
	}
	return categories, nil
}

func (f *fakeDocumentStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	if doc, ok := f.docs[id]; ok {
		doc.ViewCount++
	}
	return nil
}

func (f *fakeDocumentStore) ModeratePending(ctx context.Context, id uuid.UUID, action models.ModerationAction, actorID uuid.UUID) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if doc.Status != models.StatusPending {
		return nil, repository.ErrNotPending
	}
	doc.Status = models.DocumentStatus(action)
	copied := *doc
	return &copied, nil
}

func (f *fakeDocumentStore) approved() []*models.Document {
	var approved []*models.Document
	for _, doc := range f.docs {
		if doc.Status == models.StatusApproved {
			approved = append(approved, doc)
		}
	}
	return approved
}

// fakeAuditStore records moderation events in memory
type fakeAuditStore struct {
	events []*models.ModerationEvent
	err    error
}

func (f *fakeAuditStore) Record(ctx context.Context, event *models.ModerationEvent) error {
	if f.err != nil {
		return f.err
	}
	event.ID = uuid.New()
	f.events = append(f.events, event)
	return nil
}

// fakeChunkStore is an in-memory ChunkStore returning canned search results
type fakeChunkStore struct {
	inserted  []*models.DocumentChunk
	knowledge []*models.DocumentChunk
	uploaded  []*models.DocumentChunk
	counts    map[uuid.UUID]int
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{counts: make(map[uuid.UUID]int)}
}

func (f *fakeChunkStore) InsertBatch(ctx context.Context, chunks []*models.DocumentChunk) error {
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeChunkStore) SearchUploaded(ctx context.Context, documentID uuid.UUID, embedding []float32, limit int) ([]*models.DocumentChunk, error) {
	return f.uploaded, nil
}

func (f *fakeChunkStore) SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*models.DocumentChunk, error) {
	return f.knowledge, nil
}

func (f *fakeChunkStore) CountByDocument(ctx context.Context, documentID uuid.UUID, kind models.ChunkKind) (int, error) {
	return f.counts[documentID], nil
}

func (f *fakeChunkStore) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	return nil
}

// fakeUploadStore is an in-memory UploadStore
type fakeUploadStore struct {
	uploads map[uuid.UUID]*models.UploadedDocument
	deleted []uuid.UUID
}

func newFakeUploadStore() *fakeUploadStore {
	return &fakeUploadStore{uploads: make(map[uuid.UUID]*models.UploadedDocument)}
}

func (f *fakeUploadStore) Create(ctx context.Context, upload *models.UploadedDocument) error {
	upload.ID = uuid.New()
	f.uploads[upload.ID] = upload
	return nil
}

func (f *fakeUploadStore) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadedDocument, error) {
	upload, ok := f.uploads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return upload, nil
}

func (f *fakeUploadStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	delete(f.uploads, id)
	return nil
}

// fakeEmbedder returns deterministic unit vectors
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return unitVector(), nil
}

func (f *fakeEmbedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = unitVector()
	}
	return out, nil
}

func unitVector() []float32 {
	v := make([]float32, embeddingDim)
	v[0] = 1
	return v
}

// fakeCompleter answers with a fixed string and records the prompt
type fakeCompleter struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeCompleter) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeCompleter) Chat(ctx context.Context, history []models.ChatMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// fakeUserStore is an in-memory UserStore
type fakeUserStore struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func adminIdentity() *models.Identity {
	return &models.Identity{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin}
}

func memberIdentity(email string) *models.Identity {
	return &models.Identity{ID: uuid.New(), Email: email, Role: models.RoleMember}
}

func userTurn(content string) []models.ChatMessage {
	return []models.ChatMessage{{Role: "user", Content: content}}
}

func knowledgeChunk(title string, page int, similarity float64) *models.DocumentChunk {
	return &models.DocumentChunk{
		ID:          uuid.New(),
		DocumentID:  uuid.New(),
		Kind:        models.ChunkKindKnowledge,
		PageNumber:  page,
		Content:     fmt.Sprintf("excerpt from %s", title),
		Similarity:  similarity,
		SourceTitle: title,
	}
}
