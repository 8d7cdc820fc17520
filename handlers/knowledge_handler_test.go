package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"rarebridge-backend/models"
	"rarebridge-backend/repository"
	"rarebridge-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubDocumentStore backs handler tests with a couple of canned documents
type stubDocumentStore struct {
	docs map[uuid.UUID]*models.Document
}

func newStubDocumentStore() *stubDocumentStore {
	return &stubDocumentStore{docs: make(map[uuid.UUID]*models.Document)}
}

func (s *stubDocumentStore) Create(ctx context.Context, doc *models.Document) error {
	doc.ID = uuid.New()
	s.docs[doc.ID] = doc
	return nil
}

func (s *stubDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

func (s *stubDocumentStore) Search(ctx context.Context, q string, category *string, limit, offset int) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range s.docs {
		if doc.Status == models.StatusApproved {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *stubDocumentStore) CountSearch(ctx context.Context, q string, category *string) (int, error) {
	n := 0
	for _, doc := range s.docs {
		if doc.Status == models.StatusApproved {
			n++
		}
	}
	return n, nil
}

func (s *stubDocumentStore) ListPending(ctx context.Context) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range s.docs {
		if doc.Status == models.StatusPending {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *stubDocumentStore) ListPopular(ctx context.Context, limit int) ([]*models.Document, error) {
	return s.Search(ctx, "", nil, limit, 0)
}

func (s *stubDocumentStore) ListCategories(ctx context.Context) ([]string, error) {
	return []string{"diet", "therapy"}, nil
}

func (s *stubDocumentStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubDocumentStore) ModeratePending(ctx context.Context, id uuid.UUID, action models.ModerationAction, actorID uuid.UUID) (*models.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if doc.Status != models.StatusPending {
		return nil, repository.ErrNotPending
	}
	doc.Status = models.DocumentStatus(action)
	return doc, nil
}

type stubAuditStore struct{}

func (stubAuditStore) Record(ctx context.Context, event *models.ModerationEvent) error {
	return nil
}

func newTestRouter(docs *stubDocumentStore) *gin.Engine {
	svc := service.NewKnowledgeService(
		service.WithDocumentStore(docs),
		service.WithAuditStore(stubAuditStore{}),
	)
	h := NewKnowledgeHandler(svc)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/knowledge/submit", h.Submit)
	api.GET("/knowledge/search", h.Search)
	api.GET("/knowledge/document/:id", h.Get)
	api.GET("/knowledge/categories", h.ListCategories)
	api.GET("/knowledge/popular", h.ListPopular)
	api.GET("/knowledge/pending", withAdmin, h.ListPending)
	api.POST("/knowledge/moderate/:id", withAdmin, h.Moderate)
	return r
}

// withAdmin injects an admin identity the way the auth middleware does
func withAdmin(c *gin.Context) {
	c.Set("identity", &models.Identity{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin})
	c.Next()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestSubmitEndpoint(t *testing.T) {
	r := newTestRouter(newStubDocumentStore())

	w, env := doJSON(t, r, "POST", "/api/knowledge/submit", gin.H{
		"title":        "Feeding tube care",
		"content":      "Steps for daily cleaning.",
		"author_email": "parent@example.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	var data struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "pending", data.Status)
	assert.NotEqual(t, uuid.Nil, data.ID)
}

func TestSubmitEndpointValidation(t *testing.T) {
	r := newTestRouter(newStubDocumentStore())

	w, env := doJSON(t, r, "POST", "/api/knowledge/submit", gin.H{
		"title": "Missing author",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestGetEndpointHidesPending(t *testing.T) {
	docs := newStubDocumentStore()
	doc := &models.Document{Title: "Hidden", AuthorEmail: "a@b.com", Status: models.StatusPending}
	require.NoError(t, docs.Create(context.Background(), doc))
	r := newTestRouter(docs)

	w, env := doJSON(t, r, "GET", "/api/knowledge/document/"+doc.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestGetEndpointBadID(t *testing.T) {
	r := newTestRouter(newStubDocumentStore())

	w, env := doJSON(t, r, "GET", "/api/knowledge/document/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)
}

func TestModerateEndpoint(t *testing.T) {
	docs := newStubDocumentStore()
	doc := &models.Document{Title: "Queued", AuthorEmail: "a@b.com", Status: models.StatusPending}
	require.NoError(t, docs.Create(context.Background(), doc))
	r := newTestRouter(docs)

	path := fmt.Sprintf("/api/knowledge/moderate/%s", doc.ID)
	w, env := doJSON(t, r, "POST", path, gin.H{"action": "approved"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	// A second decision on the same document conflicts
	w, env = doJSON(t, r, "POST", path, gin.H{"action": "rejected"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)
}

func TestModerateEndpointUnknownDocument(t *testing.T) {
	r := newTestRouter(newStubDocumentStore())

	w, env := doJSON(t, r, "POST", "/api/knowledge/moderate/"+uuid.NewString(), gin.H{"action": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestSearchEndpointDefaults(t *testing.T) {
	docs := newStubDocumentStore()
	doc := &models.Document{Title: "Visible", AuthorEmail: "a@b.com", Status: models.StatusApproved}
	require.NoError(t, docs.Create(context.Background(), doc))
	r := newTestRouter(docs)

	w, env := doJSON(t, r, "GET", "/api/knowledge/search?q=visible", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var page models.SearchPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 1, page.Total)
}

func TestCategoriesEndpoint(t *testing.T) {
	r := newTestRouter(newStubDocumentStore())

	w, env := doJSON(t, r, "GET", "/api/knowledge/categories", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, []string{"diet", "therapy"}, data.Categories)
}
