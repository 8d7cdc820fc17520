package handlers

import (
	"net/http"
	"strconv"

	"rarebridge-backend/middleware"
	"rarebridge-backend/models"
	"rarebridge-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// KnowledgeHandler handles HTTP requests for the knowledge base
type KnowledgeHandler struct {
	knowledgeService *service.KnowledgeService
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(knowledgeService *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

// SubmitDocumentRequest represents the request body for submitting a document
type SubmitDocumentRequest struct {
	Title       string   `json:"title"`
	Content     *string  `json:"content"`
	DocumentURL *string  `json:"document_url"`
	AuthorEmail string   `json:"author_email"`
	AuthorName  *string  `json:"author_name"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags"`
}

// Submit handles POST /api/knowledge/submit
func (h *KnowledgeHandler) Submit(c *gin.Context) {
	var req SubmitDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	doc, err := h.knowledgeService.Submit(c.Request.Context(), service.SubmitRequest{
		Title:       req.Title,
		Content:     req.Content,
		DocumentURL: req.DocumentURL,
		AuthorEmail: req.AuthorEmail,
		AuthorName:  req.AuthorName,
		Category:    req.Category,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"id":     doc.ID,
		"status": doc.Status,
	})
}

// Search handles GET /api/knowledge/search
func (h *KnowledgeHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	var category *string
	if v := c.Query("category"); v != "" {
		category = &v
	}

	result, err := h.knowledgeService.Search(c.Request.Context(), c.Query("q"), page, perPage, category)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, result)
}

// Get handles GET /api/knowledge/document/:id
func (h *KnowledgeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, err := h.knowledgeService.Get(c.Request.Context(), id, middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, doc)
}

// ListPending handles GET /api/knowledge/pending
func (h *KnowledgeHandler) ListPending(c *gin.Context) {
	docs, err := h.knowledgeService.ListPending(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, docs)
}

// ModerateRequest represents the request body for a moderation decision
type ModerateRequest struct {
	Action string  `json:"action"`
	Reason *string `json:"reason"`
}

// Moderate handles POST /api/knowledge/moderate/:id
func (h *KnowledgeHandler) Moderate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "INVALID_ID", "Invalid document ID format")
		return
	}

	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	doc, err := h.knowledgeService.Moderate(c.Request.Context(), id,
		models.ModerationAction(req.Action), req.Reason, middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"id":     doc.ID,
		"status": doc.Status,
	})
}

// ListCategories handles GET /api/knowledge/categories
func (h *KnowledgeHandler) ListCategories(c *gin.Context) {
	categories, err := h.knowledgeService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"categories": categories})
}

// ListPopular handles GET /api/knowledge/popular
func (h *KnowledgeHandler) ListPopular(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	docs, err := h.knowledgeService.ListPopular(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, docs)
}
