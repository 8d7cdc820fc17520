package handlers

import (
	"io"
	"net/http"

	"rarebridge-backend/models"
	"rarebridge-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocsHandler handles HTTP requests for uploaded documents
type DocsHandler struct {
	ingestService *service.IngestService
	chatService   *service.ChatService
}

// NewDocsHandler creates a new docs handler
func NewDocsHandler(ingestService *service.IngestService, chatService *service.ChatService) *DocsHandler {
	return &DocsHandler{
		ingestService: ingestService,
		chatService:   chatService,
	}
}

// Upload handles POST /api/docs/upload
func (h *DocsHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "A file form field is required")
		return
	}

	if fileHeader.Size > service.MaxUploadSize {
		respondError(c, service.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "Could not read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxUploadSize+1))
	if err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "Could not read uploaded file")
		return
	}

	upload, err := h.ingestService.UploadDocument(
		c.Request.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"id":          upload.ID,
		"title":       upload.Title,
		"total_pages": upload.TotalPages,
		"chunk_count": upload.ChunkCount,
	})
}

// Chat handles POST /api/docs/chat/:id
func (h *DocsHandler) Chat(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "INVALID_ID", "Invalid document ID format")
		return
	}

	var req struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	msg, err := h.chatService.AskUploadedDocument(c.Request.Context(), id, req.Messages)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, msg)
}
