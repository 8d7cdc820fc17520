package handlers

import (
	"net/http"

	"rarebridge-backend/models"
	"rarebridge-backend/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles HTTP requests for chat
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the request body for chat endpoints
type ChatRequest struct {
	Messages []models.ChatMessage `json:"messages"`
}

// AskKnowledgeBase handles POST /api/chat/knowledge-base.
// A 409 NOT_READY answer tells the caller the knowledge base has no
// indexed content; fallback to the general endpoint is the caller's call.
func (h *ChatHandler) AskKnowledgeBase(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	msg, err := h.chatService.AskKnowledgeBase(c.Request.Context(), req.Messages)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, msg)
}

// GeneralResponse handles POST /api/chat/general-response
func (h *ChatHandler) GeneralResponse(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	msg, err := h.chatService.GeneralResponse(c.Request.Context(), req.Messages)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, msg)
}
