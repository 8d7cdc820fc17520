package handlers

import (
	"net/http"

	"rarebridge-backend/models"
	"rarebridge-backend/service"

	"github.com/gin-gonic/gin"
)

// ContactHandler handles HTTP requests for the contact form
type ContactHandler struct {
	contactService *service.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRequest represents the request body for a contact submission
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := h.contactService.Submit(c.Request.Context(), msg); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{"id": msg.ID})
}
