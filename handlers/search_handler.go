package handlers

import (
	"net/http"

	"rarebridge-backend/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles HTTP requests for live web search
type SearchHandler struct {
	webSearchService *service.WebSearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(webSearchService *service.WebSearchService) *SearchHandler {
	return &SearchHandler{webSearchService: webSearchService}
}

// WebSearchRequest represents the request body for a web search
type WebSearchRequest struct {
	Query string `json:"query"`
}

// Search handles POST /api/search/web
func (h *SearchHandler) Search(c *gin.Context) {
	var req WebSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.webSearchService.Search(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, result)
}
