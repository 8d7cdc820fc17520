package handlers

import (
	"net/http"

	"rarebridge-backend/service"

	"github.com/gin-gonic/gin"
)

// RecipeHandler handles HTTP requests for recipe suggestions
type RecipeHandler struct {
	recipeService *service.RecipeService
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(recipeService *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

// SuggestRequest represents the request body for recipe suggestions
type SuggestRequest struct {
	Request string `json:"request"`
	Count   int    `json:"count"`
}

// Suggest handles POST /api/recipes/suggest
func (h *RecipeHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	recipes, err := h.recipeService.Suggest(c.Request.Context(), req.Request, req.Count)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"recipes": recipes})
}
