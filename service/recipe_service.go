package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rarebridge-backend/models"
)

const maxRecipes = 10

// RecipeService generates structured recipe suggestions from free-form
// dietary requests.
type RecipeService struct {
	completer Completer
}

// RecipeServiceOption is a functional option for RecipeService
type RecipeServiceOption func(*RecipeService)

// RecipeWithCompleter sets the completion provider
func RecipeWithCompleter(completer Completer) RecipeServiceOption {
	return func(s *RecipeService) {
		s.completer = completer
	}
}

// NewRecipeService creates a new recipe service
func NewRecipeService(opts ...RecipeServiceOption) *RecipeService {
	s := &RecipeService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest asks the model for recipe ideas matching the request and parses
// its JSON answer.
func (s *RecipeService) Suggest(ctx context.Context, request string, count int) ([]models.Recipe, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, fmt.Errorf("%w: request text is required", ErrValidation)
	}
	if count <= 0 {
		count = 3
	}
	if count > maxRecipes {
		count = maxRecipes
	}

	prompt := recipePrompt(request, count)
	answer, err := s.completer.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	recipes, err := parseRecipes(answer)
	if err != nil {
		return nil, fmt.Errorf("%w: model returned an unusable answer", ErrUpstreamUnavailable)
	}
	return recipes, nil
}

func recipePrompt(request string, count int) string {
	var b strings.Builder
	b.WriteString("You are a nutrition assistant for families managing restricted diets.\n")
	fmt.Fprintf(&b, "Suggest %d recipes for the following request.\n\n", count)
	b.WriteString("Request: ")
	b.WriteString(request)
	b.WriteString("\n\nAnswer with a JSON array only, no prose. Each element must have ")
	b.WriteString(`"title" (string), "description" (string), "ingredients" (array of strings), `)
	b.WriteString(`"instructions" (array of strings) and "tags" (array of strings).`)
	return b.String()
}

// parseRecipes tolerates markdown code fences around the JSON payload
func parseRecipes(answer string) ([]models.Recipe, error) {
	answer = strings.TrimSpace(answer)
	if start := strings.Index(answer, "["); start >= 0 {
		if end := strings.LastIndex(answer, "]"); end > start {
			answer = answer[start : end+1]
		}
	}

	var recipes []models.Recipe
	if err := json.Unmarshal([]byte(answer), &recipes); err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("empty recipe list")
	}
	return recipes, nil
}
