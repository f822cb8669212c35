package recipes

import (
	"time"

	"github.com/fdg312/mealcart/internal/quantity"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

const (
	maxTitleLength = 200
	maxNotesLength = 200
	maxLines       = 100
)

// LineInput is one ingredient line as typed by the user.
type LineInput struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Quantity     string    `json:"quantity,omitempty"`
	Unit         string    `json:"unit,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// SaveIngredientsRequest is the body of PUT /v1/recipes/{id}/ingredients.
type SaveIngredientsRequest struct {
	Title string      `json:"title"`
	Lines []LineInput `json:"lines"`
}

// LineDTO is a stored line in API responses.
type LineDTO struct {
	Position     int               `json:"position"`
	IngredientID uuid.UUID         `json:"ingredient_id"`
	Ingredient   string            `json:"ingredient"`
	Quantity     quantity.Quantity `json:"quantity"`
	Unit         string            `json:"unit,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Corrupt      bool              `json:"corrupt,omitempty"`
}

// RecipeIngredientsResponse is a recipe with its ordered lines.
type RecipeIngredientsResponse struct {
	RecipeID  uuid.UUID `json:"recipe_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Lines     []LineDTO `json:"lines"`
}

// RecipeIngredients is a recipe with its lines and the names they point at.
type RecipeIngredients struct {
	Recipe      storage.Recipe
	Lines       []storage.RecipeLine
	Ingredients map[uuid.UUID]storage.Ingredient
}

func toResponse(ri RecipeIngredients) RecipeIngredientsResponse {
	resp := RecipeIngredientsResponse{
		RecipeID:  ri.Recipe.ID,
		Title:     ri.Recipe.Title,
		UpdatedAt: ri.Recipe.UpdatedAt,
		Lines:     make([]LineDTO, 0, len(ri.Lines)),
	}
	for _, l := range ri.Lines {
		resp.Lines = append(resp.Lines, LineDTO{
			Position:     l.Position,
			IngredientID: l.IngredientID,
			Ingredient:   ri.Ingredients[l.IngredientID].Name,
			Quantity:     quantity.Of(l.Quantity),
			Unit:         l.Unit,
			Notes:        l.Notes,
			Corrupt:      l.Corrupt,
		})
	}
	return resp
}
