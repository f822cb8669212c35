package ingredients

import (
	"time"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

const maxNameLength = 80

// IngredientDTO is the wire form of an ingredient.
type IngredientDTO struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	CreatedBy  *string    `json:"created_by,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SearchResponse is the response for GET /v1/ingredients.
type SearchResponse struct {
	Items []IngredientDTO `json:"items"`
}

// ResolveRequest is the body for POST /v1/ingredients/resolve.
type ResolveRequest struct {
	Name string `json:"name"`
}

// ResolveResponse reports an exact match, if any, plus near matches.
type ResolveResponse struct {
	Match       *IngredientDTO  `json:"match"`
	Suggestions []IngredientDTO `json:"suggestions"`
}

// CreateRequest is the body for POST /v1/ingredients. Confirm must be true
// before a new ingredient is created.
type CreateRequest struct {
	Name    string `json:"name"`
	Confirm bool   `json:"confirm"`
}

// CreateResponse carries the resolved ingredient; Created is false when an
// existing ingredient was reused.
type CreateResponse struct {
	Ingredient IngredientDTO `json:"ingredient"`
	Created    bool          `json:"created"`
}

// Resolution is the service-level result of Resolve.
type Resolution struct {
	Match       *storage.Ingredient
	Suggestions []storage.Ingredient
}

func toDTO(ing storage.Ingredient) IngredientDTO {
	return IngredientDTO{
		ID:         ing.ID,
		Name:       ing.Name,
		CreatedBy:  ing.CreatedBy,
		LastUsedAt: ing.LastUsedAt,
		CreatedAt:  ing.CreatedAt,
	}
}

func toDTOs(list []storage.Ingredient) []IngredientDTO {
	out := make([]IngredientDTO, len(list))
	for i, ing := range list {
		out[i] = toDTO(ing)
	}
	return out
}
