package storage

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when an ingredient with the same normalised name exists.
	ErrDuplicateName = errors.New("duplicate ingredient name")
	// ErrReferenced is returned when a row cannot be deleted because other rows point at it.
	ErrReferenced = errors.New("still referenced")
)

// Ingredient is a canonical ingredient identity.
type Ingredient struct {
	ID         uuid.UUID
	Name       string
	NormName   string  // trimmed, lowercased, single-spaced; unique
	CreatedBy  *string // nil for seeded ingredients
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// Recipe is the minimal recipe row the grocery core needs.
type Recipe struct {
	ID        uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecipeLine is one ingredient line of a recipe. Positions are 1-based and dense.
type RecipeLine struct {
	RecipeID     uuid.UUID
	Position     int
	IngredientID uuid.UUID
	Quantity     *big.Rat // nil: no quantity ("to taste")
	Unit         string   // canonical unit code, "" for none
	Notes        string
	// Corrupt is set by a backend when the stored quantity could not be
	// decoded. Quantity is nil in that case.
	Corrupt bool
}

// PlanEntry places a recipe on a calendar date for one owner.
type PlanEntry struct {
	OwnerUserID string
	Date        string // YYYY-MM-DD
	RecipeID    uuid.UUID
	CreatedAt   time.Time
}

// ManualItem is a grocery entry added by hand. Recomputation never touches it.
type ManualItem struct {
	ID          uuid.UUID
	OwnerUserID string
	Label       string
	Quantity    *big.Rat
	Unit        string
	Checked     bool
	CreatedAt   time.Time
}

// IngredientsStorage manages canonical ingredients.
type IngredientsStorage interface {
	// SearchIngredients returns ingredients whose normalised name contains query,
	// ranked exact > prefix > substring, then most recently used, then name.
	SearchIngredients(ctx context.Context, query string, limit int) ([]Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*Ingredient, error)
	GetIngredientByNormName(ctx context.Context, normName string) (*Ingredient, error)
	GetIngredientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Ingredient, error)
	// CreateIngredient fails with ErrDuplicateName when the normalised name is taken.
	CreateIngredient(ctx context.Context, ing *Ingredient) error
	// DeleteIngredient fails with ErrReferenced while any recipe line points at it.
	DeleteIngredient(ctx context.Context, id uuid.UUID) error
	TouchIngredients(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// RecipesStorage manages recipe ingredient lines.
type RecipesStorage interface {
	// ReplaceRecipeLines upserts the recipe row and replaces all of its lines atomically.
	ReplaceRecipeLines(ctx context.Context, recipe Recipe, lines []RecipeLine) error
	GetRecipe(ctx context.Context, id uuid.UUID) (*Recipe, error)
	GetRecipesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Recipe, error)
	ListRecipeLines(ctx context.Context, recipeID uuid.UUID) ([]RecipeLine, error)
	// ListLinesForRecipes returns the lines of every recipe in ids ordered by recipe then position.
	ListLinesForRecipes(ctx context.Context, ids []uuid.UUID) ([]RecipeLine, error)
	// DeleteRecipeLine removes one line and renumbers the following ones.
	DeleteRecipeLine(ctx context.Context, recipeID uuid.UUID, position int) error
	// DeleteRecipe removes the recipe, its lines and every plan entry that references it.
	DeleteRecipe(ctx context.Context, id uuid.UUID) error
}

// MealPlanStorage manages (owner, date, recipe) plan entries.
type MealPlanStorage interface {
	// AddPlanEntry is idempotent; added is false when the entry already existed.
	// Returns ErrNotFound when the recipe does not exist.
	AddPlanEntry(ctx context.Context, ownerUserID, date string, recipeID uuid.UUID) (added bool, err error)
	// RemovePlanEntry reports whether an entry was removed; absence is not an error.
	RemovePlanEntry(ctx context.Context, ownerUserID, date string, recipeID uuid.UUID) (removed bool, err error)
	// ListPlanEntries returns entries with start <= date <= end ordered by date then recipe.
	ListPlanEntries(ctx context.Context, ownerUserID, start, end string) ([]PlanEntry, error)
}

// ManualItemsStorage manages hand-added grocery items.
type ManualItemsStorage interface {
	CreateManualItem(ctx context.Context, item *ManualItem) error
	ListManualItems(ctx context.Context, ownerUserID string) ([]ManualItem, error)
	DeleteManualItem(ctx context.Context, ownerUserID string, id uuid.UUID) error
	SetManualItemChecked(ctx context.Context, ownerUserID string, id uuid.UUID, checked bool) error
	DeleteCheckedManualItems(ctx context.Context, ownerUserID string) (int, error)
}

// GroceryChecksStorage keeps check marks of derived grocery lines by line key.
type GroceryChecksStorage interface {
	SetLineChecked(ctx context.Context, ownerUserID, lineKey string, checked bool) error
	ListCheckedLines(ctx context.Context, ownerUserID string) (map[string]bool, error)
	ClearCheckedLines(ctx context.Context, ownerUserID string) error
}

// Storage is the full persistence surface of the service.
type Storage interface {
	IngredientsStorage
	RecipesStorage
	MealPlanStorage
	ManualItemsStorage
	GroceryChecksStorage

	// Close releases the connection pool (no-op for memory).
	Close() error
}
