package memory

import (
	"math/big"
	"sync"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

// MemoryStorage is the in-memory implementation of storage.Storage.
// One lock guards every table so cross-table rules (referenced ingredients,
// recipe cascades) hold without lock ordering.
type MemoryStorage struct {
	mu sync.RWMutex

	ingredients map[uuid.UUID]*storage.Ingredient
	byNormName  map[string]uuid.UUID

	recipes map[uuid.UUID]*storage.Recipe
	lines   map[uuid.UUID][]storage.RecipeLine // recipe id -> lines ordered by position

	plan map[string]map[planKey]storage.PlanEntry // owner -> entries

	manual map[string]map[uuid.UUID]*storage.ManualItem // owner -> items
	checks map[string]map[string]bool                  // owner -> line key -> checked
}

type planKey struct {
	date     string
	recipeID uuid.UUID
}

var _ storage.Storage = (*MemoryStorage)(nil)

// New creates an empty MemoryStorage.
func New() *MemoryStorage {
	return &MemoryStorage{
		ingredients: make(map[uuid.UUID]*storage.Ingredient),
		byNormName:  make(map[string]uuid.UUID),
		recipes:     make(map[uuid.UUID]*storage.Recipe),
		lines:       make(map[uuid.UUID][]storage.RecipeLine),
		plan:        make(map[string]map[planKey]storage.PlanEntry),
		manual:      make(map[string]map[uuid.UUID]*storage.ManualItem),
		checks:      make(map[string]map[string]bool),
	}
}

func (m *MemoryStorage) Close() error {
	// no-op for memory
	return nil
}

func copyRat(q *big.Rat) *big.Rat {
	if q == nil {
		return nil
	}
	return new(big.Rat).Set(q)
}

func copyLine(l storage.RecipeLine) storage.RecipeLine {
	l.Quantity = copyRat(l.Quantity)
	return l
}
