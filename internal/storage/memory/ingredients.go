package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) SearchIngredients(ctx context.Context, query string, limit int) ([]storage.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	results := make([]storage.Ingredient, 0)
	for _, ing := range m.ingredients {
		if strings.Contains(ing.NormName, q) {
			results = append(results, *ing)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return lessByRank(results[i], results[j], q)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// matchRank: 0 exact, 1 prefix, 2 substring.
func matchRank(normName, q string) int {
	switch {
	case normName == q:
		return 0
	case strings.HasPrefix(normName, q):
		return 1
	default:
		return 2
	}
}

func lessByRank(a, b storage.Ingredient, q string) bool {
	ra, rb := matchRank(a.NormName, q), matchRank(b.NormName, q)
	if ra != rb {
		return ra < rb
	}
	switch {
	case a.LastUsedAt != nil && b.LastUsedAt == nil:
		return true
	case a.LastUsedAt == nil && b.LastUsedAt != nil:
		return false
	case a.LastUsedAt != nil && b.LastUsedAt != nil && !a.LastUsedAt.Equal(*b.LastUsedAt):
		return a.LastUsedAt.After(*b.LastUsedAt)
	}
	if a.NormName != b.NormName {
		return a.NormName < b.NormName
	}
	return a.ID.String() < b.ID.String()
}

func (m *MemoryStorage) GetIngredient(ctx context.Context, id uuid.UUID) (*storage.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ing, ok := m.ingredients[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *ing
	return &out, nil
}

func (m *MemoryStorage) GetIngredientByNormName(ctx context.Context, normName string) (*storage.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byNormName[normName]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *m.ingredients[id]
	return &out, nil
}

func (m *MemoryStorage) GetIngredientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]storage.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[uuid.UUID]storage.Ingredient, len(ids))
	for _, id := range ids {
		if ing, ok := m.ingredients[id]; ok {
			out[id] = *ing
		}
	}
	return out, nil
}

func (m *MemoryStorage) CreateIngredient(ctx context.Context, ing *storage.Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byNormName[ing.NormName]; exists {
		return storage.ErrDuplicateName
	}

	if ing.ID == uuid.Nil {
		ing.ID = uuid.New()
	}
	ing.CreatedAt = time.Now().UTC()

	stored := *ing
	m.ingredients[ing.ID] = &stored
	m.byNormName[ing.NormName] = ing.ID
	return nil
}

func (m *MemoryStorage) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ing, ok := m.ingredients[id]
	if !ok {
		return storage.ErrNotFound
	}

	for _, lines := range m.lines {
		for _, l := range lines {
			if l.IngredientID == id {
				return storage.ErrReferenced
			}
		}
	}

	delete(m.byNormName, ing.NormName)
	delete(m.ingredients, id)
	return nil
}

func (m *MemoryStorage) TouchIngredients(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if ing, ok := m.ingredients[id]; ok {
			t := at
			ing.LastUsedAt = &t
		}
	}
	return nil
}
