package memory

import (
	"context"
	"time"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) ReplaceRecipeLines(ctx context.Context, recipe storage.Recipe, lines []storage.RecipeLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range lines {
		if _, ok := m.ingredients[l.IngredientID]; !ok {
			return storage.ErrNotFound
		}
	}

	now := time.Now().UTC()
	if existing, ok := m.recipes[recipe.ID]; ok {
		existing.Title = recipe.Title
		existing.UpdatedAt = now
	} else {
		recipe.CreatedAt = now
		recipe.UpdatedAt = now
		m.recipes[recipe.ID] = &recipe
	}

	stored := make([]storage.RecipeLine, len(lines))
	for i, l := range lines {
		l = copyLine(l)
		l.RecipeID = recipe.ID
		l.Position = i + 1
		stored[i] = l
	}
	m.lines[recipe.ID] = stored
	return nil
}

func (m *MemoryStorage) GetRecipe(ctx context.Context, id uuid.UUID) (*storage.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recipes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *MemoryStorage) GetRecipesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]storage.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[uuid.UUID]storage.Recipe, len(ids))
	for _, id := range ids {
		if r, ok := m.recipes[id]; ok {
			out[id] = *r
		}
	}
	return out, nil
}

func (m *MemoryStorage) ListRecipeLines(ctx context.Context, recipeID uuid.UUID) ([]storage.RecipeLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.recipes[recipeID]; !ok {
		return nil, storage.ErrNotFound
	}
	return m.copyLines(recipeID), nil
}

func (m *MemoryStorage) ListLinesForRecipes(ctx context.Context, ids []uuid.UUID) ([]storage.RecipeLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]storage.RecipeLine, 0)
	for _, id := range ids {
		out = append(out, m.copyLines(id)...)
	}
	return out, nil
}

func (m *MemoryStorage) copyLines(recipeID uuid.UUID) []storage.RecipeLine {
	src := m.lines[recipeID]
	out := make([]storage.RecipeLine, len(src))
	for i, l := range src {
		out[i] = copyLine(l)
	}
	return out
}

func (m *MemoryStorage) DeleteRecipeLine(ctx context.Context, recipeID uuid.UUID, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := m.lines[recipeID]
	if position < 1 || position > len(lines) {
		return storage.ErrNotFound
	}

	kept := make([]storage.RecipeLine, 0, len(lines)-1)
	kept = append(kept, lines[:position-1]...)
	kept = append(kept, lines[position:]...)
	for i := range kept {
		kept[i].Position = i + 1
	}
	m.lines[recipeID] = kept

	if r, ok := m.recipes[recipeID]; ok {
		r.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MemoryStorage) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recipes[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.recipes, id)
	delete(m.lines, id)

	for _, entries := range m.plan {
		for k := range entries {
			if k.recipeID == id {
				delete(entries, k)
			}
		}
	}
	return nil
}
