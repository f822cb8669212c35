package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) AddPlanEntry(ctx context.Context, ownerUserID, date string, recipeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recipes[recipeID]; !ok {
		return false, storage.ErrNotFound
	}

	entries, ok := m.plan[ownerUserID]
	if !ok {
		entries = make(map[planKey]storage.PlanEntry)
		m.plan[ownerUserID] = entries
	}

	key := planKey{date: date, recipeID: recipeID}
	if _, exists := entries[key]; exists {
		return false, nil
	}
	entries[key] = storage.PlanEntry{
		OwnerUserID: ownerUserID,
		Date:        date,
		RecipeID:    recipeID,
		CreatedAt:   time.Now().UTC(),
	}
	return true, nil
}

func (m *MemoryStorage) RemovePlanEntry(ctx context.Context, ownerUserID, date string, recipeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.plan[ownerUserID]
	key := planKey{date: date, recipeID: recipeID}
	if _, ok := entries[key]; !ok {
		return false, nil
	}
	delete(entries, key)
	return true, nil
}

func (m *MemoryStorage) ListPlanEntries(ctx context.Context, ownerUserID, start, end string) ([]storage.PlanEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// YYYY-MM-DD compares lexicographically in date order.
	out := make([]storage.PlanEntry, 0)
	for k, e := range m.plan[ownerUserID] {
		if k.date >= start && k.date <= end {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].RecipeID.String() < out[j].RecipeID.String()
	})
	return out, nil
}
