package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) CreateManualItem(ctx context.Context, item *storage.ManualItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now().UTC()

	items, ok := m.manual[item.OwnerUserID]
	if !ok {
		items = make(map[uuid.UUID]*storage.ManualItem)
		m.manual[item.OwnerUserID] = items
	}
	stored := *item
	stored.Quantity = copyRat(item.Quantity)
	items[item.ID] = &stored
	return nil
}

func (m *MemoryStorage) ListManualItems(ctx context.Context, ownerUserID string) ([]storage.ManualItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]storage.ManualItem, 0, len(m.manual[ownerUserID]))
	for _, it := range m.manual[ownerUserID] {
		c := *it
		c.Quantity = copyRat(it.Quantity)
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *MemoryStorage) DeleteManualItem(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.manual[ownerUserID]
	if _, ok := items[id]; !ok {
		return storage.ErrNotFound
	}
	delete(items, id)
	return nil
}

func (m *MemoryStorage) SetManualItemChecked(ctx context.Context, ownerUserID string, id uuid.UUID, checked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.manual[ownerUserID][id]
	if !ok {
		return storage.ErrNotFound
	}
	it.Checked = checked
	return nil
}

func (m *MemoryStorage) DeleteCheckedManualItems(ctx context.Context, ownerUserID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, it := range m.manual[ownerUserID] {
		if it.Checked {
			delete(m.manual[ownerUserID], id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStorage) SetLineChecked(ctx context.Context, ownerUserID, lineKey string, checked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !checked {
		delete(m.checks[ownerUserID], lineKey)
		return nil
	}
	keys, ok := m.checks[ownerUserID]
	if !ok {
		keys = make(map[string]bool)
		m.checks[ownerUserID] = keys
	}
	keys[lineKey] = true
	return nil
}

func (m *MemoryStorage) ListCheckedLines(ctx context.Context, ownerUserID string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]bool, len(m.checks[ownerUserID]))
	for k := range m.checks[ownerUserID] {
		out[k] = true
	}
	return out, nil
}

func (m *MemoryStorage) ClearCheckedLines(ctx context.Context, ownerUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.checks, ownerUserID)
	return nil
}
