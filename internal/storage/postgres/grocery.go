package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

func (p *PostgresStorage) CreateManualItem(ctx context.Context, item *storage.ManualItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	err := p.pool.QueryRow(ctx, `
		INSERT INTO manual_grocery_items (id, owner_user_id, label, quantity, unit, checked)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, item.ID, item.OwnerUserID, item.Label, ratToText(item.Quantity), nullString(item.Unit), item.Checked).Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create manual item: %w", err)
	}
	return nil
}

func (p *PostgresStorage) ListManualItems(ctx context.Context, ownerUserID string) ([]storage.ManualItem, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, owner_user_id, label, quantity, unit, checked, created_at
		FROM manual_grocery_items
		WHERE owner_user_id = $1
		ORDER BY created_at, id
	`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list manual items: %w", err)
	}
	defer rows.Close()

	items := []storage.ManualItem{}
	for rows.Next() {
		var (
			it        storage.ManualItem
			qty, unit *string
		)
		if err := rows.Scan(&it.ID, &it.OwnerUserID, &it.Label, &qty, &unit, &it.Checked, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan manual item: %w", err)
		}
		if it.Quantity, err = textToRat(qty); err != nil {
			return nil, fmt.Errorf("manual item %s: %w", it.ID, err)
		}
		it.Unit = fromNull(unit)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manual items: %w", err)
	}
	return items, nil
}

func (p *PostgresStorage) DeleteManualItem(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	result, err := p.pool.Exec(ctx, `
		DELETE FROM manual_grocery_items WHERE id = $1 AND owner_user_id = $2
	`, id, ownerUserID)
	if err != nil {
		return fmt.Errorf("failed to delete manual item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) SetManualItemChecked(ctx context.Context, ownerUserID string, id uuid.UUID, checked bool) error {
	result, err := p.pool.Exec(ctx, `
		UPDATE manual_grocery_items SET checked = $3 WHERE id = $1 AND owner_user_id = $2
	`, id, ownerUserID, checked)
	if err != nil {
		return fmt.Errorf("failed to update manual item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteCheckedManualItems(ctx context.Context, ownerUserID string) (int, error) {
	result, err := p.pool.Exec(ctx, `
		DELETE FROM manual_grocery_items WHERE owner_user_id = $1 AND checked
	`, ownerUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete checked manual items: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func (p *PostgresStorage) SetLineChecked(ctx context.Context, ownerUserID, lineKey string, checked bool) error {
	var err error
	if checked {
		_, err = p.pool.Exec(ctx, `
			INSERT INTO grocery_line_checks (owner_user_id, line_key)
			VALUES ($1, $2)
			ON CONFLICT (owner_user_id, line_key) DO NOTHING
		`, ownerUserID, lineKey)
	} else {
		_, err = p.pool.Exec(ctx, `
			DELETE FROM grocery_line_checks WHERE owner_user_id = $1 AND line_key = $2
		`, ownerUserID, lineKey)
	}
	if err != nil {
		return fmt.Errorf("failed to set line check: %w", err)
	}
	return nil
}

func (p *PostgresStorage) ListCheckedLines(ctx context.Context, ownerUserID string) (map[string]bool, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT line_key FROM grocery_line_checks WHERE owner_user_id = $1
	`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line checks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan line check: %w", err)
		}
		out[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line checks: %w", err)
	}
	return out, nil
}

func (p *PostgresStorage) ClearCheckedLines(ctx context.Context, ownerUserID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM grocery_line_checks WHERE owner_user_id = $1`, ownerUserID); err != nil {
		return fmt.Errorf("failed to clear line checks: %w", err)
	}
	return nil
}
