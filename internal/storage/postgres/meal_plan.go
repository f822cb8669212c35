package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

func (p *PostgresStorage) AddPlanEntry(ctx context.Context, ownerUserID, date string, recipeID uuid.UUID) (bool, error) {
	result, err := p.pool.Exec(ctx, `
		INSERT INTO meal_plan_entries (owner_user_id, plan_date, recipe_id)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (owner_user_id, plan_date, recipe_id) DO NOTHING
	`, ownerUserID, date, recipeID)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return false, storage.ErrNotFound
		}
		return false, fmt.Errorf("failed to add plan entry: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (p *PostgresStorage) RemovePlanEntry(ctx context.Context, ownerUserID, date string, recipeID uuid.UUID) (bool, error) {
	result, err := p.pool.Exec(ctx, `
		DELETE FROM meal_plan_entries
		WHERE owner_user_id = $1 AND plan_date = $2::date AND recipe_id = $3
	`, ownerUserID, date, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to remove plan entry: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (p *PostgresStorage) ListPlanEntries(ctx context.Context, ownerUserID, start, end string) ([]storage.PlanEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT owner_user_id, to_char(plan_date, 'YYYY-MM-DD'), recipe_id, created_at
		FROM meal_plan_entries
		WHERE owner_user_id = $1 AND plan_date BETWEEN $2::date AND $3::date
		ORDER BY plan_date, recipe_id::text
	`, ownerUserID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan entries: %w", err)
	}
	defer rows.Close()

	entries := []storage.PlanEntry{}
	for rows.Next() {
		var e storage.PlanEntry
		if err := rows.Scan(&e.OwnerUserID, &e.Date, &e.RecipeID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plan entries: %w", err)
	}
	return entries, nil
}
