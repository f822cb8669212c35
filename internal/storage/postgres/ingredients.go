package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ingredientColumns = `id, name, norm_name, created_by, last_used_at, created_at`

func scanIngredient(row pgx.Row) (storage.Ingredient, error) {
	var ing storage.Ingredient
	err := row.Scan(&ing.ID, &ing.Name, &ing.NormName, &ing.CreatedBy, &ing.LastUsedAt, &ing.CreatedAt)
	return ing, err
}

func (p *PostgresStorage) SearchIngredients(ctx context.Context, query string, limit int) ([]storage.Ingredient, error) {
	q := strings.ToLower(query)
	sql := `
		SELECT ` + ingredientColumns + `
		FROM ingredients
		WHERE strpos(norm_name, $1) > 0
		ORDER BY
			CASE WHEN norm_name = $1 THEN 0 WHEN starts_with(norm_name, $1) THEN 1 ELSE 2 END,
			last_used_at DESC NULLS LAST,
			norm_name ASC,
			id ASC
		LIMIT $2
	`

	rows, err := p.pool.Query(ctx, sql, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	defer rows.Close()

	results := []storage.Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		results = append(results, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}
	return results, nil
}

func (p *PostgresStorage) GetIngredient(ctx context.Context, id uuid.UUID) (*storage.Ingredient, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+ingredientColumns+` FROM ingredients WHERE id = $1`, id)
	ing, err := scanIngredient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &ing, nil
}

func (p *PostgresStorage) GetIngredientByNormName(ctx context.Context, normName string) (*storage.Ingredient, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+ingredientColumns+` FROM ingredients WHERE norm_name = $1`, normName)
	ing, err := scanIngredient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient by name: %w", err)
	}
	return &ing, nil
}

func (p *PostgresStorage) GetIngredientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]storage.Ingredient, error) {
	out := make(map[uuid.UUID]storage.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := p.pool.Query(ctx, `SELECT `+ingredientColumns+` FROM ingredients WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		out[ing.ID] = ing
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}
	return out, nil
}

func (p *PostgresStorage) CreateIngredient(ctx context.Context, ing *storage.Ingredient) error {
	if ing.ID == uuid.Nil {
		ing.ID = uuid.New()
	}

	err := p.pool.QueryRow(ctx, `
		INSERT INTO ingredients (id, name, norm_name, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, ing.ID, ing.Name, ing.NormName, ing.CreatedBy).Scan(&ing.CreatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return storage.ErrDuplicateName
		}
		return fmt.Errorf("failed to create ingredient: %w", err)
	}
	return nil
}

func (p *PostgresStorage) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	result, err := p.pool.Exec(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return storage.ErrReferenced
		}
		return fmt.Errorf("failed to delete ingredient: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) TouchIngredients(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := p.pool.Exec(ctx, `UPDATE ingredients SET last_used_at = $2 WHERE id = ANY($1)`, ids, at); err != nil {
		return fmt.Errorf("failed to touch ingredients: %w", err)
	}
	return nil
}
