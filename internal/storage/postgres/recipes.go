package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (p *PostgresStorage) ReplaceRecipeLines(ctx context.Context, recipe storage.Recipe, lines []storage.RecipeLine) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO recipes (id, title)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, updated_at = now()
	`, recipe.ID, recipe.Title)
	if err != nil {
		return fmt.Errorf("failed to upsert recipe: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredient_lines WHERE recipe_id = $1`, recipe.ID); err != nil {
		return fmt.Errorf("failed to delete recipe lines: %w", err)
	}

	for i, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO recipe_ingredient_lines (recipe_id, position, ingredient_id, quantity, unit, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, recipe.ID, i+1, l.IngredientID, ratToText(l.Quantity), nullString(l.Unit), nullString(l.Notes))
		if err != nil {
			if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
				return storage.ErrNotFound
			}
			return fmt.Errorf("failed to insert recipe line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetRecipe(ctx context.Context, id uuid.UUID) (*storage.Recipe, error) {
	var r storage.Recipe
	err := p.pool.QueryRow(ctx, `
		SELECT id, title, created_at, updated_at FROM recipes WHERE id = $1
	`, id).Scan(&r.ID, &r.Title, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &r, nil
}

func (p *PostgresStorage) GetRecipesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]storage.Recipe, error) {
	out := make(map[uuid.UUID]storage.Recipe, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, title, created_at, updated_at FROM recipes WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r storage.Recipe
		if err := rows.Scan(&r.ID, &r.Title, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		out[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}
	return out, nil
}

func (p *PostgresStorage) ListRecipeLines(ctx context.Context, recipeID uuid.UUID) ([]storage.RecipeLine, error) {
	if _, err := p.GetRecipe(ctx, recipeID); err != nil {
		return nil, err
	}
	return p.ListLinesForRecipes(ctx, []uuid.UUID{recipeID})
}

func (p *PostgresStorage) ListLinesForRecipes(ctx context.Context, ids []uuid.UUID) ([]storage.RecipeLine, error) {
	lines := []storage.RecipeLine{}
	if len(ids) == 0 {
		return lines, nil
	}

	rows, err := p.pool.Query(ctx, `
		SELECT recipe_id, position, ingredient_id, quantity, unit, notes
		FROM recipe_ingredient_lines
		WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l                storage.RecipeLine
			qty, unit, notes *string
		)
		if err := rows.Scan(&l.RecipeID, &l.Position, &l.IngredientID, &qty, &unit, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan recipe line: %w", err)
		}
		decodeLine(&l, qty, unit, notes)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe lines: %w", err)
	}
	return lines, nil
}

func (p *PostgresStorage) DeleteRecipeLine(ctx context.Context, recipeID uuid.UUID, position int) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		DELETE FROM recipe_ingredient_lines WHERE recipe_id = $1 AND position = $2
	`, recipeID, position)
	if err != nil {
		return fmt.Errorf("failed to delete recipe line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	// Shift in two steps so the (recipe_id, position) key never collides mid-update.
	if _, err := tx.Exec(ctx, `
		UPDATE recipe_ingredient_lines SET position = -position
		WHERE recipe_id = $1 AND position > $2
	`, recipeID, position); err != nil {
		return fmt.Errorf("failed to renumber recipe lines: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE recipe_ingredient_lines SET position = -position - 1
		WHERE recipe_id = $1 AND position < 0
	`, recipeID); err != nil {
		return fmt.Errorf("failed to renumber recipe lines: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE recipes SET updated_at = now() WHERE id = $1`, recipeID); err != nil {
		return fmt.Errorf("failed to touch recipe: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresStorage) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	// Lines and plan entries go with the recipe via ON DELETE CASCADE.
	result, err := p.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// decodeLine fills the nullable columns of a scanned line. A quantity that
// does not decode marks the line corrupt instead of failing the whole read.
func decodeLine(l *storage.RecipeLine, qty, unit, notes *string) {
	q, err := textToRat(qty)
	l.Quantity = q
	l.Corrupt = err != nil
	l.Unit = fromNull(unit)
	l.Notes = fromNull(notes)
}
