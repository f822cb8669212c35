package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/quantity"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/fdg312/mealcart/internal/units"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Storage is what the service needs from the store.
type Storage interface {
	storage.RecipesStorage
	GetIngredientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]storage.Ingredient, error)
	TouchIngredients(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// ChangeListener is told when a recipe's lines changed or went away.
type ChangeListener interface {
	OnRecipeChanged(recipeID uuid.UUID)
}

// Service owns recipe ingredient lines. Quantities and units are validated
// here, at save time, so stored lines are always well formed.
type Service struct {
	storage  Storage
	registry *units.Registry
	listener ChangeListener
	logger   *zap.Logger
}

// NewService creates a new recipes service.
func NewService(st Storage, registry *units.Registry, listener ChangeListener, logger *zap.Logger) *Service {
	return &Service{storage: st, registry: registry, listener: listener, logger: logger}
}

// LineError is the validation detail for one rejected input line.
type LineError struct {
	Index int    `json:"index"`
	Field string `json:"field"`
	Code  string `json:"code"`
}

// SaveIngredients replaces every line of recipeID, creating the recipe when
// it does not exist. Lines keep input order and are numbered from 1.
func (s *Service) SaveIngredients(ctx context.Context, recipeID uuid.UUID, title string, inputs []LineInput) (RecipeIngredients, error) {
	title = strings.TrimSpace(title)
	if len([]rune(title)) > maxTitleLength {
		return RecipeIngredients{}, apperr.Validation("title_too_long", "title must be at most %d characters", maxTitleLength)
	}
	if len(inputs) > maxLines {
		return RecipeIngredients{}, apperr.Validation("too_many_lines", "a recipe may have at most %d ingredient lines", maxLines)
	}

	lines, ids, lineErrs := s.parseLines(recipeID, inputs)

	found, err := s.storage.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return RecipeIngredients{}, fmt.Errorf("load ingredients: %w", err)
	}
	for i, l := range lines {
		if l.IngredientID == uuid.Nil {
			continue
		}
		if _, ok := found[l.IngredientID]; !ok {
			lineErrs = append(lineErrs, LineError{Index: i, Field: "ingredient_id", Code: "ingredient_not_found"})
		}
	}
	if len(lineErrs) > 0 {
		return RecipeIngredients{}, apperr.Validation("invalid_lines", "%d ingredient line(s) are invalid", len(lineErrs)).
			WithDetails(map[string]any{"lines": lineErrs})
	}

	recipe := storage.Recipe{ID: recipeID, Title: title}
	if err := s.storage.ReplaceRecipeLines(ctx, recipe, lines); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return RecipeIngredients{}, apperr.Validation("ingredient_not_found", "an ingredient was deleted while saving")
		}
		return RecipeIngredients{}, fmt.Errorf("replace recipe lines: %w", err)
	}

	if err := s.storage.TouchIngredients(ctx, ids, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to touch ingredients", zap.String("recipe_id", recipeID.String()), zap.Error(err))
	}
	s.notify(recipeID)

	s.logger.Info("recipe ingredients saved",
		zap.String("recipe_id", recipeID.String()), zap.Int("lines", len(lines)))
	return s.Get(ctx, recipeID)
}

func (s *Service) parseLines(recipeID uuid.UUID, inputs []LineInput) ([]storage.RecipeLine, []uuid.UUID, []LineError) {
	var (
		lineErrs []LineError
		ids      []uuid.UUID
		seen     = make(map[uuid.UUID]bool)
		lines    = make([]storage.RecipeLine, 0, len(inputs))
	)

	for i, in := range inputs {
		line := storage.RecipeLine{
			RecipeID:     recipeID,
			Position:     i + 1,
			IngredientID: in.IngredientID,
			Unit:         s.registry.Normalize(in.Unit),
			Notes:        strings.TrimSpace(in.Notes),
		}

		if in.IngredientID == uuid.Nil {
			lineErrs = append(lineErrs, LineError{Index: i, Field: "ingredient_id", Code: "ingredient_required"})
		} else if !seen[in.IngredientID] {
			seen[in.IngredientID] = true
			ids = append(ids, in.IngredientID)
		}

		q, err := quantity.Parse(in.Quantity)
		if err != nil {
			lineErrs = append(lineErrs, LineError{Index: i, Field: "quantity", Code: "invalid_quantity"})
		}
		line.Quantity = q

		if len([]rune(line.Notes)) > maxNotesLength {
			lineErrs = append(lineErrs, LineError{Index: i, Field: "notes", Code: "notes_too_long"})
		}
		lines = append(lines, line)
	}
	return lines, ids, lineErrs
}

// Get returns a recipe with its ordered lines.
func (s *Service) Get(ctx context.Context, recipeID uuid.UUID) (RecipeIngredients, error) {
	recipe, err := s.storage.GetRecipe(ctx, recipeID)
	if errors.Is(err, storage.ErrNotFound) {
		return RecipeIngredients{}, apperr.NotFound("recipe_not_found", "recipe %s not found", recipeID)
	}
	if err != nil {
		return RecipeIngredients{}, fmt.Errorf("get recipe: %w", err)
	}

	lines, err := s.storage.ListRecipeLines(ctx, recipeID)
	if err != nil {
		return RecipeIngredients{}, fmt.Errorf("list recipe lines: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.IngredientID)
	}
	ings, err := s.storage.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return RecipeIngredients{}, fmt.Errorf("load ingredients: %w", err)
	}

	return RecipeIngredients{Recipe: *recipe, Lines: lines, Ingredients: ings}, nil
}

// RemoveLine deletes the line at position; later lines move up by one.
func (s *Service) RemoveLine(ctx context.Context, recipeID uuid.UUID, position int) error {
	if position < 1 {
		return apperr.Validation("invalid_position", "position must be 1 or greater")
	}
	err := s.storage.DeleteRecipeLine(ctx, recipeID, position)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("line_not_found", "recipe %s has no line %d", recipeID, position)
	}
	if err != nil {
		return fmt.Errorf("delete recipe line: %w", err)
	}
	s.notify(recipeID)
	return nil
}

// Delete removes a recipe with its lines and plan entries. Deleting an
// unknown recipe succeeds.
func (s *Service) Delete(ctx context.Context, recipeID uuid.UUID) error {
	err := s.storage.DeleteRecipe(ctx, recipeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	s.notify(recipeID)
	s.logger.Info("recipe deleted", zap.String("recipe_id", recipeID.String()))
	return nil
}

func (s *Service) notify(recipeID uuid.UUID) {
	if s.listener != nil {
		s.listener.OnRecipeChanged(recipeID)
	}
}
