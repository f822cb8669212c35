package ingredients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const suggestionLimit = 5

// Service resolves free-text names to canonical ingredients.
type Service struct {
	storage     storage.IngredientsStorage
	searchLimit int
	logger      *zap.Logger
}

// NewService creates a new ingredients service.
func NewService(st storage.IngredientsStorage, searchLimit int, logger *zap.Logger) *Service {
	if searchLimit <= 0 {
		searchLimit = 50
	}
	return &Service{storage: st, searchLimit: searchLimit, logger: logger}
}

// NormalizeName trims, lowercases and collapses inner whitespace.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// DisplayName trims and collapses whitespace but keeps the user's casing.
func DisplayName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Search returns ingredients whose name contains query (case-insensitive),
// exact and prefix matches first, then the most recently used.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]storage.Ingredient, error) {
	if limit <= 0 || limit > s.searchLimit {
		limit = s.searchLimit
	}
	return s.storage.SearchIngredients(ctx, NormalizeName(query), limit)
}

// Resolve looks up name without creating anything.
func (s *Service) Resolve(ctx context.Context, name string) (Resolution, error) {
	norm, err := validateName(name)
	if err != nil {
		return Resolution{}, err
	}

	var res Resolution
	existing, err := s.storage.GetIngredientByNormName(ctx, norm)
	switch {
	case err == nil:
		res.Match = existing
	case !errors.Is(err, storage.ErrNotFound):
		return Resolution{}, fmt.Errorf("resolve ingredient: %w", err)
	}

	res.Suggestions, err = s.storage.SearchIngredients(ctx, norm, suggestionLimit)
	if err != nil {
		return Resolution{}, fmt.Errorf("suggest ingredients: %w", err)
	}
	return res, nil
}

// ResolveOrCreate returns the ingredient named name, reusing an exact
// case-insensitive match. A new ingredient is created only when confirmed is
// true; otherwise a ConfirmationRequired error carries the closest matches.
func (s *Service) ResolveOrCreate(ctx context.Context, name, userID string, confirmed bool) (storage.Ingredient, bool, error) {
	res, err := s.Resolve(ctx, name)
	if err != nil {
		return storage.Ingredient{}, false, err
	}
	if res.Match != nil {
		return *res.Match, false, nil
	}

	if !confirmed {
		return storage.Ingredient{}, false, apperr.ConfirmationRequired(
			"confirmation_required",
			"ingredient %q does not exist; confirm to create it", DisplayName(name),
		).WithDetails(map[string]any{"suggestions": toDTOs(res.Suggestions)})
	}

	ing := storage.Ingredient{
		ID:       uuid.New(),
		Name:     DisplayName(name),
		NormName: NormalizeName(name),
	}
	if userID != "" {
		creator := userID
		ing.CreatedBy = &creator
	}

	err = s.storage.CreateIngredient(ctx, &ing)
	if errors.Is(err, storage.ErrDuplicateName) {
		// Lost a concurrent create: the winner's row is the answer.
		existing, lookupErr := s.storage.GetIngredientByNormName(ctx, ing.NormName)
		if lookupErr != nil {
			return storage.Ingredient{}, false, apperr.DuplicateName(
				"duplicate_name", "ingredient %q already exists", ing.Name,
			).WithDetails(map[string]any{
				"norm_name":   ing.NormName,
				"suggestions": toDTOs(res.Suggestions),
			})
		}
		s.logger.Debug("ingredient create lost race, reusing existing",
			zap.String("name", ing.NormName), zap.String("ingredient_id", existing.ID.String()))
		return *existing, false, nil
	}
	if err != nil {
		return storage.Ingredient{}, false, fmt.Errorf("create ingredient: %w", err)
	}

	s.logger.Info("ingredient created",
		zap.String("ingredient_id", ing.ID.String()), zap.String("name", ing.Name), zap.String("user_id", userID))
	return ing, true, nil
}

// Delete removes an unreferenced ingredient. Only its creator may delete it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	ing, err := s.storage.GetIngredient(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("ingredient_not_found", "ingredient %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("get ingredient: %w", err)
	}

	if ing.CreatedBy == nil || *ing.CreatedBy != userID {
		return apperr.Forbidden("not_creator", "only the creator of %q may delete it", ing.Name)
	}

	err = s.storage.DeleteIngredient(ctx, id)
	switch {
	case errors.Is(err, storage.ErrReferenced):
		return apperr.Conflict("ingredient_in_use", "ingredient %q is used by a recipe", ing.Name)
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("ingredient_not_found", "ingredient %s not found", id)
	case err != nil:
		return fmt.Errorf("delete ingredient: %w", err)
	}
	return nil
}

func validateName(name string) (string, error) {
	norm := NormalizeName(name)
	if norm == "" {
		return "", apperr.Validation("name_required", "ingredient name is required")
	}
	if len([]rune(norm)) > maxNameLength {
		return "", apperr.Validation("name_too_long", "ingredient name must be at most %d characters", maxNameLength)
	}
	return norm, nil
}
