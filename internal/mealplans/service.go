package mealplans

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/daterange"
	"github.com/fdg312/mealcart/internal/grocery"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Storage is what the service needs from the store.
type Storage interface {
	storage.MealPlanStorage
	GetRecipesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]storage.Recipe, error)
}

// PlanListener serialises plan mutations per owner and hears about them.
type PlanListener interface {
	LockOwner(owner string) (unlock func())
	OnPlanChanged(ctx context.Context, owner, date string, recipeID uuid.UUID, change grocery.PlanChange)
}

// Service maintains the meal plan: which recipes are planned on which dates.
type Service struct {
	storage      Storage
	listener     PlanListener
	maxRangeDays int
	logger       *zap.Logger
}

// NewService creates a new meal plans service.
func NewService(st Storage, listener PlanListener, maxRangeDays int, logger *zap.Logger) *Service {
	return &Service{storage: st, listener: listener, maxRangeDays: maxRangeDays, logger: logger}
}

// Add plans recipeID on date. Adding an entry that already exists changes
// nothing and reports created=false.
func (s *Service) Add(ctx context.Context, owner, date string, recipeID uuid.UUID) (bool, error) {
	if _, err := daterange.ParseDate("date", date); err != nil {
		return false, err
	}
	if recipeID == uuid.Nil {
		return false, apperr.Validation("invalid_request", "recipe_id is required")
	}

	unlock := s.listener.LockOwner(owner)
	defer unlock()

	added, err := s.storage.AddPlanEntry(ctx, owner, date, recipeID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, apperr.NotFound("recipe_not_found", "recipe %s not found", recipeID)
	}
	if err != nil {
		return false, fmt.Errorf("add plan entry: %w", err)
	}

	if added {
		s.listener.OnPlanChanged(ctx, owner, date, recipeID, grocery.PlanAdded)
		s.logger.Info("recipe planned",
			zap.String("owner_user_id", owner), zap.String("date", date), zap.String("recipe_id", recipeID.String()))
	}
	return added, nil
}

// Remove unplans recipeID from date. Removing an absent entry succeeds.
func (s *Service) Remove(ctx context.Context, owner, date string, recipeID uuid.UUID) error {
	if _, err := daterange.ParseDate("date", date); err != nil {
		return err
	}

	unlock := s.listener.LockOwner(owner)
	defer unlock()

	removed, err := s.storage.RemovePlanEntry(ctx, owner, date, recipeID)
	if err != nil {
		return fmt.Errorf("remove plan entry: %w", err)
	}

	if removed {
		s.listener.OnPlanChanged(ctx, owner, date, recipeID, grocery.PlanRemoved)
		s.logger.Info("recipe unplanned",
			zap.String("owner_user_id", owner), zap.String("date", date), zap.String("recipe_id", recipeID.String()))
	}
	return nil
}

// ListRange returns the entries in [start, end] ordered by date, with titles.
func (s *Service) ListRange(ctx context.Context, owner, start, end string) ([]EntryDTO, error) {
	if err := daterange.Validate(start, end, s.maxRangeDays); err != nil {
		return nil, err
	}

	entries, err := s.storage.ListPlanEntries(ctx, owner, start, end)
	if err != nil {
		return nil, fmt.Errorf("list plan entries: %w", err)
	}

	recipes, err := s.storage.GetRecipesByIDs(ctx, distinctRecipeIDs(entries))
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	out := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryDTO{Date: e.Date, RecipeID: e.RecipeID, Title: recipes[e.RecipeID].Title})
	}
	return out, nil
}

// RecipeIDs returns the distinct recipes planned in [start, end].
func (s *Service) RecipeIDs(ctx context.Context, owner, start, end string) ([]uuid.UUID, error) {
	if err := daterange.Validate(start, end, s.maxRangeDays); err != nil {
		return nil, err
	}
	entries, err := s.storage.ListPlanEntries(ctx, owner, start, end)
	if err != nil {
		return nil, fmt.Errorf("list plan entries: %w", err)
	}
	return distinctRecipeIDs(entries), nil
}

func distinctRecipeIDs(entries []storage.PlanEntry) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if !seen[e.RecipeID] {
			seen[e.RecipeID] = true
			ids = append(ids, e.RecipeID)
		}
	}
	return ids
}
