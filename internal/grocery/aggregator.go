package grocery

import (
	"context"
	"fmt"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/fdg312/mealcart/internal/units"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source is the read side the aggregator needs from storage.
type Source interface {
	ListPlanEntries(ctx context.Context, ownerUserID, start, end string) ([]storage.PlanEntry, error)
	ListLinesForRecipes(ctx context.Context, ids []uuid.UUID) ([]storage.RecipeLine, error)
	GetIngredientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]storage.Ingredient, error)
}

// Aggregator loads plan and recipe data and merges it with Aggregate. It holds
// no state of its own.
type Aggregator struct {
	source   Source
	registry *units.Registry
	logger   *zap.Logger
}

// NewAggregator creates an aggregator over source.
func NewAggregator(source Source, registry *units.Registry, logger *zap.Logger) *Aggregator {
	return &Aggregator{source: source, registry: registry, logger: logger}
}

// ComputeList merges every recipe planned by owner in [start, end] from scratch.
func (a *Aggregator) ComputeList(ctx context.Context, ownerUserID, start, end string) (Result, error) {
	v, err := a.loadView(ctx, ownerUserID, start, end)
	if err != nil {
		return Result{}, err
	}
	return v.result, nil
}

// loadView reads the plan for the range and builds a fully computed view.
func (a *Aggregator) loadView(ctx context.Context, ownerUserID, start, end string) (*view, error) {
	entries, err := a.source.ListPlanEntries(ctx, ownerUserID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list plan entries: %w", err)
	}

	v := newView(ownerUserID, start, end)
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if v.planned[e.RecipeID] == 0 {
			ids = append(ids, e.RecipeID)
		}
		v.planned[e.RecipeID]++
	}

	if err := a.loadRecipes(ctx, v, ids); err != nil {
		return nil, err
	}
	a.recompute(v)
	return v, nil
}

// loadRecipes adds the lines of ids, and the ingredients they use, to v.
func (a *Aggregator) loadRecipes(ctx context.Context, v *view, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	lines, err := a.source.ListLinesForRecipes(ctx, ids)
	if err != nil {
		return fmt.Errorf("list recipe lines: %w", err)
	}

	var missing []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		v.lines[id] = nil
	}
	for _, l := range lines {
		v.lines[l.RecipeID] = append(v.lines[l.RecipeID], l)
		if _, ok := v.ingredients[l.IngredientID]; !ok && !seen[l.IngredientID] {
			seen[l.IngredientID] = true
			missing = append(missing, l.IngredientID)
		}
	}

	if len(missing) == 0 {
		return nil
	}
	found, err := a.source.GetIngredientsByIDs(ctx, missing)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	for id, ing := range found {
		v.ingredients[id] = ing
	}
	return nil
}

func (a *Aggregator) recompute(v *view) {
	v.result = Aggregate(v.input(), a.registry)
	for _, w := range v.result.Warnings {
		a.logger.Warn("recipe line excluded from grocery list",
			zap.String("owner_user_id", v.owner),
			zap.String("recipe_id", w.RecipeID.String()),
			zap.Int("position", w.Position),
			zap.String("ingredient_id", w.IngredientID.String()),
			zap.String("reason", w.Reason),
		)
	}
}

// view is the cached state behind one (owner, start, end) list. Views are
// never mutated after being published; changes build a copy.
type view struct {
	owner       string
	start       string
	end         string
	planned     map[uuid.UUID]int // recipe -> planned dates in range
	lines       map[uuid.UUID][]storage.RecipeLine
	ingredients map[uuid.UUID]storage.Ingredient
	result      Result
}

func newView(owner, start, end string) *view {
	return &view{
		owner:       owner,
		start:       start,
		end:         end,
		planned:     make(map[uuid.UUID]int),
		lines:       make(map[uuid.UUID][]storage.RecipeLine),
		ingredients: make(map[uuid.UUID]storage.Ingredient),
	}
}

func (v *view) covers(date string) bool {
	return v.start <= date && date <= v.end
}

func (v *view) clone() *view {
	c := newView(v.owner, v.start, v.end)
	for id, n := range v.planned {
		c.planned[id] = n
	}
	for id, ls := range v.lines {
		c.lines[id] = ls
	}
	for id, ing := range v.ingredients {
		c.ingredients[id] = ing
	}
	return c
}

func (v *view) input() Input {
	in := Input{Ingredients: v.ingredients}
	for id := range v.planned {
		in.RecipeIDs = append(in.RecipeIDs, id)
		in.Lines = append(in.Lines, v.lines[id]...)
	}
	return in
}
