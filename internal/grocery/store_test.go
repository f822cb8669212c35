package grocery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fdg312/mealcart/internal/quantity"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/fdg312/mealcart/internal/storage/memory"
	"github.com/fdg312/mealcart/internal/units"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const owner = "u1"

type env struct {
	t     *testing.T
	st    *memory.MemoryStorage
	agg   *Aggregator
	store *Store
	ings  map[string]uuid.UUID
}

func newEnv(t *testing.T) *env {
	st := memory.New()
	agg := NewAggregator(st, units.Default(), zap.NewNop())
	return &env{
		t:     t,
		st:    st,
		agg:   agg,
		store: NewStore(agg, st, time.Minute, zap.NewNop()),
		ings:  make(map[string]uuid.UUID),
	}
}

func (e *env) ingredient(name string) uuid.UUID {
	if id, ok := e.ings[name]; ok {
		return id
	}
	ing := storage.Ingredient{Name: name, NormName: name}
	require.NoError(e.t, e.st.CreateIngredient(context.Background(), &ing))
	e.ings[name] = ing.ID
	return ing.ID
}

// recipe saves a recipe from (ingredient, quantity, unit) triples.
func (e *env) recipe(title string, parts ...[3]string) uuid.UUID {
	id := uuid.New()
	lines := make([]storage.RecipeLine, 0, len(parts))
	for _, p := range parts {
		l := storage.RecipeLine{IngredientID: e.ingredient(p[0]), Unit: p[2]}
		if p[1] != "" {
			l.Quantity = quantity.MustParse(p[1])
		}
		lines = append(lines, l)
	}
	require.NoError(e.t, e.st.ReplaceRecipeLines(context.Background(), storage.Recipe{ID: id, Title: title}, lines))
	return id
}

// plan adds or removes an entry the way the meal plan service does.
func (e *env) plan(date string, recipeID uuid.UUID, change PlanChange) {
	ctx := context.Background()
	unlock := e.store.LockOwner(owner)
	defer unlock()

	var changed bool
	var err error
	if change == PlanAdded {
		changed, err = e.st.AddPlanEntry(ctx, owner, date, recipeID)
	} else {
		changed, err = e.st.RemovePlanEntry(ctx, owner, date, recipeID)
	}
	require.NoError(e.t, err)
	if changed {
		e.store.OnPlanChanged(ctx, owner, date, recipeID, change)
	}
}

func (e *env) list(start, end string) List {
	list, err := e.store.CurrentList(context.Background(), owner, start, end)
	require.NoError(e.t, err)
	return list
}

func (e *env) assertMatchesRecompute(start, end string) {
	e.t.Helper()
	ok, err := e.store.Verify(context.Background(), owner, start, end)
	require.NoError(e.t, err)
	assert.True(e.t, ok, "cached view differs from a fresh recompute")
}

func lineNames(list List) []string {
	names := make([]string, 0, len(list.Lines))
	for _, l := range list.Lines {
		names = append(names, l.Name)
	}
	return names
}

func TestStoreIdempotentReads(t *testing.T) {
	e := newEnv(t)
	r := e.recipe("Pancakes", [3]string{"Flour", "2", "cup"}, [3]string{"Egg", "2", ""})
	e.plan("2026-03-02", r, PlanAdded)

	first := e.list("2026-03-02", "2026-03-08")
	second := e.list("2026-03-02", "2026-03-08")
	assert.True(t, EqualLines(linesOf(first), linesOf(second)))
	assert.Equal(t, []string{"Egg", "Flour"}, lineNames(first))
}

func linesOf(list List) []Line {
	out := make([]Line, 0, len(list.Lines))
	for _, l := range list.Lines {
		out = append(out, l.Line)
	}
	return out
}

func TestStorePlanChangesMatchRecompute(t *testing.T) {
	e := newEnv(t)
	a := e.recipe("Soup", [3]string{"Salt", "", ""}, [3]string{"Onion", "1", ""})
	b := e.recipe("Stew", [3]string{"Salt", "2", "tsp"}, [3]string{"Onion", "2", ""}, [3]string{"Beef", "500", "g"})
	start, end := "2026-03-02", "2026-03-08"

	e.list(start, end)
	e.plan("2026-03-02", a, PlanAdded)
	e.assertMatchesRecompute(start, end)
	e.plan("2026-03-03", b, PlanAdded)
	e.assertMatchesRecompute(start, end)
	e.plan("2026-03-04", b, PlanAdded)
	e.assertMatchesRecompute(start, end)

	list := e.list(start, end)
	onion := findLine(t, linesOf(list), "Onion", units.GroupNone)
	assert.Zero(t, quantity.MustParse("3").Cmp(onion.Total), "a recipe counts once per range")

	e.plan("2026-03-03", b, PlanRemoved)
	e.assertMatchesRecompute(start, end)
	list = e.list(start, end)
	assert.Contains(t, lineNames(list), "Beef", "b is still planned on the 4th")

	e.plan("2026-03-04", b, PlanRemoved)
	e.assertMatchesRecompute(start, end)
	list = e.list(start, end)
	assert.NotContains(t, lineNames(list), "Beef")

	e.plan("2026-03-20", b, PlanAdded)
	e.assertMatchesRecompute(start, end)
	assert.NotContains(t, lineNames(e.list(start, end)), "Beef", "outside the range")
}

func TestStoreCommutativeAdds(t *testing.T) {
	build := func(order ...int) []Line {
		e := newEnv(t)
		a := e.recipe("A", [3]string{"Salt", "1", "tsp"}, [3]string{"Milk", "1", "cup"})
		b := e.recipe("B", [3]string{"Salt", "", ""}, [3]string{"Milk", "2", "tbsp"})
		ids := []uuid.UUID{a, b}
		e.list("2026-03-02", "2026-03-02")
		for _, i := range order {
			e.plan("2026-03-02", ids[i], PlanAdded)
		}
		return linesOf(e.list("2026-03-02", "2026-03-02"))
	}

	ab := build(0, 1)
	ba := build(1, 0)
	require.Len(t, ab, 2)
	require.Len(t, ba, 2)

	// Recipe ids differ between envs; compare everything else.
	for i := range ab {
		assert.Equal(t, ab[i].Name, ba[i].Name)
		assert.Equal(t, ab[i].Unit, ba[i].Unit)
		assert.Equal(t, ab[i].Mixed, ba[i].Mixed)
		assert.Equal(t, ab[i].ToTaste, ba[i].ToTaste)
		assert.Zero(t, ab[i].Total.Cmp(ba[i].Total))
	}
}

func TestStoreAddThenRemoveRestoresAndKeepsManualItems(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	base := e.recipe("Base", [3]string{"Rice", "200", "g"})
	extra := e.recipe("Extra", [3]string{"Rice", "1/3", "kg"}, [3]string{"Lime", "1", ""})
	start, end := "2026-03-02", "2026-03-08"

	e.plan("2026-03-02", base, PlanAdded)
	towels, err := e.store.AddManualItem(ctx, owner, "Paper towels", nil, "")
	require.NoError(t, err)

	before := e.list(start, end)
	e.plan("2026-03-05", extra, PlanAdded)
	during := e.list(start, end)
	e.plan("2026-03-05", extra, PlanRemoved)
	after := e.list(start, end)

	assert.False(t, EqualLines(linesOf(before), linesOf(during)))
	assert.True(t, EqualLines(linesOf(before), linesOf(after)))
	for _, l := range []List{before, during, after} {
		require.Len(t, l.Manual, 1)
		assert.Equal(t, towels.ID, l.Manual[0].ID)
	}
}

func TestStorePaperTowelsSurviveEmptyPlan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.recipe("A", [3]string{"Tomato", "3", ""})
	b := e.recipe("B", [3]string{"Basil", "", ""})
	start, end := "2026-03-02", "2026-03-08"

	_, err := e.store.AddManualItem(ctx, owner, "Paper towels", nil, "")
	require.NoError(t, err)
	e.plan("2026-03-02", a, PlanAdded)
	e.plan("2026-03-03", b, PlanAdded)
	assert.Len(t, e.list(start, end).Lines, 2)

	e.plan("2026-03-02", a, PlanRemoved)
	e.plan("2026-03-03", b, PlanRemoved)

	list := e.list(start, end)
	assert.Empty(t, list.Lines, "no zero-quantity ghosts")
	require.Len(t, list.Manual, 1)
	assert.Equal(t, "Paper towels", list.Manual[0].Label)
	e.assertMatchesRecompute(start, end)
}

func TestStoreRecipeChangeInvalidatesViews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r := e.recipe("Salad", [3]string{"Lettuce", "1", ""})
	e.plan("2026-03-02", r, PlanAdded)
	e.list("2026-03-02", "2026-03-02")

	require.NoError(t, e.st.ReplaceRecipeLines(ctx, storage.Recipe{ID: r, Title: "Salad"}, []storage.RecipeLine{
		{IngredientID: e.ingredient("Lettuce"), Quantity: quantity.MustParse("2")},
	}))
	e.store.OnRecipeChanged(r)

	list := e.list("2026-03-02", "2026-03-02")
	require.Len(t, list.Lines, 1)
	assert.Zero(t, quantity.MustParse("2").Cmp(list.Lines[0].Total))
	e.assertMatchesRecompute("2026-03-02", "2026-03-02")
}

func TestStoreChecksAndClear(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r := e.recipe("Toast", [3]string{"Bread", "1", ""}, [3]string{"Butter", "20", "g"})
	e.plan("2026-03-02", r, PlanAdded)

	soap, err := e.store.AddManualItem(ctx, owner, "Soap", nil, "")
	require.NoError(t, err)
	_, err = e.store.AddManualItem(ctx, owner, "Foil", quantity.MustParse("1"), "pc")
	require.NoError(t, err)

	list := e.list("2026-03-02", "2026-03-02")
	bread := findLine(t, linesOf(list), "Bread", units.GroupNone)
	require.NoError(t, e.store.SetLineChecked(ctx, owner, bread.Key, true))
	require.NoError(t, e.store.SetManualChecked(ctx, owner, soap.ID, true))
	assert.ErrorIs(t, e.store.SetManualChecked(ctx, owner, uuid.New(), true), storage.ErrNotFound)

	list = e.list("2026-03-02", "2026-03-02")
	for _, l := range list.Lines {
		assert.Equal(t, l.Name == "Bread", l.Checked, l.Name)
	}
	assert.Equal(t, AisleBakery, findListLine(t, list, "Bread").Aisle)

	n, err := e.store.ClearChecked(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list = e.list("2026-03-02", "2026-03-02")
	require.Len(t, list.Manual, 1)
	assert.Equal(t, "Foil", list.Manual[0].Label)
	for _, l := range list.Lines {
		assert.False(t, l.Checked)
	}
}

func findListLine(t *testing.T, list List, name string) ListLine {
	t.Helper()
	for _, l := range list.Lines {
		if l.Name == name {
			return l
		}
	}
	t.Fatalf("no line named %s", name)
	return ListLine{}
}

func TestStoreRemoveMissingManualItemSucceeds(t *testing.T) {
	e := newEnv(t)
	assert.NoError(t, e.store.RemoveManualItem(context.Background(), owner, uuid.New()))
}

func TestStoreConcurrentAddsConverge(t *testing.T) {
	e := newEnv(t)
	start, end := "2026-03-02", "2026-03-08"
	var recipes []uuid.UUID
	for i := 0; i < 6; i++ {
		recipes = append(recipes, e.recipe("R", [3]string{"Salt", "1", "tsp"}, [3]string{"Water", "1", "cup"}))
	}
	e.list(start, end)

	var wg sync.WaitGroup
	for i, r := range recipes {
		wg.Add(1)
		go func(day int, r uuid.UUID) {
			defer wg.Done()
			e.plan("2026-03-0"+string(rune('2'+day%5)), r, PlanAdded)
		}(i, r)
	}
	wg.Wait()

	e.assertMatchesRecompute(start, end)
	list := e.list(start, end)
	salt := findLine(t, linesOf(list), "Salt", units.GroupVolume)
	assert.Zero(t, quantity.MustParse("6").Cmp(salt.Total))
	assert.Len(t, salt.SourceRecipeIDs, 6)
}

func TestComputeListEmptyRange(t *testing.T) {
	e := newEnv(t)
	res, err := e.agg.ComputeList(context.Background(), owner, "2026-03-02", "2026-03-08")
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
}
