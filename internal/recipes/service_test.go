package recipes

import (
	"context"
	"sync"
	"testing"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/fdg312/mealcart/internal/storage/memory"
	"github.com/fdg312/mealcart/internal/units"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingListener struct {
	mu      sync.Mutex
	changed []uuid.UUID
}

func (l *recordingListener) OnRecipeChanged(recipeID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changed = append(l.changed, recipeID)
}

func newTestService(t *testing.T) (*Service, *memory.MemoryStorage, *recordingListener) {
	t.Helper()
	st := memory.New()
	listener := &recordingListener{}
	return NewService(st, units.Default(), listener, zap.NewNop()), st, listener
}

func seed(t *testing.T, st *memory.MemoryStorage, name string) storage.Ingredient {
	t.Helper()
	ing := storage.Ingredient{Name: name, NormName: name}
	require.NoError(t, st.CreateIngredient(context.Background(), &ing))
	return ing
}

func TestSaveIngredientsParsesAndNumbers(t *testing.T) {
	ctx := context.Background()
	svc, st, listener := newTestService(t)
	flour := seed(t, st, "flour")
	salt := seed(t, st, "salt")
	recipeID := uuid.New()

	saved, err := svc.SaveIngredients(ctx, recipeID, "  Bread ", []LineInput{
		{IngredientID: flour.ID, Quantity: "1 1/2", Unit: "Cups", Notes: " sifted "},
		{IngredientID: salt.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bread", saved.Recipe.Title)
	require.Len(t, saved.Lines, 2)
	assert.Equal(t, 1, saved.Lines[0].Position)
	assert.Equal(t, "3/2", saved.Lines[0].Quantity.RatString())
	assert.Equal(t, "cup", saved.Lines[0].Unit)
	assert.Equal(t, "sifted", saved.Lines[0].Notes)
	assert.Equal(t, 2, saved.Lines[1].Position)
	assert.Nil(t, saved.Lines[1].Quantity)
	assert.Equal(t, "flour", saved.Ingredients[flour.ID].Name)
	assert.Equal(t, []uuid.UUID{recipeID}, listener.changed)

	touched, err := st.GetIngredient(ctx, flour.ID)
	require.NoError(t, err)
	assert.NotNil(t, touched.LastUsedAt)
}

func TestSaveIngredientsIsFullReplace(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	a := seed(t, st, "a")
	b := seed(t, st, "b")
	recipeID := uuid.New()

	_, err := svc.SaveIngredients(ctx, recipeID, "R", []LineInput{{IngredientID: a.ID, Quantity: "1"}, {IngredientID: b.ID, Quantity: "2"}})
	require.NoError(t, err)
	saved, err := svc.SaveIngredients(ctx, recipeID, "R", []LineInput{{IngredientID: b.ID, Quantity: "5"}})
	require.NoError(t, err)

	require.Len(t, saved.Lines, 1)
	assert.Equal(t, b.ID, saved.Lines[0].IngredientID)
	assert.Equal(t, "5", saved.Lines[0].Quantity.RatString())
}

func TestSaveIngredientsRejectsInvalidLines(t *testing.T) {
	ctx := context.Background()
	svc, st, listener := newTestService(t)
	a := seed(t, st, "a")
	recipeID := uuid.New()

	_, err := svc.SaveIngredients(ctx, recipeID, "R", []LineInput{
		{IngredientID: a.ID, Quantity: "0"},
		{IngredientID: a.ID, Quantity: "1/0"},
		{IngredientID: uuid.New(), Quantity: "1"},
		{Quantity: "abc"},
	})
	typed, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, typed.Kind)

	details := typed.Details.(map[string]any)
	lineErrs := details["lines"].([]LineError)
	assert.Equal(t, []LineError{
		{Index: 0, Field: "quantity", Code: "invalid_quantity"},
		{Index: 1, Field: "quantity", Code: "invalid_quantity"},
		{Index: 3, Field: "ingredient_id", Code: "ingredient_required"},
		{Index: 3, Field: "quantity", Code: "invalid_quantity"},
		{Index: 2, Field: "ingredient_id", Code: "ingredient_not_found"},
	}, lineErrs)

	_, err = st.GetRecipe(ctx, recipeID)
	assert.ErrorIs(t, err, storage.ErrNotFound, "nothing is stored when a line is invalid")
	assert.Empty(t, listener.changed)
}

func TestRemoveLineRenumbers(t *testing.T) {
	ctx := context.Background()
	svc, st, listener := newTestService(t)
	a, b, c := seed(t, st, "a"), seed(t, st, "b"), seed(t, st, "c")
	recipeID := uuid.New()
	_, err := svc.SaveIngredients(ctx, recipeID, "R", []LineInput{{IngredientID: a.ID}, {IngredientID: b.ID}, {IngredientID: c.ID}})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveLine(ctx, recipeID, 1))
	got, err := svc.Get(ctx, recipeID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, b.ID, got.Lines[0].IngredientID)
	assert.Equal(t, 1, got.Lines[0].Position)
	assert.Equal(t, 2, got.Lines[1].Position)
	assert.Len(t, listener.changed, 2)

	assert.True(t, apperr.Is(svc.RemoveLine(ctx, recipeID, 3), apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.RemoveLine(ctx, recipeID, 0), apperr.KindValidation))
}

func TestDeleteCascadesAndIsSilentWhenMissing(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	a := seed(t, st, "a")
	recipeID := uuid.New()
	_, err := svc.SaveIngredients(ctx, recipeID, "R", []LineInput{{IngredientID: a.ID, Quantity: "1"}})
	require.NoError(t, err)
	_, err = st.AddPlanEntry(ctx, "u1", "2026-03-02", recipeID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, recipeID))
	entries, err := st.ListPlanEntries(ctx, "u1", "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, st.DeleteIngredient(ctx, a.ID), "ingredient is no longer referenced")

	assert.NoError(t, svc.Delete(ctx, recipeID))
	_, err = svc.Get(ctx, recipeID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
