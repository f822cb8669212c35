package memory

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedIngredient(t *testing.T, m *MemoryStorage, name string) storage.Ingredient {
	t.Helper()
	ing := storage.Ingredient{Name: name, NormName: name}
	require.NoError(t, m.CreateIngredient(context.Background(), &ing))
	return ing
}

func TestCreateIngredientRejectsDuplicateNormName(t *testing.T) {
	m := New()
	seedIngredient(t, m, "tomato")

	dup := storage.Ingredient{Name: "Tomato", NormName: "tomato"}
	err := m.CreateIngredient(context.Background(), &dup)
	assert.ErrorIs(t, err, storage.ErrDuplicateName)
}

func TestSearchIngredientsRanking(t *testing.T) {
	ctx := context.Background()
	m := New()
	seedIngredient(t, m, "green onion")
	onionPowder := seedIngredient(t, m, "onion powder")
	seedIngredient(t, m, "onion")
	seedIngredient(t, m, "garlic")

	used := time.Now()
	require.NoError(t, m.TouchIngredients(ctx, []uuid.UUID{onionPowder.ID}, used))

	got, err := m.SearchIngredients(ctx, "onion", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "onion", got[0].NormName)
	assert.Equal(t, "onion powder", got[1].NormName)
	assert.Equal(t, "green onion", got[2].NormName)

	limited, err := m.SearchIngredients(ctx, "onion", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteIngredientReferenced(t *testing.T) {
	ctx := context.Background()
	m := New()
	salt := seedIngredient(t, m, "salt")
	recipeID := uuid.New()

	require.NoError(t, m.ReplaceRecipeLines(ctx, storage.Recipe{ID: recipeID, Title: "Soup"}, []storage.RecipeLine{
		{IngredientID: salt.ID},
	}))
	assert.ErrorIs(t, m.DeleteIngredient(ctx, salt.ID), storage.ErrReferenced)

	require.NoError(t, m.DeleteRecipe(ctx, recipeID))
	assert.NoError(t, m.DeleteIngredient(ctx, salt.ID))
	assert.ErrorIs(t, m.DeleteIngredient(ctx, salt.ID), storage.ErrNotFound)
}

func TestReplaceRecipeLinesRenumbersAndCopies(t *testing.T) {
	ctx := context.Background()
	m := New()
	a := seedIngredient(t, m, "a")
	b := seedIngredient(t, m, "b")
	c := seedIngredient(t, m, "c")
	recipeID := uuid.New()

	qty := big.NewRat(3, 2)
	require.NoError(t, m.ReplaceRecipeLines(ctx, storage.Recipe{ID: recipeID}, []storage.RecipeLine{
		{IngredientID: a.ID, Position: 7, Quantity: qty},
		{IngredientID: b.ID, Position: 3},
		{IngredientID: c.ID, Position: 3},
	}))
	qty.SetInt64(100)

	lines, err := m.ListRecipeLines(ctx, recipeID)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for i, l := range lines {
		assert.Equal(t, i+1, l.Position)
	}
	assert.Zero(t, big.NewRat(3, 2).Cmp(lines[0].Quantity))

	require.NoError(t, m.DeleteRecipeLine(ctx, recipeID, 2))
	lines, err = m.ListRecipeLines(ctx, recipeID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, a.ID, lines[0].IngredientID)
	assert.Equal(t, c.ID, lines[1].IngredientID)
	assert.Equal(t, 2, lines[1].Position)

	assert.ErrorIs(t, m.DeleteRecipeLine(ctx, recipeID, 3), storage.ErrNotFound)
}

func TestReplaceRecipeLinesUnknownIngredient(t *testing.T) {
	m := New()
	err := m.ReplaceRecipeLines(context.Background(), storage.Recipe{ID: uuid.New()}, []storage.RecipeLine{
		{IngredientID: uuid.New()},
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPlanEntriesIdempotentAndCascade(t *testing.T) {
	ctx := context.Background()
	m := New()
	recipeID := uuid.New()
	require.NoError(t, m.ReplaceRecipeLines(ctx, storage.Recipe{ID: recipeID}, nil))

	added, err := m.AddPlanEntry(ctx, "u1", "2026-03-02", recipeID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = m.AddPlanEntry(ctx, "u1", "2026-03-02", recipeID)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = m.AddPlanEntry(ctx, "u1", "2026-03-05", recipeID)
	require.NoError(t, err)

	entries, err := m.ListPlanEntries(ctx, "u1", "2026-03-01", "2026-03-04")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	other, err := m.ListPlanEntries(ctx, "u2", "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = m.AddPlanEntry(ctx, "u1", "2026-03-02", uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, m.DeleteRecipe(ctx, recipeID))
	entries, err = m.ListPlanEntries(ctx, "u1", "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Empty(t, entries)

	removed, err := m.RemovePlanEntry(ctx, "u1", "2026-03-02", recipeID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestManualItemsAndChecks(t *testing.T) {
	ctx := context.Background()
	m := New()

	towels := storage.ManualItem{OwnerUserID: "u1", Label: "Paper towels"}
	soap := storage.ManualItem{OwnerUserID: "u1", Label: "Soap"}
	require.NoError(t, m.CreateManualItem(ctx, &towels))
	require.NoError(t, m.CreateManualItem(ctx, &soap))

	require.NoError(t, m.SetManualItemChecked(ctx, "u1", soap.ID, true))
	assert.ErrorIs(t, m.SetManualItemChecked(ctx, "u2", soap.ID, true), storage.ErrNotFound)

	n, err := m.DeleteCheckedManualItems(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	items, err := m.ListManualItems(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Paper towels", items[0].Label)

	require.NoError(t, m.SetLineChecked(ctx, "u1", "k1", true))
	require.NoError(t, m.SetLineChecked(ctx, "u1", "k2", true))
	require.NoError(t, m.SetLineChecked(ctx, "u1", "k2", false))
	checked, err := m.ListCheckedLines(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"k1": true}, checked)

	require.NoError(t, m.ClearCheckedLines(ctx, "u1"))
	checked, err = m.ListCheckedLines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, checked)
}
