package ingredients

import (
	"context"
	"sync"
	"testing"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/fdg312/mealcart/internal/storage/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() (*Service, *memory.MemoryStorage) {
	st := memory.New()
	return NewService(st, 50, zap.NewNop()), st
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "green onion", NormalizeName("  Green   Onion "))
	assert.Equal(t, "Green Onion", DisplayName("  Green   Onion "))
	assert.Equal(t, "", NormalizeName(" \t "))
}

func TestResolveOrCreateSameNameTwiceReturnsSameID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	first, created, err := svc.ResolveOrCreate(ctx, "Tomato", "u1", true)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.ResolveOrCreate(ctx, "Tomato", "u1", true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	third, _, err := svc.ResolveOrCreate(ctx, "  tomato ", "u2", false)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
}

func TestResolveOrCreateRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	_, _, err := svc.ResolveOrCreate(ctx, "Tomato", "u1", true)
	require.NoError(t, err)

	_, _, err = svc.ResolveOrCreate(ctx, "Tomatoe", "u1", false)
	typed, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConfirmationRequired, typed.Kind)

	found, err := st.SearchIngredients(ctx, "tomatoe", 10)
	require.NoError(t, err)
	assert.Empty(t, found, "unconfirmed create must not persist anything")
}

func TestResolveOrCreateRejectsBlankName(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.ResolveOrCreate(context.Background(), "   ", "u1", true)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

// racingStorage simulates another session creating the same name between
// the lookup and the insert.
type racingStorage struct {
	*memory.MemoryStorage
	once sync.Once
}

func (r *racingStorage) CreateIngredient(ctx context.Context, ing *storage.Ingredient) error {
	r.once.Do(func() {
		winner := storage.Ingredient{Name: ing.Name, NormName: ing.NormName}
		_ = r.MemoryStorage.CreateIngredient(ctx, &winner)
	})
	return r.MemoryStorage.CreateIngredient(ctx, ing)
}

func TestResolveOrCreateLostRaceRetriesAsLookup(t *testing.T) {
	ctx := context.Background()
	st := &racingStorage{MemoryStorage: memory.New()}
	svc := NewService(st, 50, zap.NewNop())

	ing, created, err := svc.ResolveOrCreate(ctx, "Basil", "u1", true)
	require.NoError(t, err)
	assert.False(t, created)

	winner, err := st.GetIngredientByNormName(ctx, "basil")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, ing.ID)
}

// vanishingStorage reports a duplicate on insert, but the winning row is
// gone again by the time it is looked up.
type vanishingStorage struct {
	*memory.MemoryStorage
}

func (v *vanishingStorage) CreateIngredient(ctx context.Context, ing *storage.Ingredient) error {
	if ing.NormName == "sage" {
		return storage.ErrDuplicateName
	}
	return v.MemoryStorage.CreateIngredient(ctx, ing)
}

func TestResolveOrCreateLostRaceWithoutWinnerCarriesDetails(t *testing.T) {
	ctx := context.Background()
	st := &vanishingStorage{MemoryStorage: memory.New()}
	svc := NewService(st, 50, zap.NewNop())
	_, _, err := svc.ResolveOrCreate(ctx, "Sage leaves", "u1", true)
	require.NoError(t, err)

	_, _, err = svc.ResolveOrCreate(ctx, " Sage ", "u1", true)
	typed, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindDuplicateName, typed.Kind)

	details, ok := typed.Details.(map[string]any)
	require.True(t, ok, "duplicate error must carry details")
	assert.Equal(t, "sage", details["norm_name"])
	suggestions, ok := details["suggestions"].([]IngredientDTO)
	require.True(t, ok)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Sage leaves", suggestions[0].Name)
}

func TestResolveOrCreateConcurrentCallsConverge(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	const workers = 8
	ids := make([]uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ing, _, err := svc.ResolveOrCreate(ctx, "Cumin", "u1", true)
			if err == nil {
				ids[i] = ing.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEqual(t, uuid.Nil, ids[0])
}

func TestResolveSuggestsWithoutCreating(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	_, _, err := svc.ResolveOrCreate(ctx, "Red onion", "u1", true)
	require.NoError(t, err)

	res, err := svc.Resolve(ctx, "onion")
	require.NoError(t, err)
	assert.Nil(t, res.Match)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "Red onion", res.Suggestions[0].Name)
}

func TestDeleteRules(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	mine, _, err := svc.ResolveOrCreate(ctx, "Saffron", "u1", true)
	require.NoError(t, err)

	err = svc.Delete(ctx, mine.ID, "u2")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	recipeID := uuid.New()
	require.NoError(t, st.ReplaceRecipeLines(ctx, storage.Recipe{ID: recipeID}, []storage.RecipeLine{{IngredientID: mine.ID}}))
	err = svc.Delete(ctx, mine.ID, "u1")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, st.DeleteRecipe(ctx, recipeID))
	require.NoError(t, svc.Delete(ctx, mine.ID, "u1"))

	err = svc.Delete(ctx, mine.ID, "u1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteSeededIngredientIsForbidden(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	seeded := storage.Ingredient{Name: "Water", NormName: "water"}
	require.NoError(t, st.CreateIngredient(ctx, &seeded))

	err := svc.Delete(ctx, seeded.ID, "u1")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}
