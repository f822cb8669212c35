package grocery

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fdg312/mealcart/internal/blob"
	"github.com/fdg312/mealcart/internal/quantity"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAisleFor(t *testing.T) {
	tests := map[string]string{
		"Cherry tomatoes":  AisleProduce,
		"Red bell pepper":  AisleProduce,
		"Greek yogurt":     AisleDairy,
		"Sourdough bread":  AisleBakery,
		"Extra virgin oil": AisleOils,
		"Sea salt":         AisleSpices,
		"Basmati rice":     AisleGrains,
		"Frozen peas":      AisleFrozen,
		"Paper towels":     AislePantry,
	}
	for name, want := range tests {
		assert.Equal(t, want, AisleFor(name), name)
	}
}

func sampleList() List {
	salt := Line{Key: "salt", Name: "Salt", Unit: "tsp", Total: quantity.MustParse("2"), ToTaste: true}
	milk := Line{
		Key: "milk", Name: "Milk", Unit: "ml", Mixed: true, Total: quantity.MustParse("260"),
		Breakdown: []UnitAmount{{Unit: "cup", Quantity: quantity.MustParse("1")}, {Unit: "tsp", Quantity: quantity.MustParse("2")}},
	}
	pepper := Line{Key: "pepper", Name: "Black pepper", ToTaste: true}
	bread := Line{Key: "bread", Name: "Bread", Unit: "", Total: quantity.MustParse("1")}

	return List{
		Start: "2026-03-02",
		End:   "2026-03-08",
		Lines: []ListLine{
			{Line: pepper, Aisle: AisleFor(pepper.Name)},
			{Line: bread, Aisle: AisleFor(bread.Name), Checked: true},
			{Line: milk, Aisle: AisleFor(milk.Name)},
			{Line: salt, Aisle: AisleFor(salt.Name)},
		},
		Manual: []storage.ManualItem{
			{ID: uuid.New(), Label: "Paper towels"},
			{ID: uuid.New(), Label: "Lemons", Quantity: quantity.MustParse("1.5"), Unit: "kg", Checked: true},
		},
	}
}

func TestRenderText(t *testing.T) {
	got := RenderText(sampleList())
	want := strings.Join([]string{
		"Grocery list",
		"2026-03-02 to 2026-03-08",
		"",
		"# Fresh Produce",
		"- Black pepper (to taste)",
		"",
		"# Dairy, Eggs & Fridge",
		"- 260 ml Milk (1 cup + 2 tsp)",
		"",
		"# Spices & Seasonings",
		"- 2 tsp Salt, plus some to taste",
		"",
		"# Extras",
		"- Paper towels",
		"",
		"# Checked items",
		"- 1.5 kg Lemons",
		"- 1 Bread",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderPDF(t *testing.T) {
	data, err := RenderPDF(sampleList())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	empty, err := RenderPDF(List{Start: "2026-03-02", End: "2026-03-02"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF-")))
}

func TestExporterPublish(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r := e.recipe("Tea", [3]string{"Milk", "50", "ml"})
	e.plan("2026-03-02", r, PlanAdded)

	local := NewExporter(e.store, nil, 0, zap.NewNop())
	assert.False(t, local.CanPublish())
	_, err := local.Publish(ctx, owner, "2026-03-02", "2026-03-02")
	assert.Error(t, err)

	blobs := blob.NewMemoryStore()
	exp := NewExporter(e.store, blobs, 120, zap.NewNop())
	resp, err := exp.Publish(ctx, owner, "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 120, resp.ExpiresIn)
	assert.True(t, strings.HasPrefix(resp.URL, "memory://grocery-exports/u1/2026-03-02_2026-03-02_"))

	keys := blobs.Keys()
	require.Len(t, keys, 1)
	data, err := blobs.GetObject(ctx, keys[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	text, err := exp.Text(ctx, owner, "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	assert.Contains(t, text, "- 50 ml Milk")
}
