package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	r := Default()
	cases := map[string]string{
		"":            "",
		"   ":         "",
		"g":           "g",
		"Grams":       "g",
		" TBSP ":      "tbsp",
		"Tablespoons": "tbsp",
		"fl  oz":      "fl_oz",
		"cups":        "cup",
		"Pinch":       "pinch",
	}
	for in, want := range cases {
		assert.Equal(t, want, r.Normalize(in), "Normalize(%q)", in)
	}
}

func TestCompatibilityGroup(t *testing.T) {
	r := Default()
	assert.Equal(t, GroupMass, r.CompatibilityGroup("kg"))
	assert.Equal(t, GroupVolume, r.CompatibilityGroup("cup"))
	assert.Equal(t, GroupVolume, r.CompatibilityGroup("teaspoons"))
	assert.Equal(t, GroupCount, r.CompatibilityGroup("pc"))
	assert.Equal(t, GroupNone, r.CompatibilityGroup(""))
	assert.Equal(t, Group("unit:pinch"), r.CompatibilityGroup("Pinch"))
}

func TestAreSummable(t *testing.T) {
	r := Default()
	assert.True(t, r.AreSummable("g", "kg"))
	assert.True(t, r.AreSummable("tsp", "cup"))
	assert.True(t, r.AreSummable("", ""))
	assert.True(t, r.AreSummable("pinch", "PINCH"))

	assert.False(t, r.AreSummable("g", "cup"))
	assert.False(t, r.AreSummable("pc", ""))
	assert.False(t, r.AreSummable("pinch", "dash"))
	assert.False(t, r.AreSummable("pinch", ""))
}

func TestToBaseIsExact(t *testing.T) {
	r := Default()

	cup, ok := r.ToBase("cup")
	require.True(t, ok)
	tbsp, ok := r.ToBase("tbsp")
	require.True(t, ok)
	tsp, ok := r.ToBase("tsp")
	require.True(t, ok)

	assert.Zero(t, new(big.Rat).Mul(tsp, big.NewRat(3, 1)).Cmp(tbsp), "3 tsp must equal 1 tbsp")
	assert.Zero(t, big.NewRat(250, 1).Cmp(cup))

	lb, ok := r.ToBase("lb")
	require.True(t, ok)
	assert.Equal(t, "45359237/100000", lb.RatString())

	_, ok = r.ToBase("pinch")
	assert.False(t, ok)
	_, ok = r.ToBase("")
	assert.False(t, ok)
}

func TestToBaseReturnsCopy(t *testing.T) {
	r := Default()
	g, _ := r.ToBase("kg")
	g.SetInt64(1)

	again, _ := r.ToBase("kg")
	assert.Zero(t, big.NewRat(1000, 1).Cmp(again))
}

func TestFamilyDefault(t *testing.T) {
	r := Default()
	assert.Equal(t, "g", r.FamilyDefault(GroupMass))
	assert.Equal(t, "ml", r.FamilyDefault(GroupVolume))
	assert.Equal(t, "pc", r.FamilyDefault(GroupCount))
	assert.Equal(t, "", r.FamilyDefault(GroupNone))
}

func TestListIsOrdered(t *testing.T) {
	list := Default().List()
	require.NotEmpty(t, list)
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		assert.True(t, prev.Group < cur.Group || (prev.Group == cur.Group && prev.Code < cur.Code))
	}
}
