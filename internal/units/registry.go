package units

import (
	"math/big"
	"sort"
	"strings"
)

// Group is a compatibility group: quantities are summable only within one.
type Group string

const (
	GroupMass   Group = "mass"
	GroupVolume Group = "volume"
	GroupCount  Group = "count"
	GroupNone   Group = "none"
)

// Unit describes one known unit code.
type Unit struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group Group  `json:"group"`
	// toBase is the exact number of family-default units in one of this unit.
	toBase *big.Rat
}

// Registry holds the known units. The zero value is unusable; use Default.
type Registry struct {
	byCode   map[string]Unit
	aliases  map[string]string
	defaults map[Group]string
}

func rat(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic("units: bad ratio " + s)
	}
	return r
}

// Default returns the registry used by the application. Spoons and cups are
// metric (5 ml, 15 ml, 250 ml) so every ratio is exact.
func Default() *Registry {
	r := &Registry{
		byCode:  make(map[string]Unit),
		aliases: make(map[string]string),
		defaults: map[Group]string{
			GroupMass:   "g",
			GroupVolume: "ml",
			GroupCount:  "pc",
		},
	}

	r.add(Unit{Code: "mg", Name: "milligram", Group: GroupMass, toBase: rat("1/1000")}, "milligram", "milligrams")
	r.add(Unit{Code: "g", Name: "gram", Group: GroupMass, toBase: rat("1")}, "gr", "gram", "grams")
	r.add(Unit{Code: "kg", Name: "kilogram", Group: GroupMass, toBase: rat("1000")}, "kilo", "kilos", "kilogram", "kilograms")
	r.add(Unit{Code: "oz", Name: "ounce", Group: GroupMass, toBase: rat("28.349523125")}, "ounce", "ounces")
	r.add(Unit{Code: "lb", Name: "pound", Group: GroupMass, toBase: rat("453.59237")}, "lbs", "pound", "pounds")

	r.add(Unit{Code: "ml", Name: "millilitre", Group: GroupVolume, toBase: rat("1")}, "milliliter", "milliliters", "millilitre", "millilitres")
	r.add(Unit{Code: "l", Name: "litre", Group: GroupVolume, toBase: rat("1000")}, "liter", "liters", "litre", "litres")
	r.add(Unit{Code: "tsp", Name: "teaspoon", Group: GroupVolume, toBase: rat("5")}, "teaspoon", "teaspoons")
	r.add(Unit{Code: "tbsp", Name: "tablespoon", Group: GroupVolume, toBase: rat("15")}, "tablespoon", "tablespoons", "tbs")
	r.add(Unit{Code: "cup", Name: "cup", Group: GroupVolume, toBase: rat("250")}, "cups")
	r.add(Unit{Code: "fl_oz", Name: "fluid ounce", Group: GroupVolume, toBase: rat("29.5735295625")}, "floz", "fl oz", "fl. oz")

	r.add(Unit{Code: "pc", Name: "piece", Group: GroupCount, toBase: rat("1")}, "pcs", "piece", "pieces")

	return r
}

func (r *Registry) add(u Unit, aliases ...string) {
	r.byCode[u.Code] = u
	for _, a := range aliases {
		r.aliases[a] = u.Code
	}
}

// Normalize maps user input to a canonical code. Known aliases collapse to
// their code; unknown codes are lowercased and kept so they can form their
// own group. Blank input means "no unit" and returns "".
func (r *Registry) Normalize(code string) string {
	c := strings.ToLower(strings.Join(strings.Fields(code), " "))
	if c == "" {
		return ""
	}
	if _, ok := r.byCode[c]; ok {
		return c
	}
	if canonical, ok := r.aliases[c]; ok {
		return canonical
	}
	return c
}

// CompatibilityGroup returns the group of a code. No unit is GroupNone;
// an unknown code is a singleton group that only matches itself.
func (r *Registry) CompatibilityGroup(code string) Group {
	c := r.Normalize(code)
	if c == "" {
		return GroupNone
	}
	if u, ok := r.byCode[c]; ok {
		return u.Group
	}
	return Group("unit:" + c)
}

// AreSummable reports whether quantities in a and b may be added.
func (r *Registry) AreSummable(a, b string) bool {
	return r.CompatibilityGroup(a) == r.CompatibilityGroup(b)
}

// Known reports whether code normalizes to a registered unit.
func (r *Registry) Known(code string) bool {
	_, ok := r.byCode[r.Normalize(code)]
	return ok
}

// ToBase returns how many family-default units one code is worth.
// ok is false for blank and unknown codes, which never convert.
func (r *Registry) ToBase(code string) (*big.Rat, bool) {
	u, ok := r.byCode[r.Normalize(code)]
	if !ok {
		return nil, false
	}
	return new(big.Rat).Set(u.toBase), true
}

// FamilyDefault returns the display unit for a group ("" when the group has
// no conversion family).
func (r *Registry) FamilyDefault(g Group) string {
	return r.defaults[g]
}

// List returns the registered units ordered by group then code.
func (r *Registry) List() []Unit {
	list := make([]Unit, 0, len(r.byCode))
	for _, u := range r.byCode {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Group != list[j].Group {
			return list[i].Group < list[j].Group
		}
		return list[i].Code < list[j].Code
	})
	return list
}
