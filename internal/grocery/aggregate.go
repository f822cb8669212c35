package grocery

import (
	"math/big"
	"sort"
	"strings"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/fdg312/mealcart/internal/units"
	"github.com/google/uuid"
)

// Warning reasons for recipe lines excluded from a list.
const (
	ReasonNonPositiveQuantity = "non_positive_quantity"
	ReasonInvalidQuantity     = "invalid_quantity"
	ReasonUnknownIngredient   = "unknown_ingredient"
)

// Line is one merged grocery line: an ingredient within one compatibility group.
type Line struct {
	Key          string
	IngredientID uuid.UUID
	Name         string
	Group        units.Group
	// Unit is the shared unit code, or the family default when Mixed.
	Unit  string
	Mixed bool
	// Total is nil when no contributing line carries a quantity.
	Total *big.Rat
	// Breakdown lists the per-unit subtotals behind a Mixed total.
	Breakdown []UnitAmount
	// ToTaste marks an additional use without a quantity somewhere in the range.
	ToTaste         bool
	SourceRecipeIDs []uuid.UUID
}

// UnitAmount is a subtotal in one unit.
type UnitAmount struct {
	Unit     string
	Quantity *big.Rat
}

// Warning reports a stored recipe line that was left out of the sum.
type Warning struct {
	RecipeID     uuid.UUID
	Position     int
	IngredientID uuid.UUID
	Reason       string
}

// Input is everything a list depends on.
type Input struct {
	RecipeIDs   []uuid.UUID
	Lines       []storage.RecipeLine
	Ingredients map[uuid.UUID]storage.Ingredient
}

// Result is the merged list plus the lines excluded from it.
type Result struct {
	Lines    []Line
	Warnings []Warning
}

// LineKey identifies a merged line across recomputations. Check marks are
// stored against it.
func LineKey(ingredientID uuid.UUID, group units.Group) string {
	return ingredientID.String() + ":" + string(group)
}

type accumulator struct {
	ingredientID uuid.UUID
	group        units.Group
	perUnit      map[string]*big.Rat
	units        map[string]bool
	toTaste      bool
	sources      map[uuid.UUID]bool
}

// Aggregate merges the lines of the planned recipes into grocery lines.
//
// Lines are grouped by (ingredient, compatibility group). Within a group,
// identical units are summed as is; different units are converted to the
// family default unit and summed exactly, and the line is marked Mixed with a
// per-unit breakdown. Units from different groups are never combined. A line
// with neither quantity nor unit marks its ingredient as "to taste" on every
// merged line of that ingredient, or forms its own line when the ingredient
// has no other use. The result is independent of input order.
func Aggregate(in Input, reg *units.Registry) Result {
	planned := make(map[uuid.UUID]bool, len(in.RecipeIDs))
	for _, id := range in.RecipeIDs {
		planned[id] = true
	}

	var res Result
	groups := make(map[string]*accumulator)
	markers := make(map[uuid.UUID]map[uuid.UUID]bool)

	for _, l := range in.Lines {
		if !planned[l.RecipeID] {
			continue
		}
		if _, ok := in.Ingredients[l.IngredientID]; !ok {
			res.Warnings = append(res.Warnings, warningFor(l, ReasonUnknownIngredient))
			continue
		}
		if l.Corrupt {
			res.Warnings = append(res.Warnings, warningFor(l, ReasonInvalidQuantity))
			continue
		}
		if l.Quantity != nil && l.Quantity.Sign() <= 0 {
			res.Warnings = append(res.Warnings, warningFor(l, ReasonNonPositiveQuantity))
			continue
		}

		unit := reg.Normalize(l.Unit)
		if l.Quantity == nil && unit == "" {
			if markers[l.IngredientID] == nil {
				markers[l.IngredientID] = make(map[uuid.UUID]bool)
			}
			markers[l.IngredientID][l.RecipeID] = true
			continue
		}

		group := reg.CompatibilityGroup(unit)
		key := LineKey(l.IngredientID, group)
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{
				ingredientID: l.IngredientID,
				group:        group,
				perUnit:      make(map[string]*big.Rat),
				units:        make(map[string]bool),
				sources:      make(map[uuid.UUID]bool),
			}
			groups[key] = acc
		}
		acc.sources[l.RecipeID] = true
		acc.units[unit] = true
		if l.Quantity == nil {
			acc.toTaste = true
			continue
		}
		sum, ok := acc.perUnit[unit]
		if !ok {
			sum = new(big.Rat)
			acc.perUnit[unit] = sum
		}
		sum.Add(sum, l.Quantity)
	}

	lines := make([]Line, 0, len(groups)+len(markers))
	withLines := make(map[uuid.UUID]bool)
	for key, acc := range groups {
		line := acc.finish(reg)
		line.Key = key
		line.Name = in.Ingredients[acc.ingredientID].Name
		if recipes, ok := markers[acc.ingredientID]; ok {
			line.ToTaste = true
			for id := range recipes {
				acc.sources[id] = true
			}
		}
		line.SourceRecipeIDs = sortedIDs(acc.sources)
		withLines[acc.ingredientID] = true
		lines = append(lines, line)
	}

	for ingredientID, recipes := range markers {
		if withLines[ingredientID] {
			continue
		}
		lines = append(lines, Line{
			Key:             LineKey(ingredientID, units.GroupNone),
			IngredientID:    ingredientID,
			Name:            in.Ingredients[ingredientID].Name,
			Group:           units.GroupNone,
			ToTaste:         true,
			SourceRecipeIDs: sortedIDs(recipes),
		})
	}

	sortLines(lines)
	sortWarnings(res.Warnings)
	res.Lines = lines
	return res
}

func (acc *accumulator) finish(reg *units.Registry) Line {
	line := Line{
		IngredientID: acc.ingredientID,
		Group:        acc.group,
		ToTaste:      acc.toTaste,
	}

	if len(acc.units) == 1 {
		for u := range acc.units {
			line.Unit = u
		}
	} else {
		line.Unit = reg.FamilyDefault(acc.group)
	}

	switch len(acc.perUnit) {
	case 0:
		return line
	case 1:
		for u, sum := range acc.perUnit {
			line.Unit = u
			line.Total = new(big.Rat).Set(sum)
		}
		return line
	}

	target := reg.FamilyDefault(acc.group)
	targetRatio, _ := reg.ToBase(target)
	total := new(big.Rat)
	codes := make([]string, 0, len(acc.perUnit))
	for u := range acc.perUnit {
		codes = append(codes, u)
	}
	sort.Strings(codes)
	for _, u := range codes {
		sum := acc.perUnit[u]
		ratio, _ := reg.ToBase(u)
		converted := new(big.Rat).Mul(sum, ratio)
		total.Add(total, converted.Quo(converted, targetRatio))
		line.Breakdown = append(line.Breakdown, UnitAmount{Unit: u, Quantity: new(big.Rat).Set(sum)})
	}

	line.Unit = target
	line.Mixed = true
	line.Total = total
	return line
}

func warningFor(l storage.RecipeLine, reason string) Warning {
	return Warning{RecipeID: l.RecipeID, Position: l.Position, IngredientID: l.IngredientID, Reason: reason}
}

func sortedIDs(set map[uuid.UUID]bool) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func sortLines(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name); la != lb {
			return la < lb
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.IngredientID != b.IngredientID {
			return a.IngredientID.String() < b.IngredientID.String()
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Unit < b.Unit
	})
}

func sortWarnings(ws []Warning) {
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].RecipeID != ws[j].RecipeID {
			return ws[i].RecipeID.String() < ws[j].RecipeID.String()
		}
		return ws[i].Position < ws[j].Position
	})
}
