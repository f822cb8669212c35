package grocery

import (
	"sort"
	"strings"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/storage"
)

// SortMode selects the order of a list's lines and manual items.
type SortMode string

const (
	// SortAZ orders by name. It is the order lines are computed in.
	SortAZ SortMode = "az"
	// SortAisle orders by aisle in shopping order, then name.
	SortAisle SortMode = "aisle"
	// SortRecent puts the newest manual items first. Merged lines keep name order.
	SortRecent SortMode = "recent"
	// SortRecipe keeps lines of the same first source recipe together.
	SortRecipe SortMode = "recipe"
)

// ParseSortMode accepts "" as SortAZ.
func ParseSortMode(s string) (SortMode, error) {
	switch mode := SortMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return SortAZ, nil
	case SortAZ, SortAisle, SortRecent, SortRecipe:
		return mode, nil
	default:
		return "", apperr.Validation("invalid_sort", "sort must be one of az, aisle, recent, recipe")
	}
}

// Sorted returns a copy of l ordered by mode. Ties always fall back to name
// order, so the result is deterministic.
func (l List) Sorted(mode SortMode) List {
	out := l
	out.Lines = append([]ListLine(nil), l.Lines...)
	out.Manual = append([]storage.ManualItem(nil), l.Manual...)

	switch mode {
	case SortAisle:
		sort.SliceStable(out.Lines, func(i, j int) bool {
			return aisleRank(out.Lines[i].Aisle) < aisleRank(out.Lines[j].Aisle)
		})
		sort.SliceStable(out.Manual, func(i, j int) bool {
			ai, aj := aisleRank(AisleFor(out.Manual[i].Label)), aisleRank(AisleFor(out.Manual[j].Label))
			if ai != aj {
				return ai < aj
			}
			return lowerLess(out.Manual[i].Label, out.Manual[j].Label)
		})
	case SortRecipe:
		sort.SliceStable(out.Lines, func(i, j int) bool {
			return firstSource(out.Lines[i]) < firstSource(out.Lines[j])
		})
		sort.SliceStable(out.Manual, func(i, j int) bool {
			return lowerLess(out.Manual[i].Label, out.Manual[j].Label)
		})
	case SortRecent:
		sort.SliceStable(out.Manual, func(i, j int) bool {
			return out.Manual[i].CreatedAt.After(out.Manual[j].CreatedAt)
		})
	default:
		sort.SliceStable(out.Manual, func(i, j int) bool {
			return lowerLess(out.Manual[i].Label, out.Manual[j].Label)
		})
	}
	return out
}

func firstSource(l ListLine) string {
	if len(l.SourceRecipeIDs) == 0 {
		return ""
	}
	return l.SourceRecipeIDs[0].String()
}

func lowerLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}
