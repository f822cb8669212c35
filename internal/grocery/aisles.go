package grocery

import (
	"regexp"
	"strings"
)

// Aisle names, in shopping order.
const (
	AisleProduce = "Fresh Produce"
	AisleDairy   = "Dairy, Eggs & Fridge"
	AisleBakery  = "Bakery"
	AisleOils    = "Oils & Vinegars"
	AisleSpices  = "Spices & Seasonings"
	AisleGrains  = "Pasta, Grains & Legumes"
	AisleFrozen  = "Frozen"
	AislePantry  = "Pantry"
)

type aisleRule struct {
	aisle   string
	pattern *regexp.Regexp
}

// First match wins, so "bell pepper" lands in produce before spices sees "pepper".
var aisleRules = []aisleRule{
	{AisleProduce, regexp.MustCompile(`tomato|spinach|cilantro|lettuce|kale|arugula|onion|garlic|ginger|potato|carrot|pepper|broccoli|mushroom|avocado|lime|lemon|banana|apple|berry`)},
	{AisleDairy, regexp.MustCompile(`milk|cheese|yogurt|butter|cream|egg|mozzarella|cheddar|parmesan`)},
	{AisleBakery, regexp.MustCompile(`bread|bun|bagel|tortilla|wrap|pita|naan|croissant`)},
	{AisleOils, regexp.MustCompile(`oil|canola|vinegar|balsamic`)},
	{AisleSpices, regexp.MustCompile(`salt|paprika|cumin|coriander|turmeric|chili|cayenne|oregano|basil|thyme|rosemary|garam|masala|spice`)},
	{AisleGrains, regexp.MustCompile(`pasta|noodle|rice|quinoa|lentil|bean|chickpea|flour|oat`)},
	{AisleFrozen, regexp.MustCompile(`frozen`)},
}

var aisleOrder = map[string]int{
	AisleProduce: 0,
	AisleDairy:   1,
	AisleBakery:  2,
	AisleOils:    3,
	AisleSpices:  4,
	AisleGrains:  5,
	AisleFrozen:  6,
	AislePantry:  7,
}

// AisleFor classifies a grocery item by name. Unmatched names go to the pantry.
func AisleFor(name string) string {
	n := strings.ToLower(name)
	for _, r := range aisleRules {
		if r.pattern.MatchString(n) {
			return r.aisle
		}
	}
	return AislePantry
}

func aisleRank(aisle string) int {
	if r, ok := aisleOrder[aisle]; ok {
		return r
	}
	return len(aisleOrder)
}
