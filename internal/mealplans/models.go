package mealplans

import (
	"github.com/google/uuid"
)

// AddEntryRequest is the body of POST /v1/meal/plan/entries.
type AddEntryRequest struct {
	Date     string    `json:"date"`
	RecipeID uuid.UUID `json:"recipe_id"`
}

// EntryDTO is one planned recipe.
type EntryDTO struct {
	Date     string    `json:"date"`
	RecipeID uuid.UUID `json:"recipe_id"`
	Title    string    `json:"title"`
}

// AddEntryResponse reports whether the entry was new.
type AddEntryResponse struct {
	Entry   EntryDTO `json:"entry"`
	Created bool     `json:"created"`
}

// DayDTO groups the recipes planned on one date.
type DayDTO struct {
	Date    string     `json:"date"`
	Entries []EntryDTO `json:"entries"`
}

// GetPlanResponse is the response for GET /v1/meal/plan.
type GetPlanResponse struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Days  []DayDTO `json:"days"`
}

// PlannedRecipesResponse is the response for GET /v1/meal/plan/recipes.
type PlannedRecipesResponse struct {
	Start     string      `json:"start"`
	End       string      `json:"end"`
	RecipeIDs []uuid.UUID `json:"recipe_ids"`
}

func groupByDay(entries []EntryDTO) []DayDTO {
	days := []DayDTO{}
	for _, e := range entries {
		if n := len(days); n > 0 && days[n-1].Date == e.Date {
			days[n-1].Entries = append(days[n-1].Entries, e)
			continue
		}
		days = append(days, DayDTO{Date: e.Date, Entries: []EntryDTO{e}})
	}
	return days
}
