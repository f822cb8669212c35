package grocery

import (
	"time"

	"github.com/fdg312/mealcart/internal/quantity"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
)

const maxLabelLength = 120

// LineDTO is a merged line in API responses.
type LineDTO struct {
	Key             string            `json:"key"`
	IngredientID    uuid.UUID         `json:"ingredient_id"`
	Name            string            `json:"name"`
	Group           string            `json:"group"`
	Unit            string            `json:"unit,omitempty"`
	Mixed           bool              `json:"mixed"`
	Total           quantity.Quantity `json:"total"`
	Breakdown       []UnitAmountDTO   `json:"breakdown,omitempty"`
	ToTaste         bool              `json:"to_taste"`
	Aisle           string            `json:"aisle"`
	Checked         bool              `json:"checked"`
	SourceRecipeIDs []uuid.UUID       `json:"source_recipe_ids"`
}

// UnitAmountDTO is one per-unit subtotal.
type UnitAmountDTO struct {
	Unit     string            `json:"unit"`
	Quantity quantity.Quantity `json:"quantity"`
}

// ManualItemDTO is a manual item in API responses.
type ManualItemDTO struct {
	ID        uuid.UUID         `json:"id"`
	Label     string            `json:"label"`
	Quantity  quantity.Quantity `json:"quantity"`
	Unit      string            `json:"unit,omitempty"`
	Checked   bool              `json:"checked"`
	CreatedAt time.Time         `json:"created_at"`
}

// WarningDTO reports an excluded recipe line.
type WarningDTO struct {
	RecipeID     uuid.UUID `json:"recipe_id"`
	Position     int       `json:"position"`
	IngredientID uuid.UUID `json:"ingredient_id"`
	Reason       string    `json:"reason"`
}

// ListResponse is the response for GET /v1/grocery.
type ListResponse struct {
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Lines    []LineDTO       `json:"lines"`
	Manual   []ManualItemDTO `json:"manual"`
	Warnings []WarningDTO    `json:"warnings,omitempty"`
}

// AddManualItemRequest is the body of POST /v1/grocery/manual.
type AddManualItemRequest struct {
	Label    string `json:"label"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// CheckRequest is the body of POST /v1/grocery/check. Exactly one of
// LineKey and ManualItemID is set.
type CheckRequest struct {
	LineKey      string     `json:"line_key,omitempty"`
	ManualItemID *uuid.UUID `json:"manual_item_id,omitempty"`
	Checked      bool       `json:"checked"`
}

// ClearCheckedResponse is the response for POST /v1/grocery/clear-checked.
type ClearCheckedResponse struct {
	RemovedManualItems int `json:"removed_manual_items"`
}

// ExportResponse is returned when a PDF export was uploaded to blob storage.
type ExportResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

func toLineDTO(l ListLine) LineDTO {
	dto := LineDTO{
		Key:             l.Key,
		IngredientID:    l.IngredientID,
		Name:            l.Name,
		Group:           string(l.Group),
		Unit:            l.Unit,
		Mixed:           l.Mixed,
		Total:           quantity.Of(l.Total),
		ToTaste:         l.ToTaste,
		Aisle:           l.Aisle,
		Checked:         l.Checked,
		SourceRecipeIDs: l.SourceRecipeIDs,
	}
	for _, b := range l.Breakdown {
		dto.Breakdown = append(dto.Breakdown, UnitAmountDTO{Unit: b.Unit, Quantity: quantity.Of(b.Quantity)})
	}
	return dto
}

func toManualItemDTO(it storage.ManualItem) ManualItemDTO {
	return ManualItemDTO{
		ID:        it.ID,
		Label:     it.Label,
		Quantity:  quantity.Of(it.Quantity),
		Unit:      it.Unit,
		Checked:   it.Checked,
		CreatedAt: it.CreatedAt,
	}
}

func toListResponse(list List) ListResponse {
	resp := ListResponse{
		Start:  list.Start,
		End:    list.End,
		Lines:  make([]LineDTO, 0, len(list.Lines)),
		Manual: make([]ManualItemDTO, 0, len(list.Manual)),
	}
	for _, l := range list.Lines {
		resp.Lines = append(resp.Lines, toLineDTO(l))
	}
	for _, it := range list.Manual {
		resp.Manual = append(resp.Manual, toManualItemDTO(it))
	}
	for _, w := range list.Warnings {
		resp.Warnings = append(resp.Warnings, WarningDTO{
			RecipeID:     w.RecipeID,
			Position:     w.Position,
			IngredientID: w.IngredientID,
			Reason:       w.Reason,
		})
	}
	return resp
}
