package mealplans

import (
	"encoding/json"
	"net/http"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/userctx"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for meal plans.
type Handler struct {
	service *Service
}

// NewHandler creates a new meal plans handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGet handles GET /v1/meal/plan?start=&end=
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	entries, err := h.service.ListRange(ctx, userctx.UserID(ctx), start, end)
	if err != nil {
		apperr.Write(w, err, "Failed to get meal plan")
		return
	}

	writeJSON(w, http.StatusOK, GetPlanResponse{Start: start, End: end, Days: groupByDay(entries)})
}

// HandlePlannedRecipes handles GET /v1/meal/plan/recipes?start=&end=
func (h *Handler) HandlePlannedRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	ids, err := h.service.RecipeIDs(ctx, userctx.UserID(ctx), start, end)
	if err != nil {
		apperr.Write(w, err, "Failed to get planned recipes")
		return
	}

	writeJSON(w, http.StatusOK, PlannedRecipesResponse{Start: start, End: end, RecipeIDs: ids})
}

// HandleAddEntry handles POST /v1/meal/plan/entries
func (h *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_payload", "Invalid request body", nil)
		return
	}

	created, err := h.service.Add(ctx, userctx.UserID(ctx), req.Date, req.RecipeID)
	if err != nil {
		apperr.Write(w, err, "Failed to add recipe to plan")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, AddEntryResponse{
		Entry:   EntryDTO{Date: req.Date, RecipeID: req.RecipeID},
		Created: created,
	})
}

// HandleRemoveEntry handles DELETE /v1/meal/plan/entries?date=&recipe_id=
func (h *Handler) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recipeID, err := uuid.Parse(r.URL.Query().Get("recipe_id"))
	if err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "recipe_id must be a UUID", nil)
		return
	}

	if err := h.service.Remove(ctx, userctx.UserID(ctx), r.URL.Query().Get("date"), recipeID); err != nil {
		apperr.Write(w, err, "Failed to remove recipe from plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
