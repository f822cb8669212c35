package recipes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for recipe ingredient lines.
type Handler struct {
	service *Service
}

// NewHandler creates a new recipes handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func recipeIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "invalid recipe id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// HandleSave handles PUT /v1/recipes/{id}/ingredients
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeIDFromPath(w, r)
	if !ok {
		return
	}

	var req SaveIngredientsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_payload", "Invalid request body", nil)
		return
	}

	saved, err := h.service.SaveIngredients(r.Context(), id, req.Title, req.Lines)
	if err != nil {
		apperr.Write(w, err, "Failed to save recipe ingredients")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(saved))
}

// HandleGet handles GET /v1/recipes/{id}/ingredients
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeIDFromPath(w, r)
	if !ok {
		return
	}

	ri, err := h.service.Get(r.Context(), id)
	if err != nil {
		apperr.Write(w, err, "Failed to get recipe ingredients")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(ri))
}

// HandleRemoveLine handles DELETE /v1/recipes/{id}/ingredients/{position}
func (h *Handler) HandleRemoveLine(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeIDFromPath(w, r)
	if !ok {
		return
	}

	position, err := strconv.Atoi(r.PathValue("position"))
	if err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "position must be an integer", nil)
		return
	}

	if err := h.service.RemoveLine(r.Context(), id, position); err != nil {
		apperr.Write(w, err, "Failed to remove line")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /v1/recipes/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		apperr.Write(w, err, "Failed to delete recipe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
