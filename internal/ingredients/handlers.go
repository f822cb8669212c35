package ingredients

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/userctx"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for ingredients.
type Handler struct {
	service *Service
}

// NewHandler creates a new ingredients handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleSearch handles GET /v1/ingredients?q=&limit=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "limit must be an integer", nil)
			return
		}
		limit = v
	}

	list, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		apperr.Write(w, err, "Failed to search ingredients")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Items: toDTOs(list)})
}

// HandleResolve handles POST /v1/ingredients/resolve
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_payload", "Invalid request body", nil)
		return
	}

	res, err := h.service.Resolve(r.Context(), req.Name)
	if err != nil {
		apperr.Write(w, err, "Failed to resolve ingredient")
		return
	}

	resp := ResolveResponse{Suggestions: toDTOs(res.Suggestions)}
	if res.Match != nil {
		dto := toDTO(*res.Match)
		resp.Match = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCreate handles POST /v1/ingredients
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_payload", "Invalid request body", nil)
		return
	}

	ing, created, err := h.service.ResolveOrCreate(r.Context(), req.Name, userctx.UserID(r.Context()), req.Confirm)
	if err != nil {
		apperr.Write(w, err, "Failed to create ingredient")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, CreateResponse{Ingredient: toDTO(ing), Created: created})
}

// HandleDelete handles DELETE /v1/ingredients/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "id must be a UUID", nil)
		return
	}

	if err := h.service.Delete(r.Context(), id, userctx.UserID(r.Context())); err != nil {
		apperr.Write(w, err, "Failed to delete ingredient")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
