package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fdg312/mealcart/internal/apperr"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleDevAuth handles POST /v1/auth/dev
func (h *Handlers) HandleDevAuth(w http.ResponseWriter, r *http.Request) {
	var req DevAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	resp, err := h.service.SignInDev(req.UserID)
	if errors.Is(err, ErrDevAuthClosed) {
		apperr.WriteJSON(w, http.StatusNotFound, "not_found", "Dev auth is disabled", nil)
		return
	}
	if err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
