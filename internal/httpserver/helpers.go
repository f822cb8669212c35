package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/quantity"
	"github.com/fdg312/mealcart/internal/units"
)

type unitsResponse struct {
	Units []units.Unit `json:"units"`
}

type parseQuantityRequest struct {
	Raw string `json:"raw"`
}

type parseQuantityResponse struct {
	Quantity quantity.Quantity `json:"quantity"`
	ToTaste  bool               `json:"to_taste"`
}

type sanitizeQuantityRequest struct {
	Current string `json:"current"`
	Typed   string `json:"typed"`
}

type sanitizeQuantityResponse struct {
	Value    string `json:"value"`
	Accepted bool   `json:"accepted"`
}

// handleUnits handles GET /v1/units
func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, unitsResponse{Units: s.registry.List()})
}

// handleParseQuantity handles POST /v1/quantity/parse. A blank value is valid
// and means "to taste".
func (s *Server) handleParseQuantity(w http.ResponseWriter, r *http.Request) {
	var req parseQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	q, err := quantity.Parse(req.Raw)
	if err != nil {
		apperr.Write(w, err, "failed to parse quantity")
		return
	}
	writeJSON(w, http.StatusOK, parseQuantityResponse{Quantity: quantity.Of(q), ToTaste: q == nil})
}

// handleSanitizeQuantity handles POST /v1/quantity/sanitize: one keystroke of
// quantity input. Rejected input keeps the current value.
func (s *Server) handleSanitizeQuantity(w http.ResponseWriter, r *http.Request) {
	var req sanitizeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	next, ok := quantity.Accept(req.Current, req.Typed)
	writeJSON(w, http.StatusOK, sanitizeQuantityResponse{Value: next, Accepted: ok})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
