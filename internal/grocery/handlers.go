package grocery

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/daterange"
	"github.com/fdg312/mealcart/internal/quantity"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/fdg312/mealcart/internal/units"
	"github.com/fdg312/mealcart/internal/userctx"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the grocery list.
type Handler struct {
	store        *Store
	exporter     *Exporter
	registry     *units.Registry
	maxRangeDays int
}

// NewHandler creates a new grocery handler.
func NewHandler(store *Store, exporter *Exporter, registry *units.Registry, maxRangeDays int) *Handler {
	return &Handler{store: store, exporter: exporter, registry: registry, maxRangeDays: maxRangeDays}
}

func (h *Handler) rangeFromQuery(r *http.Request) (string, string, error) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if err := daterange.Validate(start, end, h.maxRangeDays); err != nil {
		return "", "", err
	}
	return start, end, nil
}

// HandleGet handles GET /v1/grocery?start=&end=&sort=
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.rangeFromQuery(r)
	if err != nil {
		apperr.Write(w, err, "Invalid date range")
		return
	}
	mode, err := ParseSortMode(r.URL.Query().Get("sort"))
	if err != nil {
		apperr.Write(w, err, "Invalid sort")
		return
	}

	list, err := h.store.CurrentList(r.Context(), userctx.UserID(r.Context()), start, end)
	if err != nil {
		apperr.Write(w, err, "Failed to build grocery list")
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(list.Sorted(mode)))
}

// HandleAddManual handles POST /v1/grocery/manual
func (h *Handler) HandleAddManual(w http.ResponseWriter, r *http.Request) {
	var req AddManualItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_payload", "Invalid request body", nil)
		return
	}

	label := strings.Join(strings.Fields(req.Label), " ")
	if label == "" {
		apperr.WriteJSON(w, http.StatusBadRequest, "label_required", "label is required", nil)
		return
	}
	if len([]rune(label)) > maxLabelLength {
		apperr.WriteJSON(w, http.StatusBadRequest, "label_too_long", "label is too long", nil)
		return
	}

	qty, err := quantity.Parse(req.Quantity)
	if err != nil {
		apperr.Write(w, err, "Invalid quantity")
		return
	}

	item, err := h.store.AddManualItem(r.Context(), userctx.UserID(r.Context()), label, qty, h.registry.Normalize(req.Unit))
	if err != nil {
		apperr.Write(w, err, "Failed to add item")
		return
	}

	writeJSON(w, http.StatusCreated, toManualItemDTO(item))
}

// HandleRemoveManual handles DELETE /v1/grocery/manual/{id}
func (h *Handler) HandleRemoveManual(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "invalid item id", nil)
		return
	}

	if err := h.store.RemoveManualItem(r.Context(), userctx.UserID(r.Context()), id); err != nil {
		apperr.Write(w, err, "Failed to remove item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCheck handles POST /v1/grocery/check
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_payload", "Invalid request body", nil)
		return
	}
	if (req.LineKey == "") == (req.ManualItemID == nil) {
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_request", "exactly one of line_key and manual_item_id is required", nil)
		return
	}

	ctx := r.Context()
	owner := userctx.UserID(ctx)
	if req.ManualItemID != nil {
		err := h.store.SetManualChecked(ctx, owner, *req.ManualItemID, req.Checked)
		if errors.Is(err, storage.ErrNotFound) {
			apperr.WriteJSON(w, http.StatusNotFound, "item_not_found", "manual item not found", nil)
			return
		}
		if err != nil {
			apperr.Write(w, err, "Failed to update item")
			return
		}
	} else {
		if err := h.store.SetLineChecked(ctx, owner, req.LineKey, req.Checked); err != nil {
			apperr.Write(w, err, "Failed to update line")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleClearChecked handles POST /v1/grocery/clear-checked
func (h *Handler) HandleClearChecked(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.ClearChecked(r.Context(), userctx.UserID(r.Context()))
	if err != nil {
		apperr.Write(w, err, "Failed to clear checked items")
		return
	}
	writeJSON(w, http.StatusOK, ClearCheckedResponse{RemovedManualItems: n})
}

// HandleExport handles GET /v1/grocery/export?start=&end=&format=text|pdf
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.rangeFromQuery(r)
	if err != nil {
		apperr.Write(w, err, "Invalid date range")
		return
	}

	ctx := r.Context()
	owner := userctx.UserID(ctx)
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatText
	}

	switch format {
	case FormatText:
		text, err := h.exporter.Text(ctx, owner, start, end)
		if err != nil {
			apperr.Write(w, err, "Failed to export grocery list")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(text))

	case FormatPDF:
		if h.exporter.CanPublish() {
			resp, err := h.exporter.Publish(ctx, owner, start, end)
			if err != nil {
				apperr.Write(w, err, "Failed to export grocery list")
				return
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}

		data, err := h.exporter.PDF(ctx, owner, start, end)
		if err != nil {
			apperr.Write(w, err, "Failed to export grocery list")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="grocery-`+start+`.pdf"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)

	default:
		apperr.WriteJSON(w, http.StatusBadRequest, "invalid_format", "format must be text or pdf", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
