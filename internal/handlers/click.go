package handlers

import (
	"net/http"

	"github.com/you/bixi-explorer/internal/models"
	"github.com/you/bixi-explorer/internal/trips"
)

// ClickHandler resolves a clicked plot point back to the trip it came from
type ClickHandler struct {
	ds *trips.Dataset
}

// NewClickHandler creates a new handler over the dataset
func NewClickHandler(ds *trips.Dataset) *ClickHandler {
	return &ClickHandler{ds: ds}
}

// GetClick handles GET /api/click
// Query params: x, y (plotted values, required), xcol, ycol (column keys)
// Responds 204 when no trip has exactly those values.
func (h *ClickHandler) GetClick(w http.ResponseWriter, r *http.Request) {
	x := r.URL.Query().Get("x")
	y := r.URL.Query().Get("y")
	if x == "" || y == "" {
		writeError(w, http.StatusBadRequest, "x and y parameters are required", nil)
		return
	}

	xCol, ok := columnParam(w, r, "xcol", DefaultXColumn)
	if !ok {
		return
	}
	yCol, ok := columnParam(w, r, "ycol", DefaultYColumn)
	if !ok {
		return
	}

	record, found := h.ds.FindByPoint(xCol, yCol, x, y)
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, models.ClickResponse{
		Record:  record,
		Summary: record.Summary(),
	})
}
