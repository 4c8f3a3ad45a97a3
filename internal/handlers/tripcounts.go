package handlers

import (
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/you/bixi-explorer/internal/models"
	"github.com/you/bixi-explorer/internal/trips"
)

// TripCountsHandler serves the station pair aggregation. The table is built
// on first request and reused, since the dataset never changes.
type TripCountsHandler struct {
	ds     *trips.Dataset
	logger *zap.Logger

	once   sync.Once
	counts []trips.TripCount
	err    error
}

// NewTripCountsHandler creates a new handler over the dataset
func NewTripCountsHandler(ds *trips.Dataset, logger *zap.Logger) *TripCountsHandler {
	return &TripCountsHandler{ds: ds, logger: logger}
}

// GetTripCounts handles GET /api/trip-counts
// Query params: limit (optional, 0 or absent returns every pair)
func (h *TripCountsHandler) GetTripCounts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "Invalid limit parameter", map[string]interface{}{
			"limit": r.URL.Query().Get("limit"),
		})
		return
	}

	h.once.Do(func() {
		h.counts, h.err = h.ds.TripCounts()
		if h.err == nil {
			h.logger.Info("trip counts computed", zap.Int("pairs", len(h.counts)))
		}
	})
	if h.err != nil {
		h.logger.Error("failed to count trips", zap.Error(h.err))
		writeError(w, http.StatusInternalServerError, "Failed to count trips", map[string]interface{}{
			"internal": h.err.Error(),
		})
		return
	}

	counts := h.counts
	if limit > 0 && limit < len(counts) {
		counts = counts[:limit]
	}

	writeJSON(w, http.StatusOK, models.TripCountsResponse{
		Counts: counts,
		Pairs:  len(h.counts),
		Trips:  h.ds.Len(),
	})
}
