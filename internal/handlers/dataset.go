package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/you/bixi-explorer/internal/models"
	"github.com/you/bixi-explorer/internal/trips"
)

// Pinger is implemented by the trip stores the dataset may have come from
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatasetHandler reports on the loaded dataset and the process health
type DatasetHandler struct {
	ds     *trips.Dataset
	source string
	store  Pinger
}

// NewDatasetHandler creates a new handler. store is nil when the dataset was
// read straight from CSV files.
func NewDatasetHandler(ds *trips.Dataset, source string, store Pinger) *DatasetHandler {
	return &DatasetHandler{ds: ds, source: source, store: store}
}

// GetDataset handles GET /api/dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	summary := h.ds.Summary()
	writeJSON(w, http.StatusOK, models.DatasetResponse{
		Rows:      h.ds.Len(),
		LoadID:    h.ds.LoadID().String(),
		LoadedAt:  h.ds.LoadedAt(),
		Source:    h.source,
		Member:    models.NewDurationSummary(summary.Member),
		NotMember: models.NewDurationSummary(summary.NotMember),
	})
}

// GetHealth handles GET /health
// Checks store connectivity when the dataset came from a database
func (h *DatasetHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:    models.StatusOK,
		Rows:      h.ds.Len(),
		Source:    h.source,
		Timestamp: time.Now().UTC(),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			resp.Status = models.StatusError
			resp.Store = "disconnected"
			resp.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Store = "connected"
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetHealthz handles GET /healthz
func GetHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
