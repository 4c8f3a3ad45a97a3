package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/you/bixi-explorer/internal/figure"
	"github.com/you/bixi-explorer/internal/models"
	"github.com/you/bixi-explorer/internal/trips"
)

// Default axes of the main scatter plot
var (
	DefaultXColumn = trips.StartDate
	DefaultYColumn = trips.DurationSec
)

// SVG size bounds in pixels
const (
	defaultSVGWidth  = 900
	defaultSVGHeight = 600
	minSVGSize       = 100
	maxSVGSize       = 4000
)

// PointsObserver records how many points each figure carries
type PointsObserver interface {
	ObservePoints(n int)
}

// SampleLimits bounds the sample query parameter
type SampleLimits struct {
	Default   int
	Max       int
	Default3D int
}

// FigureHandler serves the scatter plots built from the in-memory dataset
type FigureHandler struct {
	ds          *trips.Dataset
	transformer *figure.Transformer
	limits      SampleLimits
	points      PointsObserver
	logger      *zap.Logger
}

// NewFigureHandler creates a new handler. points may be nil.
func NewFigureHandler(ds *trips.Dataset, t *figure.Transformer, limits SampleLimits, points PointsObserver, logger *zap.Logger) *FigureHandler {
	return &FigureHandler{
		ds:          ds,
		transformer: t,
		limits:      limits,
		points:      points,
		logger:      logger,
	}
}

// GetColumns handles GET /api/columns
func (h *FigureHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	cols := trips.Columns()
	options := make([]models.ColumnOption, 0, len(cols))
	for _, c := range cols {
		options = append(options, models.ColumnOption{Key: c.Key(), Label: c.Label()})
	}

	writeJSON(w, http.StatusOK, models.ColumnsResponse{
		Columns:  options,
		DefaultX: DefaultXColumn.Key(),
		DefaultY: DefaultYColumn.Key(),
	})
}

// GetFigure handles GET /api/figure
// Query params: x, y (column keys), sample (0..max)
func (h *FigureHandler) GetFigure(w http.ResponseWriter, r *http.Request) {
	fig, ok := h.figure2D(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, fig)
}

// GetFigureSVG handles GET /api/figure.svg
// Query params: as GetFigure, plus width and height in pixels
func (h *FigureHandler) GetFigureSVG(w http.ResponseWriter, r *http.Request) {
	width, err := queryInt(r, "width", defaultSVGWidth)
	if err != nil || width < minSVGSize || width > maxSVGSize {
		writeError(w, http.StatusBadRequest, "Invalid width parameter",
			map[string]interface{}{"min": minSVGSize, "max": maxSVGSize})
		return
	}
	height, err := queryInt(r, "height", defaultSVGHeight)
	if err != nil || height < minSVGSize || height > maxSVGSize {
		writeError(w, http.StatusBadRequest, "Invalid height parameter",
			map[string]interface{}{"min": minSVGSize, "max": maxSVGSize})
		return
	}

	fig, ok := h.figure2D(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := figure.WriteSVG(&buf, h.ds, fig, width, height); err != nil {
		h.logger.Error("failed to render svg", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to render figure", nil)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetFigure3D handles GET /api/figure3d
// Query params: sample (0..max)
func (h *FigureHandler) GetFigure3D(w http.ResponseWriter, r *http.Request) {
	sample, ok := h.sampleSize(w, r, h.limits.Default3D)
	if !ok {
		return
	}

	fig, err := h.transformer.Figure3D(h.ds, sample)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	h.observe(fig)
	writeJSON(w, http.StatusOK, fig)
}

func (h *FigureHandler) figure2D(w http.ResponseWriter, r *http.Request) (*figure.Figure, bool) {
	x, ok := columnParam(w, r, "x", DefaultXColumn)
	if !ok {
		return nil, false
	}
	y, ok := columnParam(w, r, "y", DefaultYColumn)
	if !ok {
		return nil, false
	}
	sample, ok := h.sampleSize(w, r, h.limits.Default)
	if !ok {
		return nil, false
	}

	fig, err := h.transformer.Figure2D(h.ds, x, y, sample)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}
	h.observe(fig)
	return fig, true
}

func (h *FigureHandler) sampleSize(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	sample, err := queryInt(r, "sample", def)
	if err != nil || sample < 0 || sample > h.limits.Max {
		writeError(w, http.StatusBadRequest, "Invalid sample parameter", map[string]interface{}{
			"sample": r.URL.Query().Get("sample"),
			"max":    h.limits.Max,
		})
		return 0, false
	}
	return sample, true
}

func (h *FigureHandler) observe(fig *figure.Figure) {
	if h.points != nil {
		h.points.ObservePoints(fig.Points)
	}
}

// columnParam resolves a column key query parameter, writing a 400 when it is unknown
func columnParam(w http.ResponseWriter, r *http.Request, name string, def trips.Column) (trips.Column, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	col, err := trips.ParseColumn(raw)
	if err != nil {
		keys := make([]string, 0)
		for _, c := range trips.Columns() {
			keys = append(keys, c.Key())
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown column for %s", name), map[string]interface{}{
			"column":  raw,
			"allowed": keys,
		})
		return 0, false
	}
	return col, true
}
