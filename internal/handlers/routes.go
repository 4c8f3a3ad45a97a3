package handlers

import "github.com/go-chi/chi/v5"

// Routes groups the dashboard API handlers
type Routes struct {
	Figures    *FigureHandler
	Click      *ClickHandler
	TripCounts *TripCountsHandler
	Dataset    *DatasetHandler
}

// Mount registers every API endpoint on r
func (rt Routes) Mount(r chi.Router) {
	r.Get("/health", rt.Dataset.GetHealth)
	r.Get("/healthz", GetHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/columns", rt.Figures.GetColumns)
		r.Get("/figure", rt.Figures.GetFigure)
		r.Get("/figure.svg", rt.Figures.GetFigureSVG)
		r.Get("/figure3d", rt.Figures.GetFigure3D)
		r.Get("/click", rt.Click.GetClick)
		r.Get("/trip-counts", rt.TripCounts.GetTripCounts)
		r.Get("/dataset", rt.Dataset.GetDataset)
	})
}
