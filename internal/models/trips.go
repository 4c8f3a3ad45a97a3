package models

import (
	"time"

	"github.com/you/bixi-explorer/internal/trips"
)

// ColumnOption is one entry of the axis dropdowns
type ColumnOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ColumnsResponse is the JSON response for GET /api/columns
type ColumnsResponse struct {
	Columns  []ColumnOption `json:"columns"`
	DefaultX string         `json:"defaultX"`
	DefaultY string         `json:"defaultY"`
}

// ClickResponse is the JSON response for GET /api/click
type ClickResponse struct {
	Record  trips.Record `json:"record"`
	Summary string       `json:"summary"`
}

// TripCountsResponse is the JSON response for GET /api/trip-counts
type TripCountsResponse struct {
	Counts []trips.TripCount `json:"counts"`
	Pairs  int               `json:"pairs"` // distinct pairs before limit
	Trips  int               `json:"trips"`
}

// DurationSummary is the duration distribution for one membership category
type DurationSummary struct {
	Trips     int     `json:"trips"`
	MeanSec   float64 `json:"meanSec"`
	StdDevSec float64 `json:"stdDevSec"`
}

// DatasetResponse is the JSON response for GET /api/dataset
type DatasetResponse struct {
	Rows      int             `json:"rows"`
	LoadID    string          `json:"loadId"`
	LoadedAt  time.Time       `json:"loadedAt"`
	Source    string          `json:"source"`
	Member    DurationSummary `json:"member"`
	NotMember DurationSummary `json:"notMember"`
}

// NewDurationSummary converts running statistics into the response shape
func NewDurationSummary(s trips.DurationStats) DurationSummary {
	return DurationSummary{
		Trips:     s.Count,
		MeanSec:   s.Mean,
		StdDevSec: s.StdDev(),
	}
}
