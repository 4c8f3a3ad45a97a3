package models

import "time"

// Health status constants
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Rows      int       `json:"rows"`
	Source    string    `json:"source"`
	Store     string    `json:"store,omitempty"` // "connected", "disconnected", or empty for csv
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}
