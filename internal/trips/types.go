package trips

import (
	"time"

	"github.com/google/uuid"
)

// Record is one trip from an OD_<year>-<month>.csv file
type Record struct {
	StartStationCode int       `json:"startStationCode"`
	EndStationCode   int       `json:"endStationCode"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	DurationSec      int       `json:"durationSec"`
	IsMember         bool      `json:"isMember"`
}

// Dataset is the full set of trips held in memory for the life of the process.
// It is never modified after construction and is safe for concurrent reads.
type Dataset struct {
	records  []Record
	loadID   uuid.UUID
	loadedAt time.Time
	summary  Summary
}

// NewDataset takes ownership of records; callers must not modify the slice afterwards.
func NewDataset(records []Record) *Dataset {
	return &Dataset{
		records:  records,
		loadID:   uuid.New(),
		loadedAt: time.Now().UTC(),
		summary:  summarize(records),
	}
}

// Len returns the number of trips
func (d *Dataset) Len() int {
	return len(d.records)
}

// At returns the i-th trip in load order
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// LoadID identifies this in-memory copy of the data
func (d *Dataset) LoadID() uuid.UUID {
	return d.loadID
}

// LoadedAt is when the dataset was built
func (d *Dataset) LoadedAt() time.Time {
	return d.loadedAt
}

// Summary returns the duration statistics computed at load time
func (d *Dataset) Summary() Summary {
	return d.summary
}

// TripCounts aggregates the dataset by station pair
func (d *Dataset) TripCounts() ([]TripCount, error) {
	return CountTrips(d.records)
}
