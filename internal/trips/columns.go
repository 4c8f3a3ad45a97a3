package trips

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownColumn is returned by ParseColumn for keys outside the column set
var ErrUnknownColumn = errors.New("unknown column")

// ValueLayout is how timestamp columns are rendered as plot values
const ValueLayout = "2006-01-02 15:04:05"

// Column is one of the trip attributes a user can put on an axis
type Column int

const (
	StartStationCode Column = iota
	EndStationCode
	StartDate
	EndDate
	DurationSec
)

type columnInfo struct {
	key   string
	label string
	value func(Record) any
	float func(Record) float64
	parse func(string) (any, error)
}

var columnTable = [...]columnInfo{
	StartStationCode: {
		key:   "start_station_code",
		label: "Start Station ID",
		value: func(r Record) any { return r.StartStationCode },
		float: func(r Record) float64 { return float64(r.StartStationCode) },
		parse: parseIntValue,
	},
	EndStationCode: {
		key:   "end_station_code",
		label: "End Station ID",
		value: func(r Record) any { return r.EndStationCode },
		float: func(r Record) float64 { return float64(r.EndStationCode) },
		parse: parseIntValue,
	},
	StartDate: {
		key:   "start_date",
		label: "Starting Time of Trip",
		value: func(r Record) any { return r.StartDate.Format(ValueLayout) },
		float: func(r Record) float64 { return dayOfYear(r.StartDate) },
		parse: parseTimeValue,
	},
	EndDate: {
		key:   "end_date",
		label: "End Time of Trip",
		value: func(r Record) any { return r.EndDate.Format(ValueLayout) },
		float: func(r Record) float64 { return dayOfYear(r.EndDate) },
		parse: parseTimeValue,
	},
	DurationSec: {
		key:   "duration_sec",
		label: "Duration of Trip (in seconds)",
		value: func(r Record) any { return r.DurationSec },
		float: func(r Record) float64 { return float64(r.DurationSec) },
		parse: parseIntValue,
	},
}

// Columns lists every selectable column in display order
func Columns() []Column {
	cols := make([]Column, len(columnTable))
	for i := range columnTable {
		cols[i] = Column(i)
	}
	return cols
}

// ParseColumn maps a column key such as "duration_sec" to its Column
func ParseColumn(key string) (Column, error) {
	key = strings.TrimSpace(key)
	for i, info := range columnTable {
		if info.key == key {
			return Column(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, key)
}

func (c Column) info() columnInfo {
	if c < 0 || int(c) >= len(columnTable) {
		panic(fmt.Sprintf("trips: invalid column %d", int(c)))
	}
	return columnTable[c]
}

// Key is the CSV header name of the column
func (c Column) Key() string { return c.info().key }

// Label is the human readable column name
func (c Column) Label() string { return c.info().label }

func (c Column) String() string { return c.Key() }

// IsTime reports whether the column holds timestamps
func (c Column) IsTime() bool {
	return c == StartDate || c == EndDate
}

// Value projects r onto the column. Station codes and durations are ints,
// timestamps are strings in ValueLayout.
func (c Column) Value(r Record) any {
	return c.info().value(r)
}

// Float projects r onto the column as a number; timestamps become the
// fractional day of the year.
func (c Column) Float(r Record) float64 {
	return c.info().float(r)
}

// ParseValue converts a raw plotted value back to the form returned by Value
func (c Column) ParseValue(raw string) (any, error) {
	return c.info().parse(strings.TrimSpace(raw))
}

func parseIntValue(raw string) (any, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	// Plotting clients may send integers as floats ("150.0")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("not an integer: %q", raw)
	}
	return int(f), nil
}

func parseTimeValue(raw string) (any, error) {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return nil, err
	}
	return t.Format(ValueLayout), nil
}

func dayOfYear(t time.Time) float64 {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return float64(t.YearDay()-1) + t.Sub(midnight).Hours()/24
}
