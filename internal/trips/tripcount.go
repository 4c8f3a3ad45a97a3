package trips

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrBadStationCode is returned when a station pair key does not hold two integers
var ErrBadStationCode = errors.New("station code is not an integer")

// TripCount is the number of trips between one ordered pair of stations
type TripCount struct {
	StartStationCode int `json:"startStationCode"`
	EndStationCode   int `json:"endStationCode"`
	TripCount        int `json:"tripCount"`
}

// CountTrips counts trips per (start, end) station pair, sorted ascending by
// start station then end station. Empty input yields an empty table.
func CountTrips(records []Record) ([]TripCount, error) {
	counts := make(map[string]int)
	for _, r := range records {
		counts[pairKey(r.StartStationCode, r.EndStationCode)]++
	}

	table := make([]TripCount, 0, len(counts))
	for key, n := range counts {
		start, end, err := parsePairKey(key)
		if err != nil {
			return nil, err
		}
		table = append(table, TripCount{
			StartStationCode: start,
			EndStationCode:   end,
			TripCount:        n,
		})
	}

	sort.Slice(table, func(i, j int) bool {
		if table[i].StartStationCode != table[j].StartStationCode {
			return table[i].StartStationCode < table[j].StartStationCode
		}
		return table[i].EndStationCode < table[j].EndStationCode
	})

	return table, nil
}

func pairKey(start, end int) string {
	return strconv.Itoa(start) + " " + strconv.Itoa(end)
}

func parsePairKey(key string) (start, end int, err error) {
	parts := strings.Split(key, " ")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: malformed pair %q", ErrBadStationCode, key)
	}
	if start, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadStationCode, parts[0])
	}
	if end, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadStationCode, parts[1])
	}
	return start, end, nil
}
