package trips

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var requiredFields = []string{
	"start_date",
	"start_station_code",
	"end_date",
	"end_station_code",
	"duration_sec",
	"is_member",
}

// MonthPaths returns the OD_<year>-<MM>.csv path for each month
func MonthPaths(dir string, year int, months []int) []string {
	paths := make([]string, 0, len(months))
	for _, m := range months {
		paths = append(paths, filepath.Join(dir, fmt.Sprintf("OD_%d-%02d.csv", year, m)))
	}
	return paths
}

// LoadMonths reads every monthly file for the year and concatenates them in month order
func LoadMonths(dir string, year int, months []int) (*Dataset, error) {
	return LoadFiles(MonthPaths(dir, year, months)...)
}

// LoadFiles parses each file and builds a dataset from the union of their rows.
// Any missing or malformed file fails the whole load.
func LoadFiles(paths ...string) (*Dataset, error) {
	var records []Record
	for _, path := range paths {
		rs, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, rs...)
	}
	return NewDataset(records), nil
}

// ParseFile reads one monthly trip file
func ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trips file: %w", err)
	}
	defer f.Close()

	records, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// ParseCSV parses a trips table with a header row. Columns are matched by
// header name and unknown columns are ignored.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file, header row missing")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := makeIndex(header)
	for _, field := range requiredFields {
		if _, ok := idx[field]; !ok {
			return nil, fmt.Errorf("missing column %q", field)
		}
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRecord(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRecord(row []string, idx map[string]int) (Record, error) {
	var rec Record
	var err error

	if rec.StartStationCode, err = strconv.Atoi(getField(row, idx, "start_station_code")); err != nil {
		return rec, fmt.Errorf("start_station_code: %w", err)
	}
	if rec.EndStationCode, err = strconv.Atoi(getField(row, idx, "end_station_code")); err != nil {
		return rec, fmt.Errorf("end_station_code: %w", err)
	}
	if rec.StartDate, err = ParseTimestamp(getField(row, idx, "start_date")); err != nil {
		return rec, fmt.Errorf("start_date: %w", err)
	}
	if rec.EndDate, err = ParseTimestamp(getField(row, idx, "end_date")); err != nil {
		return rec, fmt.Errorf("end_date: %w", err)
	}
	if rec.DurationSec, err = strconv.Atoi(getField(row, idx, "duration_sec")); err != nil {
		return rec, fmt.Errorf("duration_sec: %w", err)
	}
	if rec.IsMember, err = strconv.ParseBool(getField(row, idx, "is_member")); err != nil {
		return rec, fmt.Errorf("is_member: %w", err)
	}

	return rec, nil
}

// ParseTimestamp accepts the layouts found in the monthly exports
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		// Strip a UTF-8 BOM from the first header cell
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
