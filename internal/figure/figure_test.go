package figure

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/you/bixi-explorer/internal/trips"
)

func exampleDataset() *trips.Dataset {
	day := time.Date(2017, 7, 1, 8, 0, 0, 0, time.UTC)
	return trips.NewDataset([]trips.Record{
		{StartStationCode: 1, EndStationCode: 2, StartDate: day, EndDate: day, DurationSec: 100, IsMember: false},
		{StartStationCode: 1, EndStationCode: 2, StartDate: day, EndDate: day, DurationSec: 150, IsMember: true},
		{StartStationCode: 3, EndStationCode: 4, StartDate: day, EndDate: day, DurationSec: 200, IsMember: true},
	})
}

func largeDataset(n int) *trips.Dataset {
	day := time.Date(2017, 4, 15, 0, 0, 0, 0, time.UTC)
	records := make([]trips.Record, n)
	for i := range records {
		records[i] = trips.Record{
			StartStationCode: 6000 + i%50,
			EndStationCode:   7000 + i%70,
			StartDate:        day.Add(time.Duration(i) * time.Minute),
			EndDate:          day.Add(time.Duration(i)*time.Minute + 10*time.Minute),
			DurationSec:      i,
			IsMember:         i%3 != 0,
		}
	}
	return trips.NewDataset(records)
}

func totalPoints(fig *Figure) int {
	n := 0
	for _, s := range fig.Series {
		n += s.Len()
	}
	return n
}

func TestFigure2D_Example(t *testing.T) {
	tr := NewTransformer(WithSeed(1))

	fig, err := tr.Figure2D(exampleDataset(), trips.StartStationCode, trips.EndStationCode, 10)
	if err != nil {
		t.Fatalf("Figure2D failed: %v", err)
	}

	if len(fig.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(fig.Series))
	}

	notMember, member := fig.Series[0], fig.Series[1]
	if notMember.Name != NotMemberName || notMember.Len() != 1 {
		t.Errorf("unexpected first series: %+v", notMember)
	}
	if notMember.X[0] != 1 || notMember.Y[0] != 2 {
		t.Errorf("expected non-member point (1,2), got (%v,%v)", notMember.X[0], notMember.Y[0])
	}
	if member.Name != MemberName || member.Len() != 2 {
		t.Errorf("unexpected second series: %+v", member)
	}
	if member.X[1] != 3 || member.Y[1] != 4 {
		t.Errorf("expected member point (3,4), got (%v,%v)", member.X[1], member.Y[1])
	}

	if !strings.Contains(fig.Title, "3 trips plotted") {
		t.Errorf("title should report 3 points, got %q", fig.Title)
	}
	if fig.Points != 3 {
		t.Errorf("expected 3 points, got %d", fig.Points)
	}
	if fig.XAxis.Title != "Start Station ID" || fig.YAxis.Title != "End Station ID" {
		t.Errorf("unexpected axis titles %q / %q", fig.XAxis.Title, fig.YAxis.Title)
	}
	if fig.XAxis.Min != 1 || fig.XAxis.Max != 3 {
		t.Errorf("unexpected x bounds [%v, %v]", fig.XAxis.Min, fig.XAxis.Max)
	}
}

func TestFigure2D_SampleAtLeastRowCount(t *testing.T) {
	ds := largeDataset(500)
	tr := NewTransformer()

	for _, size := range []int{500, 501, 1000000} {
		fig, err := tr.Figure2D(ds, trips.StartDate, trips.DurationSec, size)
		if err != nil {
			t.Fatalf("Figure2D(%d) failed: %v", size, err)
		}
		if got := totalPoints(fig); got != ds.Len() {
			t.Errorf("sample %d: expected %d points, got %d", size, ds.Len(), got)
		}
	}
}

func TestFigure2D_SampleBelowRowCount(t *testing.T) {
	ds := largeDataset(1000)
	tr := NewTransformer()

	for _, size := range []int{1, 37, 999} {
		fig, err := tr.Figure2D(ds, trips.StartStationCode, trips.DurationSec, size)
		if err != nil {
			t.Fatalf("Figure2D(%d) failed: %v", size, err)
		}
		if got := totalPoints(fig); got != size {
			t.Errorf("sample %d: got %d points", size, got)
		}
		if fig.Points != size {
			t.Errorf("sample %d: Points = %d", size, fig.Points)
		}

		seen := make(map[int]bool)
		for _, s := range fig.Series {
			if s.Name != MemberName && s.Name != NotMemberName {
				t.Errorf("unexpected series name %q", s.Name)
			}
			for i, row := range s.Rows {
				if seen[row] {
					t.Errorf("row %d appears twice", row)
				}
				seen[row] = true

				// Points are projections of real rows with the right membership
				r := ds.At(row)
				if r.IsMember != s.Member {
					t.Errorf("row %d in wrong series %q", row, s.Name)
				}
				if s.X[i] != r.StartStationCode || s.Y[i] != r.DurationSec {
					t.Errorf("point %d of %q does not match row %d", i, s.Name, row)
				}
			}
		}
	}
}

func TestFigure2D_SeedIsReproducible(t *testing.T) {
	ds := largeDataset(300)

	a, _ := NewTransformer(WithSeed(42)).Figure2D(ds, trips.StartStationCode, trips.EndStationCode, 20)
	b, _ := NewTransformer(WithSeed(42)).Figure2D(ds, trips.StartStationCode, trips.EndStationCode, 20)

	if len(a.Series) != len(b.Series) {
		t.Fatalf("series count differs: %d vs %d", len(a.Series), len(b.Series))
	}
	for i := range a.Series {
		if len(a.Series[i].Rows) != len(b.Series[i].Rows) {
			t.Fatalf("series %d length differs", i)
		}
		for j := range a.Series[i].Rows {
			if a.Series[i].Rows[j] != b.Series[i].Rows[j] {
				t.Fatalf("series %d differs at %d", i, j)
			}
		}
	}
}

func TestFigure2D_ZeroSample(t *testing.T) {
	fig, err := NewTransformer().Figure2D(exampleDataset(), trips.StartDate, trips.DurationSec, 0)
	if err != nil {
		t.Fatalf("sample size 0 should not fail: %v", err)
	}
	if len(fig.Series) != 0 || fig.Points != 0 {
		t.Errorf("expected empty figure, got %+v", fig)
	}
	if !strings.Contains(fig.Title, "0 trips plotted") {
		t.Errorf("unexpected title %q", fig.Title)
	}
}

func TestFigure2D_NegativeSample(t *testing.T) {
	_, err := NewTransformer().Figure2D(exampleDataset(), trips.StartDate, trips.DurationSec, -1)
	if !errors.Is(err, ErrInvalidSampleSize) {
		t.Fatalf("expected ErrInvalidSampleSize, got %v", err)
	}
}

func TestFigure2D_SingleMembership(t *testing.T) {
	ds := trips.NewDataset([]trips.Record{
		{StartStationCode: 1, EndStationCode: 2, IsMember: true},
		{StartStationCode: 5, EndStationCode: 6, IsMember: true},
	})

	fig, err := NewTransformer().Figure2D(ds, trips.StartStationCode, trips.EndStationCode, 10)
	if err != nil {
		t.Fatalf("Figure2D failed: %v", err)
	}
	if len(fig.Series) != 1 || fig.Series[0].Name != MemberName {
		t.Fatalf("expected only the member series, got %+v", fig.Series)
	}
}

func TestFigure2D_TimestampValues(t *testing.T) {
	fig, err := NewTransformer().Figure2D(exampleDataset(), trips.StartDate, trips.DurationSec, 10)
	if err != nil {
		t.Fatalf("Figure2D failed: %v", err)
	}
	if got := fig.Series[0].X[0]; got != "2017-07-01 08:00:00" {
		t.Errorf("expected formatted timestamp, got %v", got)
	}
}

func TestFigure3D(t *testing.T) {
	ds := largeDataset(400)
	tr := NewTransformer(WithSeed(7))

	fig, err := tr.Figure3D(ds, 150)
	if err != nil {
		t.Fatalf("Figure3D failed: %v", err)
	}
	if totalPoints(fig) != 150 {
		t.Errorf("expected 150 points, got %d", totalPoints(fig))
	}
	if fig.ZAxis == nil || fig.ZAxis.Key != "duration_sec" {
		t.Fatalf("expected duration z axis, got %+v", fig.ZAxis)
	}
	for _, s := range fig.Series {
		if len(s.Z) != s.Len() {
			t.Errorf("series %q has %d z values for %d points", s.Name, len(s.Z), s.Len())
		}
	}

	// Larger than the dataset draws every row
	fig, err = tr.Figure3D(ds, Default3DSample)
	if err != nil {
		t.Fatalf("Figure3D failed: %v", err)
	}
	if totalPoints(fig) != ds.Len() {
		t.Errorf("expected %d points, got %d", ds.Len(), totalPoints(fig))
	}
}

func TestWriteSVG(t *testing.T) {
	ds := largeDataset(50)
	fig, err := NewTransformer(WithSeed(3)).Figure2D(ds, trips.StartDate, trips.DurationSec, 20)
	if err != nil {
		t.Fatalf("Figure2D failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteSVG(&buf, ds, fig, 640, 480); err != nil {
		t.Fatalf("WriteSVG failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Errorf("output is not SVG: %.100s", buf.String())
	}
}

func TestWriteSVG_Empty(t *testing.T) {
	ds := exampleDataset()
	fig, _ := NewTransformer().Figure2D(ds, trips.StartDate, trips.DurationSec, 0)

	var buf bytes.Buffer
	if err := WriteSVG(&buf, ds, fig, 200, 100); err != nil {
		t.Fatalf("WriteSVG failed: %v", err)
	}
	if !strings.Contains(buf.String(), "0 trips plotted") {
		t.Errorf("empty plot should carry the title, got %s", buf.String())
	}
}

func TestWriteSVG_SingleValueAxes(t *testing.T) {
	ds := exampleDataset()
	tr := NewTransformer(WithSeed(5))

	tests := []struct {
		name   string
		x, y   trips.Column
		sample int
	}{
		{"one point", trips.StartStationCode, trips.DurationSec, 1},
		{"flat x and y", trips.StartDate, trips.EndDate, 10},
		{"flat x", trips.StartDate, trips.EndStationCode, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig, err := tr.Figure2D(ds, tt.x, tt.y, tt.sample)
			if err != nil {
				t.Fatalf("Figure2D failed: %v", err)
			}

			var buf bytes.Buffer
			if err := WriteSVG(&buf, ds, fig, 320, 240); err != nil {
				t.Fatalf("WriteSVG failed: %v", err)
			}
			if !strings.Contains(buf.String(), "<svg") {
				t.Errorf("output is not SVG: %.100s", buf.String())
			}
		})
	}
}

func TestSample_DistinctSortedInRange(t *testing.T) {
	tr := NewTransformer(WithSeed(11))

	for _, k := range []int{1, 2, 50, 999} {
		rows := tr.sample(1000, k)
		if len(rows) != k {
			t.Fatalf("k=%d: got %d rows", k, len(rows))
		}
		for i, row := range rows {
			if row < 0 || row >= 1000 {
				t.Fatalf("k=%d: row %d out of range", k, row)
			}
			if i > 0 && rows[i-1] >= row {
				t.Fatalf("k=%d: rows not strictly increasing at %d: %v", k, i, rows[i-1:i+1])
			}
		}
	}
}

func TestSample_Uniform(t *testing.T) {
	tr := NewTransformer(WithSeed(99))
	const n, k, trials = 10, 3, 30000

	hits := make([]int, n)
	for i := 0; i < trials; i++ {
		for _, row := range tr.sample(n, k) {
			hits[row]++
		}
	}

	want := trials * k / n
	for row, got := range hits {
		if got < want-600 || got > want+600 {
			t.Errorf("row %d picked %d times, expected about %d", row, got, want)
		}
	}
}
