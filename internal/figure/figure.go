// Package figure turns the trip dataset into scatter plot series, one per
// membership category, subsampling the rows so the browser can draw them.
package figure

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/you/bixi-explorer/internal/trips"
)

// ErrInvalidSampleSize is returned for negative sample sizes
var ErrInvalidSampleSize = errors.New("sample size must not be negative")

const (
	MemberName    = "Member"
	NotMemberName = "Not Member"

	// Default3DSample is how many trips the 3D overview draws
	Default3DSample = 100000
)

// Series is one group of points sharing a membership category
type Series struct {
	Name   string `json:"name"`
	Member bool   `json:"member"`
	X      []any  `json:"x"`
	Y      []any  `json:"y"`
	Z      []any  `json:"z,omitempty"`

	// Rows are the dataset indices of the points, in the same order as X/Y/Z
	Rows []int `json:"-"`
}

// Len returns the number of points in the series
func (s Series) Len() int {
	return len(s.Rows)
}

// Axis describes one plotted dimension
type Axis struct {
	Key   string  `json:"key"`
	Title string  `json:"title"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`

	col trips.Column
}

// Figure is everything the UI needs to draw one plot
type Figure struct {
	Title  string   `json:"title"`
	Points int      `json:"points"`
	Series []Series `json:"series"`
	XAxis  Axis     `json:"xaxis"`
	YAxis  Axis     `json:"yaxis"`
	ZAxis  *Axis    `json:"zaxis,omitempty"`
}

// Transformer builds figures. The zero value is not usable; use NewTransformer.
type Transformer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Transformer
type Option func(*Transformer)

// WithSeed makes sampling reproducible
func WithSeed(seed int64) Option {
	return func(t *Transformer) {
		t.rng = rand.New(rand.NewSource(seed))
	}
}

// NewTransformer returns a transformer that samples with a time-seeded source
// unless WithSeed is given, so every redraw shows a fresh sample.
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Figure2D samples at most sampleSize trips and plots x against y
func (t *Transformer) Figure2D(ds *trips.Dataset, x, y trips.Column, sampleSize int) (*Figure, error) {
	if sampleSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleSize, sampleSize)
	}

	rows := t.sample(ds.Len(), sampleSize)
	fig := &Figure{
		Title:  fmt.Sprintf("Bixi Usage in 2017, %d trips plotted", len(rows)),
		Points: len(rows),
		Series: buildSeries(ds, rows, x, y, nil),
		XAxis:  newAxis(ds, rows, x),
		YAxis:  newAxis(ds, rows, y),
	}
	return fig, nil
}

// Figure3D plots start station, end station and duration for a fixed size
// sample. Unlike Figure2D it always draws min(sampleSize, rows) trips at random.
func (t *Transformer) Figure3D(ds *trips.Dataset, sampleSize int) (*Figure, error) {
	if sampleSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleSize, sampleSize)
	}

	rows := t.sample(ds.Len(), sampleSize)
	z := trips.DurationSec
	zAxis := newAxis(ds, rows, z)
	zAxis.Title = "Duration (sec)"

	fig := &Figure{
		Title:  "Usage of Bixi through 2017",
		Points: len(rows),
		Series: buildSeries(ds, rows, trips.StartStationCode, trips.EndStationCode, &z),
		XAxis:  newAxis(ds, rows, trips.StartStationCode),
		YAxis:  newAxis(ds, rows, trips.EndStationCode),
		ZAxis:  &zAxis,
	}
	fig.XAxis.Title = "Start Station"
	fig.YAxis.Title = "End Station"
	return fig, nil
}

// sample picks k of n row indices uniformly without replacement using
// Floyd's algorithm, so the cost follows k rather than n. Rows come back in
// dataset order. When k >= n every row is returned.
func (t *Transformer) sample(n, k int) []int {
	if k >= n {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}

	chosen := make(map[int]struct{}, k)
	t.mu.Lock()
	for j := n - k; j < n; j++ {
		i := t.rng.Intn(j + 1)
		if _, ok := chosen[i]; ok {
			i = j
		}
		chosen[i] = struct{}{}
	}
	t.mu.Unlock()

	rows := make([]int, 0, k)
	for i := range chosen {
		rows = append(rows, i)
	}
	sort.Ints(rows)
	return rows
}

// buildSeries partitions rows by membership, non-members first.
// Empty groups produce no series.
func buildSeries(ds *trips.Dataset, rows []int, x, y trips.Column, z *trips.Column) []Series {
	groups := [2]Series{
		{Name: NotMemberName, Member: false},
		{Name: MemberName, Member: true},
	}

	for _, i := range rows {
		r := ds.At(i)
		g := &groups[0]
		if r.IsMember {
			g = &groups[1]
		}
		g.Rows = append(g.Rows, i)
		g.X = append(g.X, x.Value(r))
		g.Y = append(g.Y, y.Value(r))
		if z != nil {
			g.Z = append(g.Z, z.Value(r))
		}
	}

	series := make([]Series, 0, 2)
	for _, g := range groups {
		if g.Len() > 0 {
			series = append(series, g)
		}
	}
	return series
}

func newAxis(ds *trips.Dataset, rows []int, col trips.Column) Axis {
	axis := Axis{
		Key:   col.Key(),
		Title: col.Label(),
		col:   col,
	}
	if len(rows) == 0 {
		return axis
	}

	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = col.Float(ds.At(row))
	}
	axis.Min, axis.Max = stats.Bounds(values)
	return axis
}
