package trips

import "math"

// DurationStats holds running duration statistics using Welford's online
// algorithm, so the summary is built in one pass while the dataset loads.
type DurationStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"meanSec"`
	M2    float64 `json:"-"`
}

// Add folds one trip duration into the running statistics
func (s *DurationStats) Add(seconds float64) {
	s.Count++
	delta := seconds - s.Mean
	s.Mean += delta / float64(s.Count)
	s.M2 += delta * (seconds - s.Mean)
}

// StdDev returns the population standard deviation, 0 below two observations
func (s DurationStats) StdDev() float64 {
	if s.Count < 2 {
		return 0
	}
	return math.Sqrt(s.M2 / float64(s.Count))
}

// Summary splits duration statistics by membership
type Summary struct {
	Rows      int           `json:"rows"`
	Member    DurationStats `json:"member"`
	NotMember DurationStats `json:"notMember"`
}

func summarize(records []Record) Summary {
	s := Summary{Rows: len(records)}
	for _, r := range records {
		if r.IsMember {
			s.Member.Add(float64(r.DurationSec))
		} else {
			s.NotMember.Add(float64(r.DurationSec))
		}
	}
	return s
}
