package trips

import "fmt"

// FindByPoint returns the first trip, in dataset order, whose xCol and yCol
// values equal the raw plotted values. Several trips may share a point; the
// first one wins. Values that do not parse for their column never match.
func (d *Dataset) FindByPoint(xCol, yCol Column, x, y string) (Record, bool) {
	xv, err := xCol.ParseValue(x)
	if err != nil {
		return Record{}, false
	}
	yv, err := yCol.ParseValue(y)
	if err != nil {
		return Record{}, false
	}

	for _, r := range d.records {
		if xCol.Value(r) == xv && yCol.Value(r) == yv {
			return r, true
		}
	}
	return Record{}, false
}

// Summary describes the trip in a few sentences for the click panel
func (r Record) Summary() string {
	membership := "The trip was not effectuated by a Bixi member."
	if r.IsMember {
		membership = "The trip was effectuated by a Bixi member."
	}

	return fmt.Sprintf(
		"The trip started at the station %d, on %s.\n\n"+
			"It ended at the station %d, on %s.\n\n"+
			"It last %d seconds.\n\n"+
			"%s",
		r.StartStationCode, r.StartDate.Format(ValueLayout),
		r.EndStationCode, r.EndDate.Format(ValueLayout),
		r.DurationSec,
		membership,
	)
}
