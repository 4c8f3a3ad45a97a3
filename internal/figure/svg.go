package figure

import (
	"fmt"
	"html"
	"io"

	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"

	"github.com/you/bixi-explorer/internal/trips"
)

// WriteSVG renders the x/y projection of fig as a scatter plot coloured by
// membership. Timestamp axes are drawn as fractional day of the year.
func WriteSVG(w io.Writer, ds *trips.Dataset, fig *Figure, width, height int) error {
	if fig.Points == 0 {
		// gg cannot scale an empty table
		_, err := fmt.Fprintf(w,
			`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="10" y="20">%s</text></svg>`,
			width, height, html.EscapeString(fig.Title))
		return err
	}

	xs := make([]float64, 0, fig.Points)
	ys := make([]float64, 0, fig.Points)
	names := make([]string, 0, fig.Points)
	for _, s := range fig.Series {
		for _, row := range s.Rows {
			r := ds.At(row)
			xs = append(xs, fig.XAxis.col.Float(r))
			ys = append(ys, fig.YAxis.col.Float(r))
			names = append(names, s.Name)
		}
	}

	tab := table.NewBuilder(nil).Add("x", xs).Add("y", ys).Add("membership", names).Done()

	plot := gg.NewPlot(tab)
	setScale(plot, "x", fig.XAxis)
	setScale(plot, "y", fig.YAxis)
	plot.Add(gg.LayerPoints{X: "x", Y: "y", Color: "membership"})
	plot.Add(gg.AxisLabel("x", axisLabel(fig.XAxis)))
	plot.Add(gg.AxisLabel("y", axisLabel(fig.YAxis)))
	plot.Add(gg.Title(fig.Title))

	return plot.WriteSVG(w, width, height)
}

// setScale pads an axis whose points all share one value, since gg cannot
// place ticks on a zero-width range.
func setScale(plot *gg.Plot, aes string, a Axis) {
	if a.Min != a.Max {
		return
	}
	plot.SetScale(aes, gg.NewLinearScaler().Include(a.Min-1).Include(a.Max+1))
}

func axisLabel(a Axis) string {
	if a.col.IsTime() {
		return a.Title + " (day of year)"
	}
	return a.Title
}
