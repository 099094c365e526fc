// Package viz renders training artifacts as PNG files: loss/accuracy
// curves, confusion-matrix heatmaps, and learned convolution filters.
package viz

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Series is one named trace plotted against epoch number.
type Series struct {
	Name   string
	Values []float32
}

// Curves renders one or more per-epoch traces into a PNG line chart.
func Curves(path, title, yLabel string, series ...Series) error {
	if len(series) == 0 {
		return errors.New("viz: no series to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	for i, s := range series {
		if len(s.Values) == 0 {
			return fmt.Errorf("viz: series %q is empty", s.Name)
		}
		xys := make(plotter.XYs, len(s.Values))
		for e, v := range s.Values {
			xys[e].X = float64(e + 1)
			xys[e].Y = float64(v)
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("viz: build line %q: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("viz: save %s: %w", path, err)
	}
	return nil
}
