package viz

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/DKoflerGIT/cnn/internal/metrics"
)

// confusionGrid adapts a confusion matrix to the plotter's grid
// interface. Row 0 (true class 0) is drawn at the top.
type confusionGrid struct {
	cm *metrics.Confusion
}

func (g confusionGrid) Dims() (int, int) { n := g.cm.NumClasses(); return n, n }
func (g confusionGrid) X(c int) float64  { return float64(c) }
func (g confusionGrid) Y(r int) float64  { return float64(r) }

func (g confusionGrid) Z(c, r int) float64 {
	label := g.cm.NumClasses() - 1 - r
	return float64(g.cm.Count(label, c))
}

// Heatmap renders the confusion matrix as a PNG heatmap with class tick
// labels.
func Heatmap(path string, cm *metrics.Confusion) error {
	if cm.Total() == 0 {
		return errors.New("viz: confusion matrix is empty")
	}

	hm := plotter.NewHeatMap(confusionGrid{cm}, palette.Heat(12, 1))

	p := plot.New()
	p.Title.Text = "Confusion matrix"
	p.X.Label.Text = "predicted"
	p.Y.Label.Text = "true"

	n := cm.NumClasses()
	xticks := make([]plot.Tick, n)
	yticks := make([]plot.Tick, n)
	for i, name := range cm.Classes() {
		xticks[i] = plot.Tick{Value: float64(i), Label: name}
		yticks[i] = plot.Tick{Value: float64(n - 1 - i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)

	p.Add(hm)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("viz: save %s: %w", path, err)
	}
	return nil
}
