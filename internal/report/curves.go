// Package report renders training artefacts: cost curves and learned
// class templates.
package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"softmax-forge/internal/metrics"
)

var (
	trainColor = color.RGBA{G: 160, A: 255}
	validColor = color.RGBA{R: 200, A: 255}
)

// CostPlot builds the training (green) and validation (red) cost curves.
func CostPlot(c *metrics.Curves) (*plot.Plot, error) {
	if c == nil || c.Len() == 0 {
		return nil, errors.New("report: no epochs to plot")
	}
	p := plot.New()
	p.Title.Text = "Cost per epoch"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "cost"

	train, err := plotter.NewLine(epochXYs(c.Train))
	if err != nil {
		return nil, fmt.Errorf("training line: %w", err)
	}
	train.Color = trainColor

	valid, err := plotter.NewLine(epochXYs(c.Valid))
	if err != nil {
		return nil, fmt.Errorf("validation line: %w", err)
	}
	valid.Color = validColor

	p.Add(train, valid)
	p.Legend.Add("training loss", train)
	p.Legend.Add("validation loss", valid)
	return p, nil
}

// SaveCostCurves writes the cost plot to path; the extension picks the
// format (png, svg, pdf, ...).
func SaveCostCurves(path string, c *metrics.Curves) error {
	p, err := CostPlot(c)
	if err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

func epochXYs(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	return pts
}
