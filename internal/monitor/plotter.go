// Package monitor renders pipeline outputs for visual inspection: a heatmap
// of the masked trend layer and per-pixel residual time series. Plots are a
// diagnostic surface only; the exported raster snapshot is the real output.
package monitor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/landdegradation/restrend/internal/raster"
	"github.com/landdegradation/restrend/internal/security"
)

// TrendPlotter writes PNG plots of trend pipeline outputs into OutputDir.
type TrendPlotter struct {
	OutputDir string
}

// NewTrendPlotter creates a plotter writing into outputDir, creating it if
// needed.
func NewTrendPlotter(outputDir string) (*TrendPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot dir: %w", err)
	}
	return &TrendPlotter{OutputDir: outputDir}, nil
}

// layerGrid adapts a Layer to the heatmap grid interface. Cells that are
// invalid or equal to the sentinel map to NaN so they are left unpainted.
type layerGrid struct {
	layer    *raster.Layer
	sentinel float64
}

func (g layerGrid) Dims() (c, r int) { return g.layer.Cols, g.layer.Rows }
func (g layerGrid) X(c int) float64  { return float64(c) }
func (g layerGrid) Y(r int) float64  { return float64(r) }

func (g layerGrid) Z(c, r int) float64 {
	v, ok := g.layer.At(g.layer.Idx(r, c))
	if !ok || v == g.sentinel {
		return math.NaN()
	}
	return v
}

// SaveTrendHeatmap renders the layer as a heatmap PNG named after the
// execution ID and returns the written path. Sentinel cells stay blank.
func (tp *TrendPlotter) SaveTrendHeatmap(l *raster.Layer, sentinel float64, executionID string) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Residual trend %s", executionID)
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"

	hm := plotter.NewHeatMap(layerGrid{layer: l, sentinel: sentinel}, palette.Heat(12, 1))
	p.Add(hm)

	file := filepath.Join(tp.OutputDir, fmt.Sprintf("%s_trend.png", security.SanitizeFilename(executionID)))
	if err := p.Save(10*vg.Inch, 10*vg.Inch*vg.Length(l.Rows)/vg.Length(l.Cols), file); err != nil {
		return "", fmt.Errorf("failed to save trend heatmap: %w", err)
	}
	return file, nil
}

// SaveResidualSeries plots the residual time series for the given flat cell
// indices, one line per cell, and returns the written path. Invalid years are
// skipped per cell.
func (tp *TrendPlotter) SaveResidualSeries(residuals *raster.AnnualSeries, cells []int, executionID string) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Residuals %s", executionID)
	p.X.Label.Text = "year"
	p.Y.Label.Text = "residual"

	for _, cell := range cells {
		pts := make(plotter.XYs, 0, residuals.Len())
		for y := residuals.YearStart; y <= residuals.YearEnd; y++ {
			v, ok := residuals.Layer(y).At(cell)
			if !ok {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(y), Y: v})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("failed to build residual line: %w", err)
		}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("cell %d", cell), line)
	}

	file := filepath.Join(tp.OutputDir, fmt.Sprintf("%s_residuals.png", security.SanitizeFilename(executionID)))
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return "", fmt.Errorf("failed to save residual plot: %w", err)
	}
	return file, nil
}
