package trend

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/landdegradation/restrend/internal/raster"
)

// Regression is a per-pixel ordinary least-squares result: Scale holds the
// slope and Offset the intercept. Pixels with fewer than two valid paired
// observations, or with zero variance in the independent variable, are
// masked invalid in both layers.
type Regression struct {
	Scale  *raster.Layer
	Offset *raster.Layer
}

// FitLinear fits, per pixel, dependent = Offset + Scale * independent across
// all years where both series hold a valid value. The fit is global across
// years per pixel. Structural problems (mismatched domains, fewer than two
// layers) fail with DegenerateRegressionError; per-pixel degeneracy masks the
// pixel.
func FitLinear(indep, dep *raster.AnnualSeries) (*Regression, error) {
	if indep == nil || dep == nil {
		return nil, &DegenerateRegressionError{Reason: "nil input series"}
	}
	if !indep.SameDomain(dep) {
		return nil, &DegenerateRegressionError{Reason: "independent and dependent series cover different domains"}
	}
	if indep.Len() < 2 {
		return nil, &DegenerateRegressionError{Reason: "need at least 2 annual layers"}
	}
	return fitSeries(dep, func(i, cell int) (float64, bool) {
		return indep.LayerAt(i).At(cell)
	}), nil
}

// FitTime fits, per pixel, value = Offset + Scale * year. The year itself is
// the independent variable, so no year layers are materialised.
func FitTime(series *raster.AnnualSeries) (*Regression, error) {
	if series == nil {
		return nil, &DegenerateRegressionError{Reason: "nil input series"}
	}
	if series.Len() < 2 {
		return nil, &DegenerateRegressionError{Reason: "need at least 2 annual layers"}
	}
	yearStart := series.YearStart
	return fitSeries(series, func(i, cell int) (float64, bool) {
		return float64(yearStart + i), true
	}), nil
}

// fitSeries runs the per-pixel OLS kernel over row tiles in parallel. Tiles
// are disjoint cell ranges, so the output layers are written without locking.
func fitSeries(dep *raster.AnnualSeries, xAt func(layerIdx, cell int) (float64, bool)) *Regression {
	rows, cols := dep.Rows(), dep.Cols()
	scale := raster.NewLayer(rows, cols)
	offset := raster.NewLayer(rows, cols)
	n := dep.Len()

	var g errgroup.Group
	for _, tile := range rowTiles(rows, runtime.GOMAXPROCS(0)) {
		first, last := tile[0], tile[1]
		g.Go(func() error {
			xs := make([]float64, 0, n)
			ys := make([]float64, 0, n)
			for cell := first * cols; cell < last*cols; cell++ {
				xs, ys = xs[:0], ys[:0]
				for i := 0; i < n; i++ {
					y, ok := dep.LayerAt(i).At(cell)
					if !ok {
						continue
					}
					x, ok := xAt(i, cell)
					if !ok {
						continue
					}
					xs = append(xs, x)
					ys = append(ys, y)
				}
				if len(xs) < 2 {
					continue
				}
				alpha, beta := stat.LinearRegression(xs, ys, nil, false)
				// zero variance in x surfaces as a non-finite slope
				if math.IsNaN(alpha) || math.IsInf(alpha, 0) || math.IsNaN(beta) || math.IsInf(beta, 0) {
					continue
				}
				offset.Set(cell, alpha)
				scale.Set(cell, beta)
			}
			return nil
		})
	}
	_ = g.Wait() // tile workers never fail

	return &Regression{Scale: scale, Offset: offset}
}

// Predict applies a fitted regression to an independent series, producing the
// predicted dependent stack: predicted[y] = Offset + Scale * x[y] per pixel.
// Cells invalid in either the regression or the input year stay invalid.
func Predict(reg *Regression, indep *raster.AnnualSeries) (*raster.AnnualSeries, error) {
	if reg == nil || indep == nil {
		return nil, &DegenerateRegressionError{Reason: "nil regression or series"}
	}
	if !reg.Scale.SameShape(indep.LayerAt(0)) {
		return nil, &DegenerateRegressionError{Reason: "regression and series cover different domains"}
	}
	out := raster.NewLayerStack()
	for y := indep.YearStart; y <= indep.YearEnd; y++ {
		in := indep.Layer(y)
		pred := raster.NewLayer(in.Rows, in.Cols)
		for i := 0; i < in.Size(); i++ {
			x, ok := in.At(i)
			if !ok || !reg.Scale.Valid[i] {
				continue
			}
			pred.Set(i, reg.Offset.Values[i]+reg.Scale.Values[i]*x)
		}
		_ = out.Append(y, pred)
	}
	return raster.NewAnnualSeries(out, indep.YearStart, indep.YearEnd, raster.Median)
}

// Residuals subtracts predicted from observed per pixel per year. A cell is
// valid only where both operands are valid.
func Residuals(observed, predicted *raster.AnnualSeries) (*raster.AnnualSeries, error) {
	if observed == nil || predicted == nil || !observed.SameDomain(predicted) {
		return nil, &DegenerateRegressionError{Reason: "observed and predicted series cover different domains"}
	}
	out := raster.NewLayerStack()
	for y := observed.YearStart; y <= observed.YearEnd; y++ {
		obs, pred := observed.Layer(y), predicted.Layer(y)
		res := raster.NewLayer(obs.Rows, obs.Cols)
		for i := 0; i < obs.Size(); i++ {
			o, okO := obs.At(i)
			p, okP := pred.At(i)
			if !okO || !okP {
				continue
			}
			res.Set(i, o-p)
		}
		_ = out.Append(y, res)
	}
	return raster.NewAnnualSeries(out, observed.YearStart, observed.YearEnd, raster.Median)
}

// rowTiles splits rows into at most n contiguous [first, last) ranges.
func rowTiles(rows, n int) [][2]int {
	if n < 1 {
		n = 1
	}
	chunk := (rows + n - 1) / n
	var tiles [][2]int
	for first := 0; first < rows; first += chunk {
		last := first + chunk
		if last > rows {
			last = rows
		}
		tiles = append(tiles, [2]int{first, last})
	}
	return tiles
}
