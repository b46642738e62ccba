package trend

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/landdegradation/restrend/internal/raster"
)

// MannKendall computes the per-pixel Mann-Kendall S statistic over a
// time-ordered annual series. For every pair of time indices i < j a pixel
// counts concordant when value[i] < value[j] and discordant when
// value[i] > value[j]; ties count toward neither, and a pair with an invalid
// operand contributes nothing. S is the concordant total minus the discordant
// total, an integer in [-n(n-1)/2, n(n-1)/2] for n time steps.
//
// The pair loop accumulates counts in a single per-pixel pass instead of
// materialising the O(n²) pairwise comparison layers; n is bounded by the
// study period (≤ ~35 years) so the quadratic pair count is cheap, while the
// spatial dimension is tiled across workers.
func MannKendall(series *raster.AnnualSeries) (*raster.Layer, error) {
	if series == nil || series.Len() < 2 {
		return nil, &DegenerateRegressionError{Reason: "mann-kendall needs at least 2 annual layers"}
	}
	rows, cols := series.Rows(), series.Cols()
	n := series.Len()
	out := raster.NewLayer(rows, cols)

	var g errgroup.Group
	for _, tile := range rowTiles(rows, runtime.GOMAXPROCS(0)) {
		first, last := tile[0], tile[1]
		g.Go(func() error {
			for cell := first * cols; cell < last*cols; cell++ {
				s := 0
				for i := 0; i < n-1; i++ {
					vi, ok := series.LayerAt(i).At(cell)
					if !ok {
						continue
					}
					for j := i + 1; j < n; j++ {
						vj, ok := series.LayerAt(j).At(cell)
						if !ok {
							continue
						}
						switch {
						case vi < vj:
							s++
						case vi > vj:
							s--
						}
					}
				}
				// S is defined (zero) even for pixels with no valid pair
				out.Set(cell, float64(s))
			}
			return nil
		})
	}
	_ = g.Wait() // tile workers never fail

	return out, nil
}
