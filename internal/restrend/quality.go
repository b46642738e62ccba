package restrend

import (
	"fmt"

	"github.com/landdegradation/restrend/internal/raster"
)

// Quality flag semantics of the vegetation-index source: 0 (good) and 1
// (marginal) are usable, -1 (fill), 2 (snow/ice) and 3 (cloudy) are not.
const (
	qualityGood     = 0
	qualityMarginal = 1
)

// VIObservation is one sub-annual vegetation-index composite: the index
// layer plus its quality-flag band on the same grid.
type VIObservation struct {
	Year    int
	Index   *raster.Layer
	Quality *raster.Layer
}

// qualityFilter masks every observation's index layer by its quality band
// and returns the filtered stack, year-labelled for annual integration.
// A cell survives only where the index is valid and the flag is 0 or 1.
func qualityFilter(observations []VIObservation) (*raster.LayerStack, error) {
	out := raster.NewLayerStack()
	for k, obs := range observations {
		if obs.Index == nil || obs.Quality == nil {
			return nil, fmt.Errorf("observation %d (year %d): missing index or quality band", k, obs.Year)
		}
		if !obs.Index.SameShape(obs.Quality) {
			return nil, fmt.Errorf("observation %d (year %d): index %dx%d and quality %dx%d differ",
				k, obs.Year, obs.Index.Rows, obs.Index.Cols, obs.Quality.Rows, obs.Quality.Cols)
		}
		masked := raster.NewLayer(obs.Index.Rows, obs.Index.Cols)
		for i := 0; i < masked.Size(); i++ {
			v, ok := obs.Index.At(i)
			if !ok {
				continue
			}
			flag, ok := obs.Quality.At(i)
			if !ok {
				continue
			}
			if int(flag) != qualityGood && int(flag) != qualityMarginal {
				continue
			}
			masked.Set(i, v)
		}
		if err := out.Append(obs.Year, masked); err != nil {
			return nil, err
		}
	}
	return out, nil
}
