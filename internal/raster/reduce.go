package raster

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Reducer collapses the valid observations of one cell across a set of layers
// into a single value. Reducers are only invoked with at least one value.
type Reducer func(vals []float64) float64

// Mean is the arithmetic mean reducer.
func Mean(vals []float64) float64 {
	return stat.Mean(vals, nil)
}

// Median reduces to the median, averaging the two middle values for even
// counts.
func Median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

// ReduceLayers collapses a set of same-shaped layers into one layer by
// applying the reducer per cell over valid values. A cell invalid in every
// input stays invalid in the output.
func ReduceLayers(layers []*Layer, reducer Reducer) *Layer {
	if len(layers) == 1 {
		return layers[0].Clone()
	}
	out := NewLayer(layers[0].Rows, layers[0].Cols)
	scratch := make([]float64, 0, len(layers))
	for i := 0; i < out.Size(); i++ {
		scratch = scratch[:0]
		for _, l := range layers {
			if l.Valid[i] {
				scratch = append(scratch, l.Values[i])
			}
		}
		if len(scratch) == 0 {
			continue
		}
		out.Set(i, reducer(scratch))
	}
	return out
}
