package raster

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// AggregateAnnual collapses a sub-annual stack into one composite per year in
// [yearStart, yearEnd] inclusive. For each year every layer labelled with that
// year is reduced per cell with the reducer over valid observations, and the
// result is multiplied by scale (unit conversion, e.g. stored digital number
// to index value). A year with zero contributing layers fails with
// InsufficientDataError.
func AggregateAnnual(stack *LayerStack, reducer Reducer, yearStart, yearEnd int, scale float64) (*LayerStack, error) {
	if yearEnd < yearStart {
		return nil, fmt.Errorf("aggregate annual: year_end %d before year_start %d", yearEnd, yearStart)
	}
	if stack == nil || stack.Len() == 0 {
		return nil, &InsufficientDataError{Year: yearStart, Reason: "empty input stack"}
	}
	out := NewLayerStack()
	for y := yearStart; y <= yearEnd; y++ {
		contributors := stack.ForYear(y)
		if len(contributors) == 0 {
			return nil, &InsufficientDataError{Year: y, Reason: "no source layers in year"}
		}
		composite := ReduceLayers(contributors, reducer)
		if scale != 1 {
			floats.Scale(scale, composite.Values)
		}
		_ = out.Append(y, composite)
	}
	return out, nil
}

// SliceAnnual collapses a long fixed-cadence stack (obsPerYear observations
// per year, time-ordered) into one composite per year by reducing consecutive
// windows of obsPerYear layers. Window k (1-indexed) is labelled
// baseYear + k. Year labels on the input stack are ignored; only order
// matters.
//
// The stack length must be an exact non-zero multiple of obsPerYear. The
// source data this models carries no cadence metadata, so a ragged stack is
// indistinguishable from a mislabelled one; fail fast.
func SliceAnnual(stack *LayerStack, obsPerYear, baseYear int, reducer Reducer) (*LayerStack, error) {
	if obsPerYear <= 0 {
		return nil, fmt.Errorf("slice annual: observations per year must be positive, got %d", obsPerYear)
	}
	if stack == nil || stack.Len() == 0 {
		return nil, &InsufficientDataError{Year: baseYear + 1, Reason: "empty input stack"}
	}
	if stack.Len()%obsPerYear != 0 {
		return nil, &InsufficientDataError{
			Year: baseYear + stack.Len()/obsPerYear + 1,
			Reason: fmt.Sprintf("stack length %d is not a multiple of %d observations per year",
				stack.Len(), obsPerYear),
		}
	}
	entries := stack.Entries()
	out := NewLayerStack()
	for k := 1; k*obsPerYear <= len(entries); k++ {
		window := make([]*Layer, 0, obsPerYear)
		for _, e := range entries[(k-1)*obsPerYear : k*obsPerYear] {
			window = append(window, e.Layer)
		}
		_ = out.Append(baseYear+k, ReduceLayers(window, reducer))
	}
	return out, nil
}
