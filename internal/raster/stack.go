package raster

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Entry is one time-labelled layer in a stack. Year is the integer time index.
type Entry struct {
	Year  int
	Layer *Layer
}

// LayerStack is an ordered sequence of year-labelled layers sharing one
// spatial domain. Years need not be unique: stacks fed to the resampler
// routinely carry many sub-annual layers per year.
type LayerStack struct {
	rows, cols int
	entries    []Entry
}

// NewLayerStack returns an empty stack. The spatial domain is fixed by the
// first appended layer.
func NewLayerStack() *LayerStack {
	return &LayerStack{}
}

// Append adds a layer with the given year label. All layers in a stack must
// share the same shape.
func (s *LayerStack) Append(year int, l *Layer) error {
	if l == nil {
		return fmt.Errorf("append year %d: nil layer", year)
	}
	if len(s.entries) == 0 {
		s.rows, s.cols = l.Rows, l.Cols
	} else if l.Rows != s.rows || l.Cols != s.cols {
		return fmt.Errorf("append year %d: layer shape %dx%d does not match stack %dx%d",
			year, l.Rows, l.Cols, s.rows, s.cols)
	}
	s.entries = append(s.entries, Entry{Year: year, Layer: l})
	return nil
}

// Len returns the number of layers in the stack.
func (s *LayerStack) Len() int { return len(s.entries) }

// Rows returns the row count of the stack's spatial domain.
func (s *LayerStack) Rows() int { return s.rows }

// Cols returns the column count of the stack's spatial domain.
func (s *LayerStack) Cols() int { return s.cols }

// Entries returns the ordered entries. The slice is shared; callers must not
// mutate it.
func (s *LayerStack) Entries() []Entry { return s.entries }

// ForYear returns every layer labelled with the given year, in stack order.
func (s *LayerStack) ForYear(year int) []*Layer {
	var out []*Layer
	for _, e := range s.entries {
		if e.Year == year {
			out = append(out, e.Layer)
		}
	}
	return out
}

// Scaled returns a new stack with every valid cell multiplied by factor.
// Used to apply unit conversions (e.g. a stored-integer divisor) before
// resampling.
func (s *LayerStack) Scaled(factor float64) *LayerStack {
	out := NewLayerStack()
	for _, e := range s.entries {
		l := e.Layer.Clone()
		floats.Scale(factor, l.Values)
		// invalid cells keep stale values; the mask governs
		_ = out.Append(e.Year, l)
	}
	return out
}

// AnnualSeries is a LayerStack specialised to exactly one layer per
// consecutive year in [YearStart, YearEnd]. The constructor enforces the
// invariant; lookups by year are O(1) offsets.
type AnnualSeries struct {
	YearStart int
	YearEnd   int

	rows, cols int
	layers     []*Layer // index = year - YearStart
}

// NewAnnualSeries builds an AnnualSeries covering [yearStart, yearEnd]
// inclusive from the given stack. Duplicate layers sharing a year label are
// collapsed per pixel with the reducer (median in the pipeline, guarding
// against multiple composites for one year). A year with no contributing
// layer fails with InsufficientDataError.
func NewAnnualSeries(stack *LayerStack, yearStart, yearEnd int, reducer Reducer) (*AnnualSeries, error) {
	if yearEnd < yearStart {
		return nil, fmt.Errorf("annual series: year_end %d before year_start %d", yearEnd, yearStart)
	}
	if stack == nil || stack.Len() == 0 {
		return nil, &InsufficientDataError{Year: yearStart, Reason: "empty input stack"}
	}
	n := yearEnd - yearStart + 1
	layers := make([]*Layer, n)
	for y := yearStart; y <= yearEnd; y++ {
		contributors := stack.ForYear(y)
		switch len(contributors) {
		case 0:
			return nil, &InsufficientDataError{Year: y, Reason: "no layers for year"}
		case 1:
			layers[y-yearStart] = contributors[0]
		default:
			layers[y-yearStart] = ReduceLayers(contributors, reducer)
		}
	}
	return &AnnualSeries{
		YearStart: yearStart,
		YearEnd:   yearEnd,
		rows:      stack.Rows(),
		cols:      stack.Cols(),
		layers:    layers,
	}, nil
}

// Len returns the number of years covered.
func (a *AnnualSeries) Len() int { return len(a.layers) }

// Rows returns the row count of the series' spatial domain.
func (a *AnnualSeries) Rows() int { return a.rows }

// Cols returns the column count of the series' spatial domain.
func (a *AnnualSeries) Cols() int { return a.cols }

// Layer returns the layer for the given year, or nil when the year is out of
// range.
func (a *AnnualSeries) Layer(year int) *Layer {
	if year < a.YearStart || year > a.YearEnd {
		return nil
	}
	return a.layers[year-a.YearStart]
}

// LayerAt returns the i-th layer (year YearStart+i).
func (a *AnnualSeries) LayerAt(i int) *Layer { return a.layers[i] }

// Slice returns the sub-series covering [yearStart, yearEnd]. The requested
// range must lie within the series, else InsufficientDataError.
func (a *AnnualSeries) Slice(yearStart, yearEnd int) (*AnnualSeries, error) {
	if yearStart < a.YearStart || yearEnd > a.YearEnd || yearEnd < yearStart {
		y := yearStart
		if yearStart >= a.YearStart {
			y = yearEnd
		}
		return nil, &InsufficientDataError{Year: y, Reason: fmt.Sprintf(
			"series covers [%d, %d], requested [%d, %d]", a.YearStart, a.YearEnd, yearStart, yearEnd)}
	}
	return &AnnualSeries{
		YearStart: yearStart,
		YearEnd:   yearEnd,
		rows:      a.rows,
		cols:      a.cols,
		layers:    a.layers[yearStart-a.YearStart : yearEnd-a.YearStart+1],
	}, nil
}

// SameDomain reports whether two series share spatial shape and year range.
func (a *AnnualSeries) SameDomain(b *AnnualSeries) bool {
	return b != nil && a.rows == b.rows && a.cols == b.cols &&
		a.YearStart == b.YearStart && a.YearEnd == b.YearEnd
}
