package trend

import "fmt"

// DegenerateRegressionError reports a regression that cannot be set up at
// all: mismatched spatial domains or fewer than two layers. Per-pixel
// degeneracies (too few valid pairs, zero variance in the independent
// variable) never raise this; they mask the affected pixel instead.
type DegenerateRegressionError struct {
	Reason string
}

func (e *DegenerateRegressionError) Error() string {
	return "degenerate regression: " + e.Reason
}

// UnsupportedPeriodError reports a sample count outside the significance
// table's supported range.
type UnsupportedPeriodError struct {
	Period int
}

func (e *UnsupportedPeriodError) Error() string {
	return fmt.Sprintf("unsupported period %d: significance table covers %d to %d samples",
		e.Period, minPeriod, maxPeriod)
}
