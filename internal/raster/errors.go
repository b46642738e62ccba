package raster

import "fmt"

// InsufficientDataError reports a year (or window) with no contributing source
// layers during resampling or series construction. It is fatal at the pipeline
// level: annual series require full coverage to be meaningful.
type InsufficientDataError struct {
	Year   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("insufficient data for year %d", e.Year)
	}
	return fmt.Sprintf("insufficient data for year %d: %s", e.Year, e.Reason)
}
