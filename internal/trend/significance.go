package trend

// Critical values of the Mann-Kendall S statistic at a two-sided significance
// level of 0.05, indexed by sample count minus minPeriod. Table A.30 of
// Hollander & Wolfe, Nonparametric Statistical Methods, second edition.
var criticalValues = [...]int{
	4, 6, 9, 11, 14, 16, 19, 21, 24, 26,
	31, 33, 36, 40, 43, 47, 50, 54, 59, 63,
	66, 70, 75, 79, 84, 88, 93, 97, 102, 106,
	111, 115, 120, 126, 131, 137,
}

const minPeriod = 4

const maxPeriod = minPeriod + len(criticalValues) - 1

// CriticalValue returns the Mann-Kendall critical S value for a series of
// period samples at the fixed two-sided 0.05 significance level. An absolute
// S statistic strictly greater than the returned value marks a significant
// monotonic trend. Periods outside [4, 39] fail with UnsupportedPeriodError.
func CriticalValue(period int) (int, error) {
	if period < minPeriod || period > maxPeriod {
		return 0, &UnsupportedPeriodError{Period: period}
	}
	return criticalValues[period-minPeriod], nil
}
