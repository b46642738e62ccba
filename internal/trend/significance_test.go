package trend

import (
	"errors"
	"testing"
)

func TestCriticalValueKnownEntries(t *testing.T) {
	cases := map[int]int{
		4:  4,
		13: 26,
		39: 137,
	}
	for period, want := range cases {
		got, err := CriticalValue(period)
		if err != nil {
			t.Fatalf("CriticalValue(%d): %v", period, err)
		}
		if got != want {
			t.Fatalf("CriticalValue(%d) = %d, want %d", period, got, want)
		}
	}
}

func TestCriticalValueMonotone(t *testing.T) {
	prev, err := CriticalValue(4)
	if err != nil {
		t.Fatalf("CriticalValue(4): %v", err)
	}
	for period := 5; period <= 39; period++ {
		v, err := CriticalValue(period)
		if err != nil {
			t.Fatalf("CriticalValue(%d): %v", period, err)
		}
		if v < prev {
			t.Fatalf("critical value decreased at period %d: %d < %d", period, v, prev)
		}
		prev = v
	}
}

func TestCriticalValueUnsupportedPeriods(t *testing.T) {
	for _, period := range []int{3, 40, 0, -1} {
		_, err := CriticalValue(period)
		var upe *UnsupportedPeriodError
		if !errors.As(err, &upe) {
			t.Fatalf("CriticalValue(%d): expected UnsupportedPeriodError, got %v", period, err)
		}
		if upe.Period != period {
			t.Fatalf("error period = %d, want %d", upe.Period, period)
		}
	}
}
