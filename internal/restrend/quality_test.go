package restrend

import (
	"testing"

	"github.com/landdegradation/restrend/internal/raster"
)

func TestQualityFilterFlags(t *testing.T) {
	index := raster.NewLayer(1, 5)
	quality := raster.NewLayer(1, 5)
	for i, flag := range []float64{-1, 0, 1, 2, 3} {
		index.Set(i, float64(1000+i))
		quality.Set(i, flag)
	}

	filtered, err := qualityFilter([]VIObservation{{Year: 2003, Index: index, Quality: quality}})
	if err != nil {
		t.Fatalf("qualityFilter: %v", err)
	}
	masked := filtered.Entries()[0].Layer
	for i, wantValid := range []bool{false, true, true, false, false} {
		v, ok := masked.At(i)
		if ok != wantValid {
			t.Fatalf("flag %v: valid=%v, want %v", quality.Values[i], ok, wantValid)
		}
		if ok && v != float64(1000+i) {
			t.Fatalf("flag %v: value=%v, want %v", quality.Values[i], v, 1000+i)
		}
	}
}

func TestQualityFilterPropagatesInvalidInputs(t *testing.T) {
	index := raster.NewLayer(1, 2)
	index.Set(1, 42)
	quality := raster.NewLayer(1, 2)
	quality.Set(0, 0)
	// cell 0: quality good but index never set; cell 1: index set but
	// quality missing. Both must come out invalid.
	filtered, err := qualityFilter([]VIObservation{{Year: 2003, Index: index, Quality: quality}})
	if err != nil {
		t.Fatalf("qualityFilter: %v", err)
	}
	masked := filtered.Entries()[0].Layer
	if masked.ValidCount() != 0 {
		t.Fatalf("valid cells = %d, want 0", masked.ValidCount())
	}
}

func TestQualityFilterStructuralErrors(t *testing.T) {
	index := raster.NewLayer(1, 2)
	other := raster.NewLayer(2, 2)

	if _, err := qualityFilter([]VIObservation{{Year: 2003, Index: index}}); err == nil {
		t.Fatalf("expected error for missing quality band")
	}
	if _, err := qualityFilter([]VIObservation{{Year: 2003, Index: index, Quality: other}}); err == nil {
		t.Fatalf("expected error for mismatched grids")
	}
}
