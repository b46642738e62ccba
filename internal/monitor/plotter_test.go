package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/landdegradation/restrend/internal/raster"
)

func TestSaveTrendHeatmap(t *testing.T) {
	dir := t.TempDir()
	tp, err := NewTrendPlotter(filepath.Join(dir, "plots"))
	if err != nil {
		t.Fatalf("NewTrendPlotter: %v", err)
	}

	const sentinel = -99999.0
	l := raster.NewLayer(4, 6)
	for i := 0; i < l.Size(); i++ {
		if i%5 == 0 {
			l.Set(i, sentinel)
		} else {
			l.Set(i, 0.001*float64(i))
		}
	}

	file, err := tp.SaveTrendHeatmap(l, sentinel, "unit test/run")
	if err != nil {
		t.Fatalf("SaveTrendHeatmap: %v", err)
	}
	if filepath.Base(file) != "unit-test-run_trend.png" {
		t.Fatalf("plot name = %s, want sanitized execution ID", filepath.Base(file))
	}
	info, err := os.Stat(file)
	if err != nil || info.Size() == 0 {
		t.Fatalf("plot file missing or empty: %v", err)
	}
}

func TestSaveResidualSeries(t *testing.T) {
	tp, err := NewTrendPlotter(t.TempDir())
	if err != nil {
		t.Fatalf("NewTrendPlotter: %v", err)
	}

	s := raster.NewLayerStack()
	for k := 0; k < 5; k++ {
		l := raster.NewLayer(1, 2)
		l.Set(0, 0.01*float64(k)-0.02)
		// cell 1 stays invalid every year and must be skipped
		if err := s.Append(2003+k, l); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	series, err := raster.NewAnnualSeries(s, 2003, 2007, raster.Median)
	if err != nil {
		t.Fatalf("NewAnnualSeries: %v", err)
	}

	file, err := tp.SaveResidualSeries(series, []int{0, 1}, "resid")
	if err != nil {
		t.Fatalf("SaveResidualSeries: %v", err)
	}
	if info, err := os.Stat(file); err != nil || info.Size() == 0 {
		t.Fatalf("plot file missing or empty: %v", err)
	}
}
