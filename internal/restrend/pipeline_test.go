package restrend

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/landdegradation/restrend/internal/geometry"
	"github.com/landdegradation/restrend/internal/raster"
	"github.com/landdegradation/restrend/internal/store"
	"github.com/landdegradation/restrend/internal/trend"
)

const (
	testYearStart = 2003
	testYearEnd   = 2015
	testRows      = 2
	testCols      = 3
)

// annualClimate returns a 13-value climate series with zero covariance
// against the year index, so the climate fit cannot absorb any of the
// injected time drift.
func annualClimate() []float64 {
	base := []float64{0.30, 0.70, 0.40, 0.90, 0.20, 0.60, 0.80, 0.10, 0.50, 0.35, 0.75, 0.45, 0.55}
	n := len(base)
	tMean := float64(n-1) / 2
	bMean := 0.0
	for _, v := range base {
		bMean += v
	}
	bMean /= float64(n)
	num, den := 0.0, 0.0
	for k, v := range base {
		num += (v - bMean) * (float64(k) - tMean)
		den += (float64(k) - tMean) * (float64(k) - tMean)
	}
	beta := num / den
	out := make([]float64, n)
	for k, v := range base {
		out[k] = v - beta*float64(k)
	}
	return out
}

// synthInputs builds a noiseless scenario: per pixel, index = gain·climate +
// base + drift·(year-2003), in raw digital numbers. deadCell (when >= 0) is
// quality-rejected in every observation.
func synthInputs(t *testing.T, drift float64, deadCell int) ([]VIObservation, ClimateInput) {
	t.Helper()
	climate := annualClimate()

	observations := make([]VIObservation, 0, len(climate))
	climateStack := raster.NewLayerStack()
	for k, c := range climate {
		year := testYearStart + k

		index := raster.NewLayer(testRows, testCols)
		quality := raster.NewLayer(testRows, testCols)
		for i := 0; i < index.Size(); i++ {
			gain := 0.002 + 0.0004*float64(i)
			base := 0.2 + 0.01*float64(i)
			value := gain*c + base + drift*float64(k)
			index.Set(i, value/DefaultIndexScale)
			if i == deadCell {
				quality.Set(i, 3) // cloudy, rejected
			} else {
				quality.Set(i, float64(k%2)) // good and marginal both pass
			}
		}
		observations = append(observations, VIObservation{Year: year, Index: index, Quality: quality})

		// two observations per climate year, both at the annual value
		for w := 0; w < 2; w++ {
			l := raster.NewLayer(testRows, testCols)
			for i := 0; i < l.Size(); i++ {
				l.Set(i, c*DefaultClimateDivisor)
			}
			if err := climateStack.Append(year, l); err != nil {
				t.Fatalf("append climate layer: %v", err)
			}
		}
	}
	return observations, ClimateInput{
		Stack:      climateStack,
		BaseYear:   testYearStart - 1,
		ObsPerYear: 2,
	}
}

func testConfig() *Config {
	return &Config{
		YearStart: testYearStart,
		YearEnd:   testYearEnd,
		AOI:       geometry.DefaultSenegal(),
	}
}

// A constant positive residual drift must survive the climate fit and appear
// as a significant trend of that magnitude at every live pixel.
func TestRunRecoversResidualDrift(t *testing.T) {
	observations, climate := synthInputs(t, 0.01, -1)
	result, err := testConfig().Run(observations, climate)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.CriticalValue != 26 {
		t.Fatalf("critical value = %d, want 26 for period 13", result.CriticalValue)
	}
	n := testYearEnd - testYearStart + 1
	wantS := float64(n * (n - 1) / 2)
	for i := 0; i < result.Trend.Size(); i++ {
		if result.IndexS.Values[i] != wantS {
			t.Fatalf("pixel %d: index S = %v, want %v (strictly increasing)", i, result.IndexS.Values[i], wantS)
		}
		if result.ResidualS.Values[i] != wantS {
			t.Fatalf("pixel %d: residual S = %v, want %v", i, result.ResidualS.Values[i], wantS)
		}
		v, ok := result.Trend.At(i)
		if !ok {
			t.Fatalf("pixel %d: output cell undefined", i)
		}
		if v == NoData {
			t.Fatalf("pixel %d: sentinel, want significant slope", i)
		}
		if math.Abs(v-0.01) > 1e-6 {
			t.Fatalf("pixel %d: slope = %v, want 0.01", i, v)
		}
	}
	if result.SignificantPixels != result.Trend.Size() {
		t.Fatalf("significant pixels = %d, want %d", result.SignificantPixels, result.Trend.Size())
	}
}

// With zero drift the signal is fully climate-explained: every pixel must be
// masked to the sentinel by the negligible-slope guard.
func TestRunMasksClimateExplainedSignal(t *testing.T) {
	observations, climate := synthInputs(t, 0, -1)
	result, err := testConfig().Run(observations, climate)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < result.Trend.Size(); i++ {
		v, ok := result.Trend.At(i)
		if !ok || v != NoData {
			t.Fatalf("pixel %d = %v,%v, want sentinel %v", i, v, ok, NoData)
		}
	}
	if result.SignificantPixels != 0 {
		t.Fatalf("significant pixels = %d, want 0", result.SignificantPixels)
	}
}

// A pixel rejected by the quality filter in every observation must come out
// as the sentinel while its neighbours stay significant.
func TestRunPropagatesUpstreamInvalidPixels(t *testing.T) {
	const dead = 0
	observations, climate := synthInputs(t, 0.01, dead)
	result, err := testConfig().Run(observations, climate)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v, ok := result.Trend.At(dead); !ok || v != NoData {
		t.Fatalf("dead pixel = %v,%v, want sentinel", v, ok)
	}
	if v, _ := result.Trend.At(dead + 1); v == NoData {
		t.Fatalf("live neighbour masked unexpectedly")
	}
	if result.SignificantPixels != result.Trend.Size()-1 {
		t.Fatalf("significant pixels = %d, want %d", result.SignificantPixels, result.Trend.Size()-1)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	observations, climate := synthInputs(t, 0.01, 1)
	first, err := testConfig().Run(observations, climate)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := testConfig().Run(observations, climate)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if diff := cmp.Diff(first.Trend, second.Trend); diff != "" {
		t.Fatalf("outputs differ between identical runs:\n%s", diff)
	}
}

func TestRunFailsWithoutGeometry(t *testing.T) {
	observations, climate := synthInputs(t, 0.01, -1)
	cfg := testConfig()
	cfg.AOI = nil
	_, err := cfg.Run(observations, climate)
	var ge *geometry.GeometryError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GeometryError, got %v", err)
	}
}

func TestRunFailsOnMissingYear(t *testing.T) {
	observations, climate := synthInputs(t, 0.01, -1)
	// drop 2009 entirely
	pruned := observations[:0:0]
	for _, obs := range observations {
		if obs.Year != 2009 {
			pruned = append(pruned, obs)
		}
	}
	_, err := testConfig().Run(pruned, climate)
	var ide *raster.InsufficientDataError
	if !errors.As(err, &ide) || ide.Year != 2009 {
		t.Fatalf("expected InsufficientDataError for 2009, got %v", err)
	}
}

func TestRunFailsOnRaggedClimateStack(t *testing.T) {
	observations, climate := synthInputs(t, 0.01, -1)
	ragged := raster.NewLayerStack()
	entries := climate.Stack.Entries()
	for _, e := range entries[:len(entries)-1] {
		if err := ragged.Append(e.Year, e.Layer); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	climate.Stack = ragged
	_, err := testConfig().Run(observations, climate)
	var ide *raster.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError for ragged climate stack, got %v", err)
	}
}

func TestRunFailsOnUnsupportedPeriod(t *testing.T) {
	observations, climate := synthInputs(t, 0.01, -1)
	cfg := testConfig()
	cfg.YearEnd = testYearStart + 2 // period 3

	// trim inputs to the short period
	short := observations[:3]
	shortClimate := raster.NewLayerStack()
	for _, e := range climate.Stack.Entries()[:6] {
		if err := shortClimate.Append(e.Year, e.Layer); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	climate.Stack = shortClimate

	_, err := cfg.Run(short, climate)
	var upe *trend.UnsupportedPeriodError
	if !errors.As(err, &upe) || upe.Period != 3 {
		t.Fatalf("expected UnsupportedPeriodError for period 3, got %v", err)
	}
}

func TestRunRecordsLifecycle(t *testing.T) {
	runs, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer runs.Close()

	observations, climate := synthInputs(t, 0.01, -1)
	cfg := testConfig()
	cfg.Runs = runs
	cfg.ExecutionID = "exec-ok"

	result, err := cfg.Run(observations, climate)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, err := runs.GetRun(result.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec.Status != "completed" || rec.SignificantPixels != result.SignificantPixels {
		t.Fatalf("run record = %+v, want completed with %d pixels", rec, result.SignificantPixels)
	}
	if rec.Rows != testRows || rec.Cols != testCols {
		t.Fatalf("run record grid = %dx%d, want %dx%d", rec.Rows, rec.Cols, testRows, testCols)
	}

	// a structurally failing run must be recorded as failed
	cfg.ExecutionID = "exec-bad"
	if _, err := cfg.Run(observations[:1], climate); err == nil {
		t.Fatalf("expected failure for truncated observations")
	}
	all, err := runs.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	var failed *store.TrendRun
	for i := range all {
		if all[i].ExecutionID == "exec-bad" {
			failed = &all[i]
		}
	}
	if failed == nil || failed.Status != "failed" || failed.ErrorText == "" {
		t.Fatalf("expected recorded failed run, got %+v", failed)
	}
}
