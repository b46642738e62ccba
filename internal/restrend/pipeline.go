// Package restrend is the composition root of the residual-trend pipeline:
// it wires the raster resampler, the regression and Mann-Kendall engines and
// the significance table into the ten-stage RESTREND computation, and owns
// the final nodata masking. It imports from the engine packages; none of
// them import restrend.
package restrend

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/landdegradation/restrend/internal/geometry"
	"github.com/landdegradation/restrend/internal/monitoring"
	"github.com/landdegradation/restrend/internal/raster"
	"github.com/landdegradation/restrend/internal/store"
	"github.com/landdegradation/restrend/internal/trend"
)

const (
	// NoData marks pixels with no significant or defined trend in the
	// output layer.
	NoData = -99999.0

	// slopeEpsilon is the magnitude below which a residual trend is
	// treated as numerically negligible and masked.
	slopeEpsilon = 1e-6

	// DefaultIndexScale converts stored vegetation-index digital numbers
	// to index values.
	DefaultIndexScale = 0.0001

	// DefaultClimateDivisor normalises stored climate digital numbers.
	DefaultClimateDivisor = 10000.0

	// Default analysis period.
	DefaultYearStart = 2003
	DefaultYearEnd   = 2015
)

// ClimateInput is the sub-annual climate/soil-moisture stack at a fixed
// cadence of ObsPerYear observations per year, time-ordered. Window k of the
// stack (1-indexed) belongs to year BaseYear + k. Divisor is applied to every
// value before integration; zero means DefaultClimateDivisor.
type ClimateInput struct {
	Stack      *raster.LayerStack
	BaseYear   int
	ObsPerYear int
	Divisor    float64
}

// Config carries the run parameters and collaborators for one pipeline run.
type Config struct {
	// YearStart and YearEnd bound the analysis period, both inclusive.
	YearStart int
	YearEnd   int

	// IndexScale converts vegetation-index digital numbers to index
	// values during annual integration. Zero means DefaultIndexScale.
	IndexScale float64

	// ExecutionID names the run's outputs. Empty means a fresh UUID.
	ExecutionID string

	// AOI gates pipeline entry. A nil AOI fails with GeometryError before
	// any computation.
	AOI *geometry.AOI

	// Runs, when non-nil, records run lifecycle and telemetry. Store
	// failures are logged, never fatal: telemetry must not sink a run.
	Runs *store.RunStore
}

// Result is the output of one successful pipeline run.
type Result struct {
	RunID       string
	ExecutionID string

	// Trend is the final layer: the residual-trend slope, set to NoData
	// wherever the vegetation trend is not significant, the slope is
	// negligible, or any upstream stage left the pixel undefined. Every
	// cell is defined (value or sentinel).
	Trend *raster.Layer

	// ClimateFit is the global per-pixel climate→index regression.
	ClimateFit *trend.Regression
	// ResidualFit is the residual-versus-year regression; its Scale layer
	// is the unmasked trend.
	ResidualFit *trend.Regression

	// ResidualS and IndexS are the Mann-Kendall S statistics of the
	// residual stack and the raw annual index stack.
	ResidualS *raster.Layer
	IndexS    *raster.Layer

	// Residuals is the annual residual stack, kept for diagnostics
	// (plotting, secondary analysis).
	Residuals *raster.AnnualSeries

	CriticalValue     int
	SignificantPixels int
	Elapsed           time.Duration
}

// Run executes the RESTREND pipeline over the supplied vegetation-index
// observations and climate stack. It either fully succeeds or fails with the
// stage and condition in the error; per-pixel degeneracies degrade to the
// nodata sentinel instead of failing the run.
func (cfg *Config) Run(observations []VIObservation, climate ClimateInput) (*Result, error) {
	if cfg.AOI == nil {
		return nil, &geometry.GeometryError{Reason: "no area of interest configured"}
	}
	if cfg.YearEnd < cfg.YearStart {
		return nil, fmt.Errorf("year range: year_end %d before year_start %d", cfg.YearEnd, cfg.YearStart)
	}
	indexScale := cfg.IndexScale
	if indexScale == 0 {
		indexScale = DefaultIndexScale
	}
	divisor := climate.Divisor
	if divisor == 0 {
		divisor = DefaultClimateDivisor
	}

	executionID := cfg.ExecutionID
	if executionID == "" {
		executionID = uuid.New().String()
	}
	runID := cfg.recordStart(executionID)
	started := time.Now()

	result, err := cfg.run(observations, climate, indexScale, divisor)
	if err != nil {
		cfg.recordFailure(runID, err)
		return nil, err
	}
	result.RunID = runID
	result.ExecutionID = executionID
	result.Elapsed = time.Since(started)
	cfg.recordSuccess(runID, result)

	monitoring.Logf("[restrend] run=%s execution=%s period=%d-%d grid=%dx%d significant=%d elapsed=%s",
		runID, executionID, cfg.YearStart, cfg.YearEnd,
		result.Trend.Rows, result.Trend.Cols, result.SignificantPixels, result.Elapsed)
	return result, nil
}

func (cfg *Config) run(observations []VIObservation, climate ClimateInput, indexScale, divisor float64) (*Result, error) {
	// Stage 1: quality-filter the raw vegetation-index stack.
	filtered, err := qualityFilter(observations)
	if err != nil {
		return nil, fmt.Errorf("quality filter: %w", err)
	}

	// Stage 2: annual composites for both inputs.
	indexAnnual, err := raster.AggregateAnnual(filtered, raster.Mean, cfg.YearStart, cfg.YearEnd, indexScale)
	if err != nil {
		return nil, fmt.Errorf("annual index integration: %w", err)
	}
	obsPerYear := climate.ObsPerYear
	if obsPerYear <= 0 {
		return nil, fmt.Errorf("annual climate integration: observations per year must be positive, got %d", obsPerYear)
	}
	climateAnnual, err := raster.SliceAnnual(climate.Stack.Scaled(1/divisor), obsPerYear, climate.BaseYear, raster.Mean)
	if err != nil {
		return nil, fmt.Errorf("annual climate integration: %w", err)
	}

	// Stage 3: paired per-year series over the analysis period. Duplicate
	// composites sharing a year label collapse to their per-pixel median.
	indexSeries, err := raster.NewAnnualSeries(indexAnnual, cfg.YearStart, cfg.YearEnd, raster.Median)
	if err != nil {
		return nil, fmt.Errorf("paired stack (index): %w", err)
	}
	climateSeries, err := raster.NewAnnualSeries(climateAnnual, cfg.YearStart, cfg.YearEnd, raster.Median)
	if err != nil {
		return nil, fmt.Errorf("paired stack (climate): %w", err)
	}

	// Stage 4: global per-pixel climate→index regression.
	climateFit, err := trend.FitLinear(climateSeries, indexSeries)
	if err != nil {
		return nil, fmt.Errorf("climate regression: %w", err)
	}

	// Stage 5: predicted index per year from the single global fit.
	predicted, err := trend.Predict(climateFit, climateSeries)
	if err != nil {
		return nil, fmt.Errorf("index prediction: %w", err)
	}

	// Stage 6: residuals, observed minus predicted.
	residuals, err := trend.Residuals(indexSeries, predicted)
	if err != nil {
		return nil, fmt.Errorf("residual computation: %w", err)
	}

	// Stage 7: residual trend over time.
	residualFit, err := trend.FitTime(residuals)
	if err != nil {
		return nil, fmt.Errorf("residual trend regression: %w", err)
	}

	// Stage 8: Mann-Kendall statistics on residuals and on the raw annual
	// index stack (trend-existence check).
	residualS, err := trend.MannKendall(residuals)
	if err != nil {
		return nil, fmt.Errorf("mann-kendall (residuals): %w", err)
	}
	indexS, err := trend.MannKendall(indexSeries)
	if err != nil {
		return nil, fmt.Errorf("mann-kendall (index): %w", err)
	}

	// Stage 9: critical S value for the analysis period.
	critical, err := trend.CriticalValue(cfg.YearEnd - cfg.YearStart + 1)
	if err != nil {
		return nil, fmt.Errorf("significance lookup: %w", err)
	}

	// Stage 10: final masking to the nodata sentinel.
	output, significant := maskTrend(residualFit.Scale, indexS, critical)

	return &Result{
		Trend:             output,
		ClimateFit:        climateFit,
		ResidualFit:       residualFit,
		ResidualS:         residualS,
		IndexS:            indexS,
		Residuals:         residuals,
		CriticalValue:     critical,
		SignificantPixels: significant,
	}, nil
}

// maskTrend combines the residual-trend slope with the vegetation-trend
// significance mask. Every output cell is defined: the slope where the trend
// is significant and non-negligible, the NoData sentinel otherwise.
func maskTrend(slope, indexS *raster.Layer, critical int) (*raster.Layer, int) {
	out := raster.NewLayer(slope.Rows, slope.Cols)
	significant := 0
	for i := 0; i < out.Size(); i++ {
		v, ok := slope.At(i)
		switch {
		case !ok:
			out.Set(i, NoData)
		case math.Abs(indexS.Values[i]) <= float64(critical):
			out.Set(i, NoData)
		case math.Abs(v) <= slopeEpsilon:
			out.Set(i, NoData)
		default:
			out.Set(i, v)
			significant++
		}
	}
	return out, significant
}

// Run-record bookkeeping. Telemetry failures are logged, never propagated.

func (cfg *Config) recordStart(executionID string) string {
	if cfg.Runs == nil {
		return uuid.New().String()
	}
	run := &store.TrendRun{
		ExecutionID: executionID,
		YearStart:   cfg.YearStart,
		YearEnd:     cfg.YearEnd,
	}
	if err := cfg.Runs.InsertRun(run); err != nil {
		monitoring.Logf("[restrend] record run start: %v", err)
		return uuid.New().String()
	}
	return run.RunID
}

func (cfg *Config) recordSuccess(runID string, result *Result) {
	if cfg.Runs == nil {
		return
	}
	err := cfg.Runs.CompleteRun(runID, store.RunOutcome{
		Rows:              result.Trend.Rows,
		Cols:              result.Trend.Cols,
		SignificantPixels: result.SignificantPixels,
	})
	if err != nil {
		monitoring.Logf("[restrend] record run completion: %v", err)
	}
}

func (cfg *Config) recordFailure(runID string, runErr error) {
	if cfg.Runs == nil {
		return
	}
	if err := cfg.Runs.FailRun(runID, runErr.Error()); err != nil {
		monitoring.Logf("[restrend] record run failure: %v", err)
	}
}
