package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/landdegradation/restrend/internal/restrend"
)

// RunConfig represents the JSON run-parameter file for the trend pipeline.
// All fields are optional; Get* accessors fall back to defaults, so partial
// configs are safe.
type RunConfig struct {
	YearStart   *int    `json:"year_start,omitempty"`
	YearEnd     *int    `json:"year_end,omitempty"`
	ExecutionID *string `json:"execution_id,omitempty"`

	// AOIPath points at a GeoJSON file bounding the area of interest.
	// Unset means the built-in Senegal polygon.
	AOIPath *string `json:"aoi_path,omitempty"`

	IndexScale        *float64 `json:"index_scale,omitempty"`
	ClimateDivisor    *float64 `json:"climate_divisor,omitempty"`
	ClimateBaseYear   *int     `json:"climate_base_year,omitempty"`
	ClimateObsPerYear *int     `json:"climate_obs_per_year,omitempty"`

	DatabasePath *string `json:"database_path,omitempty"`
	PlotDir      *string `json:"plot_dir,omitempty"`
}

// EmptyRunConfig returns a RunConfig with all fields unset.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// LoadRunConfig loads a RunConfig from a JSON file. The file must have a
// .json extension and stay under the size cap.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are coherent.
func (c *RunConfig) Validate() error {
	if c.YearStart != nil && c.YearEnd != nil {
		if *c.YearEnd < *c.YearStart {
			return fmt.Errorf("year_end %d before year_start %d", *c.YearEnd, *c.YearStart)
		}
	}
	if c.IndexScale != nil && *c.IndexScale <= 0 {
		return fmt.Errorf("index_scale must be positive, got %f", *c.IndexScale)
	}
	if c.ClimateDivisor != nil && *c.ClimateDivisor <= 0 {
		return fmt.Errorf("climate_divisor must be positive, got %f", *c.ClimateDivisor)
	}
	if c.ClimateObsPerYear != nil && *c.ClimateObsPerYear <= 0 {
		return fmt.Errorf("climate_obs_per_year must be positive, got %d", *c.ClimateObsPerYear)
	}
	return nil
}

// GetYearStart returns year_start or the default analysis start.
func (c *RunConfig) GetYearStart() int {
	if c.YearStart == nil {
		return restrend.DefaultYearStart
	}
	return *c.YearStart
}

// GetYearEnd returns year_end or the default analysis end.
func (c *RunConfig) GetYearEnd() int {
	if c.YearEnd == nil {
		return restrend.DefaultYearEnd
	}
	return *c.YearEnd
}

// GetExecutionID returns the execution_id or the empty string (the pipeline
// then assigns a UUID).
func (c *RunConfig) GetExecutionID() string {
	if c.ExecutionID == nil {
		return ""
	}
	return *c.ExecutionID
}

// GetAOIPath returns aoi_path or the empty string (built-in polygon).
func (c *RunConfig) GetAOIPath() string {
	if c.AOIPath == nil {
		return ""
	}
	return *c.AOIPath
}

// GetIndexScale returns index_scale or the default digital-number scale.
func (c *RunConfig) GetIndexScale() float64 {
	if c.IndexScale == nil {
		return restrend.DefaultIndexScale
	}
	return *c.IndexScale
}

// GetClimateDivisor returns climate_divisor or the default.
func (c *RunConfig) GetClimateDivisor() float64 {
	if c.ClimateDivisor == nil {
		return restrend.DefaultClimateDivisor
	}
	return *c.ClimateDivisor
}

// GetClimateBaseYear returns climate_base_year or the default. The default
// matches the source climate stack, which begins with the window for 1982.
func (c *RunConfig) GetClimateBaseYear() int {
	if c.ClimateBaseYear == nil {
		return 1981
	}
	return *c.ClimateBaseYear
}

// GetClimateObsPerYear returns climate_obs_per_year or the default 15-day
// cadence (24 observations per year).
func (c *RunConfig) GetClimateObsPerYear() int {
	if c.ClimateObsPerYear == nil {
		return 24
	}
	return *c.ClimateObsPerYear
}

// GetDatabasePath returns database_path or the empty string (run recording
// disabled).
func (c *RunConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetPlotDir returns plot_dir or the empty string (plotting disabled).
func (c *RunConfig) GetPlotDir() string {
	if c.PlotDir == nil {
		return ""
	}
	return *c.PlotDir
}
