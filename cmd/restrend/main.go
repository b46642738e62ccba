// Command restrend runs the residual-trend (RESTREND) pipeline over snapshot
// inputs: a sub-annual vegetation-index stack with its quality-flag band and
// a fixed-cadence climate stack, all on one grid. It writes the masked trend
// layer as a snapshot, optionally renders plots, and records the run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/landdegradation/restrend/internal/config"
	"github.com/landdegradation/restrend/internal/geometry"
	"github.com/landdegradation/restrend/internal/monitor"
	"github.com/landdegradation/restrend/internal/raster"
	"github.com/landdegradation/restrend/internal/restrend"
	"github.com/landdegradation/restrend/internal/security"
	"github.com/landdegradation/restrend/internal/store"
	"github.com/landdegradation/restrend/internal/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to JSON run config")
		yearStart   = flag.Int("year-start", 0, "first year of the analysis period (overrides config)")
		yearEnd     = flag.Int("year-end", 0, "last year of the analysis period (overrides config)")
		aoiPath     = flag.String("aoi", "", "GeoJSON area-of-interest file (default: built-in Senegal polygon)")
		ndviPath    = flag.String("ndvi", "", "vegetation-index stack snapshot (required)")
		qaPath      = flag.String("qa", "", "quality-flag stack snapshot (required)")
		climatePath = flag.String("climate", "", "climate stack snapshot (required)")
		outPath     = flag.String("out", "", "output trend layer snapshot (default <execution-id>.trend.gz)")
		plotDir     = flag.String("plot", "", "directory for diagnostic PNG plots (overrides config)")
		dbPath      = flag.String("db", "", "SQLite run-record database (overrides config)")
		executionID = flag.String("id", "", "execution identifier used for output naming")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("restrend %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *ndviPath == "" || *qaPath == "" || *climatePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *yearStart, *yearEnd, *aoiPath, *ndviPath, *qaPath,
		*climatePath, *outPath, *plotDir, *dbPath, *executionID); err != nil {
		log.Fatalf("restrend: %v", err)
	}
}

func run(configPath string, yearStart, yearEnd int, aoiPath, ndviPath, qaPath,
	climatePath, outPath, plotDir, dbPath, executionID string) error {

	cfg := config.EmptyRunConfig()
	if configPath != "" {
		loaded, err := config.LoadRunConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if yearStart == 0 {
		yearStart = cfg.GetYearStart()
	}
	if yearEnd == 0 {
		yearEnd = cfg.GetYearEnd()
	}
	if aoiPath == "" {
		aoiPath = cfg.GetAOIPath()
	}
	if plotDir == "" {
		plotDir = cfg.GetPlotDir()
	}
	if dbPath == "" {
		dbPath = cfg.GetDatabasePath()
	}
	if executionID == "" {
		executionID = cfg.GetExecutionID()
	}

	// Geometry gates pipeline entry.
	aoi, err := loadAOI(aoiPath)
	if err != nil {
		return err
	}

	observations, err := loadObservations(ndviPath, qaPath)
	if err != nil {
		return err
	}
	climateStack, err := raster.LoadStackSnapshot(climatePath)
	if err != nil {
		return err
	}

	pipeline := restrend.Config{
		YearStart:   yearStart,
		YearEnd:     yearEnd,
		IndexScale:  cfg.GetIndexScale(),
		ExecutionID: executionID,
		AOI:         aoi,
	}
	if dbPath != "" {
		runs, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer runs.Close()
		pipeline.Runs = runs
	}

	result, err := pipeline.Run(observations, restrend.ClimateInput{
		Stack:      climateStack,
		BaseYear:   cfg.GetClimateBaseYear(),
		ObsPerYear: cfg.GetClimateObsPerYear(),
		Divisor:    cfg.GetClimateDivisor(),
	})
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = security.SanitizeFilename(result.ExecutionID) + ".trend.gz"
	}
	if err := raster.SaveLayerSnapshot(outPath, result.Trend); err != nil {
		return err
	}
	log.Printf("wrote %s: %dx%d grid, %d significant pixels (critical |S| %d, period %d-%d)",
		outPath, result.Trend.Rows, result.Trend.Cols, result.SignificantPixels,
		result.CriticalValue, yearStart, yearEnd)

	if plotDir != "" {
		plotter, err := monitor.NewTrendPlotter(plotDir)
		if err != nil {
			return err
		}
		file, err := plotter.SaveTrendHeatmap(result.Trend, restrend.NoData, result.ExecutionID)
		if err != nil {
			return err
		}
		log.Printf("wrote %s", file)
	}
	return nil
}

func loadAOI(path string) (*geometry.AOI, error) {
	if path == "" {
		return geometry.DefaultSenegal(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &geometry.GeometryError{Reason: "unreadable area-of-interest file", Err: err}
	}
	return geometry.ParseAreaOfInterest(data)
}

// loadObservations zips the index and quality stacks into per-composite
// observations. The stacks must be aligned: same length, same order, years
// taken from the index stack.
func loadObservations(ndviPath, qaPath string) ([]restrend.VIObservation, error) {
	ndvi, err := raster.LoadStackSnapshot(ndviPath)
	if err != nil {
		return nil, err
	}
	qa, err := raster.LoadStackSnapshot(qaPath)
	if err != nil {
		return nil, err
	}
	if ndvi.Len() != qa.Len() {
		return nil, fmt.Errorf("index stack has %d layers, quality stack %d", ndvi.Len(), qa.Len())
	}
	observations := make([]restrend.VIObservation, 0, ndvi.Len())
	qaEntries := qa.Entries()
	for i, e := range ndvi.Entries() {
		observations = append(observations, restrend.VIObservation{
			Year:    e.Year,
			Index:   e.Layer,
			Quality: qaEntries[i].Layer,
		})
	}
	return observations, nil
}
