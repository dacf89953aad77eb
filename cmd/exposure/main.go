package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cctv-aware/exposure/internal/camera"
	"github.com/cctv-aware/exposure/internal/config"
	"github.com/cctv-aware/exposure/internal/db"
	"github.com/cctv-aware/exposure/internal/exposure"
	"github.com/cctv-aware/exposure/internal/monitoring"
	"github.com/cctv-aware/exposure/internal/report"
	"github.com/cctv-aware/exposure/internal/track"
	"github.com/cctv-aware/exposure/internal/version"
)

var (
	gpxFile    = flag.String("gpx", "", "GPX trajectory file to analyse (required)")
	camsFile   = flag.String("cams", "", "Camera inventory CSV (required)")
	configFile = flag.String("config", "", "Optional tuning file (JSON)")

	radiusM  = flag.Float64("radius", 0, "Override every camera range with this radius in metres")
	jsonOut  = flag.String("json", "", "Write the JSON results to this file instead of stdout")
	htmlOut  = flag.String("report", "", "Write an HTML chart report to this file")
	plotOut  = flag.String("plot", "", "Write a PNG timeline plot to this file")
	dbFile   = flag.String("db", "", "Record the run in this SQLite database")
	workers  = flag.Int("workers", 0, "Parallel evaluation workers (0 = config value, -1 = all CPUs)")
	maxGap   = flag.Duration("max-gap", -1, "Idle threshold splitting exposure events (-1 = config value)")
	noIndex  = flag.Bool("no-index", false, "Disable the spatial index and scan every camera per sample")
	sortTime = flag.Bool("sort", false, "Sort samples by timestamp before analysis")
	verbose  = flag.Bool("verbose", false, "Enable debug logging")
	quiet    = flag.Bool("quiet", false, "Suppress progress logging")
	showVer  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}
	if *gpxFile == "" || *camsFile == "" {
		flag.Usage()
		log.Fatal("both -gpx and -cams are required")
	}
	if *quiet {
		monitoring.SetLogger(func(string, ...interface{}) {})
	}
	monitoring.SetVerbose(*verbose)

	if err := run(context.Background()); err != nil {
		log.Fatalf("exposure analysis failed: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg := config.Defaults()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	gap, err := cfg.EventGap()
	if err != nil {
		return err
	}

	loadOpts := camera.LoadOptions{DefaultRadiusM: *cfg.DefaultRadiusM}
	if cfg.RadiusM != nil {
		loadOpts.RadiusOverrideM = *cfg.RadiusM
	}
	cams, err := camera.LoadCSV(*camsFile, loadOpts)
	if err != nil {
		return fmt.Errorf("failed to load cameras: %w", err)
	}
	monitoring.Logf("loaded %d cameras from %s", cams.Len(), *camsFile)

	segments, err := track.LoadGPX(*gpxFile, track.Options{Sort: *sortTime})
	if err != nil {
		return fmt.Errorf("failed to load trajectory: %w", err)
	}
	monitoring.Logf("loaded %d segments from %s", len(segments), *gpxFile)

	var store *db.DB
	if *dbFile != "" {
		store, err = db.NewDB(*dbFile)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
	}

	engine := exposure.NewEngine(exposure.Options{
		Workers:       *cfg.Workers,
		DisableIndex:  !*cfg.SpatialIndex,
		KeepDistances: *cfg.KeepDistances,
	})
	refine := exposure.RefineConfig{ResolutionM: *cfg.ResolutionM, AcceptRangeM: *cfg.AcceptRangeM}

	results := make([]report.Result, 0, len(segments))
	for _, seg := range segments {
		started := time.Now()
		eval, err := engine.Evaluate(ctx, seg.Traj, cams)
		if err != nil {
			return fmt.Errorf("track %d segment %d: %w", seg.Track, seg.Segment, err)
		}
		events := exposure.Aggregate(seg.Traj, eval.Visible, gap)
		summary := exposure.Summarize(seg.Traj, cams, events, eval, refine)
		monitoring.Logf("track %d segment %d: %d samples, %d events, %d cameras seen (%s)",
			seg.Track, seg.Segment, seg.Traj.Len(), len(events), summary.UniqueCameras,
			time.Since(started).Round(time.Millisecond))
		monitoring.Debugf("track %d segment %d: exposed %s of %s, %.1f m of %.1f m",
			seg.Track, seg.Segment, summary.ExposedDuration, summary.TrajectoryDuration,
			summary.ExposedPathM, summary.TrajectoryPathM)

		results = append(results, report.Build(seg, events, summary))

		if store != nil {
			runID, err := store.RecordRun(db.Run{
				GPXFile:     seg.File,
				Track:       seg.Track,
				Segment:     seg.Segment,
				CameraCount: cams.Len(),
				SampleCount: seg.Traj.Len(),
			}, events, summary)
			if err != nil {
				return fmt.Errorf("failed to record run: %w", err)
			}
			monitoring.Debugf("recorded run %s", runID)
		}
		if *htmlOut != "" {
			if err := writeHTML(segPath(*htmlOut, seg, len(segments)), seg, eval, summary); err != nil {
				return err
			}
		}
		if *plotOut != "" {
			if err := report.SavePlot(segPath(*plotOut, seg, len(segments)), seg, eval); err != nil {
				return err
			}
		}
	}

	return writeResults(results)
}

// applyFlags overlays flags the caller actually passed onto the tuning. Flag
// defaults never override a config file value.
func applyFlags(cfg *config.Tuning) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = workers
		case "no-index":
			spatial := !*noIndex
			cfg.SpatialIndex = &spatial
		case "max-gap":
			s := maxGap.String()
			cfg.MaxEventGap = &s
		case "radius":
			cfg.RadiusM = radiusM
		}
	})
}

// segPath makes output paths unique per segment when the GPX holds more than
// one, by inserting _tN_sM before the extension.
func segPath(path string, seg track.Segment, total int) string {
	if total <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_t%d_s%d%s", strings.TrimSuffix(path, ext), seg.Track, seg.Segment, ext)
}

func writeHTML(path string, seg track.Segment, eval *exposure.Evaluation, summary exposure.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	if err := report.RenderHTML(f, seg, eval, summary); err != nil {
		return err
	}
	monitoring.Logf("wrote report to %s", path)
	return nil
}

func writeResults(results []report.Result) error {
	out := os.Stdout
	if *jsonOut != "" {
		f, err := os.Create(*jsonOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	for _, r := range results {
		if err := report.WriteJSON(out, r); err != nil {
			return err
		}
	}
	return nil
}
