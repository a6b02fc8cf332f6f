package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/crowdwatch-data/density.report/internal/config"
	"github.com/crowdwatch-data/density.report/internal/version"
	"github.com/crowdwatch-data/density.report/internal/vision/pipeline"
	"github.com/crowdwatch-data/density.report/internal/vision/v2detect"
)

var (
	replayPath  = flag.String("replay", "", "Detection log to process (JSONL, one frame per line)")
	configPath  = flag.String("config", "", "Tuning config JSON (defaults to "+config.DefaultConfigPath+" if present)")
	outPath     = flag.String("out", "-", "Frame stats output (JSONL); '-' for stdout")
	streamID    = flag.String("stream", "replay", "Stream identifier")
	debugLog    = flag.Bool("debug", false, "Log pipeline diagnostics to stderr")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// frameStat is the per-frame line written to the stats output. The
// report tools under cmd/tools consume this format.
type frameStat struct {
	FrameIndex       int     `json:"frame_index"`
	TotalPeople      int     `json:"total_people"`
	GroupCount       int     `json:"group_count"`
	IndividualCount  int     `json:"individual_count"`
	LargestGroupSize int     `json:"largest_group_size"`
	DensityLevel     string  `json:"density_level"`
	DensityScore     float64 `json:"density_score"`
	Tracks           int     `json:"tracks"`
	Cached           bool    `json:"cached"`
	Degraded         bool    `json:"degraded"`
}

func loadTuning() (*config.TuningConfig, error) {
	if *configPath != "" {
		return config.LoadTuningConfig(*configPath)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadTuningConfig(config.DefaultConfigPath)
	}
	return config.EmptyTuningConfig(), nil
}

func run() error {
	if *replayPath == "" {
		return fmt.Errorf("-replay is required")
	}

	if *debugLog {
		pipeline.SetLegacyLogger(os.Stderr)
	}

	tuning, err := loadTuning()
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}

	records, err := v2detect.LoadReplay(*replayPath)
	if err != nil {
		return fmt.Errorf("load replay: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("replay log %s contains no frames", *replayPath)
	}

	var out io.Writer = os.Stdout
	if *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	mgr := pipeline.NewManager(tuning, func(string) v2detect.Adapter {
		return v2detect.NewReplayAdapter(records)
	})
	runID, _ := mgr.Start(*streamID)
	log.Printf("replaying %d frames from %s (run %s)", len(records), *replayPath, runID)

	enc := json.NewEncoder(out)
	ctx := context.Background()
	for _, rec := range records {
		res, err := mgr.Process(ctx, *streamID, rec.Frame)
		if err != nil {
			return fmt.Errorf("frame %d: %w", rec.Frame.Index, err)
		}
		stat := frameStat{
			FrameIndex:       res.Frame.Index,
			TotalPeople:      res.Density.TotalPeople,
			GroupCount:       res.Density.GroupCount,
			IndividualCount:  res.Density.IndividualCount,
			LargestGroupSize: res.Density.LargestGroupSize,
			DensityLevel:     res.Density.Level.String(),
			DensityScore:     res.Density.Score,
			Tracks:           len(res.Tracks),
			Cached:           res.Cached,
			Degraded:         res.Degraded,
		}
		if err := enc.Encode(stat); err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
	}
	mgr.Stop(*streamID)

	p, _ := mgr.Pipeline(*streamID)
	summary := p.WindowSummary()
	log.Printf("done: frames=%d mean_people=%.2f max_people=%d mean_score=%.3f",
		summary.Frames, summary.MeanPeople, summary.MaxPeople, summary.MeanScore)

	tc := p.Tracker().Counters()
	log.Printf("tracker: created=%d removed=%d matches=%d misses=%d",
		tc.TracksCreated, tc.TracksRemoved, tc.Matches, tc.Misses)

	bc := p.BoundaryCounters()
	log.Printf("boundary: detector_runs=%d cached=%d degraded=%d rejected=%d",
		bc.DetectorRuns, bc.CachedFrames, bc.DegradedFrames, bc.RejectedTotal)

	return nil
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Printf("density.report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
