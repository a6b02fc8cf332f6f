package v2detect

import (
	"context"
	"fmt"
	"sync"

	"github.com/crowdwatch-data/density.report/internal/config"
	"github.com/crowdwatch-data/density.report/internal/vision"
)

// BoundaryCounters are cumulative counters for one detection boundary.
type BoundaryCounters struct {
	FramesProcessed int `json:"frames_processed"`
	DetectorRuns    int `json:"detector_runs"`
	CachedFrames    int `json:"cached_frames"`
	DegradedFrames  int `json:"degraded_frames"`
	RejectedTotal   int `json:"rejected_total"`
}

// Boundary wraps a raw Adapter with the protections the pipeline
// requires: panic/error recovery, frame-skip caching, and quality
// filtering. It is safe for concurrent use, though a single stream
// calls it from one goroutine.
type Boundary struct {
	adapter Adapter

	mu         sync.Mutex
	quality    QualityConfig
	skipFrames int

	// Cache state: filtered detections from the last real detector
	// run, replayed on skipped frames.
	lastDetections []vision.Detection
	sinceDetect    int
	haveRun        bool

	counters BoundaryCounters
}

// NewBoundary builds a Boundary around adapter using the tuning
// config's skip cadence and quality bounds. A nil cfg uses defaults.
func NewBoundary(adapter Adapter, cfg *config.TuningConfig) *Boundary {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Boundary{
		adapter:    adapter,
		quality:    QualityConfigFromTuning(cfg),
		skipFrames: cfg.GetDetectionSkipFrames(),
	}
}

// SetSkipFrames updates the detector cadence at runtime. A value of 0
// runs the detector on every frame.
func (b *Boundary) SetSkipFrames(n int) {
	if n < 0 {
		n = 0
	}
	b.mu.Lock()
	b.skipFrames = n
	b.mu.Unlock()
}

// SetQuality replaces the quality bounds at runtime.
func (b *Boundary) SetQuality(q QualityConfig) {
	b.mu.Lock()
	b.quality = q
	b.mu.Unlock()
}

// Counters returns a snapshot of the boundary counters.
func (b *Boundary) Counters() BoundaryCounters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters
}

// Process runs the detection boundary for one frame. The detector is
// invoked when due by the skip cadence; otherwise the last run's
// detections are returned with Cached set. Adapter errors and panics
// degrade to an empty, Degraded result rather than propagating: a
// missed frame of detections is recoverable, a dead stream is not.
func (b *Boundary) Process(ctx context.Context, frame Frame) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counters.FramesProcessed++

	// Serve from cache between detector runs.
	if b.haveRun && b.sinceDetect < b.skipFrames {
		b.sinceDetect++
		b.counters.CachedFrames++
		return Result{
			Detections: cloneDetections(b.lastDetections),
			Cached:     true,
		}
	}

	raw, err := detectRecovered(ctx, b.adapter, frame)
	b.counters.DetectorRuns++
	if err != nil {
		// Degrade to no detections; existing tracks coast on their
		// disappeared budget.
		b.counters.DegradedFrames++
		b.lastDetections = nil
		b.haveRun = true
		b.sinceDetect = 0
		return Result{Degraded: true, Err: err}
	}

	kept, rejected := b.quality.Filter(raw)
	b.counters.RejectedTotal += rejected
	b.lastDetections = kept
	b.haveRun = true
	b.sinceDetect = 0

	return Result{
		Detections: cloneDetections(kept),
		Rejected:   rejected,
	}
}

// detectRecovered invokes the adapter, converting panics to errors so
// a misbehaving detector cannot take down the stream.
func detectRecovered(ctx context.Context, adapter Adapter, frame Frame) (dets []vision.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			dets = nil
			err = fmt.Errorf("detection adapter panic on frame %d: %v", frame.Index, r)
		}
	}()
	dets, err = adapter.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detection adapter failed on frame %d: %w", frame.Index, err)
	}
	return dets, nil
}

func cloneDetections(in []vision.Detection) []vision.Detection {
	if len(in) == 0 {
		return nil
	}
	out := make([]vision.Detection, len(in))
	copy(out, in)
	return out
}
