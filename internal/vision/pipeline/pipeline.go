package pipeline

import (
	"context"
	"sync"

	"github.com/crowdwatch-data/density.report/internal/config"
	"github.com/crowdwatch-data/density.report/internal/vision/v2detect"
	"github.com/crowdwatch-data/density.report/internal/vision/v3tracks"
	"github.com/crowdwatch-data/density.report/internal/vision/v4groups"
	"github.com/crowdwatch-data/density.report/internal/vision/v5density"
	"github.com/crowdwatch-data/density.report/internal/vision/v6stats"
)

// FrameResult is the output snapshot for one processed frame: the full
// group list plus the density metrics, exposed to any downstream
// consumer (renderer, exporter, report tool). Producing it never
// blocks on how it is consumed.
type FrameResult struct {
	Frame      v2detect.Frame    `json:"frame"`
	Cached     bool              `json:"cached"`   // detections reused from the last detector run
	Degraded   bool              `json:"degraded"` // adapter failed; frame ran with no detections
	Rejected   int               `json:"rejected"` // detections dropped at the boundary
	Tracks     []v3tracks.Track  `json:"tracks"`
	Groups     []v4groups.Group  `json:"groups"`
	Density    v5density.Metrics `json:"density"`
	Confidence ConfidenceStats   `json:"confidence"`
	Window     v6stats.Summary   `json:"window"`
}

// ConfidenceStats summarize the live tracks' smoothed confidences for
// one frame. Zero for a frame with no tracks.
type ConfidenceStats struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
}

// Pipeline runs the per-frame crowd analysis for one stream. Frames
// must be fed from a single goroutine; accessors may be called
// concurrently with the frame loop.
type Pipeline struct {
	boundary *v2detect.Boundary
	tracker  *v3tracks.Tracker
	window   *v6stats.Window

	mu         sync.RWMutex
	mergeCfg   v4groups.MergeConfig
	densityCfg v5density.ClassifierConfig
	last       *FrameResult
}

// NewPipeline builds a pipeline around a detection adapter. A nil
// tuning config uses defaults.
func NewPipeline(adapter v2detect.Adapter, tuning *config.TuningConfig) *Pipeline {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	return &Pipeline{
		boundary:   v2detect.NewBoundary(adapter, tuning),
		tracker:    v3tracks.NewTracker(v3tracks.TrackerConfigFromTuning(tuning)),
		window:     v6stats.NewWindow(tuning.GetStatsWindowFrames()),
		mergeCfg:   v4groups.MergeConfigFromTuning(tuning),
		densityCfg: v5density.ClassifierConfigFromTuning(tuning),
	}
}

// ProcessFrame runs the full stage sequence for one frame: detection
// boundary, association, grouping, classification, stats. Stages run
// strictly in order; the result is stored as the pipeline's latest
// snapshot and returned.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame v2detect.Frame) FrameResult {
	det := p.boundary.Process(ctx, frame)
	if det.Degraded {
		opsf("frame %d: detector degraded, continuing with no detections: %v", frame.Index, det.Err)
	}

	// Association and everything downstream run every frame, cached
	// detections included: tracks still age and metrics still update.
	tracks := p.tracker.Update(det.Detections)

	p.mu.RLock()
	mergeCfg := p.mergeCfg
	densityCfg := p.densityCfg
	p.mu.RUnlock()

	groups := v4groups.Merge(tracks, mergeCfg)
	density := v5density.Classify(groups, frame.Width, frame.Height, densityCfg)
	confidence := trackConfidence(tracks)

	p.window.Push(v6stats.FrameSample{
		TotalPeople:    density.TotalPeople,
		GroupCount:     density.GroupCount,
		DensityScore:   density.Score,
		MeanConfidence: confidence.Mean,
	})

	result := FrameResult{
		Frame:      frame,
		Cached:     det.Cached,
		Degraded:   det.Degraded,
		Rejected:   det.Rejected,
		Tracks:     tracks,
		Groups:     groups,
		Density:    density,
		Confidence: confidence,
		Window:     p.window.Summary(),
	}

	tracef("frame %d: detections=%d cached=%t tracks=%d groups=%d level=%s",
		frame.Index, len(det.Detections), det.Cached, len(tracks), len(groups), density.Level)

	p.mu.Lock()
	p.last = &result
	p.mu.Unlock()

	return result
}

// LastResult returns the most recent frame's snapshot, if any frame
// has been processed.
func (p *Pipeline) LastResult() (FrameResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return FrameResult{}, false
	}
	return *p.last, true
}

// WindowSummary returns the rolling stats over the recent frames.
func (p *Pipeline) WindowSummary() v6stats.Summary {
	return p.window.Summary()
}

// Tracker exposes the underlying tracker for inspection.
func (p *Pipeline) Tracker() *v3tracks.Tracker {
	return p.tracker
}

// BoundaryCounters returns the detection boundary counters.
func (p *Pipeline) BoundaryCounters() v2detect.BoundaryCounters {
	return p.boundary.Counters()
}

// ApplyTuning pushes a new tuning config into every stage at runtime.
// Partial configs are supported: the caller merges onto the previous
// config (config.TuningConfig.Merge) before calling this.
func (p *Pipeline) ApplyTuning(tuning *config.TuningConfig) {
	if tuning == nil {
		return
	}

	p.boundary.SetSkipFrames(tuning.GetDetectionSkipFrames())
	p.boundary.SetQuality(v2detect.QualityConfigFromTuning(tuning))
	p.tracker.SetConfig(v3tracks.TrackerConfigFromTuning(tuning))
	p.window.SetCapacity(tuning.GetStatsWindowFrames())

	p.mu.Lock()
	p.mergeCfg = v4groups.MergeConfigFromTuning(tuning)
	p.densityCfg = v5density.ClassifierConfigFromTuning(tuning)
	p.mu.Unlock()

	diagf("tuning applied: max_distance=%.0f max_disappeared=%d proximity=%.0f window=%d",
		tuning.GetMaxDistance(), tuning.GetMaxDisappeared(),
		tuning.GetProximityThreshold(), tuning.GetStatsWindowFrames())
}

func trackConfidence(tracks []v3tracks.Track) ConfidenceStats {
	if len(tracks) == 0 {
		return ConfidenceStats{}
	}
	stats := ConfidenceStats{
		Max: tracks[0].Confidence,
		Min: tracks[0].Confidence,
	}
	var sum float64
	for _, t := range tracks {
		sum += t.Confidence
		if t.Confidence > stats.Max {
			stats.Max = t.Confidence
		}
		if t.Confidence < stats.Min {
			stats.Min = t.Confidence
		}
	}
	stats.Mean = sum / float64(len(tracks))
	return stats
}
