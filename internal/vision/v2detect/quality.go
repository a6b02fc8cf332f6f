package v2detect

import (
	"github.com/crowdwatch-data/density.report/internal/config"
	"github.com/crowdwatch-data/density.report/internal/vision"
)

// QualityConfig holds the plausibility bounds for a person-shaped
// detection. Boxes outside these bounds are noise or mis-detections
// and are dropped before association.
type QualityConfig struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
	// Aspect bounds apply to height/width. A standing person is taller
	// than wide.
	MinAspect float64
	MaxAspect float64
	// Per-method confidence floors. The classical detector is noisier,
	// so its floor is higher.
	NeuralMinConfidence    float64
	ClassicalMinConfidence float64
}

// QualityConfigFromTuning extracts the quality bounds from a tuning config.
func QualityConfigFromTuning(cfg *config.TuningConfig) QualityConfig {
	return QualityConfig{
		MinWidth:               cfg.GetMinDetectionWidth(),
		MinHeight:              cfg.GetMinDetectionHeight(),
		MaxWidth:               cfg.GetMaxDetectionWidth(),
		MaxHeight:              cfg.GetMaxDetectionHeight(),
		MinAspect:              cfg.GetMinAspectRatio(),
		MaxAspect:              cfg.GetMaxAspectRatio(),
		NeuralMinConfidence:    cfg.GetNeuralConfidenceThreshold(),
		ClassicalMinConfidence: cfg.GetClassicalConfidenceThreshold(),
	}
}

// DefaultQualityConfig returns the quality bounds used when no tuning
// config is supplied.
func DefaultQualityConfig() QualityConfig {
	return QualityConfigFromTuning(config.EmptyTuningConfig())
}

// Accept reports whether a single detection passes the plausibility
// checks. The detection must already be structurally valid
// (vision.Detection.Validate).
func (q QualityConfig) Accept(d vision.Detection) bool {
	w, h := d.Bounds.W, d.Bounds.H
	if w < q.MinWidth || h < q.MinHeight {
		return false
	}
	if w > q.MaxWidth || h > q.MaxHeight {
		return false
	}
	aspect := float64(h) / float64(w)
	if aspect < q.MinAspect || aspect > q.MaxAspect {
		return false
	}
	switch d.Method {
	case vision.MethodClassical:
		return d.Confidence >= q.ClassicalMinConfidence
	default:
		return d.Confidence >= q.NeuralMinConfidence
	}
}

// Filter validates and quality-screens a batch of raw detections. It
// returns the survivors and the number rejected. Malformed detections
// (failing Validate) count as rejected rather than erroring the frame:
// one bad box must not discard its siblings.
func (q QualityConfig) Filter(raw []vision.Detection) (kept []vision.Detection, rejected int) {
	kept = make([]vision.Detection, 0, len(raw))
	for _, d := range raw {
		if d.Validate() != nil || !q.Accept(d) {
			rejected++
			continue
		}
		kept = append(kept, d)
	}
	return kept, rejected
}
