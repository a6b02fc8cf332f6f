package vision

import (
	"errors"
	"fmt"
)

// Method identifies which detector produced a Detection. The pipeline
// treats it as an opaque tag; it only flows through for reporting.
type Method string

const (
	// MethodNeural marks detections from the neural-network detector.
	MethodNeural Method = "neural"
	// MethodClassical marks detections from the classical (HOG-style)
	// fallback detector.
	MethodClassical Method = "classical"
)

// Boundary validation errors for detections entering the pipeline.
var (
	ErrDegenerateBounds = errors.New("detection bounds have non-positive width or height")
	ErrConfidenceRange  = errors.New("detection confidence outside [0, 1]")
)

// Detection is one frame's raw, unassociated detector output. It is
// produced fresh each frame by a v2detect adapter and consumed within
// the frame; nothing retains it across frames.
type Detection struct {
	Bounds     Rect    `json:"bounds"`
	Method     Method  `json:"method"`
	Confidence float64 `json:"confidence"`
}

// Validate checks the adapter contract: positive dimensions and a
// confidence in [0, 1]. Association never sees a detection that fails
// this check.
func (d Detection) Validate() error {
	if d.Bounds.W <= 0 || d.Bounds.H <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDegenerateBounds, d.Bounds.W, d.Bounds.H)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("%w: %f", ErrConfidenceRange, d.Confidence)
	}
	return nil
}
