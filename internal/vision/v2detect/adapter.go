package v2detect

import (
	"context"
	"time"

	"github.com/crowdwatch-data/density.report/internal/vision"
)

// Frame describes one video frame to a detection adapter. The pipeline
// never sees pixels; it only needs the frame's identity and dimensions
// (density scoring normalizes by frame area).
type Frame struct {
	Index     int       `json:"frame_index"`
	Timestamp time.Time `json:"timestamp"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
}

// Area returns the frame area in pixels.
func (f Frame) Area() int {
	return f.Width * f.Height
}

// Adapter is the contract a person detector implements. Detect returns
// the raw detections for one frame. Implementations may be expensive;
// callers decide the invocation cadence (see Boundary).
//
// The returned slice is owned by the caller and is consumed within the
// frame; adapters must not retain or reuse it.
type Adapter interface {
	Detect(ctx context.Context, frame Frame) ([]vision.Detection, error)
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(ctx context.Context, frame Frame) ([]vision.Detection, error)

// Detect calls f.
func (f AdapterFunc) Detect(ctx context.Context, frame Frame) ([]vision.Detection, error) {
	return f(ctx, frame)
}

// Result is what the boundary hands to the tracker: the surviving
// detections plus provenance flags the pipeline reports downstream.
type Result struct {
	Detections []vision.Detection
	// Cached is true when the detector was skipped this frame and the
	// detections are reused from the last detector run.
	Cached bool
	// Degraded is true when the adapter failed or panicked and the
	// frame proceeds with no detections. Err carries the cause for
	// logging; it is never fatal to the stream.
	Degraded bool
	Err      error
	// Rejected counts detections dropped at the boundary this frame,
	// either malformed or failing the quality filter.
	Rejected int
}
