// Package v2detect defines the detection boundary of the crowd
// pipeline: the adapter contract that external person detectors
// implement, plus the wrappers the pipeline layers on top of a raw
// adapter.
//
// Detector internals (models, video decode) live outside this module.
// What crosses the boundary is a Frame descriptor in and a slice of
// vision.Detection out. This package hardens that boundary:
//
//   - Recovery: adapter errors and panics degrade to "no detections
//     this frame" instead of killing the stream.
//   - Caching: the detector can be run every Nth frame with cached
//     results returned in between, flagged as cached.
//   - Quality filtering: implausible boxes (too small, too large,
//     wrong aspect ratio, low confidence) are rejected before the
//     tracker ever sees them.
//   - Replay: recorded detection logs (JSONL) can stand in for a live
//     detector for offline analysis and tests.
//
// May import internal/vision and internal/config. Must not import
// higher pipeline layers.
package v2detect
