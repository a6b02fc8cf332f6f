// Package v3tracks associates per-frame detections with persistent
// track identities and smooths track geometry over a short history.
//
// The tracker is a gated nearest-centroid matcher: each frame it pairs
// existing tracks with new detections by centroid distance, subject to
// a maximum gating distance. Matching is greedy by default (tracks
// claim detections in order of their own best distance), with an
// optional optimal-assignment mode backed by vision.HungarianAssign.
// Unmatched tracks age out after a configurable number of missed
// frames; unmatched detections spawn new tracks with monotonically
// increasing ids.
//
// Matched geometry passes through a temporal filter before it is
// stored: a linearly weighted average over the last few raw boxes,
// which suppresses single-frame detector jitter without adding lag
// beyond the history window.
//
// May import internal/vision and internal/config. Must not import
// v2detect or higher layers.
package v3tracks
