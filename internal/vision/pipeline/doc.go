// Package pipeline wires the vision layers into the per-frame crowd
// analysis loop and manages the per-stream lifecycle around it.
//
// One Pipeline owns one stream's state: a detection boundary
// (v2detect), a tracker (v3tracks), grouping and density parameters
// (v4groups, v5density), and a rolling stats window (v6stats). Each
// frame runs the stages sequentially; the frame update is atomic from
// the caller's perspective.
//
// The Manager holds many pipelines, one per camera stream, with
// idempotent start/stop semantics.
package pipeline
