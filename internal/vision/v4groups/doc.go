// Package v4groups partitions the current frame's tracks into spatial
// groups. Two tracks belong to the same group when their boxes overlap
// or their centers lie within a proximity threshold; grouping is
// transitive, so chains of pairwise-close tracks collapse into one
// group.
//
// Groups are derived values: they are recomputed from scratch every
// frame from the live track set and never persisted.
//
// May import internal/vision, internal/config, and v3tracks. Must not
// import higher layers.
package v4groups
