// Package v5density classifies a frame's group set into an ordered
// crowd-density severity plus a numeric score. Classification is a
// pure function of the group list, frame dimensions, and thresholds:
// the same inputs always produce the same metrics.
//
// May import internal/vision, internal/config, and v4groups. Must not
// import higher layers.
package v5density
