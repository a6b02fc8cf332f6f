// Package v6stats maintains a fixed-capacity rolling window of
// per-frame crowd metrics and serves aggregate summaries over it.
// Eviction is strictly FIFO: once the window is full, every new frame
// displaces the oldest.
//
// The window is the only pipeline stage with cross-frame aggregate
// state; everything it holds is derived and bounded, so dropping it
// loses at most one window of history.
package v6stats
