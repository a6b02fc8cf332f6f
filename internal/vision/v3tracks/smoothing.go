package v3tracks

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/crowdwatch-data/density.report/internal/vision"
)

// smoothingWeights returns linearly increasing weights for a history of
// n observations, oldest first. The newest observation dominates but
// older ones still pull against single-frame jitter.
func smoothingWeights(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	floats.Span(w, 0.1, 1.0)
	return w
}

// SmoothBounds computes the temporally filtered bounding box for a
// history of raw boxes, oldest first. With a single entry the raw box
// is returned unchanged. Otherwise each component is the weighted mean
// over the history, rounded to integer pixels.
func SmoothBounds(history []vision.Rect) vision.Rect {
	n := len(history)
	if n == 0 {
		return vision.Rect{}
	}
	if n == 1 {
		return history[0]
	}

	w := smoothingWeights(n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	ws := make([]float64, n)
	hs := make([]float64, n)
	for i, r := range history {
		xs[i] = float64(r.X)
		ys[i] = float64(r.Y)
		ws[i] = float64(r.W)
		hs[i] = float64(r.H)
	}

	return vision.Rect{
		X: int(math.Round(stat.Mean(xs, w))),
		Y: int(math.Round(stat.Mean(ys, w))),
		W: int(math.Round(stat.Mean(ws, w))),
		H: int(math.Round(stat.Mean(hs, w))),
	}
}

// MeanConfidence is the unweighted mean of a confidence history.
func MeanConfidence(history []float64) float64 {
	if len(history) == 0 {
		return 0
	}
	return stat.Mean(history, nil)
}
