package v3tracks

import "github.com/crowdwatch-data/density.report/internal/vision"

// TrailPoint is one past center position of a track.
type TrailPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Track is the caller-facing snapshot of one tracked person. Snapshots
// are copies; mutating one has no effect on the tracker.
type Track struct {
	ID          int           `json:"id"`
	Bounds      vision.Rect   `json:"bounds"` // temporally smoothed
	Center      TrailPoint    `json:"center"`
	Confidence  float64       `json:"confidence"`
	Method      vision.Method `json:"method"`
	Age         int           `json:"age"`
	Disappeared int           `json:"disappeared"`
	Trail       []TrailPoint  `json:"trail,omitempty"`
}

// track is the tracker-owned mutable state for one identity. History
// buffers are allocated at registration, never lazily.
type track struct {
	id          int
	bounds      vision.Rect // smoothed
	confidence  float64     // mean over confHistory
	method      vision.Method
	age         int
	disappeared int

	bboxHistory []vision.Rect // oldest first, capacity cfg.BBoxHistoryLen
	confHistory []float64     // oldest first, capacity cfg.ConfHistoryLen
	trail       []TrailPoint  // oldest first, capacity cfg.TrailLen
}

func (t *track) center() TrailPoint {
	cx, cy := t.bounds.Center()
	return TrailPoint{X: cx, Y: cy}
}

// observe feeds a matched raw observation through the temporal filter
// and updates the track's stored geometry.
func (t *track) observe(d vision.Detection, cfg TrackerConfig) {
	t.bboxHistory = appendBounded(t.bboxHistory, d.Bounds, cfg.BBoxHistoryLen)
	t.confHistory = appendBounded(t.confHistory, d.Confidence, cfg.ConfHistoryLen)

	t.bounds = SmoothBounds(t.bboxHistory)
	t.confidence = MeanConfidence(t.confHistory)
	t.method = d.Method
	t.disappeared = 0
	t.trail = appendBounded(t.trail, t.center(), cfg.TrailLen)
}

func (t *track) snapshot() Track {
	trail := make([]TrailPoint, len(t.trail))
	copy(trail, t.trail)
	return Track{
		ID:          t.id,
		Bounds:      t.bounds,
		Center:      t.center(),
		Confidence:  t.confidence,
		Method:      t.method,
		Age:         t.age,
		Disappeared: t.disappeared,
		Trail:       trail,
	}
}

// appendBounded appends v and evicts from the front to keep at most
// capacity entries.
func appendBounded[T any](s []T, v T, capacity int) []T {
	if capacity < 1 {
		capacity = 1
	}
	s = append(s, v)
	if over := len(s) - capacity; over > 0 {
		s = append(s[:0], s[over:]...)
	}
	return s
}
