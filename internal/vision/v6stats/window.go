package v6stats

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FrameSample is one frame's contribution to the rolling window.
type FrameSample struct {
	TotalPeople    int     `json:"total_people"`
	GroupCount     int     `json:"group_count"`
	DensityScore   float64 `json:"density_score"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Summary aggregates the current window contents.
type Summary struct {
	Frames         int     `json:"frames"`
	MeanPeople     float64 `json:"mean_people"`
	MaxPeople      int     `json:"max_people"`
	MeanGroups     float64 `json:"mean_groups"`
	MaxGroups      int     `json:"max_groups"`
	MeanScore      float64 `json:"mean_score"`
	MaxScore       float64 `json:"max_score"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Window is a FIFO rolling window of FrameSamples. Safe for concurrent
// use: the pipeline pushes from its frame loop while exporters read
// summaries.
type Window struct {
	mu       sync.RWMutex
	capacity int
	samples  []FrameSample
}

// NewWindow builds a window holding at most capacity frames.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		samples:  make([]FrameSample, 0, capacity),
	}
}

// Push appends one frame's sample, evicting the oldest when full.
func (w *Window) Push(s FrameSample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, s)
	if over := len(w.samples) - w.capacity; over > 0 {
		w.samples = append(w.samples[:0], w.samples[over:]...)
	}
}

// Len returns the number of frames currently held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.samples)
}

// Capacity returns the window capacity.
func (w *Window) Capacity() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.capacity
}

// SetCapacity resizes the window at runtime. Shrinking evicts the
// oldest frames immediately.
func (w *Window) SetCapacity(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.capacity = capacity
	if over := len(w.samples) - capacity; over > 0 {
		w.samples = append(w.samples[:0], w.samples[over:]...)
	}
}

// Reset discards all samples.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = w.samples[:0]
}

// Summary computes the running mean and maximum over the window. An
// empty window yields the zero Summary.
func (w *Window) Summary() Summary {
	w.mu.RLock()
	defer w.mu.RUnlock()

	n := len(w.samples)
	if n == 0 {
		return Summary{}
	}

	people := make([]float64, n)
	groupCounts := make([]float64, n)
	scores := make([]float64, n)
	confidences := make([]float64, n)
	maxPeople, maxGroups := 0, 0
	for i, s := range w.samples {
		people[i] = float64(s.TotalPeople)
		groupCounts[i] = float64(s.GroupCount)
		scores[i] = s.DensityScore
		confidences[i] = s.MeanConfidence
		if s.TotalPeople > maxPeople {
			maxPeople = s.TotalPeople
		}
		if s.GroupCount > maxGroups {
			maxGroups = s.GroupCount
		}
	}

	return Summary{
		Frames:         n,
		MeanPeople:     stat.Mean(people, nil),
		MaxPeople:      maxPeople,
		MeanGroups:     stat.Mean(groupCounts, nil),
		MaxGroups:      maxGroups,
		MeanScore:      stat.Mean(scores, nil),
		MaxScore:       floats.Max(scores),
		MeanConfidence: stat.Mean(confidences, nil),
	}
}

// Samples returns a copy of the window contents, oldest first.
func (w *Window) Samples() []FrameSample {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]FrameSample, len(w.samples))
	copy(out, w.samples)
	return out
}
