package v3tracks

import (
	"sort"
	"sync"

	"github.com/crowdwatch-data/density.report/internal/config"
	"github.com/crowdwatch-data/density.report/internal/vision"
)

// TrackerConfig holds the tunable parameters for one tracker instance.
type TrackerConfig struct {
	// MaxDisappeared is the number of consecutive unmatched frames a
	// track survives. It is removed when its counter exceeds this.
	MaxDisappeared int
	// MaxDistance is the gating distance in pixels: a track never
	// matches a detection whose centroid is farther than this.
	MaxDistance float64
	// History capacities for the temporal filter.
	BBoxHistoryLen int
	ConfHistoryLen int
	// TrailLen bounds the per-track movement trail.
	TrailLen int
	// UseOptimalAssignment switches association from the default
	// greedy matcher to minimum-cost bipartite assignment.
	UseOptimalAssignment bool
}

// DefaultTrackerConfig returns the production defaults.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfigFromTuning(config.EmptyTuningConfig())
}

// TrackerConfigFromTuning extracts the tracker parameters from a
// tuning config.
func TrackerConfigFromTuning(cfg *config.TuningConfig) TrackerConfig {
	return TrackerConfig{
		MaxDisappeared:       cfg.GetMaxDisappeared(),
		MaxDistance:          cfg.GetMaxDistance(),
		BBoxHistoryLen:       cfg.GetBBoxHistoryLength(),
		ConfHistoryLen:       cfg.GetConfHistoryLength(),
		TrailLen:             cfg.GetTrailHistoryLength(),
		UseOptimalAssignment: cfg.GetUseOptimalAssignment(),
	}
}

// TrackerCounters are cumulative counters for one tracker instance.
type TrackerCounters struct {
	FramesProcessed int `json:"frames_processed"`
	TracksCreated   int `json:"tracks_created"`
	TracksRemoved   int `json:"tracks_removed"`
	Matches         int `json:"matches"`
	Misses          int `json:"misses"` // track-frames spent unmatched
}

// Tracker owns the track store for one stream. Each frame's Update is
// atomic: callers never observe a partially applied frame. The zero
// value is not usable; construct with NewTracker.
type Tracker struct {
	mu       sync.RWMutex
	cfg      TrackerConfig
	tracks   map[int]*track
	nextID   int
	counters TrackerCounters
}

// NewTracker builds a tracker with the given configuration.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{
		cfg:    cfg,
		tracks: make(map[int]*track),
	}
}

// Config returns the tracker's current configuration.
func (tr *Tracker) Config() TrackerConfig {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.cfg
}

// SetConfig replaces the tracker configuration at runtime. Shrunken
// history capacities take effect immediately: existing buffers are
// trimmed from the oldest end.
func (tr *Tracker) SetConfig(cfg TrackerConfig) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.cfg = cfg
	for _, t := range tr.tracks {
		t.bboxHistory = trimFront(t.bboxHistory, cfg.BBoxHistoryLen)
		t.confHistory = trimFront(t.confHistory, cfg.ConfHistoryLen)
		t.trail = trimFront(t.trail, cfg.TrailLen)
	}
}

// Counters returns a snapshot of the cumulative counters.
func (tr *Tracker) Counters() TrackerCounters {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.counters
}

// ActiveCount returns the number of live tracks.
func (tr *Tracker) ActiveCount() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.tracks)
}

// Tracks returns snapshots of all live tracks, ordered by id.
func (tr *Tracker) Tracks() []Track {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.snapshotLocked()
}

// Update runs one frame of association. Detections must already be
// validated at the detection boundary; the tracker trusts its input.
// It returns snapshots of the live tracks after the frame, ordered by
// id.
func (tr *Tracker) Update(detections []vision.Detection) []Track {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.counters.FramesProcessed++

	// Every live track ages by one frame.
	for _, t := range tr.tracks {
		t.age++
	}

	switch {
	case len(detections) == 0:
		// Normal condition: everyone went unmatched this frame.
		for _, id := range tr.sortedIDsLocked() {
			tr.missLocked(tr.tracks[id])
		}

	case len(tr.tracks) == 0:
		for _, d := range detections {
			tr.registerLocked(d)
		}

	default:
		tr.associateLocked(detections)
	}

	return tr.snapshotLocked()
}

// associateLocked matches existing tracks against a non-empty
// detection list and applies the per-frame bookkeeping.
func (tr *Tracker) associateLocked(detections []vision.Detection) {
	ids := tr.sortedIDsLocked()

	// Pairwise centroid distances, tracks by row.
	dist := make([][]float64, len(ids))
	for i, id := range ids {
		t := tr.tracks[id]
		dist[i] = make([]float64, len(detections))
		for j, d := range detections {
			dist[i][j] = vision.CenterDistance(t.bounds, d.Bounds)
		}
	}

	var rowToCol []int
	if tr.cfg.UseOptimalAssignment {
		rowToCol = optimalAssign(dist, tr.cfg.MaxDistance)
	} else {
		rowToCol = greedyAssign(dist, tr.cfg.MaxDistance)
	}

	claimed := make([]bool, len(detections))
	for i, id := range ids {
		j := rowToCol[i]
		if j < 0 {
			tr.missLocked(tr.tracks[id])
			continue
		}
		claimed[j] = true
		tr.tracks[id].observe(detections[j], tr.cfg)
		tr.counters.Matches++
	}

	for j, d := range detections {
		if !claimed[j] {
			tr.registerLocked(d)
		}
	}
}

// greedyAssign implements gated greedy nearest-centroid matching:
// tracks are processed in order of their own best distance (ties by
// row order) and each claims the nearest still-unclaimed detection
// within the gate. Known-suboptimal when tracks compete for the same
// detection; accepted for per-frame latency.
func greedyAssign(dist [][]float64, maxDistance float64) []int {
	n := len(dist)
	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	if n == 0 || len(dist[0]) == 0 {
		return result
	}
	m := len(dist[0])

	rows := make([]int, n)
	best := make([]float64, n)
	for i := range dist {
		rows[i] = i
		best[i] = dist[i][0]
		for _, d := range dist[i][1:] {
			if d < best[i] {
				best[i] = d
			}
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return best[rows[a]] < best[rows[b]]
	})

	claimed := make([]bool, m)
	for _, i := range rows {
		bestJ := -1
		for j := 0; j < m; j++ {
			if claimed[j] {
				continue
			}
			if bestJ < 0 || dist[i][j] < dist[i][bestJ] {
				bestJ = j
			}
		}
		if bestJ < 0 || dist[i][bestJ] > maxDistance {
			continue
		}
		result[i] = bestJ
		claimed[bestJ] = true
	}
	return result
}

// optimalAssign solves the same gated matching as a minimum-cost
// bipartite assignment.
func optimalAssign(dist [][]float64, maxDistance float64) []int {
	cost := make([][]float64, len(dist))
	for i, row := range dist {
		cost[i] = make([]float64, len(row))
		for j, d := range row {
			if d > maxDistance {
				cost[i][j] = vision.ForbiddenCost
			} else {
				cost[i][j] = d
			}
		}
	}
	return vision.HungarianAssign(cost)
}

// missLocked records an unmatched frame for t and removes it once it
// exceeds the disappearance budget.
func (tr *Tracker) missLocked(t *track) {
	t.disappeared++
	tr.counters.Misses++
	if t.disappeared > tr.cfg.MaxDisappeared {
		delete(tr.tracks, t.id)
		tr.counters.TracksRemoved++
	}
}

// registerLocked spawns a new track for an unclaimed detection. Ids
// are monotonic and never reused.
func (tr *Tracker) registerLocked(d vision.Detection) {
	id := tr.nextID
	tr.nextID++

	t := &track{
		id:          id,
		bounds:      d.Bounds,
		confidence:  d.Confidence,
		method:      d.Method,
		bboxHistory: make([]vision.Rect, 0, tr.cfg.BBoxHistoryLen),
		confHistory: make([]float64, 0, tr.cfg.ConfHistoryLen),
		trail:       make([]TrailPoint, 0, tr.cfg.TrailLen),
	}
	t.bboxHistory = append(t.bboxHistory, d.Bounds)
	t.confHistory = append(t.confHistory, d.Confidence)
	t.trail = append(t.trail, t.center())

	tr.tracks[id] = t
	tr.counters.TracksCreated++
}

func (tr *Tracker) sortedIDsLocked() []int {
	ids := make([]int, 0, len(tr.tracks))
	for id := range tr.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (tr *Tracker) snapshotLocked() []Track {
	out := make([]Track, 0, len(tr.tracks))
	for _, id := range tr.sortedIDsLocked() {
		out = append(out, tr.tracks[id].snapshot())
	}
	return out
}

func trimFront[T any](s []T, capacity int) []T {
	if capacity < 1 {
		capacity = 1
	}
	if over := len(s) - capacity; over > 0 {
		return append(s[:0], s[over:]...)
	}
	return s
}
