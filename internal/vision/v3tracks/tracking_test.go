package v3tracks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdwatch-data/density.report/internal/vision"
)

func det(x, y int, conf float64) vision.Detection {
	return vision.Detection{
		Bounds:     vision.Rect{X: x, Y: y, W: 50, H: 100},
		Method:     vision.MethodNeural,
		Confidence: conf,
	}
}

// detAt builds a detection whose bbox centroid lands exactly on (cx, cy).
func detAt(cx, cy float64) vision.Detection {
	return vision.Detection{
		Bounds:     vision.Rect{X: int(cx) - 25, Y: int(cy) - 50, W: 50, H: 100},
		Method:     vision.MethodNeural,
		Confidence: 0.9,
	}
}

func TestFirstDetectionCreatesTrack(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultTrackerConfig())
	tracks := tr.Update([]vision.Detection{det(100, 100, 0.9)})

	require.Len(t, tracks, 1)
	assert.Equal(t, 0, tracks[0].ID)
	assert.Equal(t, 0, tracks[0].Age)
	assert.Equal(t, 0, tracks[0].Disappeared)
	assert.Equal(t, vision.Rect{X: 100, Y: 100, W: 50, H: 100}, tracks[0].Bounds)
	assert.InDelta(t, 0.9, tracks[0].Confidence, 1e-9)
}

func TestNearbyDetectionKeepsIdentity(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultTrackerConfig())
	tr.Update([]vision.Detection{det(100, 100, 0.8)})
	tracks := tr.Update([]vision.Detection{det(110, 100, 0.6)})

	require.Len(t, tracks, 1)
	assert.Equal(t, 0, tracks[0].ID)
	assert.Equal(t, 1, tracks[0].Age)
	assert.Equal(t, 0, tracks[0].Disappeared)

	// Temporal filter: weights 0.1/1.0 over x history [100, 110]
	// give (100*0.1 + 110*1.0)/1.1 ≈ 109.
	assert.Equal(t, 109, tracks[0].Bounds.X)
	// Confidence is the plain mean of [0.8, 0.6].
	assert.InDelta(t, 0.7, tracks[0].Confidence, 1e-9)
}

func TestFarDetectionSpawnsNewTrack(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultTrackerConfig())
	tr.Update([]vision.Detection{det(100, 100, 0.9)})

	// 150 px away: beyond the 80 px gate.
	tracks := tr.Update([]vision.Detection{det(250, 100, 0.9)})

	require.Len(t, tracks, 2)
	assert.Equal(t, 0, tracks[0].ID)
	assert.Equal(t, 1, tracks[0].Disappeared)
	assert.Equal(t, 1, tracks[1].ID)
	assert.Equal(t, 0, tracks[1].Disappeared)
}

func TestTrackRemovedAfterDisappearanceBudget(t *testing.T) {
	t.Parallel()

	cfg := DefaultTrackerConfig()
	cfg.MaxDisappeared = 15
	tr := NewTracker(cfg)
	tr.Update([]vision.Detection{det(100, 100, 0.9)})

	// 15 empty frames: the track coasts at the budget's edge.
	for i := 0; i < 15; i++ {
		tracks := tr.Update(nil)
		require.Len(t, tracks, 1, "frame %d", i+1)
		assert.Equal(t, i+1, tracks[0].Disappeared)
	}

	// The 16th empty frame pushes it over.
	tracks := tr.Update(nil)
	assert.Empty(t, tracks)
	assert.Equal(t, 1, tr.Counters().TracksRemoved)
}

func TestDisappearedResetsOnMatch(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultTrackerConfig())
	tr.Update([]vision.Detection{det(100, 100, 0.9)})
	tr.Update(nil)
	tr.Update(nil)

	tracks := tr.Update([]vision.Detection{det(105, 100, 0.9)})
	require.Len(t, tracks, 1)
	assert.Equal(t, 0, tracks[0].ID)
	assert.Equal(t, 0, tracks[0].Disappeared)
}

func TestTrackIDsMonotonicNeverReused(t *testing.T) {
	t.Parallel()

	cfg := DefaultTrackerConfig()
	cfg.MaxDisappeared = 0
	tr := NewTracker(cfg)

	tr.Update([]vision.Detection{det(100, 100, 0.9)}) // id 0
	tr.Update(nil)                                    // id 0 removed
	tracks := tr.Update([]vision.Detection{det(100, 100, 0.9)})

	require.Len(t, tracks, 1)
	assert.Equal(t, 1, tracks[0].ID, "removed ids must never be reassigned")
}

func TestHistoryBuffersStayBounded(t *testing.T) {
	t.Parallel()

	cfg := DefaultTrackerConfig()
	tr := NewTracker(cfg)

	for i := 0; i < 50; i++ {
		tr.Update([]vision.Detection{det(100+i, 100, 0.9)})
	}

	tr.mu.RLock()
	defer tr.mu.RUnlock()
	for _, trk := range tr.tracks {
		assert.LessOrEqual(t, len(trk.bboxHistory), cfg.BBoxHistoryLen)
		assert.LessOrEqual(t, len(trk.confHistory), cfg.ConfHistoryLen)
		assert.LessOrEqual(t, len(trk.trail), cfg.TrailLen)
	}
}

func TestTrailRecordsMovement(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultTrackerConfig())
	tr.Update([]vision.Detection{det(100, 100, 0.9)})
	tr.Update([]vision.Detection{det(120, 100, 0.9)})
	tracks := tr.Update([]vision.Detection{det(140, 100, 0.9)})

	require.Len(t, tracks, 1)
	trail := tracks[0].Trail
	require.Len(t, trail, 3)
	assert.Less(t, trail[0].X, trail[1].X)
	assert.Less(t, trail[1].X, trail[2].X)
}

func TestGreedyPrefersClosestCompetitor(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultTrackerConfig())
	// Two tracks 60 px apart.
	tr.Update([]vision.Detection{detAt(100, 100), detAt(160, 100)})

	// One detection between them, nearer the second track. The second
	// track has the better best-distance, claims it first, and the
	// first track goes unmatched.
	tracks := tr.Update([]vision.Detection{detAt(150, 100)})

	require.Len(t, tracks, 2)
	assert.Equal(t, 1, tracks[0].Disappeared, "farther track misses")
	assert.Equal(t, 0, tracks[1].Disappeared, "closer track claims the detection")
}

func TestOptimalAssignmentMatchesBothWhereGreedyCannot(t *testing.T) {
	t.Parallel()

	// Geometry where greedy strands the second track: track A (center
	// 40,50) is nearest to detection P (55,50) and claims it first,
	// leaving track B (80,50) only detection Q (0,80) at distance
	// ~85 px, outside the 80 px gate. Optimal assignment instead pairs
	// A→Q (50 px) and B→P (25 px), keeping both identities alive.
	seed := []vision.Detection{detAt(40, 50), detAt(80, 50)}
	frame := []vision.Detection{detAt(55, 50), detAt(0, 80)}

	greedy := NewTracker(DefaultTrackerConfig())
	greedy.Update(seed)
	gTracks := greedy.Update(frame)
	require.Len(t, gTracks, 3, "greedy: stranded track plus a spawned one")
	assert.Equal(t, 1, gTracks[1].Disappeared)

	cfg := DefaultTrackerConfig()
	cfg.UseOptimalAssignment = true
	optimal := NewTracker(cfg)
	optimal.Update(seed)
	oTracks := optimal.Update(frame)
	require.Len(t, oTracks, 2, "optimal: both tracks matched")
	assert.Equal(t, 0, oTracks[0].Disappeared)
	assert.Equal(t, 0, oTracks[1].Disappeared)
}

func TestSetConfigTrimsHistories(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultTrackerConfig())
	for i := 0; i < 10; i++ {
		tr.Update([]vision.Detection{det(100+i, 100, 0.9)})
	}

	cfg := tr.Config()
	cfg.BBoxHistoryLen = 1
	cfg.TrailLen = 2
	tr.SetConfig(cfg)

	tr.mu.RLock()
	defer tr.mu.RUnlock()
	for _, trk := range tr.tracks {
		assert.LessOrEqual(t, len(trk.bboxHistory), 1)
		assert.LessOrEqual(t, len(trk.trail), 2)
	}
}

func TestCounters(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultTrackerConfig())
	tr.Update([]vision.Detection{det(100, 100, 0.9), det(400, 100, 0.9)})
	tr.Update([]vision.Detection{det(105, 100, 0.9)})
	tr.Update(nil)

	c := tr.Counters()
	assert.Equal(t, 3, c.FramesProcessed)
	assert.Equal(t, 2, c.TracksCreated)
	assert.Equal(t, 1, c.Matches)
	assert.Equal(t, 3, c.Misses) // one miss on frame 2, two on frame 3
	assert.Equal(t, 2, tr.ActiveCount())
}

func TestSnapshotsAreCopies(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultTrackerConfig())
	tr.Update([]vision.Detection{det(100, 100, 0.9)})

	tracks := tr.Tracks()
	require.Len(t, tracks, 1)
	tracks[0].Bounds.X = 9999
	tracks[0].Trail[0].X = 9999

	again := tr.Tracks()
	assert.Equal(t, 100, again[0].Bounds.X)
	assert.NotEqual(t, 9999.0, again[0].Trail[0].X)
}
