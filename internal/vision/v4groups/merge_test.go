package v4groups

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdwatch-data/density.report/internal/vision"
	"github.com/crowdwatch-data/density.report/internal/vision/v3tracks"
)

func trackAt(id int, r vision.Rect) v3tracks.Track {
	return v3tracks.Track{ID: id, Bounds: r}
}

func TestMergeOverlappingTracks(t *testing.T) {
	t.Parallel()

	tracks := []v3tracks.Track{
		trackAt(0, vision.Rect{X: 0, Y: 0, W: 50, H: 50}),
		trackAt(1, vision.Rect{X: 40, Y: 40, W: 50, H: 50}),
	}
	groups := Merge(tracks, DefaultMergeConfig())

	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Count)
	assert.True(t, groups[0].IsGroup)
	assert.Equal(t, []int{0, 1}, groups[0].MemberIDs)
}

func TestDistantTracksStaySeparate(t *testing.T) {
	t.Parallel()

	tracks := []v3tracks.Track{
		trackAt(0, vision.Rect{X: 0, Y: 0, W: 50, H: 50}),
		trackAt(1, vision.Rect{X: 500, Y: 500, W: 50, H: 50}),
	}
	groups := Merge(tracks, DefaultMergeConfig())

	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.Equal(t, 1, g.Count)
		assert.False(t, g.IsGroup)
	}
}

func TestProximityMergesWithoutOverlap(t *testing.T) {
	t.Parallel()

	// Disjoint boxes whose centers are 70 px apart: within the 80 px
	// proximity threshold.
	tracks := []v3tracks.Track{
		trackAt(0, vision.Rect{X: 0, Y: 0, W: 20, H: 20}),
		trackAt(1, vision.Rect{X: 60, Y: 0, W: 20, H: 20}),
	}
	groups := Merge(tracks, DefaultMergeConfig())

	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Count)
}

func TestEdgeTouchingOverlapFlag(t *testing.T) {
	t.Parallel()

	// Boxes share one edge; centers are 200 px apart so proximity
	// cannot merge them. Only the overlap rule decides.
	tracks := []v3tracks.Track{
		trackAt(0, vision.Rect{X: 0, Y: 0, W: 200, H: 200}),
		trackAt(1, vision.Rect{X: 200, Y: 0, W: 200, H: 200}),
	}

	t.Run("default merges edge-touching boxes", func(t *testing.T) {
		t.Parallel()
		groups := Merge(tracks, DefaultMergeConfig())
		require.Len(t, groups, 1)
		assert.Equal(t, 2, groups[0].Count)
	})

	t.Run("strict overlap keeps them apart", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultMergeConfig()
		cfg.StrictOverlap = true
		groups := Merge(tracks, cfg)
		assert.Len(t, groups, 2)
	})
}

func TestTransitiveChainCollapses(t *testing.T) {
	t.Parallel()

	// A overlaps B, B overlaps C; A and C are far apart. All three
	// still form one group.
	tracks := []v3tracks.Track{
		trackAt(0, vision.Rect{X: 0, Y: 0, W: 120, H: 40}),
		trackAt(1, vision.Rect{X: 100, Y: 0, W: 120, H: 40}),
		trackAt(2, vision.Rect{X: 200, Y: 0, W: 120, H: 40}),
	}
	groups := Merge(tracks, DefaultMergeConfig())

	require.Len(t, groups, 1)
	assert.Equal(t, []int{0, 1, 2}, groups[0].MemberIDs)
}

func TestPartitionCompleteness(t *testing.T) {
	t.Parallel()

	tracks := []v3tracks.Track{
		trackAt(3, vision.Rect{X: 0, Y: 0, W: 50, H: 50}),
		trackAt(5, vision.Rect{X: 30, Y: 30, W: 50, H: 50}),
		trackAt(8, vision.Rect{X: 500, Y: 0, W: 50, H: 50}),
		trackAt(9, vision.Rect{X: 900, Y: 900, W: 50, H: 50}),
	}
	groups := Merge(tracks, DefaultMergeConfig())

	seen := map[int]int{}
	for _, g := range groups {
		assert.Equal(t, len(g.MemberIDs), g.Count)
		for _, id := range g.MemberIDs {
			seen[id]++
		}
	}
	// Every track in exactly one group.
	assert.Equal(t, map[int]int{3: 1, 5: 1, 8: 1, 9: 1}, seen)
}

func TestGroupBoundsEncloseMembersWithPadding(t *testing.T) {
	t.Parallel()

	cfg := DefaultMergeConfig()
	tracks := []v3tracks.Track{
		trackAt(0, vision.Rect{X: 100, Y: 100, W: 50, H: 120}),
		trackAt(1, vision.Rect{X: 130, Y: 90, W: 50, H: 120}),
	}
	groups := Merge(tracks, cfg)
	require.Len(t, groups, 1)

	g := groups[0]
	for _, trk := range tracks {
		assert.True(t, g.Bounds.Contains(trk.Bounds),
			"group bbox must enclose member %d", trk.ID)
	}
	// Padding applied on all sides.
	assert.Equal(t, 100-cfg.Padding, g.Bounds.X)
	assert.Equal(t, 90-cfg.Padding, g.Bounds.Y)
}

func TestGroupBoundsClipAtOrigin(t *testing.T) {
	t.Parallel()

	tracks := []v3tracks.Track{
		trackAt(0, vision.Rect{X: 2, Y: 0, W: 50, H: 120}),
	}
	groups := Merge(tracks, DefaultMergeConfig())
	require.Len(t, groups, 1)

	assert.GreaterOrEqual(t, groups[0].Bounds.X, 0)
	assert.GreaterOrEqual(t, groups[0].Bounds.Y, 0)
}

func TestMergeEmptyTrackSet(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Merge(nil, DefaultMergeConfig()))
}

func TestUnionFindPathCompression(t *testing.T) {
	t.Parallel()

	// Build a long chain then find the tail: must terminate and
	// compress without recursion.
	n := 10000
	uf := newUnionFind(n)
	for i := 1; i < n; i++ {
		uf.union(i-1, i)
	}
	root := uf.find(n - 1)
	assert.Equal(t, uf.find(0), root)
	// After compression the tail points straight at the root.
	assert.Equal(t, root, uf.parent[n-1])
}
