package v4groups

import (
	"sort"

	"github.com/crowdwatch-data/density.report/internal/config"
	"github.com/crowdwatch-data/density.report/internal/vision"
	"github.com/crowdwatch-data/density.report/internal/vision/v3tracks"
)

// Group is one spatial cluster of tracks for a single frame.
type Group struct {
	// Bounds is the minimal rectangle enclosing every member box,
	// expanded by the configured padding and clipped to non-negative
	// top-left coordinates.
	Bounds    vision.Rect `json:"bounds"`
	MemberIDs []int       `json:"member_track_ids"`
	Count     int         `json:"count"`
	IsGroup   bool        `json:"is_group"` // true iff Count > 1
}

// MergeConfig holds the tunable grouping parameters.
type MergeConfig struct {
	// ProximityThreshold is the maximum center distance (pixels) for
	// two non-overlapping tracks to merge.
	ProximityThreshold float64
	// Padding expands each group's enclosing rectangle on all sides.
	Padding int
	// StrictOverlap requires positive-area intersection to merge by
	// overlap; the default also merges edge-touching boxes.
	StrictOverlap bool
}

// DefaultMergeConfig returns the production defaults.
func DefaultMergeConfig() MergeConfig {
	return MergeConfigFromTuning(config.EmptyTuningConfig())
}

// MergeConfigFromTuning extracts the grouping parameters from a tuning
// config.
func MergeConfigFromTuning(cfg *config.TuningConfig) MergeConfig {
	return MergeConfig{
		ProximityThreshold: cfg.GetProximityThreshold(),
		Padding:            cfg.GetGroupPadding(),
		StrictOverlap:      cfg.GetStrictOverlap(),
	}
}

// shouldMerge reports whether two track boxes belong in one group.
func (c MergeConfig) shouldMerge(a, b vision.Rect) bool {
	if c.StrictOverlap {
		if a.OverlapsStrict(b) {
			return true
		}
	} else if a.Overlaps(b) {
		return true
	}
	return vision.CenterDistance(a, b) <= c.ProximityThreshold
}

// Merge partitions tracks into groups. Every track lands in exactly
// one group; the union of all groups' members is the full track set.
// Groups are ordered by their lowest member id, members by id.
//
// Pairwise comparison is O(n²) per frame, fine for the tens of tracks
// a single camera produces.
func Merge(tracks []v3tracks.Track, cfg MergeConfig) []Group {
	n := len(tracks)
	if n == 0 {
		return nil
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if cfg.shouldMerge(tracks[i].Bounds, tracks[j].Bounds) {
				uf.union(i, j)
			}
		}
	}

	// Collect members per component, keyed by root.
	members := make(map[int][]int, n)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		members[root] = append(members[root], i)
	}

	groups := make([]Group, 0, len(members))
	for _, idxs := range members {
		bounds := tracks[idxs[0]].Bounds
		ids := make([]int, 0, len(idxs))
		for _, i := range idxs {
			bounds = bounds.Union(tracks[i].Bounds)
			ids = append(ids, tracks[i].ID)
		}
		sort.Ints(ids)
		groups = append(groups, Group{
			Bounds:    bounds.Expand(cfg.Padding),
			MemberIDs: ids,
			Count:     len(ids),
			IsGroup:   len(ids) > 1,
		})
	}

	sort.Slice(groups, func(a, b int) bool {
		return groups[a].MemberIDs[0] < groups[b].MemberIDs[0]
	})
	return groups
}

// unionFind is a disjoint-set forest over track indices. find is
// iterative with path compression; recursion depth is never a concern
// regardless of track count.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	// Path compression: point everything on the walk at the root.
	for u.parent[x] != root {
		u.parent[x], x = root, u.parent[x]
	}
	return root
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
