package vision

import "math"

// Rect is an axis-aligned bounding box in pixel coordinates, top-left
// origin. A valid Rect has positive width and height.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Right returns the exclusive right edge (X + W).
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge (Y + H).
func (r Rect) Bottom() int { return r.Y + r.H }

// Area returns the rectangle area in px².
func (r Rect) Area() int { return r.W * r.H }

// Center returns the centroid in continuous pixel coordinates.
func (r Rect) Center() (float64, float64) {
	return float64(r.X) + float64(r.W)/2, float64(r.Y) + float64(r.H)/2
}

// Overlaps reports whether the two rectangles intersect, counting a
// shared edge or corner (zero-area contact) as overlap.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.Right() < o.X || o.Right() < r.X || r.Bottom() < o.Y || o.Bottom() < r.Y)
}

// OverlapsStrict reports whether the two rectangles share positive
// intersection area. Edge-touching rectangles do not overlap strictly.
func (r Rect) OverlapsStrict(o Rect) bool {
	return r.Right() > o.X && o.Right() > r.X && r.Bottom() > o.Y && o.Bottom() > r.Y
}

// Union returns the minimal rectangle enclosing both inputs.
func (r Rect) Union(o Rect) Rect {
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.Right(), o.Right())
	y2 := max(r.Bottom(), o.Bottom())
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Expand grows the rectangle by pad on all sides. The top-left corner
// is clipped to non-negative coordinates; the far edges are not moved
// back, so the expanded rect always contains the original.
func (r Rect) Expand(pad int) Rect {
	x1 := max(r.X-pad, 0)
	y1 := max(r.Y-pad, 0)
	x2 := r.Right() + pad
	y2 := r.Bottom() + pad
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Contains reports whether o lies entirely within r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// CenterDistance returns the Euclidean distance between the centroids
// of the two rectangles, in pixels.
func CenterDistance(a, b Rect) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	dx := ax - bx
	dy := ay - by
	return math.Sqrt(dx*dx + dy*dy)
}

// IOU returns the intersection-over-union ratio of the two rectangles,
// in [0, 1]. Non-overlapping rectangles score 0.
func IOU(a, b Rect) float64 {
	ix1 := max(a.X, b.X)
	iy1 := max(a.Y, b.Y)
	ix2 := min(a.Right(), b.Right())
	iy2 := min(a.Bottom(), b.Bottom())
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := (ix2 - ix1) * (iy2 - iy1)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
