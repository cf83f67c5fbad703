// Package sprite holds the collision geometry of animated game objects:
// frame sizes, opacity masks and the box-then-pixel overlap test.
package sprite

// Rect is an integer world-space rectangle.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Intersects reports whether r and o overlap. Empty rectangles never do.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return o.X < r.X+r.W && r.X < o.X+o.W &&
		o.Y < r.Y+r.H && r.Y < o.Y+o.H
}
