package sprite

import (
	"image"
	"image/color"
	"testing"
)

// Test rectangle overlap including edges and empty rects
func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}

	if !a.Intersects(Rect{X: 5, Y: 5, W: 10, H: 10}) {
		t.Error("overlapping rects should intersect")
	}
	if a.Intersects(Rect{X: 10, Y: 0, W: 5, H: 5}) {
		t.Error("touching edges should not intersect")
	}
	if a.Intersects(Rect{X: 5, Y: 5, W: 0, H: 3}) {
		t.Error("empty rect should never intersect")
	}
}

// Test box anchoring for bottom and center anchors
func TestPlacementBounds(t *testing.T) {
	f := NewFrame(32, 48, 2, SolidMask)

	bottom := Placement{Frame: f, X: 100, Y: 200, Anchor: AnchorBottom}.Bounds()
	if bottom != (Rect{X: 68, Y: 104, W: 64, H: 96}) {
		t.Errorf("bottom anchored bounds = %+v", bottom)
	}

	center := Placement{Frame: f, X: 100, Y: 200, Anchor: AnchorCenter}.Bounds()
	if center != (Rect{X: 68, Y: 152, W: 64, H: 96}) {
		t.Errorf("center anchored bounds = %+v", center)
	}
}

// Test that boxes can overlap while the masks do not
func TestCollidePixelPerfect(t *testing.T) {
	f := NewFrame(20, 20, 1, EllipseMask)

	// corners of the two boxes overlap, the circles do not
	a := Placement{Frame: f, X: 0, Y: 0}
	b := Placement{Frame: f, X: 17, Y: 17}

	if !Collide(a, b, false) {
		t.Fatal("box test should report overlap")
	}
	if Collide(a, b, true) {
		t.Fatal("pixel test should reject corner overlap")
	}

	c := Placement{Frame: f, X: 10, Y: 0}
	if !Collide(a, c, true) {
		t.Fatal("pixel test should accept center overlap")
	}
}

// Test that zero scale frames never collide
func TestCollideZeroScale(t *testing.T) {
	hidden := NewFrame(64, 64, 0, SolidMask)
	f := NewFrame(10, 10, 1, SolidMask)

	if Collide(Placement{Frame: hidden}, Placement{Frame: f}, true) {
		t.Fatal("invisible frame collided")
	}
}

// Test mask extraction from the alpha channel of a sprite strip
func TestMaskFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	img.Set(5, 2, color.NRGBA{A: 255})

	m := MaskFromImage(img, 1, 4)
	if m.Width() != 4 || m.Height() != 4 {
		t.Fatalf("mask size %dx%d", m.Width(), m.Height())
	}
	if !m.Opaque(1, 2) {
		t.Error("pixel (1,2) of frame 1 should be opaque")
	}
	if m.Count() != 1 {
		t.Errorf("opaque count = %d, want 1", m.Count())
	}
}
