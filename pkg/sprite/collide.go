package sprite

import "math"

// Collide tests two placements for overlap. The bounding boxes are checked
// first; only when they intersect and pixelPerfect is set are the opacity
// masks compared.
func Collide(a, b Placement, pixelPerfect bool) bool {
	if !a.Bounds().Intersects(b.Bounds()) {
		return false
	}
	if !pixelPerfect {
		return true
	}
	return masksOverlap(a, b)
}

// masksOverlap walks every opaque pixel of a, maps it into b's frame space
// and checks b's mask there.
func masksOverlap(a, b Placement) bool {
	ma, mb := a.Frame.Mask, b.Frame.Mask
	if ma == nil || mb == nil {
		return true
	}
	if a.Frame.Scale == 0 || b.Frame.Scale == 0 {
		return false
	}

	aox, aoy := a.origin()
	box, boy := b.origin()

	sinA, cosA := math.Sincos(float64(a.Rotation))
	sinB, cosB := math.Sincos(float64(-b.Rotation))
	sa, sb := float64(a.Frame.Scale), float64(b.Frame.Scale)

	for y := 0; y < ma.Height(); y++ {
		for x := 0; x < ma.Width(); x++ {
			if !ma.Opaque(x, y) {
				continue
			}

			// a local -> world
			lx, ly := float64(x)-aox, float64(y)-aoy
			rx := lx*cosA - ly*sinA
			ry := lx*sinA + ly*cosA
			wx := rx*sa + float64(a.X)
			wy := ry*sa + float64(a.Y)

			// world -> b local
			dx := (wx - float64(b.X)) / sb
			dy := (wy - float64(b.Y)) / sb
			bx := int(dx*cosB - dy*sinB + box)
			by := int(dx*sinB + dy*cosB + boy)

			if mb.Opaque(bx, by) {
				return true
			}
		}
	}
	return false
}
