package sprite

import "image"

// Mask is a per-frame opacity bitmap.
type Mask struct {
	w, h int
	bits []uint64
}

func NewMask(w, h int) *Mask {
	return &Mask{
		w:    w,
		h:    h,
		bits: make([]uint64, (w*h+63)/64),
	}
}

func (m *Mask) Width() int  { return m.w }
func (m *Mask) Height() int { return m.h }

func (m *Mask) Set(x, y int, opaque bool) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	i := y*m.w + x
	if opaque {
		m.bits[i/64] |= 1 << (i % 64)
	} else {
		m.bits[i/64] &^= 1 << (i % 64)
	}
}

func (m *Mask) Opaque(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	i := y*m.w + x
	return m.bits[i/64]&(1<<(i%64)) != 0
}

// Count returns the number of opaque pixels.
func (m *Mask) Count() int {
	n := 0
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if m.Opaque(x, y) {
				n++
			}
		}
	}
	return n
}

// SolidMask is fully opaque.
func SolidMask(w, h int) *Mask {
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// EllipseMask approximates a round sprite inscribed in its frame.
func EllipseMask(w, h int) *Mask {
	m := NewMask(w, h)
	rx, ry := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (float64(x) + 0.5 - rx) / rx
			dy := (float64(y) + 0.5 - ry) / ry
			if dx*dx+dy*dy <= 1 {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

// MaskFromImage builds the mask of one frame of a horizontal sprite strip.
// Any pixel with non-zero alpha counts as opaque.
func MaskFromImage(img image.Image, frame, frameWidth int) *Mask {
	b := img.Bounds()
	m := NewMask(frameWidth, b.Dy())
	x0 := b.Min.X + frame*frameWidth
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < frameWidth; x++ {
			_, _, _, a := img.At(x0+x, b.Min.Y+y).RGBA()
			if a > 0 {
				m.Set(x, y, true)
			}
		}
	}
	return m
}
