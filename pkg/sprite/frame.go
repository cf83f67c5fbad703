package sprite

// Anchor says where a sprite's world position sits inside its frame.
type Anchor uint8

const (
	AnchorCenter Anchor = iota
	AnchorBottom
)

// Frame is the collision shape of one animation frame.
type Frame struct {
	Width, Height int
	Scale         float32
	Mask          *Mask
}

// NewFrame builds a frame whose mask comes from shape.
func NewFrame(w, h int, scale float32, shape func(w, h int) *Mask) *Frame {
	return &Frame{
		Width:  w,
		Height: h,
		Scale:  scale,
		Mask:   shape(w, h),
	}
}

func (f *Frame) ScaledWidth() float32  { return float32(f.Width) * f.Scale }
func (f *Frame) ScaledHeight() float32 { return float32(f.Height) * f.Scale }

// Placement is a frame positioned in the world.
type Placement struct {
	Frame    *Frame
	X, Y     float32
	Rotation float32
	Anchor   Anchor
}

// Bounds returns the scaled, unrotated bounding box.
func (p Placement) Bounds() Rect {
	if p.Frame == nil {
		return Rect{}
	}
	w := int(p.Frame.ScaledWidth())
	h := int(p.Frame.ScaledHeight())

	r := Rect{W: w, H: h}
	r.X = int(p.X - float32(w/2))
	if p.Anchor == AnchorBottom {
		r.Y = int(p.Y - float32(h))
	} else {
		r.Y = int(p.Y - float32(h/2))
	}
	return r
}

func (p Placement) origin() (float64, float64) {
	ox := float64(p.Frame.Width) / 2
	oy := float64(p.Frame.Height) / 2
	if p.Anchor == AnchorBottom {
		oy = float64(p.Frame.Height)
	}
	return ox, oy
}
