package game

import (
	"time"

	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/sprite"
)

// NoCaster is the caster index of a spell nobody owns.
const NoCaster = -1

// Spell is one slot of the spell pool.
type Spell struct {
	g *GameState

	Active   bool
	ID       int
	Pos      Vec2
	Rotation float32

	Start  Vec2
	Click  Vec2
	Dir    Vec2
	Caster int

	Distance    float32
	MaxDistance float64
	Cooldown    float64
	Speed       int

	clickDistance float32
	tickTracker   float64
	userData      float32
	height        int
	frame         *sprite.Frame
}

func newSpell(g *GameState) *Spell {
	s := &Spell{g: g}
	s.Deactivate()
	return s
}

// Initialize loads the static details of id and places the spell at its start point.
func (s *Spell) Initialize(id int) {
	s.Active = true
	s.setID(id)
	s.Pos = s.Start
	s.Distance = 0
	s.tickTracker = 0
	s.userData = 0
	if s.g != nil {
		s.height = s.g.Terrain().HeightAt(s.Pos.X, s.Pos.Y)
	}
}

func (s *Spell) setID(id int) {
	s.ID = id
	d, ok := SpellByID(id)
	if !ok {
		s.frame = nil
		return
	}
	s.MaxDistance = d.MaxDistance
	s.Cooldown = d.Cooldown
	s.Speed = d.Speed
	s.frame = d.Frame
}

// SetClick records the target point and its distance from the start.
func (s *Spell) SetClick(p Vec2) {
	s.Click = p
	s.clickDistance = p.Sub(s.Start).Len()
}

// Deactivate returns the slot to the pool.
func (s *Spell) Deactivate() {
	s.Active = false
	s.ID = NoID
	s.Caster = NoCaster
	s.frame = nil
}

func (s *Spell) IsActive() bool { return s.Active }

// Update runs the spell behaviour until its distance budget is spent.
func (s *Spell) Update(dt time.Duration) {
	if !s.Active {
		return
	}
	if float64(s.Distance) >= s.MaxDistance {
		s.Deactivate()
		return
	}
	d, ok := SpellByID(s.ID)
	if !ok {
		s.Deactivate()
		return
	}
	if d.Update != nil {
		d.Update(s.g, s, dt)
	}
	if s.Active {
		s.height = s.g.Terrain().HeightAt(s.Pos.X, s.Pos.Y)
	}
}

// Hit applies the spell effect to target.
func (s *Spell) Hit(target *Character, dt time.Duration) {
	d, ok := SpellByID(s.ID)
	if !ok || d.Hit == nil {
		return
	}
	d.Hit(s.g, s, target, dt)
}

// CasterCharacter resolves the caster index, or nil when it is gone.
func (s *Spell) CasterCharacter() *Character {
	if s.g == nil {
		return nil
	}
	c := s.g.Character(s.Caster)
	if c == nil || !c.Active {
		return nil
	}
	return c
}

func (s *Spell) Frame() *sprite.Frame { return s.frame }

func (s *Spell) Placement() sprite.Placement {
	return sprite.Placement{
		Frame:    s.frame,
		X:        s.Pos.X,
		Y:        s.Pos.Y,
		Rotation: s.Rotation,
		Anchor:   sprite.AnchorCenter,
	}
}

func (s *Spell) BoundingBox() sprite.Rect {
	return s.Placement().Bounds()
}

func (s *Spell) WriteToPacket(w *protocol.Writer) {
	w.WriteInt32(int32(s.ID))
	writeVec(w, s.Pos)
	w.WriteFloat32(s.Rotation)
}

func (s *Spell) UpdateFromPacket(r *protocol.Reader) error {
	id := int(r.ReadInt32())
	pos := readVec(r)
	rot := r.ReadFloat32()
	if err := r.Err(); err != nil {
		return err
	}

	s.Active = true
	if id != s.ID {
		s.setID(id)
	}
	s.Pos = pos
	s.Rotation = rot
	return nil
}
