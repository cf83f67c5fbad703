package game

import (
	"time"

	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/sprite"
)

const (
	MaxFocus            float32 = 100
	DefaultFocusGenRate float32 = 0.015
	DefaultSpeed        int32   = 4
)

// Character is one player slot in a lobby.
type Character struct {
	g *GameState

	Active bool
	RoleID int
	Pos    Vec2
	Anim   int32
	Status Status
	Speed  int32
	Team   Team
	Name   string

	CrystalCount int32

	// PositionOverride and FocusOverride tell the owning client to accept
	// the server value. Both are cleared once written to a packet.
	PositionOverride bool
	FocusOverride    bool

	HealthModifier float32
	FocusModifier  float32
	DamageModifier float32
	FocusGenRate   float32

	Spells    [3]int
	Cooldowns [3]float64

	health    float32
	maxHealth float32
	focus     float32
	frame     *sprite.Frame
}

func newCharacter(g *GameState) *Character {
	c := &Character{g: g}
	c.Deactivate()
	return c
}

// Initialize activates the slot as a fresh character of the given role.
func (c *Character) Initialize(role int, pos Vec2) {
	c.Active = true
	c.HealthModifier = 1
	c.FocusModifier = 1
	c.DamageModifier = 1
	c.FocusGenRate = DefaultFocusGenRate
	c.RoleID = NoID
	c.SetRole(role)
	c.Pos = pos
	c.Status = StatusNormal
	c.Speed = DefaultSpeed
	c.Anim = 0
	c.CrystalCount = 0
	c.health = c.maxHealth
	c.focus = 0
	c.Cooldowns = [3]float64{}
}

// Deactivate frees the slot.
func (c *Character) Deactivate() {
	c.Active = false
	c.RoleID = NoID
	c.Name = ""
	c.PositionOverride = false
	c.FocusOverride = false
	c.frame = nil
}

// SetRole switches class. Max health and spells are reloaded only when the
// role actually changes.
func (c *Character) SetRole(id int) {
	if id == c.RoleID {
		return
	}
	c.RoleID = id
	r, ok := RoleByID(id)
	if !ok {
		c.frame = nil
		return
	}
	c.Spells = r.Spells
	c.maxHealth = r.MaxHealth * c.healthModifier()
	c.frame = r.Frame
	if c.health > c.maxHealth {
		c.health = c.maxHealth
	}
}

func (c *Character) healthModifier() float32 {
	if c.HealthModifier == 0 {
		return 1
	}
	return c.HealthModifier
}

func (c *Character) IsActive() bool { return c.Active }

func (c *Character) Health() float32    { return c.health }
func (c *Character) MaxHealth() float32 { return c.maxHealth }
func (c *Character) Focus() float32     { return c.focus }

// SetHealth clamps to the maximum health. There is no lower clamp; death is
// detected by the simulation.
func (c *Character) SetHealth(v float32) {
	if v > c.maxHealth {
		v = c.maxHealth
	}
	c.health = v
}

func (c *Character) SetMaxHealth(v float32) {
	c.maxHealth = v
}

func (c *Character) SetFocus(v float32) {
	if v > MaxFocus {
		v = MaxFocus
	}
	c.focus = v
}

func (c *Character) Frame() *sprite.Frame { return c.frame }

// Update regenerates focus and counts down spell cooldowns. Only the owning
// client runs it; the server takes focus from character updates.
func (c *Character) Update(dt time.Duration) {
	if !c.Active || c.Status == StatusDead {
		return
	}
	s := float32(dt.Seconds())
	c.SetFocus(c.focus + c.FocusGenRate*s*60*c.FocusModifier)
	for i := range c.Cooldowns {
		c.Cooldowns[i] -= dt.Seconds()
		if c.Cooldowns[i] < 0 {
			c.Cooldowns[i] = 0
		}
	}
}

// Placement positions the character frame anchored at its feet.
func (c *Character) Placement() sprite.Placement {
	return sprite.Placement{
		Frame:  c.frame,
		X:      c.Pos.X,
		Y:      c.Pos.Y,
		Anchor: sprite.AnchorBottom,
	}
}

func (c *Character) BoundingBox() sprite.Rect {
	return c.Placement().Bounds()
}

func (c *Character) WriteToPacket(w *protocol.Writer) {
	w.WriteInt32(int32(c.RoleID))
	writeVec(w, c.Pos)
	w.WriteBool(c.PositionOverride)
	c.PositionOverride = false
	w.WriteInt32(c.Anim)
	w.WriteUint8(uint8(c.Status))
	w.WriteFloat32(c.health)
	w.WriteFloat32(c.focus)
	w.WriteBool(c.FocusOverride)
	c.FocusOverride = false
	w.WriteInt32(c.Speed)
	w.WriteUint8(uint8(c.Team))
	w.WriteString(c.Name)
	w.WriteInt32(c.CrystalCount)
}

func (c *Character) UpdateFromPacket(r *protocol.Reader) error {
	role := int(r.ReadInt32())
	pos := readVec(r)
	posOverride := r.ReadBool()
	anim := r.ReadInt32()
	status := Status(r.ReadUint8())
	health := r.ReadFloat32()
	focus := r.ReadFloat32()
	focusOverride := r.ReadBool()
	speed := r.ReadInt32()
	team := Team(r.ReadUint8())
	name := r.ReadString()
	crystals := r.ReadInt32()
	if err := r.Err(); err != nil {
		return err
	}

	c.Active = true
	c.SetRole(role)
	c.Pos = pos
	c.PositionOverride = posOverride
	c.Anim = anim
	c.Status = status
	c.health = health
	c.focus = focus
	c.FocusOverride = focusOverride
	c.Speed = speed
	c.Team = team
	c.Name = name
	c.CrystalCount = crystals
	return nil
}
