package game

import (
	"time"

	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/sprite"
)

type PickupStatus uint8

const (
	PickupSpawned PickupStatus = iota
	PickupRespawning
)

// Pickup is one slot of the pickup pool.
type Pickup struct {
	g *GameState

	Active bool
	ID     int
	Pos    Vec2
	Status PickupStatus

	respawnTime  float64
	respawnTimer float64
	fixed        Vec2
	hasFixed     bool
	frame        *sprite.Frame
}

func newPickup(g *GameState) *Pickup {
	p := &Pickup{g: g}
	p.Deactivate()
	return p
}

// Initialize activates the slot as a pickup of kind id waiting to spawn.
func (p *Pickup) Initialize(id int) {
	p.Active = true
	p.setID(id)
	p.Status = PickupRespawning
	p.respawnTimer = 0
	p.hasFixed = false
}

func (p *Pickup) setID(id int) {
	p.ID = id
	d, ok := PickupByID(id)
	if !ok {
		p.frame = nil
		return
	}
	p.respawnTime = d.RespawnTime
	p.frame = d.Frame
}

func (p *Pickup) Deactivate() {
	p.Active = false
	p.ID = NoID
	p.frame = nil
}

func (p *Pickup) IsActive() bool { return p.Active }

// Update counts down the respawn timer and respawns the pickup when it ends.
func (p *Pickup) Update(dt time.Duration) {
	if !p.Active || p.Status != PickupRespawning {
		return
	}
	if p.respawnTimer <= 0 {
		p.respawnTimer = 0
		if d, ok := PickupByID(p.ID); ok && d.Spawn != nil {
			d.Spawn(p.g, p)
		}
		p.Status = PickupSpawned
		return
	}
	p.respawnTimer -= dt.Seconds()
}

// Hit applies the pickup to target.
func (p *Pickup) Hit(target *Character) {
	if p.Status == PickupRespawning {
		return
	}
	if d, ok := PickupByID(p.ID); ok && d.Hit != nil {
		d.Hit(p.g, p, target)
	}
}

func (p *Pickup) Placement() sprite.Placement {
	return sprite.Placement{
		Frame:  p.frame,
		X:      p.Pos.X,
		Y:      p.Pos.Y,
		Anchor: sprite.AnchorCenter,
	}
}

func (p *Pickup) BoundingBox() sprite.Rect {
	return p.Placement().Bounds()
}

func (p *Pickup) WriteToPacket(w *protocol.Writer) {
	w.WriteInt32(int32(p.ID))
	writeVec(w, p.Pos)
	w.WriteUint8(uint8(p.Status))
}

func (p *Pickup) UpdateFromPacket(r *protocol.Reader) error {
	id := int(r.ReadInt32())
	pos := readVec(r)
	status := PickupStatus(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}

	p.Active = true
	if id != p.ID {
		p.setID(id)
	}
	p.Pos = pos
	p.Status = status
	return nil
}
