package game

import (
	"github.com/nezek6/Wizardry/pkg/sprite"
	"github.com/nezek6/Wizardry/pkg/terrain"
)

const PickupCrystal = 0

// PickupDetails is the static data and behaviour of one pickup kind.
type PickupDetails struct {
	Name        string
	RespawnTime float64
	Frame       *sprite.Frame

	Spawn func(g *GameState, p *Pickup)
	Hit   func(g *GameState, p *Pickup, target *Character)
}

var pickups = []PickupDetails{
	PickupCrystal: {
		Name:        "Crystal",
		RespawnTime: 30,
		Frame:       sprite.NewFrame(32, 48, 0.3, sprite.EllipseMask),
		Spawn:       spawnCrystal,
		Hit:         collectCrystal,
	},
}

func PickupByID(id int) (PickupDetails, bool) {
	if id < 0 || id >= len(pickups) {
		return PickupDetails{}, false
	}
	return pickups[id], true
}

// spawnCrystal picks a random ground position the first time and reuses it
// on every later respawn.
func spawnCrystal(g *GameState, p *Pickup) {
	if !p.hasFixed {
		x, y := terrain.RandomGroundPosition(g.Terrain(), g.Rand())
		p.fixed = V(x, y)
		p.hasFixed = true
	}
	p.Pos = p.fixed
}

func collectCrystal(_ *GameState, p *Pickup, target *Character) {
	target.CrystalCount++
	p.Status = PickupRespawning
	p.respawnTimer = p.respawnTime
}
