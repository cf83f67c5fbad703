package game

import "github.com/nezek6/Wizardry/pkg/sprite"

const (
	RoleFireWizard = iota
	RolePriest
	RoleWindLasher
	RoleBeastMistress
)

// RoleDetails is the static data of a playable class.
type RoleDetails struct {
	Name      string
	Spells    [3]int
	MaxHealth float32
	Speed     int32
	Frame     *sprite.Frame
}

var characterFrame = sprite.NewFrame(32, 48, 2, sprite.EllipseMask)

var roles = []RoleDetails{
	RoleFireWizard: {
		Name:      "Fire Wizard",
		Spells:    [3]int{SpellFireball, SpellExplosionField, SpellFireShift},
		MaxHealth: 100,
		Speed:     4,
		Frame:     characterFrame,
	},
	RolePriest: {
		Name:      "Priest",
		Spells:    [3]int{SpellHolyBolt, SpellHolyNova, SpellHolyShield},
		MaxHealth: 100,
		Speed:     4,
		Frame:     characterFrame,
	},
	RoleWindLasher: {
		Name:      "Wind Lasher",
		Spells:    [3]int{SpellWindLash, SpellNinjaStorm, SpellWindSpin},
		MaxHealth: 100,
		Speed:     4,
		Frame:     characterFrame,
	},
	RoleBeastMistress: {
		Name:      "Beast Mistress",
		Spells:    [3]int{SpellClaw, SpellStampede, SpellClawLeap},
		MaxHealth: 100,
		Speed:     4,
		Frame:     characterFrame,
	},
}

// RoleCount is the number of playable classes.
func RoleCount() int { return len(roles) }

func RoleByID(id int) (RoleDetails, bool) {
	if id < 0 || id >= len(roles) {
		return RoleDetails{}, false
	}
	return roles[id], true
}
