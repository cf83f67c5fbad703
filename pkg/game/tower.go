package game

import (
	"math"
	"time"

	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/sprite"
)

const (
	UpgradeCost          = 5
	upgradeStep  float32 = 0.05
	firstUpgrade         = 250
)

// Tower holds the shared upgrade progress of one team. Each kind has a
// modifier, a pool of invested crystals and the pool size of the next level.
type Tower struct {
	g    *GameState
	team Team

	Modifiers [3]float32
	Pools     [3]int32
	Next      [3]int32
}

func newTower(g *GameState, team Team) *Tower {
	t := &Tower{g: g, team: team}
	for i := range t.Modifiers {
		t.Modifiers[i] = 1
		t.Next[i] = firstUpgrade
	}
	return t
}

func (t *Tower) Team() Team { return t.team }

func (t *Tower) IsActive() bool           { return true }
func (t *Tower) Update(time.Duration)     {}
func (t *Tower) BoundingBox() sprite.Rect { return sprite.Rect{} }

// Upgrade spends UpgradeCost crystals of buyer on kind. It reports false
// when the buyer cannot pay or kind is unknown.
func (t *Tower) Upgrade(kind protocol.UpgradeKind, buyer *Character) bool {
	k := int(kind)
	if k < 0 || k >= len(t.Pools) || buyer == nil {
		return false
	}
	if buyer.CrystalCount < UpgradeCost {
		return false
	}
	buyer.CrystalCount -= UpgradeCost
	t.Pools[k] += UpgradeCost

	if t.Pools[k] < t.Next[k] {
		return true
	}
	t.Modifiers[k] += upgradeStep
	t.Next[k] += t.Next[k] * 2

	if t.g == nil {
		return true
	}
	for _, c := range t.g.Characters {
		if c.Active && c.Team == t.team {
			t.apply(kind, c)
		}
	}
	return true
}

func (t *Tower) apply(kind protocol.UpgradeKind, c *Character) {
	mod := t.Modifiers[kind]
	switch kind {
	case protocol.UpgradeHealth:
		c.HealthModifier = mod
		c.maxHealth *= mod
		c.health += 5
	case protocol.UpgradeFocus:
		c.FocusGenRate *= mod
	case protocol.UpgradeDamage:
		c.DamageModifier = mod
	}
}

// Equip hands a freshly initialized character of the team every upgrade
// level bought so far, as if it had been present for each one.
func (t *Tower) Equip(c *Character) {
	c.HealthModifier = t.Modifiers[protocol.UpgradeHealth]
	c.maxHealth *= t.compound(protocol.UpgradeHealth)
	c.health = c.maxHealth
	c.FocusGenRate *= t.compound(protocol.UpgradeFocus)
	c.DamageModifier = t.Modifiers[protocol.UpgradeDamage]
}

// compound is the product of every level modifier reached for kind.
func (t *Tower) compound(kind protocol.UpgradeKind) float32 {
	levels := int(math.Round(float64((t.Modifiers[kind] - 1) / upgradeStep)))
	f := float32(1)
	for i := 1; i <= levels; i++ {
		f *= 1 + upgradeStep*float32(i)
	}
	return f
}

func (t *Tower) WriteToPacket(w *protocol.Writer) {
	for _, m := range t.Modifiers {
		w.WriteFloat32(m)
	}
	for _, p := range t.Pools {
		w.WriteInt32(p)
	}
	for _, n := range t.Next {
		w.WriteInt32(n)
	}
}

func (t *Tower) UpdateFromPacket(r *protocol.Reader) error {
	var mods [3]float32
	var pools, next [3]int32
	for i := range mods {
		mods[i] = r.ReadFloat32()
	}
	for i := range pools {
		pools[i] = r.ReadInt32()
	}
	for i := range next {
		next[i] = r.ReadInt32()
	}
	if err := r.Err(); err != nil {
		return err
	}
	t.Modifiers, t.Pools, t.Next = mods, pools, next
	return nil
}
