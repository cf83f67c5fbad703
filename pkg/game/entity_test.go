package game

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/terrain"
)

// Test health clamps at the maximum but not at zero
func TestCharacterHealthClamp(t *testing.T) {
	c := newCharacter(nil)
	c.Initialize(RoleFireWizard, V(0, 0))

	c.SetHealth(500)
	if c.Health() != c.MaxHealth() {
		t.Errorf("health = %v, want %v", c.Health(), c.MaxHealth())
	}
	c.SetHealth(-20)
	if c.Health() != -20 {
		t.Errorf("health = %v, want -20", c.Health())
	}
	c.SetFocus(1000)
	if c.Focus() != MaxFocus {
		t.Errorf("focus = %v, want %v", c.Focus(), MaxFocus)
	}
}

// Test a role change reloads spells
func TestCharacterSetRole(t *testing.T) {
	c := newCharacter(nil)
	c.Initialize(RoleFireWizard, V(0, 0))
	c.SetRole(RoleBeastMistress)

	if c.Spells != [3]int{SpellClaw, SpellStampede, SpellClawLeap} {
		t.Errorf("spells = %v", c.Spells)
	}
	if c.Frame() == nil {
		t.Error("frame should be set")
	}
}

// Test focus regenerates at the configured rate
func TestCharacterFocusRegen(t *testing.T) {
	c := newCharacter(nil)
	c.Initialize(RolePriest, V(0, 0))
	c.Cooldowns[0] = 0.5

	c.Update(time.Second)
	if !near(c.Focus(), 0.9) {
		t.Errorf("focus = %v, want 0.9", c.Focus())
	}
	if c.Cooldowns[0] != 0 {
		t.Errorf("cooldown = %v, want 0", c.Cooldowns[0])
	}
}

func duel(t *testing.T) (*GameState, *Character, *Character) {
	t.Helper()
	g := newTestState(2, 50, 1)
	a := g.Characters[0]
	a.Initialize(RoleFireWizard, V(300, 300))
	a.Team = Red
	b := g.Characters[1]
	b.Initialize(RolePriest, V(600, 300))
	b.Team = Blue
	return g, a, b
}

// Test a fireball only hurts enemies and is consumed by the hit
func TestFireballHit(t *testing.T) {
	g, a, b := duel(t)
	ally := g.Characters[1]
	ally.Team = Red

	s := g.Cast(SpellFireball, a.Pos, b.Pos, V(1, 0), 0, 0)
	s.Hit(ally, time.Millisecond)
	if !s.Active || ally.Health() != 100 {
		t.Fatal("fireball should ignore allies")
	}

	ally.Team = Blue
	s.Hit(b, time.Millisecond)
	if s.Active {
		t.Error("fireball should be consumed")
	}
	if b.Health() != 90 {
		t.Errorf("health = %v, want 90", b.Health())
	}
}

// Test damage scales with the caster's damage modifier
func TestDamageModifier(t *testing.T) {
	g, a, b := duel(t)
	a.DamageModifier = 2

	s := g.Cast(SpellWindLash, a.Pos, b.Pos, V(1, 0), 0, 0)
	s.Hit(b, time.Millisecond)
	if b.Health() != 90 {
		t.Errorf("health = %v, want 90", b.Health())
	}
}

// Test holy bolts heal allies and hurt enemies
func TestHolyBoltHit(t *testing.T) {
	g, a, b := duel(t)
	ally := g.Characters[0]
	ally.SetHealth(50)

	heal := g.Cast(SpellHolyBolt, b.Pos, a.Pos, V(-1, 0), 0, 1)
	ally.Team = Blue
	heal.Hit(ally, time.Millisecond)
	if ally.Health() != 53 {
		t.Errorf("ally health = %v, want 53", ally.Health())
	}

	ally.Team = Red
	hurt := g.Cast(SpellHolyBolt, b.Pos, a.Pos, V(-1, 0), 0, 1)
	hurt.Hit(ally, time.Millisecond)
	if ally.Health() != 50 {
		t.Errorf("enemy health = %v, want 50", ally.Health())
	}
}

// Test projectiles travel and stop at raised terrain
func TestProjectileStopsAtWall(t *testing.T) {
	m, err := terrain.ParseHeightMap([]byte(`{"tile_width":100,"tile_height":100,"cols":3,"rows":1,"heights":[0,0,9]}`))
	if err != nil {
		t.Fatal(err)
	}
	g := NewGameState(Sizes{Characters: 1, Spells: 4, Pickups: 1}, m, rand.New(rand.NewPCG(1, 1)))
	g.Characters[0].Initialize(RoleFireWizard, V(10, 50))

	s := g.Cast(SpellFireball, V(10, 50), V(290, 50), V(1, 0), 0, 0)
	s.Update(time.Millisecond)
	if s.Pos != V(15, 50) {
		t.Fatalf("pos = %v, want {15, 50}", s.Pos)
	}

	for range 100 {
		s.Update(time.Millisecond)
		if !s.Active {
			break
		}
	}
	if s.Active {
		t.Fatal("fireball should stop at the wall")
	}
}

// Test spells expire once their distance budget is spent
func TestSpellExpires(t *testing.T) {
	g, a, _ := duel(t)
	s := g.Cast(SpellExplosion, a.Pos, a.Pos, V(0, 0), 0, 0)

	for range 3 {
		s.Update(100 * time.Millisecond)
	}
	if !s.Active {
		t.Fatal("explosion ended early")
	}
	s.Update(100 * time.Millisecond)
	s.Update(100 * time.Millisecond)
	if s.Active {
		t.Fatal("explosion should end after 360ms")
	}
}

// Test the respawner revives its caster after the delay
func TestRespawner(t *testing.T) {
	g, a, _ := duel(t)
	a.SetHealth(-5)
	a.Status = StatusDead
	a.CrystalCount = 4
	a.SetFocus(30)
	death := a.Pos
	a.Pos = V(0, 0)

	s := g.Cast(SpellRespawner, death, V(0, 0), V(0, 0), 0, 0)
	for range 49 {
		s.Update(100 * time.Millisecond)
	}
	if a.Status != StatusDead {
		t.Fatal("revived too early")
	}

	s.Update(100 * time.Millisecond)
	if a.Status != StatusNormal || a.Health() != a.MaxHealth() {
		t.Fatalf("status %v health %v", a.Status, a.Health())
	}
	if a.Pos != death || !a.PositionOverride {
		t.Errorf("pos = %v override %v", a.Pos, a.PositionOverride)
	}
	if a.Focus() != 0 || !a.FocusOverride || a.CrystalCount != 0 {
		t.Errorf("focus %v override %v crystals %d", a.Focus(), a.FocusOverride, a.CrystalCount)
	}
	if s.Active {
		t.Error("respawner should be consumed")
	}
}

// Test a dash carries its caster and ends at the click point
func TestDashMovesCaster(t *testing.T) {
	g, a, _ := duel(t)
	a.SetRole(RoleBeastMistress)

	s := g.Cast(SpellClawLeap, a.Pos, a.Pos.Add(V(100, 0)), V(1, 0), 0, 0)
	s.Update(time.Millisecond)
	if a.Status != StatusOffscreen || a.Pos != V(310, 300) {
		t.Fatalf("status %v pos %v", a.Status, a.Pos)
	}

	for range 50 {
		s.Update(time.Millisecond)
		if !s.Active {
			break
		}
	}
	if s.Active {
		t.Fatal("dash should end")
	}
	if a.Status != StatusNormal {
		t.Errorf("status = %v, want normal", a.Status)
	}
	if a.Pos.X < 390 || a.Pos.X > 410 {
		t.Errorf("pos = %v, want near x=400", a.Pos)
	}
}

// Test holy shield pins health while active
func TestHolyShield(t *testing.T) {
	g, _, b := duel(t)
	b.SetHealth(50)

	s := g.Cast(SpellHolyShield, b.Pos, b.Pos, V(0, 0), 0, 1)
	s.Update(100 * time.Millisecond)
	if b.Health() != 60 || b.Speed != 7 {
		t.Fatalf("health %v speed %d", b.Health(), b.Speed)
	}

	b.SetHealth(10)
	s.Update(100 * time.Millisecond)
	if b.Health() != 60 {
		t.Errorf("health = %v, want 60", b.Health())
	}

	for range 40 {
		s.Update(100 * time.Millisecond)
	}
	if b.Speed != DefaultSpeed {
		t.Errorf("speed = %d, want %d", b.Speed, DefaultSpeed)
	}
}

// Test crystals spawn on ground, get collected and come back after the timer
func TestCrystalLifecycle(t *testing.T) {
	g, a, _ := duel(t)
	p := g.SpawnPickup(0, PickupCrystal)

	p.Update(time.Millisecond)
	if p.Status != PickupSpawned {
		t.Fatal("crystal should spawn on the first update")
	}
	if g.Terrain().HeightAt(p.Pos.X, p.Pos.Y) != 0 {
		t.Errorf("crystal spawned off ground at %v", p.Pos)
	}
	spot := p.Pos

	p.Hit(a)
	p.Hit(a)
	if a.CrystalCount != 1 {
		t.Fatalf("crystals = %d, want 1", a.CrystalCount)
	}
	if p.Status != PickupRespawning {
		t.Fatal("collected crystal should be respawning")
	}

	p.Update(29 * time.Second)
	p.Update(time.Millisecond)
	if p.Status != PickupRespawning {
		t.Fatal("crystal came back too early")
	}
	p.Update(time.Second)
	p.Update(time.Millisecond)
	if p.Status != PickupSpawned || p.Pos != spot {
		t.Fatalf("status %v pos %v, want spawned at %v", p.Status, p.Pos, spot)
	}
}

// Test tower upgrades charge crystals and level up the whole team
func TestTowerUpgrade(t *testing.T) {
	g, a, b := duel(t)
	tower := g.Tower(Red)

	if tower.Upgrade(protocol.UpgradeHealth, a) {
		t.Fatal("upgrade without crystals should fail")
	}

	a.CrystalCount = 6
	tower.Pools[protocol.UpgradeHealth] = 245
	if !tower.Upgrade(protocol.UpgradeHealth, a) {
		t.Fatal("upgrade failed")
	}
	if a.CrystalCount != 1 {
		t.Errorf("crystals = %d, want 1", a.CrystalCount)
	}
	if !near(tower.Modifiers[protocol.UpgradeHealth], 1.05) || tower.Next[protocol.UpgradeHealth] != 750 {
		t.Errorf("modifier %v next %d", tower.Modifiers[protocol.UpgradeHealth], tower.Next[protocol.UpgradeHealth])
	}
	if !near(a.MaxHealth(), 105) || !near(a.Health(), 105) {
		t.Errorf("team max %v health %v", a.MaxHealth(), a.Health())
	}
	if b.MaxHealth() != 100 {
		t.Errorf("enemy max health changed to %v", b.MaxHealth())
	}

	a.CrystalCount = 5
	tower.Upgrade(protocol.UpgradeDamage, a)
	if tower.Pools[protocol.UpgradeDamage] != 5 || a.DamageModifier != 1 {
		t.Errorf("pool %d modifier %v", tower.Pools[protocol.UpgradeDamage], a.DamageModifier)
	}
}

// Test a late character receives every level its tower already bought
func TestTowerEquip(t *testing.T) {
	g, _, _ := duel(t)
	tower := g.Tower(Red)
	tower.Modifiers[protocol.UpgradeHealth] = 1.10
	tower.Modifiers[protocol.UpgradeFocus] = 1.05
	tower.Modifiers[protocol.UpgradeDamage] = 1.15

	c := newCharacter(nil)
	c.Initialize(RoleFireWizard, V(0, 0))
	tower.Equip(c)

	if !near(c.MaxHealth(), 100*1.05*1.10) || c.Health() != c.MaxHealth() {
		t.Errorf("max %v health %v", c.MaxHealth(), c.Health())
	}
	if !near(c.HealthModifier, 1.10) || !near(c.DamageModifier, 1.15) {
		t.Errorf("health modifier %v damage modifier %v", c.HealthModifier, c.DamageModifier)
	}
	if !near(c.FocusGenRate, DefaultFocusGenRate*1.05) {
		t.Errorf("focus rate = %v", c.FocusGenRate)
	}

	fresh := newCharacter(nil)
	fresh.Initialize(RoleFireWizard, V(0, 0))
	g.Tower(Blue).Equip(fresh)
	if fresh.MaxHealth() != 100 || fresh.DamageModifier != 1 || fresh.FocusGenRate != DefaultFocusGenRate {
		t.Errorf("untouched tower changed the character: %v %v %v", fresh.MaxHealth(), fresh.DamageModifier, fresh.FocusGenRate)
	}
}
