package game

import (
	"math"
	"time"

	"github.com/nezek6/Wizardry/pkg/sprite"
)

const (
	SpellFireball = iota
	SpellHolyBolt
	SpellWindLash
	SpellExplosionField
	SpellExplosion
	SpellHolyNova
	SpellNovaBolt
	SpellClaw
	SpellStampede
	SpellStampedeUnit
	SpellFireShift
	SpellClawLeap
	SpellHolyWings
	SpellWindSpin
	SpellTornado
	SpellNinjaStorm
	SpellNinjaStormSpin
	SpellNinjaStormTornado
	SpellHolyShield
	SpellRespawner
)

// HeightThreshold is the terrain step that blocks projectiles and dashes.
const HeightThreshold = 6

const (
	projectileSpeed = 5
	dashSpeed       = 10
	holyShieldMark  = 1234
)

// SpellDetails is the static data and behaviour of one spell id.
// Distances are pixels, milliseconds or seconds depending on the spell.
type SpellDetails struct {
	Name        string
	MaxDistance float64
	Cooldown    float64
	Speed       int
	Frame       *sprite.Frame

	Update func(g *GameState, s *Spell, dt time.Duration)
	Hit    func(g *GameState, s *Spell, target *Character, dt time.Duration)
}

func roundFrame(w, h int, scale float32) *sprite.Frame {
	return sprite.NewFrame(w, h, scale, sprite.EllipseMask)
}

var spells []SpellDetails

// The table is filled in init because the behaviours cast other spells
// through it.
func init() {
	spells = []SpellDetails{
		SpellFireball: {
			Name:        "Fireball",
			MaxDistance: 400,
			Cooldown:    0.4,
			Speed:       5,
			Frame:       roundFrame(32, 32, 1.5),
			Update:      projectile(projectileSpeed),
			Hit:         damageOnce(10),
		},
		SpellHolyBolt: {
			Name:        "Holy Bolt",
			MaxDistance: 400,
			Cooldown:    0.4,
			Speed:       5,
			Frame:       roundFrame(32, 32, 1.25),
			Update:      projectile(projectileSpeed),
			Hit:         healOrDamageOnce(3, 3),
		},
		SpellWindLash: {
			Name:        "Wind Lash",
			MaxDistance: 400,
			Cooldown:    0.4,
			Speed:       5,
			Frame:       roundFrame(48, 24, 1),
			Update:      projectile(projectileSpeed),
			Hit:         damageOnce(5),
		},
		SpellExplosionField: {
			Name:        "Explosion Field",
			MaxDistance: 10,
			Cooldown:    5,
			Speed:       5,
			Frame:       roundFrame(64, 64, 0),
			Update:      spawner(0.15, SpellExplosion, explosionFieldOffset),
		},
		SpellExplosion: {
			Name:        "Explosion",
			MaxDistance: 360,
			Speed:       7,
			Frame:       roundFrame(64, 64, 0.8),
			Update:      timedMillis,
			Hit:         damage(7.0 / 12),
		},
		SpellHolyNova: {
			Name:        "Holy Nova",
			MaxDistance: 1,
			Cooldown:    10,
			Speed:       5,
			Frame:       roundFrame(64, 64, 0),
			Update:      holyNova,
			Hit:         consume,
		},
		SpellNovaBolt: {
			Name:        "Nova Bolt",
			MaxDistance: 400,
			Cooldown:    1,
			Speed:       5,
			Frame:       roundFrame(32, 32, 1.25),
			Update:      projectile(projectileSpeed),
			Hit:         healOrDamageOnce(2, 1),
		},
		SpellClaw: {
			Name:        "Claw",
			MaxDistance: 300,
			Cooldown:    0.4,
			Speed:       10,
			Frame:       roundFrame(48, 48, 0.5),
			Update:      claw,
			Hit:         damage(1),
		},
		SpellStampede: {
			Name:        "Stampede",
			MaxDistance: 10,
			Cooldown:    5,
			Speed:       5,
			Frame:       roundFrame(48, 48, 0),
			Update:      spawner(0.5, SpellStampedeUnit, stampedeOffset),
		},
		SpellStampedeUnit: {
			Name:        "Stampede Unit",
			MaxDistance: 800,
			Speed:       7,
			Frame:       roundFrame(64, 48, 2),
			Update:      stampedeUnit,
			Hit:         damageOnceOrVanish(20),
		},
		SpellFireShift: {
			Name:        "Fire Shift",
			MaxDistance: 800,
			Cooldown:    25,
			Speed:       10,
			Frame:       roundFrame(32, 32, 2),
			Update:      fireShift,
			Hit:         damage(0.2),
		},
		SpellClawLeap: {
			Name:        "Claw Leap",
			MaxDistance: 400,
			Cooldown:    25,
			Speed:       10,
			Frame:       roundFrame(48, 48, 1),
			Update:      clawLeap,
			Hit:         damage(0.05),
		},
		SpellHolyWings: {
			Name:        "Holy Wings",
			MaxDistance: 1,
			Cooldown:    7,
			Speed:       5,
			Frame:       roundFrame(96, 48, 1),
			Update:      holyWings,
		},
		SpellWindSpin: {
			Name:        "Wind Spin",
			MaxDistance: 800,
			Cooldown:    25,
			Speed:       10,
			Frame:       roundFrame(64, 64, 2),
			Update:      windSpin,
			Hit:         damage(1),
		},
		SpellTornado: {
			Name:        "Tornado",
			MaxDistance: 200,
			Cooldown:    0.4,
			Speed:       2,
			Frame:       roundFrame(32, 48, 0.85),
			Update:      projectile(2),
			Hit:         damageOnce(15),
		},
		SpellNinjaStorm: {
			Name:        "Ninja Storm",
			MaxDistance: 2250,
			Cooldown:    5,
			Speed:       10,
			Frame:       roundFrame(64, 64, 2),
			Update:      ninjaStorm,
			Hit:         damage(0.1),
		},
		SpellNinjaStormSpin: {
			Name:        "Ninja Storm Spin",
			MaxDistance: 12,
			Cooldown:    0.4,
			Speed:       10,
			Frame:       roundFrame(64, 64, 2),
			Update:      ninjaStormSpin,
			Hit:         damage(0.1),
		},
		SpellNinjaStormTornado: {
			Name:        "Ninja Storm Tornado",
			MaxDistance: 9,
			Cooldown:    25,
			Speed:       10,
			Frame:       roundFrame(32, 48, 2.7),
			Update:      ninjaStormTornado,
			Hit:         damage(1),
		},
		SpellHolyShield: {
			Name:        "Holy Shield",
			MaxDistance: 3,
			Cooldown:    25,
			Speed:       5,
			Frame:       roundFrame(128, 128, 0.4),
			Update:      holyShield,
		},
		SpellRespawner: {
			Name:        "Respawner",
			MaxDistance: 5000,
			Frame:       roundFrame(64, 64, 0),
			Update:      respawner,
		},
	}
}

// SpellCount is the number of spell ids.
func SpellCount() int { return len(spells) }

func SpellByID(id int) (SpellDetails, bool) {
	if id < 0 || id >= len(spells) {
		return SpellDetails{}, false
	}
	return spells[id], true
}

func millis(dt time.Duration) float32 {
	return float32(dt) / float32(time.Millisecond)
}

func seconds(dt time.Duration) float32 {
	return float32(dt.Seconds())
}

// projectile moves the spell along its direction and stops it against
// raised terrain.
func projectile(speed float32) func(*GameState, *Spell, time.Duration) {
	return func(g *GameState, s *Spell, _ time.Duration) {
		next := s.Pos.Add(s.Dir.Scale(speed))
		s.Distance = s.Pos.Sub(s.Start).Len()
		if g.Terrain().HeightAt(next.X, next.Y) >= HeightThreshold {
			s.Deactivate()
			return
		}
		s.Pos = next
	}
}

func timedMillis(_ *GameState, s *Spell, dt time.Duration) {
	s.Distance += millis(dt)
}

// spawner casts child every interval seconds at an offset from the start point.
func spawner(interval float64, child int, offset func(g *GameState) Vec2) func(*GameState, *Spell, time.Duration) {
	return func(g *GameState, s *Spell, dt time.Duration) {
		if s.tickTracker > interval {
			s.tickTracker = 0
			g.Cast(child, s.Start.Add(offset(g)), V(1, 1), V(1, 1), 0, s.Caster)
		}
		s.Distance += seconds(dt)
		s.tickTracker += dt.Seconds()
	}
}

func randRange(g *GameState, lo, hi int) float32 {
	return float32(lo + g.Rand().IntN(hi-lo))
}

func explosionFieldOffset(g *GameState) Vec2 {
	return V(randRange(g, -300, 300), randRange(g, -300, 300))
}

func stampedeOffset(g *GameState) Vec2 {
	return V(-400, randRange(g, -300, 300))
}

func holyNova(g *GameState, s *Spell, dt time.Duration) {
	const bolts = 20
	if s.tickTracker > 0.2 {
		s.tickTracker = 0
		for i := range bolts {
			dir := V(1, 0).Rotate(2 * math.Pi / bolts * float64(i))
			g.Cast(SpellNovaBolt, s.Start, s.Start.Add(dir), dir, 0, s.Caster)
		}
		g.Cast(SpellHolyWings, s.Start, s.Start, Vec2{}, 0, s.Caster)
	}
	s.Distance += seconds(dt)
	s.tickTracker += dt.Seconds()
}

func claw(_ *GameState, s *Spell, dt time.Duration) {
	caster := s.CasterCharacter()
	if caster == nil {
		s.Deactivate()
		return
	}
	var half float32
	if f := caster.Frame(); f != nil {
		half = f.ScaledHeight() / 2
	}
	s.Pos = caster.Pos.Add(V(0, -half)).Add(s.Dir.Scale(50))
	s.Distance += millis(dt)
}

func stampedeUnit(g *GameState, s *Spell, _ time.Duration) {
	s.Dir = V(1, 0)
	projectile(projectileSpeed)(g, s, 0)
}

func fireShift(g *GameState, s *Spell, _ time.Duration) {
	dash(g, s)
	g.Cast(SpellExplosion, s.Pos, Vec2{}, Vec2{}, 0, s.Caster)
}

func clawLeap(g *GameState, s *Spell, _ time.Duration) {
	dash(g, s)
}

func holyWings(_ *GameState, s *Spell, dt time.Duration) {
	caster := s.CasterCharacter()
	if caster == nil {
		s.Deactivate()
		return
	}
	s.Distance += seconds(dt)
	s.Pos = caster.Pos.Add(V(0, -60))
}

// dash moves the caster with the spell until it hits a wall, leaves the map
// or reaches the clicked point.
func dash(g *GameState, s *Spell) {
	caster := s.CasterCharacter()
	if caster == nil {
		s.Deactivate()
		return
	}
	caster.Status = StatusOffscreen
	caster.PositionOverride = true

	t := g.Terrain()
	next := s.Pos.Add(s.Dir.Scale(dashSpeed))
	s.Distance = s.Pos.Sub(s.Start).Len()
	nextHeight := t.HeightAt(next.X, next.Y)

	outside := s.Pos.X < 0 || s.Pos.Y < 0 ||
		s.Pos.X > float32(t.Width()) || s.Pos.Y > float32(t.Height())
	done := nextHeight-s.height >= HeightThreshold ||
		outside ||
		float64(s.Distance) > s.MaxDistance-dashSpeed ||
		s.Pos == s.Click ||
		s.Distance > s.clickDistance

	if done {
		caster.Status = StatusNormal
		s.Deactivate()
		return
	}
	s.Pos = next
	s.height = nextHeight
	caster.Pos = s.Pos
}

func windSpin(g *GameState, s *Spell, dt time.Duration) {
	dash(g, s)
	if !s.Active {
		return
	}
	if float64(s.Distance)-s.tickTracker > s.MaxDistance/10 {
		s.tickTracker = float64(s.Distance)
		f := g.nextTornadoFlip()
		g.Cast(SpellTornado, s.Pos, V(1, 1), V(s.Dir.Y*f, -s.Dir.X*f), 0, s.Caster)
	}
}

func ninjaStorm(g *GameState, s *Spell, dt time.Duration) {
	caster := s.CasterCharacter()
	if caster == nil {
		s.Deactivate()
		return
	}
	caster.Status = StatusOffscreen
	s.Rotation = 0
	s.Pos = caster.Pos
	s.Distance += millis(dt)

	if float64(s.Distance) >= s.MaxDistance {
		for i := range 5 {
			off := V(1, 0).Rotate(2 * math.Pi / 5 * float64(i)).Scale(100)
			g.Cast(SpellNinjaStormSpin, caster.Pos, caster.Pos.Add(off), Vec2{}, 0, s.Caster)
		}
		g.Cast(SpellNinjaStormTornado, caster.Pos, caster.Pos, Vec2{}, 0, s.Caster)
	}
}

func ninjaStormSpin(_ *GameState, s *Spell, dt time.Duration) {
	caster := s.CasterCharacter()
	if caster == nil {
		s.Deactivate()
		return
	}
	s.Distance += seconds(dt)
	if float64(s.Distance) >= s.MaxDistance {
		caster.Status = StatusNormal
	}
	s.Pos = caster.Pos.Sub(s.Start.Sub(s.Click))
}

func ninjaStormTornado(g *GameState, s *Spell, dt time.Duration) {
	caster := s.CasterCharacter()
	if caster == nil {
		s.Deactivate()
		return
	}
	s.Rotation = 0
	s.Pos = caster.Pos.Sub(V(0, 75))
	if float64(s.Distance)-s.tickTracker > s.MaxDistance/24 {
		s.tickTracker = float64(s.Distance)
		dir := V(randRange(g, -100, 100), randRange(g, -100, 100)).Normalize()
		g.Cast(SpellTornado, s.Pos, V(1, 1), dir, 0, s.Caster)
	}
	s.Distance += seconds(dt)
}

func holyShield(_ *GameState, s *Spell, dt time.Duration) {
	caster := s.CasterCharacter()
	if caster == nil {
		s.Deactivate()
		return
	}
	if s.tickTracker != holyShieldMark {
		s.tickTracker = holyShieldMark
		caster.SetHealth(caster.health + 10)
		s.userData = caster.health
		caster.Speed = 7
	}
	// health is pinned while the shield is up
	if caster.health != s.userData {
		caster.health = s.userData
	}
	s.Distance += seconds(dt)

	var half float32
	if f := caster.Frame(); f != nil {
		half = f.ScaledHeight() / 2
	}
	s.Pos = caster.Pos.Sub(V(0, half+10))
	if float64(s.Distance) >= s.MaxDistance {
		caster.Speed = DefaultSpeed
	}
}

// respawner revives its caster at the spell position once the delay passes.
func respawner(_ *GameState, s *Spell, dt time.Duration) {
	caster := s.CasterCharacter()
	if caster == nil {
		s.Deactivate()
		return
	}
	s.Distance += millis(dt)
	if float64(s.Distance) < s.MaxDistance {
		return
	}
	caster.Pos = s.Pos
	caster.PositionOverride = true
	caster.Status = StatusNormal
	caster.health = caster.maxHealth
	caster.focus = 0
	caster.FocusOverride = true
	caster.CrystalCount = 0
	s.Deactivate()
}

func consume(_ *GameState, s *Spell, _ *Character, _ time.Duration) {
	s.Deactivate()
}

// damageOnceOrVanish hurts an enemy and is consumed by any character it touches.
func damageOnceOrVanish(amount float32) func(*GameState, *Spell, *Character, time.Duration) {
	return func(_ *GameState, s *Spell, target *Character, _ time.Duration) {
		if caster := s.CasterCharacter(); caster != nil && caster.Team != target.Team {
			target.SetHealth(target.health - amount*caster.DamageModifier)
		}
		s.Deactivate()
	}
}

// damage hurts enemies of the caster every tick they overlap.
func damage(amount float32) func(*GameState, *Spell, *Character, time.Duration) {
	return func(_ *GameState, s *Spell, target *Character, _ time.Duration) {
		caster := s.CasterCharacter()
		if caster == nil || caster.Team == target.Team {
			return
		}
		target.SetHealth(target.health - amount*caster.DamageModifier)
	}
}

// damageOnce hurts the first enemy hit and consumes the spell.
func damageOnce(amount float32) func(*GameState, *Spell, *Character, time.Duration) {
	return func(_ *GameState, s *Spell, target *Character, _ time.Duration) {
		caster := s.CasterCharacter()
		if caster == nil || caster.Team == target.Team {
			return
		}
		target.SetHealth(target.health - amount*caster.DamageModifier)
		s.Deactivate()
	}
}

// healOrDamageOnce heals allies and hurts enemies, then consumes the spell.
func healOrDamageOnce(heal, hurt float32) func(*GameState, *Spell, *Character, time.Duration) {
	return func(_ *GameState, s *Spell, target *Character, _ time.Duration) {
		caster := s.CasterCharacter()
		if caster == nil {
			s.Deactivate()
			return
		}
		if caster.Team == target.Team {
			target.SetHealth(target.health + heal*caster.DamageModifier)
		} else {
			target.SetHealth(target.health - hurt*caster.DamageModifier)
		}
		s.Deactivate()
	}
}
