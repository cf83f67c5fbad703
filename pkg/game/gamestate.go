package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/terrain"
)

const (
	MaxLobbyCapacity = 8
	DefaultMaxSpells = 500
	// DefaultMaxPickups bounds the pickup pool; it must stay at or above the
	// number of crystals a lobby seeds.
	DefaultMaxPickups = 200

	DefaultMapWidth  = 2048
	DefaultMapHeight = 2048
)

var (
	ErrUnsortedIndex   = errors.New("game: snapshot indices not ascending")
	ErrIndexOutOfRange = errors.New("game: snapshot index out of range")
)

// Sizes are the pool capacities of a GameState.
type Sizes struct {
	Characters int
	Spells     int
	Pickups    int
}

func DefaultSizes(characters int) Sizes {
	return Sizes{
		Characters: characters,
		Spells:     DefaultMaxSpells,
		Pickups:    DefaultMaxPickups,
	}
}

// GameState is the full simulated world of a lobby. Pools are allocated once
// and slots are reused through their Active flag.
type GameState struct {
	Towers     [teamCount]*Tower
	Characters []*Character
	Spells     []*Spell
	Pickups    []*Pickup
	RoundClock time.Duration
	Scores     [teamCount]int32

	terrain     terrain.Terrain
	rng         *rand.Rand
	scanFront   bool
	tornadoFlip float32
}

// NewGameState allocates every pool. A nil terrain means a flat default map
// and a nil rng a time-seeded one.
func NewGameState(sizes Sizes, t terrain.Terrain, rng *rand.Rand) *GameState {
	if t == nil {
		t = terrain.Flat{W: DefaultMapWidth, H: DefaultMapHeight}
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>32))
	}

	g := &GameState{
		Characters:  make([]*Character, sizes.Characters),
		Spells:      make([]*Spell, sizes.Spells),
		Pickups:     make([]*Pickup, sizes.Pickups),
		terrain:     t,
		rng:         rng,
		scanFront:   true,
		tornadoFlip: 1,
	}
	for i := range g.Towers {
		g.Towers[i] = newTower(g, Team(i))
	}
	for i := range g.Characters {
		g.Characters[i] = newCharacter(g)
	}
	for i := range g.Spells {
		g.Spells[i] = newSpell(g)
	}
	for i := range g.Pickups {
		g.Pickups[i] = newPickup(g)
	}
	return g
}

func (g *GameState) Terrain() terrain.Terrain { return g.terrain }
func (g *GameState) Rand() *rand.Rand         { return g.rng }

// Character returns the character in slot, or nil when slot is out of range.
func (g *GameState) Character(slot int) *Character {
	if slot < 0 || slot >= len(g.Characters) {
		return nil
	}
	return g.Characters[slot]
}

// Tower returns the tower of team.
func (g *GameState) Tower(team Team) *Tower {
	if !team.Valid() {
		return nil
	}
	return g.Towers[team]
}

// Cast activates a free spell slot. Consecutive casts alternate between
// scanning the pool from the front and from the back. It returns nil when
// id is unknown or the pool is full.
func (g *GameState) Cast(id int, start, click, dir Vec2, rotation float32, caster int) *Spell {
	if _, ok := SpellByID(id); !ok {
		return nil
	}

	var s *Spell
	if g.scanFront {
		for _, sp := range g.Spells {
			if !sp.Active {
				s = sp
				break
			}
		}
	} else {
		for i := len(g.Spells) - 1; i >= 0; i-- {
			if !g.Spells[i].Active {
				s = g.Spells[i]
				break
			}
		}
	}
	g.scanFront = !g.scanFront
	if s == nil {
		return nil
	}

	s.Start = start
	s.SetClick(click)
	s.Dir = dir
	s.Rotation = rotation
	s.Caster = caster
	s.Initialize(id)
	return s
}

// SpawnPickup activates the pickup slot at index as kind id.
func (g *GameState) SpawnPickup(index, id int) *Pickup {
	if index < 0 || index >= len(g.Pickups) {
		return nil
	}
	p := g.Pickups[index]
	p.Initialize(id)
	return p
}

// ReleaseCaster ends every spell cast by slot.
func (g *GameState) ReleaseCaster(slot int) {
	for _, s := range g.Spells {
		if s.Active && s.Caster == slot {
			s.Deactivate()
		}
	}
}

func (g *GameState) nextTornadoFlip() float32 {
	f := g.tornadoFlip
	g.tornadoFlip = -g.tornadoFlip
	return f
}

// Winner returns the team with the higher score and false on a tie.
func (g *GameState) Winner() (Team, bool) {
	switch {
	case g.Scores[Red] > g.Scores[Blue]:
		return Red, true
	case g.Scores[Blue] > g.Scores[Red]:
		return Blue, true
	}
	return 0, false
}

// WriteToPacket encodes the snapshot. Only active pool slots are written,
// each prefixed with its index in ascending order.
func (g *GameState) WriteToPacket(w *protocol.Writer) {
	for _, t := range g.Towers {
		t.WriteToPacket(w)
	}

	w.WriteUint8(uint8(countActive(g.Characters)))
	for i, c := range g.Characters {
		if c.Active {
			w.WriteUint8(uint8(i))
			c.WriteToPacket(w)
		}
	}

	w.WriteInt32(int32(countActive(g.Spells)))
	for i, s := range g.Spells {
		if s.Active {
			w.WriteInt32(int32(i))
			s.WriteToPacket(w)
		}
	}

	w.WriteInt32(int32(countActive(g.Pickups)))
	for i, p := range g.Pickups {
		if p.Active {
			w.WriteInt32(int32(i))
			p.WriteToPacket(w)
		}
	}

	w.WriteFloat64(float64(g.RoundClock) / float64(time.Millisecond))
	for _, s := range g.Scores {
		w.WriteInt32(s)
	}
}

// UpdateFromPacket decodes a snapshot in place. Slots missing from the
// packet are deactivated.
func (g *GameState) UpdateFromPacket(r *protocol.Reader) error {
	for _, t := range g.Towers {
		if err := t.UpdateFromPacket(r); err != nil {
			return fmt.Errorf("tower: %w", err)
		}
	}

	n := int(r.ReadUint8())
	if err := decodeSparse(r, g.Characters, n, func() int { return int(r.ReadUint8()) }); err != nil {
		return fmt.Errorf("characters: %w", err)
	}

	n = int(r.ReadInt32())
	if err := decodeSparse(r, g.Spells, n, func() int { return int(r.ReadInt32()) }); err != nil {
		return fmt.Errorf("spells: %w", err)
	}

	n = int(r.ReadInt32())
	if err := decodeSparse(r, g.Pickups, n, func() int { return int(r.ReadInt32()) }); err != nil {
		return fmt.Errorf("pickups: %w", err)
	}

	clock := r.ReadFloat64()
	var scores [teamCount]int32
	for i := range scores {
		scores[i] = r.ReadInt32()
	}
	if err := r.Err(); err != nil {
		return err
	}
	g.RoundClock = time.Duration(clock * float64(time.Millisecond))
	g.Scores = scores
	return nil
}

type poolEntry interface {
	Entity
	Deactivate()
}

func countActive[E poolEntry](pool []E) int {
	n := 0
	for _, e := range pool {
		if e.IsActive() {
			n++
		}
	}
	return n
}

// decodeSparse reads n (index, payload) pairs into pool. Every slot skipped
// between two indices, and every slot after the last one, is deactivated.
func decodeSparse[E poolEntry](r *protocol.Reader, pool []E, n int, readIndex func() int) error {
	if err := r.Err(); err != nil {
		return err
	}
	if n < 0 || n > len(pool) {
		return fmt.Errorf("%w: count %d, capacity %d", ErrIndexOutOfRange, n, len(pool))
	}

	next := 0
	for range n {
		index := readIndex()
		if err := r.Err(); err != nil {
			return err
		}
		if index < next {
			return fmt.Errorf("%w: %d after %d", ErrUnsortedIndex, index, next-1)
		}
		if index >= len(pool) {
			return fmt.Errorf("%w: %d, capacity %d", ErrIndexOutOfRange, index, len(pool))
		}
		for i := next; i < index; i++ {
			pool[i].Deactivate()
		}
		if err := pool[index].UpdateFromPacket(r); err != nil {
			return err
		}
		next = index + 1
	}
	for i := next; i < len(pool); i++ {
		pool[i].Deactivate()
	}
	return nil
}
