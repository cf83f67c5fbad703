package lobby

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nezek6/Wizardry/pkg/game"
	"github.com/nezek6/Wizardry/pkg/wlog"
)

type phase uint8

const (
	phaseWaiting phase = iota
	phaseRunning
	phaseTerminated
)

// Lobby is one match: its player slots, inbound queue and game state.
type Lobby struct {
	id       uint8
	name     string
	capacity int
	duration time.Duration

	manager *Manager
	logger  wlog.Logger
	clock   Clock
	queue   *Queue[command]

	tickInterval time.Duration
	respawnDelay time.Duration
	crystals     int

	// reservations made by the manager
	slots   []Conn
	slotsMu sync.Mutex

	started atomic.Bool
	closed  atomic.Bool

	// owned by the loop goroutine
	state         *game.GameState
	members       []Conn
	ready         []bool
	phase         phase
	lastTick      time.Time
	lastBroadcast time.Time

	matchID atomicString
}

type atomicString struct {
	v atomic.Value
}

func (a *atomicString) Store(s string) { a.v.Store(s) }

func (a *atomicString) Load() string {
	s, _ := a.v.Load().(string)
	return s
}

func newLobby(m *Manager, id uint8, name string, capacity int, duration time.Duration) *Lobby {
	cfg := m.cfg

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, uint64(id)))

	sizes := game.Sizes{
		Characters: capacity,
		Spells:     cfg.MaxSpells,
		Pickups:    cfg.MaxPickups,
	}

	return &Lobby{
		id:           id,
		name:         name,
		capacity:     capacity,
		duration:     duration,
		manager:      m,
		logger:       wlog.With(m.logger, "lobby", id),
		clock:        cfg.Clock,
		queue:        NewQueue[command](),
		tickInterval: time.Second / time.Duration(cfg.TickRate),
		respawnDelay: cfg.RespawnDelay,
		crystals:     cfg.Crystals,
		slots:        make([]Conn, capacity),
		state:        game.NewGameState(sizes, cfg.Terrain, rng),
		members:      make([]Conn, capacity),
		ready:        make([]bool, capacity),
	}
}

func (l *Lobby) ID() uint8       { return l.id }
func (l *Lobby) Name() string    { return l.name }
func (l *Lobby) Capacity() int   { return l.capacity }
func (l *Lobby) Started() bool   { return l.started.Load() }
func (l *Lobby) MatchID() string { return l.matchID.Load() }

// Players counts the reserved slots.
func (l *Lobby) Players() int {
	l.slotsMu.Lock()
	defer l.slotsMu.Unlock()
	n := 0
	for _, c := range l.slots {
		if c != nil {
			n++
		}
	}
	return n
}

func (l *Lobby) reserve(conn Conn) (int, error) {
	l.slotsMu.Lock()
	defer l.slotsMu.Unlock()
	for i, c := range l.slots {
		if c == nil {
			l.slots[i] = conn
			return i, nil
		}
	}
	return 0, ErrLobbyFull
}

func (l *Lobby) release(conn Conn) (int, bool) {
	l.slotsMu.Lock()
	defer l.slotsMu.Unlock()
	for i, c := range l.slots {
		if c != nil && c.ID() == conn.ID() {
			l.slots[i] = nil
			return i, true
		}
	}
	return 0, false
}

func (l *Lobby) slotOf(conn Conn) (int, bool) {
	l.slotsMu.Lock()
	defer l.slotsMu.Unlock()
	for i, c := range l.slots {
		if c != nil && c.ID() == conn.ID() {
			return i, true
		}
	}
	return 0, false
}

func (l *Lobby) close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.slotsMu.Lock()
	clear(l.slots)
	l.slotsMu.Unlock()
	l.queue.Clear()
}
