// Package lobby owns the lobbies of a server: membership bookkeeping in
// Manager and one simulation goroutine per Lobby.
package lobby

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nezek6/Wizardry/pkg/game"
	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/terrain"
	"github.com/nezek6/Wizardry/pkg/wlog"
)

const (
	MaxNameLength = 30

	DefaultMaxLobbies   = 10
	DefaultDuration     = 15 * time.Minute
	DefaultRespawnDelay = 5 * time.Second
	DefaultTickRate     = 60
)

// Config tunes every lobby created by a Manager. Zero values fall back to
// the defaults.
type Config struct {
	MaxLobbies      int
	MaxCapacity     int
	DefaultDuration time.Duration
	RespawnDelay    time.Duration
	TickRate        int
	MaxSpells       int
	MaxPickups      int
	Crystals        int

	Terrain terrain.Terrain
	Clock   Clock
	// Seed fixes the random source of every lobby. Zero seeds from the clock.
	Seed uint64
}

func (c Config) withDefaults() Config {
	if c.MaxLobbies <= 0 || c.MaxLobbies > 256 {
		c.MaxLobbies = DefaultMaxLobbies
	}
	if c.MaxCapacity <= 0 || c.MaxCapacity > game.MaxLobbyCapacity {
		c.MaxCapacity = game.MaxLobbyCapacity
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = DefaultDuration
	}
	if c.RespawnDelay <= 0 {
		c.RespawnDelay = DefaultRespawnDelay
	}
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.MaxSpells <= 0 {
		c.MaxSpells = game.DefaultMaxSpells
	}
	if c.MaxPickups <= 0 {
		c.MaxPickups = game.DefaultMaxPickups
	}
	if c.Crystals <= 0 {
		c.Crystals = 100
	}
	if c.Crystals > c.MaxPickups {
		c.Crystals = c.MaxPickups
	}
	if c.Clock == nil {
		c.Clock = SystemClock()
	}
	return c
}

type createRequest struct {
	Name     string        `validate:"required,max=30"`
	Capacity int           `validate:"min=1,max=8"`
	Duration time.Duration `validate:"gt=0"`
}

// Manager tracks lobbies and which connection sits in which lobby.
type Manager struct {
	cfg      Config
	logger   wlog.Logger
	validate *validator.Validate

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	lobbies []*Lobby
	conns   map[string]uint8
}

// NewManager returns a manager whose lobby goroutines live until ctx is
// cancelled or Close is called.
func NewManager(ctx context.Context, cfg Config, logger wlog.Logger) *Manager {
	if logger == nil {
		logger = wlog.Nop()
	}
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	return &Manager{
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		ctx:      ctx,
		cancel:   cancel,
		lobbies:  make([]*Lobby, cfg.MaxLobbies),
		conns:    make(map[string]uint8),
	}
}

// CreateLobby registers a lobby and starts its loop. Capacity is clamped
// to 1..MaxCapacity and a non-positive duration means the default.
func (m *Manager) CreateLobby(name string, capacity int, duration time.Duration) (uint8, error) {
	l, err := m.addLobby(name, capacity, duration)
	if err != nil {
		return 0, err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		l.Run(m.ctx)
	}()
	return l.id, nil
}

func (m *Manager) addLobby(name string, capacity int, duration time.Duration) (*Lobby, error) {
	capacity = max(1, min(capacity, m.cfg.MaxCapacity))
	if duration <= 0 {
		duration = m.cfg.DefaultDuration
	}

	req := createRequest{Name: name, Capacity: capacity, Duration: duration}
	if err := m.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotCreateLobby, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := -1
	for i, l := range m.lobbies {
		if l == nil {
			id = i
			break
		}
	}
	if id < 0 {
		return nil, fmt.Errorf("%w: all %d lobbies in use", ErrCannotCreateLobby, len(m.lobbies))
	}

	l := newLobby(m, uint8(id), name, capacity, duration)
	m.lobbies[id] = l
	m.logger.Info("lobby created", "lobby", id, "name", name, "capacity", capacity, "duration", duration)
	return l, nil
}

// Lobby returns the lobby with id.
func (m *Manager) Lobby(id uint8) (*Lobby, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(id) >= len(m.lobbies) || m.lobbies[id] == nil {
		return nil, false
	}
	return m.lobbies[id], true
}

// LobbyOf returns the lobby conn currently belongs to.
func (m *Manager) LobbyOf(conn Conn) (*Lobby, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.conns[conn.ID()]
	if !ok {
		return nil, false
	}
	l := m.lobbies[id]
	return l, l != nil
}

// JoinLobby reserves a slot for conn in lobby id and queues the join. A
// connection already in a lobby leaves it first.
func (m *Manager) JoinLobby(conn Conn, id uint8, playerName string) (int, error) {
	m.LeaveLobby(conn)

	m.mu.Lock()
	defer m.mu.Unlock()

	if int(id) >= len(m.lobbies) || m.lobbies[id] == nil {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLobby, id)
	}
	l := m.lobbies[id]
	if l.closed.Load() {
		return 0, fmt.Errorf("%w: %d is closing", ErrInvalidLobby, id)
	}

	slot, err := l.reserve(conn)
	if err != nil {
		return 0, err
	}
	m.conns[conn.ID()] = id

	l.queue.Push(command{kind: cmdJoin, slot: slot, conn: conn, name: playerName})
	m.logger.Debug("player joined", "lobby", id, "slot", slot, "conn", conn.ID())
	return slot, nil
}

// LeaveLobby removes conn from its lobby. It is a no-op for connections
// that are not in one.
func (m *Manager) LeaveLobby(conn Conn) {
	m.mu.Lock()
	id, ok := m.conns[conn.ID()]
	if ok {
		delete(m.conns, conn.ID())
	}
	var l *Lobby
	if ok {
		l = m.lobbies[id]
	}
	m.mu.Unlock()

	if l == nil {
		return
	}
	if slot, ok := l.release(conn); ok {
		l.queue.Push(command{kind: cmdLeave, slot: slot, conn: conn})
		m.logger.Debug("player left", "lobby", id, "slot", slot, "conn", conn.ID())
	}
}

// Disconnect is called when the transport of conn is gone.
func (m *Manager) Disconnect(conn Conn) {
	m.LeaveLobby(conn)
}

// RouteMessage queues an in-game message on the sender's lobby.
func (m *Manager) RouteMessage(conn Conn, data []byte) error {
	l, ok := m.LobbyOf(conn)
	if !ok {
		return ErrNotInLobby
	}
	slot, ok := l.slotOf(conn)
	if !ok {
		return ErrNotInLobby
	}
	l.queue.Push(command{kind: cmdMessage, slot: slot, conn: conn, data: data})
	return nil
}

// LobbyList describes every lobby that has not started its match.
func (m *Manager) LobbyList() []protocol.LobbyInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]protocol.LobbyInfo, 0, len(m.lobbies))
	for _, l := range m.lobbies {
		if l == nil || l.started.Load() || l.closed.Load() {
			continue
		}
		out = append(out, protocol.LobbyInfo{
			ID:         l.id,
			Name:       l.name,
			MaxPlayers: uint8(l.capacity),
			NumPlayers: uint8(l.Players()),
		})
	}
	return out
}

// CloseLobby frees lobby id and drops every mapping into it. A running
// loop sees the lobby closed and returns without a game over.
func (m *Manager) CloseLobby(id uint8) {
	m.mu.RLock()
	var l *Lobby
	if int(id) < len(m.lobbies) {
		l = m.lobbies[id]
	}
	m.mu.RUnlock()

	if l != nil {
		m.removeLobby(l)
	}
}

func (m *Manager) removeLobby(l *Lobby) {
	m.mu.Lock()
	if m.lobbies[l.id] != l {
		m.mu.Unlock()
		return
	}
	m.lobbies[l.id] = nil
	for cid, lid := range m.conns {
		if lid == l.id {
			delete(m.conns, cid)
		}
	}
	m.mu.Unlock()

	l.close()
	m.logger.Info("lobby closed", "lobby", l.id, "name", l.name)
}

// Close stops every lobby loop and waits for them to exit.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()

	m.mu.RLock()
	open := make([]*Lobby, 0, len(m.lobbies))
	for _, l := range m.lobbies {
		if l != nil {
			open = append(open, l)
		}
	}
	m.mu.RUnlock()

	for _, l := range open {
		m.removeLobby(l)
	}
}

// Run blocks until ctx is done and then closes the manager.
func (m *Manager) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-m.ctx.Done():
	}
	m.Close()
	return nil
}
