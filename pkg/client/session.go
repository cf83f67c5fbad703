// Package client holds the client half of the protocol: snapshot
// reconciliation and a headless Session driving one server connection.
package client

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/nezek6/Wizardry/pkg/game"
	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/transport"
	"github.com/nezek6/Wizardry/pkg/wlog"
	"golang.org/x/sync/errgroup"
)

var ErrNotJoined = errors.New("client has not joined a lobby")

const eventBuffer = 64

type EventKind int

const (
	EventLobbyList EventKind = iota
	EventJoined
	EventGameStart
	EventGameOver
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventLobbyList:
		return "lobby list"
	case EventJoined:
		return "joined"
	case EventGameStart:
		return "game start"
	case EventGameOver:
		return "game over"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is one notable server message. Only the fields of its kind are set.
type Event struct {
	Kind EventKind

	Lobbies   []protocol.LobbyInfo
	Slot      int
	LobbyName string
	Winner    int32
	Code      protocol.ErrorCode
}

// Session is one client connection. Snapshots are reconciled into a local
// GameState which callers reach through View and Update.
type Session struct {
	peer   transport.Peer
	logger wlog.Logger
	events chan Event

	writeMu sync.Mutex

	mu    sync.Mutex
	state *game.GameState
	slot  int
}

func NewSession(peer transport.Peer, logger wlog.Logger) *Session {
	if logger == nil {
		logger = wlog.Nop()
	}
	return &Session{
		peer:   peer,
		logger: logger,
		events: make(chan Event, eventBuffer),
		state:  game.NewGameState(game.DefaultSizes(game.MaxLobbyCapacity), nil, nil),
		slot:   game.NoID,
	}
}

// Events delivers server notifications. Events are dropped while the
// channel is full.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Slot returns the local player's slot, or game.NoID outside a lobby.
func (s *Session) Slot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot
}

// View calls fn with the local state locked.
func (s *Session) View(fn func(g *game.GameState, slot int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state, s.slot)
}

// Run reads from the peer until ctx is done or the connection fails. The
// peer is closed on return.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		s.peer.Close(transport.CloseNormal, "")
		return nil
	})
	g.Go(func() error {
		for {
			data, err := s.peer.ReadMessage()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return io.EOF
				}
				return err
			}
			s.handle(data)
		}
	})
	g.Go(func() error {
		for {
			data, err := s.peer.ReceiveUnreliable(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Debug("unreliable channel closed", "error", err)
				}
				return nil
			}
			s.handle(data)
		}
	})

	err := g.Wait()
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Session) handle(data []byte) {
	t, err := protocol.Peek(data)
	if err != nil {
		s.logger.Warn("dropping message", "error", err)
		return
	}

	switch t {
	case protocol.GSUpdate:
		s.mu.Lock()
		err = protocol.Unmarshal(data, &protocol.StateUpdate{Snapshot: reconciler{s.state, s.slot}})
		s.mu.Unlock()

	case protocol.InfoJoinedLobby:
		s.mu.Lock()
		msg := protocol.JoinedLobby{Snapshot: reconciler{s.state, game.NoID}}
		err = protocol.Unmarshal(data, &msg)
		if err == nil {
			s.slot = int(msg.Slot)
		}
		s.mu.Unlock()
		if err == nil {
			s.emit(Event{Kind: EventJoined, Slot: int(msg.Slot), LobbyName: msg.LobbyName})
		}

	case protocol.InfoLobbyList:
		var msg protocol.LobbyList
		if err = protocol.Unmarshal(data, &msg); err == nil {
			s.emit(Event{Kind: EventLobbyList, Lobbies: msg.Lobbies})
		}

	case protocol.InfoGameStart:
		s.emit(Event{Kind: EventGameStart})

	case protocol.InfoGameOver:
		var msg protocol.GameOver
		if err = protocol.Unmarshal(data, &msg); err == nil {
			s.emit(Event{Kind: EventGameOver, Winner: msg.WinningTeam})
		}

	case protocol.Error:
		var msg protocol.ErrorMsg
		if err = protocol.Unmarshal(data, &msg); err == nil {
			s.emit(Event{Kind: EventError, Code: msg.Code})
		}

	case protocol.Debug:
		var msg protocol.DebugMsg
		if err = protocol.Unmarshal(data, &msg); err == nil {
			s.logger.Info("server debug", "text", msg.Text)
		}

	default:
		s.logger.Debug("ignoring message", "type", t.String())
	}

	if err != nil {
		s.logger.Warn("dropping message", "type", t.String(), "error", err)
	}
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		s.logger.Debug("event dropped", "kind", e.Kind.String())
	}
}

func (s *Session) send(m protocol.Message) error {
	data := protocol.Marshal(m)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if protocol.DeliveryOf(m.Tag()) == protocol.Unreliable {
		return s.peer.SendUnreliable(data)
	}
	return s.peer.WriteMessage(data)
}

func (s *Session) RequestLobbyList() error {
	return s.send(&protocol.LobbyListRequest{})
}

func (s *Session) JoinLobby(id uint8, playerName string) error {
	return s.send(&protocol.JoinLobby{LobbyID: id, PlayerName: playerName})
}

// CreateLobby asks for a new lobby which the server joins us to.
func (s *Session) CreateLobby(name string, maxPlayers int, minutes float64, playerName string) error {
	return s.send(&protocol.CreateLobby{
		Name:          name,
		MaxPlayers:    int32(maxPlayers),
		MatchDuration: minutes,
		PlayerName:    playerName,
	})
}

func (s *Session) LeaveLobby() error {
	s.mu.Lock()
	s.slot = game.NoID
	s.mu.Unlock()
	return s.send(&protocol.LeaveLobby{})
}

func (s *Session) SetReady(ready bool) error {
	return s.send(&protocol.Ready{Ready: ready})
}

func (s *Session) ChangeClass(role int) error {
	return s.send(&protocol.ClassChange{RoleID: int32(role)})
}

func (s *Session) ChangeTeam(team game.Team) error {
	return s.send(&protocol.TeamChange{TeamID: int32(team)})
}

func (s *Session) Upgrade(kind protocol.UpgradeKind) error {
	slot := s.Slot()
	if slot == game.NoID {
		return ErrNotJoined
	}
	return s.send(&protocol.Upgrade{Slot: uint8(slot), Kind: kind})
}

// Cast asks the server to cast spell id from the local character towards
// click.
func (s *Session) Cast(id int, click game.Vec2) error {
	var msg protocol.SpellCast
	ok := false
	s.View(func(g *game.GameState, slot int) {
		me := g.Character(slot)
		if me == nil || !me.Active {
			return
		}
		dir := click.Sub(me.Pos).Normalize()
		msg = protocol.SpellCast{
			SpellID:  int32(id),
			StartX:   me.Pos.X,
			StartY:   me.Pos.Y,
			ClickX:   click.X,
			ClickY:   click.Y,
			DirX:     dir.X,
			DirY:     dir.Y,
			Rotation: dir.Angle(),
		}
		ok = true
	})
	if !ok {
		return ErrNotJoined
	}
	return s.send(&msg)
}

// SendCharacter publishes the predicted state of the local character.
func (s *Session) SendCharacter() error {
	var msg protocol.CharacterUpdate
	ok := false
	s.View(func(g *game.GameState, slot int) {
		me := g.Character(slot)
		if me == nil || !me.Active {
			return
		}
		msg = protocol.CharacterUpdate{
			Slot:  uint8(slot),
			X:     me.Pos.X,
			Y:     me.Pos.Y,
			Anim:  me.Anim,
			Focus: int32(me.Focus()),
		}
		ok = true
	})
	if !ok {
		return ErrNotJoined
	}
	return s.send(&msg)
}
