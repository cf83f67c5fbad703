package client

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/nezek6/Wizardry/pkg/game"
	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/terrain"
	"github.com/nezek6/Wizardry/pkg/transport"
)

func newServerState() *game.GameState {
	return game.NewGameState(game.DefaultSizes(4), terrain.Flat{W: 2048, H: 2048}, rand.New(rand.NewPCG(1, 2)))
}

func snapshot(g *game.GameState) *protocol.Reader {
	w := protocol.NewWriter()
	g.WriteToPacket(w)
	return protocol.NewReader(append([]byte(nil), w.Bytes()...))
}

// Tests that a snapshot keeps the predicted position and focus.
func TestReconcileKeepsPrediction(t *testing.T) {
	server := newServerState()
	me := server.Characters[1]
	me.Initialize(game.RoleFireWizard, game.V(100, 100))
	me.SetFocus(50)
	other := server.Characters[0]
	other.Initialize(game.RolePriest, game.V(10, 10))

	local := game.NewGameState(game.DefaultSizes(game.MaxLobbyCapacity), nil, nil)
	if err := Reconcile(local, game.NoID, snapshot(server)); err != nil {
		t.Fatal(err)
	}

	local.Characters[1].Pos = game.V(120, 130)
	local.Characters[1].SetFocus(60)
	me.SetHealth(40)
	other.Pos = game.V(20, 20)

	if err := Reconcile(local, 1, snapshot(server)); err != nil {
		t.Fatal(err)
	}
	got := local.Characters[1]
	if got.Pos != game.V(120, 130) {
		t.Errorf("expected predicted position, got %v", got.Pos)
	}
	if got.Focus() != 60 {
		t.Errorf("expected predicted focus 60, got %v", got.Focus())
	}
	if got.Health() != 40 {
		t.Errorf("expected server health 40, got %v", got.Health())
	}
	if local.Characters[0].Pos != game.V(20, 20) {
		t.Errorf("expected other character at server position, got %v", local.Characters[0].Pos)
	}
}

// Tests that set override flags make the server values win.
func TestReconcileOverrides(t *testing.T) {
	server := newServerState()
	me := server.Characters[2]
	me.Initialize(game.RoleWindLasher, game.V(100, 100))

	local := game.NewGameState(game.DefaultSizes(game.MaxLobbyCapacity), nil, nil)
	if err := Reconcile(local, game.NoID, snapshot(server)); err != nil {
		t.Fatal(err)
	}
	local.Characters[2].Pos = game.V(1, 1)
	local.Characters[2].SetFocus(5)

	me.Pos = game.V(500, 600)
	me.PositionOverride = true
	me.SetFocus(80)
	me.FocusOverride = true

	if err := Reconcile(local, 2, snapshot(server)); err != nil {
		t.Fatal(err)
	}
	got := local.Characters[2]
	if got.Pos != game.V(500, 600) {
		t.Errorf("expected server position, got %v", got.Pos)
	}
	if got.Focus() != 80 {
		t.Errorf("expected server focus 80, got %v", got.Focus())
	}
	if me.PositionOverride || me.FocusOverride {
		t.Error("server overrides should be cleared once written")
	}
}

// Tests that a truncated snapshot leaves the predicted values in place.
func TestReconcileTruncatedSnapshot(t *testing.T) {
	server := newServerState()
	me := server.Characters[1]
	me.Initialize(game.RoleFireWizard, game.V(10, 10))
	me.SetFocus(20)

	local := game.NewGameState(game.DefaultSizes(game.MaxLobbyCapacity), nil, nil)
	if err := Reconcile(local, game.NoID, snapshot(server)); err != nil {
		t.Fatal(err)
	}
	local.Characters[1].Pos = game.V(77, 77)
	local.Characters[1].SetFocus(45)

	w := protocol.NewWriter()
	server.WriteToPacket(w)
	data := w.Bytes()
	cut := protocol.NewReader(append([]byte(nil), data[:len(data)-10]...))

	if err := Reconcile(local, 1, cut); err == nil {
		t.Fatal("expected an error for a truncated snapshot")
	}
	got := local.Characters[1]
	if got.Pos != game.V(77, 77) {
		t.Errorf("expected predicted position, got %v", got.Pos)
	}
	if got.Focus() != 45 {
		t.Errorf("expected predicted focus, got %v", got.Focus())
	}
}

// Tests that a local character that was not active takes the server state.
func TestReconcileInactiveSlot(t *testing.T) {
	server := newServerState()
	server.Characters[0].Initialize(game.RolePriest, game.V(350, 350))

	local := game.NewGameState(game.DefaultSizes(game.MaxLobbyCapacity), nil, nil)
	if err := Reconcile(local, 0, snapshot(server)); err != nil {
		t.Fatal(err)
	}
	if got := local.Characters[0].Pos; got != game.V(350, 350) {
		t.Errorf("expected server position, got %v", got)
	}
}

type pipePeer struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once

	mu         sync.Mutex
	reliable   [][]byte
	unreliable [][]byte
}

func newPipePeer() *pipePeer {
	return &pipePeer{
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (p *pipePeer) ReadMessage() ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *pipePeer) WriteMessage(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reliable = append(p.reliable, b)
	return nil
}

func (p *pipePeer) SendUnreliable(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unreliable = append(p.unreliable, b)
	return nil
}

func (p *pipePeer) ReceiveUnreliable(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.closed:
		return nil, transport.ErrPeerClosed
	}
}

func (p *pipePeer) Close(transport.CloseCode, string) error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipePeer) LocalAddr() net.Addr  { return transport.NoAddr }
func (p *pipePeer) RemoteAddr() net.Addr { return transport.NoAddr }

func nextEvent(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case e := <-s.Events():
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}
	return Event{}
}

// Tests that a join confirmation sets the slot and the local state.
func TestSessionJoin(t *testing.T) {
	peer := newPipePeer()
	s := NewSession(peer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	server := newServerState()
	server.Characters[3].Initialize(game.RoleBeastMistress, game.V(350, 350))
	peer.in <- protocol.Marshal(&protocol.JoinedLobby{Slot: 3, LobbyName: "arena", Snapshot: server})

	e := nextEvent(t, s)
	if e.Kind != EventJoined || e.Slot != 3 || e.LobbyName != "arena" {
		t.Fatalf("unexpected event %+v", e)
	}
	if s.Slot() != 3 {
		t.Errorf("expected slot 3, got %d", s.Slot())
	}
	s.View(func(g *game.GameState, slot int) {
		if !g.Characters[slot].Active || g.Characters[slot].RoleID != game.RoleBeastMistress {
			t.Error("expected the joined character in the local state")
		}
	})

	peer.in <- protocol.Marshal(&protocol.GameOver{WinningTeam: int32(game.Blue)})
	if e := nextEvent(t, s); e.Kind != EventGameOver || e.Winner != int32(game.Blue) {
		t.Errorf("unexpected event %+v", e)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// Tests that requests go out on the channel of their delivery class.
func TestSessionRequests(t *testing.T) {
	peer := newPipePeer()
	s := NewSession(peer, nil)

	if err := s.SendCharacter(); !errors.Is(err, ErrNotJoined) {
		t.Errorf("expected %v, got %v", ErrNotJoined, err)
	}

	server := newServerState()
	server.Characters[0].Initialize(game.RoleFireWizard, game.V(100, 100))
	s.handle(protocol.Marshal(&protocol.JoinedLobby{Slot: 0, LobbyName: "arena", Snapshot: server}))

	if err := s.CreateLobby("duel", 2, 5, "ann"); err != nil {
		t.Fatal(err)
	}
	if err := s.SendCharacter(); err != nil {
		t.Fatal(err)
	}
	if err := s.Cast(game.SpellFireball, game.V(200, 100)); err != nil {
		t.Fatal(err)
	}

	if len(peer.reliable) != 2 || len(peer.unreliable) != 1 {
		t.Fatalf("expected 2 reliable and 1 unreliable writes, got %d and %d", len(peer.reliable), len(peer.unreliable))
	}

	var create protocol.CreateLobby
	if err := protocol.Unmarshal(peer.reliable[0], &create); err != nil {
		t.Fatal(err)
	}
	if create.Name != "duel" || create.MaxPlayers != 2 || create.PlayerName != "ann" {
		t.Errorf("unexpected create request %+v", create)
	}

	var cast protocol.SpellCast
	if err := protocol.Unmarshal(peer.reliable[1], &cast); err != nil {
		t.Fatal(err)
	}
	if cast.DirX != 1 || cast.DirY != 0 || cast.StartX != 100 {
		t.Errorf("unexpected cast %+v", cast)
	}

	var upd protocol.CharacterUpdate
	if err := protocol.Unmarshal(peer.unreliable[0], &upd); err != nil {
		t.Fatal(err)
	}
	if upd.X != 100 || upd.Y != 100 {
		t.Errorf("unexpected character update %+v", upd)
	}
}
