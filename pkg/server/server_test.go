package server

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/nezek6/Wizardry/pkg/lobby"
	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/terrain"
	"github.com/nezek6/Wizardry/pkg/transport"
	"github.com/nezek6/Wizardry/pkg/transport/mock_transport"
	"go.uber.org/mock/gomock"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := lobby.NewManager(context.Background(), lobby.Config{
		Seed:    7,
		Terrain: terrain.Flat{W: 2048, H: 2048},
	}, nil)
	t.Cleanup(m.Close)
	return NewServer(ServerConfig{Manager: m})
}

func newTestSession(t *testing.T, peer transport.Peer, buffer int) *Session {
	t.Helper()
	ses := newSession(context.Background(), "ses-1", peer, buffer)
	t.Cleanup(func() { ses.cancel() })
	return ses
}

func popReply(t *testing.T, ses *Session) outgoing {
	t.Helper()
	select {
	case msg := <-ses.out:
		return msg
	default:
		t.Fatal("expected a queued reply")
	}
	return outgoing{}
}

func blockUntilDone(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// Tests that a lobby list request is answered with the open lobbies.
func TestLobbyListReply(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.manager.CreateLobby("arena", 4, time.Minute); err != nil {
		t.Fatal(err)
	}
	ses := newTestSession(t, nil, 4)

	s.handle(ses, protocol.Marshal(&protocol.LobbyListRequest{}), s.logger)

	reply := popReply(t, ses)
	if reply.delivery != protocol.Reliable {
		t.Errorf("expected reliable reply, got %s", reply.delivery)
	}
	var list protocol.LobbyList
	if err := protocol.Unmarshal(reply.data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Lobbies) != 1 || list.Lobbies[0].Name != "arena" {
		t.Fatalf("unexpected lobby list: %+v", list.Lobbies)
	}
}

// Tests that joining a missing lobby replies with an invalid lobby error.
func TestJoinInvalidLobby(t *testing.T) {
	s := newTestServer(t)
	ses := newTestSession(t, nil, 4)

	s.handle(ses, protocol.Marshal(&protocol.JoinLobby{LobbyID: 3, PlayerName: "ann"}), s.logger)

	var msg protocol.ErrorMsg
	if err := protocol.Unmarshal(popReply(t, ses).data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Code != protocol.CodeInvalidLobby {
		t.Errorf("expected %s, got %s", protocol.CodeInvalidLobby, msg.Code)
	}
}

// Tests that creating a lobby also joins its creator.
func TestCreateJoinsCreator(t *testing.T) {
	s := newTestServer(t)
	ses := newTestSession(t, nil, 64)

	s.handle(ses, protocol.Marshal(&protocol.CreateLobby{
		Name:          "duel",
		MaxPlayers:    2,
		MatchDuration: 5,
		PlayerName:    "ann",
	}), s.logger)

	l, ok := s.manager.LobbyOf(ses)
	if !ok {
		t.Fatal("expected creator to be in the new lobby")
	}
	if l.Name() != "duel" || l.Capacity() != 2 {
		t.Errorf("unexpected lobby %q with capacity %d", l.Name(), l.Capacity())
	}
}

// Tests that an unnamed lobby is refused.
func TestCreateRefused(t *testing.T) {
	s := newTestServer(t)
	ses := newTestSession(t, nil, 4)

	s.handle(ses, protocol.Marshal(&protocol.CreateLobby{MaxPlayers: 2, MatchDuration: 5}), s.logger)

	var msg protocol.ErrorMsg
	if err := protocol.Unmarshal(popReply(t, ses).data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Code != protocol.CodeCannotCreateLobby {
		t.Errorf("expected %s, got %s", protocol.CodeCannotCreateLobby, msg.Code)
	}
	if _, ok := s.manager.LobbyOf(ses); ok {
		t.Error("refused creator should not be in a lobby")
	}
}

// Tests that in-game messages outside a lobby and server-only tags are dropped.
func TestDropsUnroutable(t *testing.T) {
	s := newTestServer(t)
	ses := newTestSession(t, nil, 4)

	s.handle(ses, protocol.Marshal(&protocol.Ready{Ready: true}), s.logger)
	s.handle(ses, protocol.Marshal(&protocol.GameStart{}), s.logger)
	s.handle(ses, []byte{200}, s.logger)
	s.handle(ses, nil, s.logger)

	if len(ses.out) != 0 {
		t.Errorf("expected no replies, got %d", len(ses.out))
	}
}

// Tests that a full buffer drops unreliable data without closing.
func TestSendDropsUnreliable(t *testing.T) {
	ses := newTestSession(t, nil, 1)

	if err := ses.Send([]byte{1}, protocol.Reliable); err != nil {
		t.Fatal(err)
	}
	if err := ses.Send([]byte{2}, protocol.Unreliable); err != nil {
		t.Fatalf("unreliable overflow should be dropped silently, got %v", err)
	}
	if ses.IsClosed() {
		t.Error("session should stay open")
	}
	if len(ses.out) != 1 {
		t.Errorf("expected 1 queued message, got %d", len(ses.out))
	}
}

// Tests that a full buffer closes the session for reliable data.
func TestSendSlowConsumer(t *testing.T) {
	ctrl := gomock.NewController(t)
	peer := mock_transport.NewMockPeer(ctrl)
	peer.EXPECT().Close(transport.CloseSlowConsumer, gomock.Any()).Return(nil).Times(1)

	ses := newTestSession(t, peer, 1)
	if err := ses.Send([]byte{1}, protocol.Reliable); err != nil {
		t.Fatal(err)
	}
	if err := ses.Send([]byte{2}, protocol.Reliable); !errors.Is(err, ErrSlowConsumer) {
		t.Fatalf("expected %v, got %v", ErrSlowConsumer, err)
	}
	if !ses.IsClosed() {
		t.Fatal("session should be closed")
	}
	if err := ses.Send([]byte{3}, protocol.Reliable); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected %v, got %v", ErrSessionClosed, err)
	}
}

// Tests that the writer picks the channel from the delivery class.
func TestWriteUsesDelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	peer := mock_transport.NewMockPeer(ctrl)
	peer.EXPECT().WriteMessage([]byte{1}).Return(nil).Times(1)
	peer.EXPECT().SendUnreliable([]byte{2}).Return(nil).Times(1)

	ses := newTestSession(t, peer, 1)
	if err := ses.write(outgoing{data: []byte{1}, delivery: protocol.Reliable}); err != nil {
		t.Fatal(err)
	}
	if err := ses.write(outgoing{data: []byte{2}, delivery: protocol.Unreliable}); err != nil {
		t.Fatal(err)
	}
}

// Tests that a disconnecting peer leaves its lobby.
func TestServeDisconnectLeavesLobby(t *testing.T) {
	s := newTestServer(t)
	id, err := s.manager.CreateLobby("arena", 4, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	ctrl := gomock.NewController(t)
	peer := mock_transport.NewMockPeer(ctrl)
	join := peer.EXPECT().ReadMessage().Return(protocol.Marshal(&protocol.JoinLobby{LobbyID: id, PlayerName: "ann"}), nil)
	peer.EXPECT().ReadMessage().Return(nil, io.EOF).After(join)
	peer.EXPECT().ReceiveUnreliable(gomock.Any()).DoAndReturn(blockUntilDone).AnyTimes()
	peer.EXPECT().WriteMessage(gomock.Any()).Return(nil).AnyTimes()
	peer.EXPECT().SendUnreliable(gomock.Any()).Return(nil).AnyTimes()
	peer.EXPECT().RemoteAddr().Return(transport.NoAddr).AnyTimes()
	peer.EXPECT().Close(transport.CloseNormal, gomock.Any()).Return(nil).Times(1)

	s.serve(context.Background(), peer)

	l, _ := s.manager.Lobby(id)
	if n := l.Players(); n != 0 {
		t.Errorf("expected empty lobby, got %d players", n)
	}
	if n := s.SessionCount(); n != 0 {
		t.Errorf("expected no sessions, got %d", n)
	}
}

// Tests that Run stops all listeners once its context is cancelled.
func TestRunShutdown(t *testing.T) {
	s := newTestServer(t)

	ctrl := gomock.NewController(t)
	l := mock_transport.NewMockListener(ctrl)
	l.EXPECT().Listen().Return(nil)
	l.EXPECT().Addr().Return(transport.NoAddr).AnyTimes()
	l.EXPECT().Accept(gomock.Any()).DoAndReturn(func(ctx context.Context) (transport.Peer, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}).AnyTimes()
	l.EXPECT().Close().Return(nil).MinTimes(1)
	s.listeners = []transport.Listener{l}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

// Tests that a server without listeners refuses to run.
func TestRunWithoutListeners(t *testing.T) {
	s := newTestServer(t)
	if err := s.Run(context.Background()); !errors.Is(err, ErrNoListeners) {
		t.Errorf("expected %v, got %v", ErrNoListeners, err)
	}
}
