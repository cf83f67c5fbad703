package server

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/transport"
)

type outgoing struct {
	data     []byte
	delivery protocol.Delivery
}

// The Session wraps a low level peer. Sends are queued on a buffered channel
// drained by one writer goroutine, so callers never block on the network.
type Session struct {
	id   string
	peer transport.Peer
	out  chan outgoing

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closed    atomic.Bool
}

func newSession(ctx context.Context, id string, peer transport.Peer, buffer int) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		id:     id,
		peer:   peer,
		out:    make(chan outgoing, buffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID retrieves the id of a session.
func (s *Session) ID() string {
	return s.id
}

// Peer returns the session's low level peer.
func (s *Session) Peer() transport.Peer {
	return s.peer
}

// Send queues data for the writer. A full buffer drops unreliable data and
// closes the session for reliable data.
func (s *Session) Send(data []byte, d protocol.Delivery) error {
	if s.IsClosed() {
		return ErrSessionClosed
	}

	select {
	case s.out <- outgoing{data: data, delivery: d}:
		return nil
	default:
	}

	if d == protocol.Unreliable {
		return nil
	}
	s.Close(transport.CloseSlowConsumer, "outbound buffer full")
	return ErrSlowConsumer
}

func (s *Session) write(msg outgoing) error {
	if msg.delivery == protocol.Unreliable {
		return s.peer.SendUnreliable(msg.data)
	}
	return s.peer.WriteMessage(msg.data)
}

func (s *Session) writeLoop() error {
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case msg := <-s.out:
			if err := s.write(msg); err != nil {
				return err
			}
		}
	}
}

// Close closes the low level peer and stops the session's goroutines.
func (s *Session) Close(code transport.CloseCode, reason string) (err error) {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		err = s.peer.Close(code, reason)
	})
	return
}

// IsClosed reports whether a session is closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}
