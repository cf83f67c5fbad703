// Package transport abstracts client connections that carry a reliable,
// ordered message channel next to an optional unreliable one.
package transport

//go:generate mockgen -source=types.go -destination=mock_transport/transport.go -package=mock_transport

import (
	"context"
	"errors"
	"net"
)

var (
	ErrListenerNotStarted = errors.New("transport: listener not started")
	ErrPeerClosed         = errors.New("transport: peer closed")
	ErrHandshake          = errors.New("transport: handshake failed")
)

type CloseCode int

const (
	CloseNormal CloseCode = iota
	CloseShutdown
	CloseProtocolError
	CloseSlowConsumer
)

func (c CloseCode) String() string {
	switch c {
	case CloseNormal:
		return "normal"
	case CloseShutdown:
		return "shutdown"
	case CloseProtocolError:
		return "protocol error"
	case CloseSlowConsumer:
		return "slow consumer"
	}
	return "unknown"
}

// Peer is one connected client. Writes must not be called concurrently.
type Peer interface {
	// ReadMessage returns the next message of the reliable channel.
	ReadMessage() ([]byte, error)
	WriteMessage(b []byte) error

	// SendUnreliable may drop b. Transports without an unreliable channel
	// deliver it reliably.
	SendUnreliable(b []byte) error
	// ReceiveUnreliable blocks until a datagram arrives or ctx is done.
	ReceiveUnreliable(ctx context.Context) ([]byte, error)

	Close(code CloseCode, reason string) error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// Listener accepts peers.
type Listener interface {
	Listen() error
	Accept(ctx context.Context) (Peer, error)
	Close() error
	Addr() net.Addr
}

type emptyAddr struct{}

func (emptyAddr) Network() string { return "none" }
func (emptyAddr) String() string  { return "uninitialized" }

// NoAddr is reported by listeners that are not listening yet.
var NoAddr net.Addr = emptyAddr{}
