package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/quic-go/quic-go"
)

// HandshakeTimeout bounds the wait for a new session's control stream.
const HandshakeTimeout = 5 * time.Second

// hello is the empty frame a client writes so the server sees its stream.
var hello = []byte{0x00}

// Stream is the reliable control stream of a session.
type Stream interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// DatagramConn is a session that carries datagrams next to its streams.
type DatagramConn interface {
	SendDatagram(b []byte) error
	ReceiveDatagram(ctx context.Context) ([]byte, error)
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// StreamPeer implements Peer over a framed control stream plus datagrams.
// It is shared by the QUIC and WebTransport adapters.
type StreamPeer struct {
	conn    DatagramConn
	closeFn func(code CloseCode, reason string) error

	ready  chan struct{}
	once   sync.Once
	err    error
	stream Stream
	reader *bufio.Reader
}

func NewStreamPeer(conn DatagramConn, closeFn func(CloseCode, string) error) *StreamPeer {
	return &StreamPeer{
		conn:    conn,
		closeFn: closeFn,
		ready:   make(chan struct{}),
	}
}

func (p *StreamPeer) attach(s Stream, err error) {
	p.once.Do(func() {
		p.stream, p.err = s, err
		if s != nil {
			p.reader = bufio.NewReader(s)
		}
		close(p.ready)
	})
}

// Accept waits in the background for the client's control stream and its
// hello frame. The peer's stream methods block until then.
func (p *StreamPeer) Accept(ctx context.Context, accept func(context.Context) (Stream, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(ctx, HandshakeTimeout)
		defer cancel()

		s, err := accept(ctx)
		if err != nil {
			p.attach(nil, fmt.Errorf("%w: %v", ErrHandshake, err))
			p.closeFn(CloseProtocolError, "no control stream")
			return
		}

		s.SetReadDeadline(time.Now().Add(HandshakeTimeout))
		b := make([]byte, 1)
		if _, err := io.ReadFull(s, b); err != nil || b[0] != hello[0] {
			p.attach(nil, fmt.Errorf("%w: bad hello", ErrHandshake))
			p.closeFn(CloseProtocolError, "bad hello")
			return
		}
		s.SetReadDeadline(time.Time{})
		p.attach(s, nil)
	}()
}

// Open attaches a stream opened by the client side and sends the hello.
func (p *StreamPeer) Open(s Stream) error {
	if _, err := s.Write(hello); err != nil {
		p.attach(nil, err)
		return err
	}
	p.attach(s, nil)
	return nil
}

func (p *StreamPeer) wait() error {
	<-p.ready
	return p.err
}

func (p *StreamPeer) ReadMessage() ([]byte, error) {
	if err := p.wait(); err != nil {
		return nil, err
	}
	return protocol.ReadFrame(p.reader)
}

func (p *StreamPeer) WriteMessage(b []byte) error {
	if err := p.wait(); err != nil {
		return err
	}
	return protocol.WriteFrame(p.stream, b)
}

// SendUnreliable sends b as a datagram, falling back to the stream when it
// does not fit.
func (p *StreamPeer) SendUnreliable(b []byte) error {
	err := p.conn.SendDatagram(b)
	var tooLarge *quic.DatagramTooLargeError
	if errors.As(err, &tooLarge) {
		return p.WriteMessage(b)
	}
	return err
}

func (p *StreamPeer) ReceiveUnreliable(ctx context.Context) ([]byte, error) {
	return p.conn.ReceiveDatagram(ctx)
}

func (p *StreamPeer) Close(code CloseCode, reason string) error {
	p.attach(nil, ErrPeerClosed)
	return p.closeFn(code, reason)
}

func (p *StreamPeer) LocalAddr() net.Addr  { return p.conn.LocalAddr() }
func (p *StreamPeer) RemoteAddr() net.Addr { return p.conn.RemoteAddr() }
