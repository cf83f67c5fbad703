// Package quic carries peers over QUIC: one framed control stream for
// reliable messages and QUIC datagrams for unreliable ones.
package quic

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/nezek6/Wizardry/pkg/transport"
	"github.com/quic-go/quic-go"
)

var closeCodeMap = map[transport.CloseCode]quic.ApplicationErrorCode{
	transport.CloseNormal:        0x0,
	transport.CloseShutdown:      0x1,
	transport.CloseProtocolError: 0x2,
	transport.CloseSlowConsumer:  0x3,
}

// DefaultConfig enables datagrams, which every peer needs.
func DefaultConfig() *quic.Config {
	return &quic.Config{
		EnableDatagrams: true,
	}
}

type Listener struct {
	address  string
	tlsCfg   *tls.Config
	quicCfg  *quic.Config
	listener *quic.Listener
}

func NewListener(addr string, tlsCfg *tls.Config, quicCfg *quic.Config) *Listener {
	if quicCfg == nil {
		quicCfg = DefaultConfig()
	}
	return &Listener{
		address: addr,
		tlsCfg:  tlsCfg,
		quicCfg: quicCfg,
	}
}

func (l *Listener) Listen() error {
	ln, err := quic.ListenAddr(l.address, l.tlsCfg, l.quicCfg)
	if err != nil {
		return err
	}
	l.listener = ln
	return nil
}

// Accept returns as soon as a connection is established. The control
// stream handshake finishes in the background.
func (l *Listener) Accept(ctx context.Context) (transport.Peer, error) {
	if l.listener == nil {
		return nil, transport.ErrListenerNotStarted
	}

	conn, err := l.listener.Accept(ctx)
	if err != nil {
		return nil, err
	}

	p := newPeer(conn)
	p.Accept(conn.Context(), func(ctx context.Context) (transport.Stream, error) {
		return conn.AcceptStream(ctx)
	})
	return p, nil
}

func (l *Listener) Close() error {
	if l.listener == nil {
		return transport.ErrListenerNotStarted
	}
	return l.listener.Close()
}

func (l *Listener) Addr() net.Addr {
	if l.listener == nil {
		return transport.NoAddr
	}
	return l.listener.Addr()
}

func newPeer(conn *quic.Conn) *transport.StreamPeer {
	return transport.NewStreamPeer(conn, func(code transport.CloseCode, reason string) error {
		appCode, ok := closeCodeMap[code]
		if !ok {
			appCode = 0x0
		}
		return conn.CloseWithError(appCode, reason)
	})
}

// Dial connects to a server and opens the control stream.
func Dial(ctx context.Context, addr string, tlsCfg *tls.Config, quicCfg *quic.Config) (transport.Peer, error) {
	if quicCfg == nil {
		quicCfg = DefaultConfig()
	}

	conn, err := quic.DialAddr(ctx, addr, tlsCfg, quicCfg)
	if err != nil {
		return nil, err
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(closeCodeMap[transport.CloseProtocolError], "no control stream")
		return nil, err
	}

	p := newPeer(conn)
	if err := p.Open(stream); err != nil {
		conn.CloseWithError(closeCodeMap[transport.CloseProtocolError], "hello failed")
		return nil, err
	}
	return p, nil
}
