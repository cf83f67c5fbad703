// Package webtransport carries browser peers over WebTransport sessions with
// the same stream plus datagram layout as the QUIC transport.
package webtransport

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"

	"github.com/nezek6/Wizardry/pkg/transport"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"
)

const DefaultPath = "/wizardry"

var closeCodeMap = map[transport.CloseCode]webtransport.SessionErrorCode{
	transport.CloseNormal:        0x0,
	transport.CloseShutdown:      0x1,
	transport.CloseProtocolError: 0x2,
	transport.CloseSlowConsumer:  0x3,
}

type Listener struct {
	server   *webtransport.Server
	addr     string
	sessions chan *webtransport.Session
	errs     chan error
	started  bool
}

// NewListener serves WebTransport upgrades on path at addr.
func NewListener(addr, path string, tlsCfg *tls.Config) *Listener {
	l := &Listener{
		addr:     addr,
		sessions: make(chan *webtransport.Session, 16),
		errs:     make(chan error, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, l.handleUpgrade)

	l.server = &webtransport.Server{
		H3: http3.Server{
			Addr:      addr,
			TLSConfig: tlsCfg,
			Handler:   mux,
		},
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return l
}

func (l *Listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	session, err := l.server.Upgrade(w, r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	select {
	case l.sessions <- session:
	case <-r.Context().Done():
		session.CloseWithError(closeCodeMap[transport.CloseShutdown], "not accepted")
	}
}

func (l *Listener) Listen() error {
	l.started = true
	go func() {
		if err := l.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.errs <- err
		}
		close(l.errs)
	}()
	return nil
}

func (l *Listener) Accept(ctx context.Context) (transport.Peer, error) {
	if !l.started {
		return nil, transport.ErrListenerNotStarted
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err, ok := <-l.errs:
		if !ok {
			return nil, http.ErrServerClosed
		}
		return nil, err
	case session := <-l.sessions:
		p := transport.NewStreamPeer(session, func(code transport.CloseCode, reason string) error {
			return session.CloseWithError(closeCodeMap[code], reason)
		})
		p.Accept(session.Context(), func(ctx context.Context) (transport.Stream, error) {
			return session.AcceptStream(ctx)
		})
		return p, nil
	}
}

func (l *Listener) Close() error {
	return l.server.Close()
}

func (l *Listener) Addr() net.Addr {
	if !l.started {
		return transport.NoAddr
	}
	a, err := net.ResolveUDPAddr("udp", l.addr)
	if err != nil {
		return transport.NoAddr
	}
	return a
}
