// Package websockets carries peers over WebSocket. Every message is one
// binary frame and there is no unreliable channel.
package websockets

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/transport"
)

const DefaultPath = "/ws"

var closeCodeMap = map[transport.CloseCode]int{
	transport.CloseNormal:        websocket.CloseNormalClosure,
	transport.CloseShutdown:      websocket.CloseGoingAway,
	transport.CloseProtocolError: websocket.CloseProtocolError,
	transport.CloseSlowConsumer:  websocket.ClosePolicyViolation,
}

type Listener struct {
	addr        string
	server      *http.Server
	listener    net.Listener
	upgrader    *websocket.Upgrader
	connections chan *websocket.Conn
}

func NewListener(addr, path string) *Listener {
	l := &Listener{
		addr: addr,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		connections: make(chan *websocket.Conn, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, l.handleUpgrade)
	l.server = &http.Server{Addr: addr, Handler: mux}
	return l
}

func (l *Listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(protocol.MaxFrameSize)
	l.connections <- conn
}

func (l *Listener) Listen() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	l.listener = ln
	go l.server.Serve(ln)
	return nil
}

func (l *Listener) Accept(ctx context.Context) (transport.Peer, error) {
	if l.listener == nil {
		return nil, transport.ErrListenerNotStarted
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case conn := <-l.connections:
		return &Peer{conn: conn}, nil
	}
}

func (l *Listener) Close() error {
	if l.listener == nil {
		return transport.ErrListenerNotStarted
	}
	return l.server.Close()
}

func (l *Listener) Addr() net.Addr {
	if l.listener == nil {
		return transport.NoAddr
	}
	return l.listener.Addr()
}

// Dial connects to a WebSocket server.
func Dial(ctx context.Context, url string) (transport.Peer, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(protocol.MaxFrameSize)
	return &Peer{conn: conn}, nil
}

type Peer struct {
	conn *websocket.Conn
}

func (p *Peer) ReadMessage() ([]byte, error) {
	for {
		typ, b, err := p.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ == websocket.BinaryMessage {
			return b, nil
		}
	}
}

func (p *Peer) WriteMessage(b []byte) error {
	return p.conn.WriteMessage(websocket.BinaryMessage, b)
}

func (p *Peer) SendUnreliable(b []byte) error {
	return p.WriteMessage(b)
}

// ReceiveUnreliable never yields a message; it returns when ctx is done.
func (p *Peer) ReceiveUnreliable(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (p *Peer) Close(code transport.CloseCode, reason string) error {
	wsCode, ok := closeCodeMap[code]
	if !ok {
		wsCode = websocket.CloseNormalClosure
	}

	err := p.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(wsCode, reason),
		time.Now().Add(time.Second),
	)
	return errors.Join(err, p.conn.Close())
}

func (p *Peer) LocalAddr() net.Addr {
	return p.conn.LocalAddr()
}

func (p *Peer) RemoteAddr() net.Addr {
	return p.conn.RemoteAddr()
}
