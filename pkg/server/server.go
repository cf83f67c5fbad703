// Package server accepts peers on every configured transport, classifies
// their messages and hands them to the lobby manager.
package server

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/nezek6/Wizardry/pkg/lobby"
	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/transport"
	"github.com/nezek6/Wizardry/pkg/wlog"
	"golang.org/x/sync/errgroup"
)

const DefaultSendBuffer = 256

// NewConnID returns a fresh connection id.
func NewConnID() string {
	return uuid.NewString()
}

type Server struct {
	listeners []transport.Listener
	manager   *lobby.Manager
	logger    wlog.Logger

	sessions    *sessionManager
	idGenerator func() string
	sendBuffer  int
}

type ServerConfig struct {
	Listeners   []transport.Listener
	Manager     *lobby.Manager
	Logger      wlog.Logger
	IDGenerator func() string
	SendBuffer  int
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = wlog.Nop()
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = NewConnID
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}

	return &Server{
		listeners:   cfg.Listeners,
		manager:     cfg.Manager,
		logger:      cfg.Logger,
		sessions:    newSessionManager(),
		idGenerator: cfg.IDGenerator,
		sendBuffer:  cfg.SendBuffer,
	}
}

// SessionCount reports the number of connected peers.
func (s *Server) SessionCount() int {
	return s.sessions.count()
}

// Run listens on every transport and serves peers until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if len(s.listeners) == 0 {
		return ErrNoListeners
	}

	for i, l := range s.listeners {
		if err := l.Listen(); err != nil {
			for _, started := range s.listeners[:i] {
				started.Close()
			}
			return err
		}
		s.logger.Info("listening", "addr", l.Addr().String())
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, l := range s.listeners {
		g.Go(func() error {
			return s.acceptLoop(ctx, l)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		s.sessions.closeAll(transport.CloseShutdown, "server shutting down")
		for _, l := range s.listeners {
			l.Close()
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) acceptLoop(ctx context.Context, l transport.Listener) error {
	for {
		p, err := l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("failed to accept new peer", "addr", l.Addr().String(), "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		go s.serve(ctx, p)
	}
}

// serve runs one peer until it disconnects.
func (s *Server) serve(ctx context.Context, peer transport.Peer) {
	ses := newSession(ctx, s.idGenerator(), peer, s.sendBuffer)
	s.sessions.add(ses)
	logger := wlog.With(s.logger, "session", ses.ID())
	logger.Debug("peer connected", "remote", peer.RemoteAddr().String())

	var g errgroup.Group
	g.Go(func() error {
		defer ses.Close(transport.CloseNormal, "")
		return ses.writeLoop()
	})
	g.Go(func() error {
		defer ses.Close(transport.CloseNormal, "")
		return s.readReliable(ses, logger)
	})
	g.Go(func() error {
		return s.readUnreliable(ses, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Debug("session ended with error", "error", err)
	}

	s.manager.Disconnect(ses)
	s.sessions.remove(ses.ID())
	logger.Debug("peer disconnected")
}

func (s *Server) readReliable(ses *Session, logger wlog.Logger) error {
	for {
		data, err := ses.peer.ReadMessage()
		if err != nil {
			if ses.IsClosed() || errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, protocol.ErrFrameTooLarge) {
				ses.Close(transport.CloseProtocolError, "frame too large")
				return nil
			}
			logger.Debug("reliable read ended", "error", err)
			return nil
		}
		s.handle(ses, data, logger)
	}
}

func (s *Server) readUnreliable(ses *Session, logger wlog.Logger) error {
	for {
		data, err := ses.peer.ReceiveUnreliable(ses.ctx)
		if err != nil {
			if ses.ctx.Err() == nil {
				logger.Debug("unreliable read ended", "error", err)
			}
			return nil
		}
		s.handle(ses, data, logger)
	}
}
