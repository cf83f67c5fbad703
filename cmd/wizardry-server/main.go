package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nezek6/Wizardry/pkg/config"
	"github.com/nezek6/Wizardry/pkg/lobby"
	"github.com/nezek6/Wizardry/pkg/server"
	"github.com/nezek6/Wizardry/pkg/terrain"
	"github.com/nezek6/Wizardry/pkg/transport"
	quictransport "github.com/nezek6/Wizardry/pkg/transport/quic"
	wtransport "github.com/nezek6/Wizardry/pkg/transport/webtransport"
	wstransport "github.com/nezek6/Wizardry/pkg/transport/websocket"
	"github.com/nezek6/Wizardry/pkg/wlog"
	slogadapter "github.com/nezek6/Wizardry/pkg/wlog/slog_adapter"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wizardry-server:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a JSON config file")
		listenAddr = flag.String("listen", "", "QUIC listen address")
		wsAddr     = flag.String("ws", "", "WebSocket listen address")
		wtAddr     = flag.String("wt", "", "WebTransport listen address")
		mapFile    = flag.String("map", "", "JSON height map")
		logLevel   = flag.String("log-level", "", "debug, info, warn or error")
		certFile   = flag.String("cert", "", "TLS certificate file")
		keyFile    = flag.String("key", "", "TLS key file")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.ListenAddr = *listenAddr
		case "ws":
			cfg.WSAddr = *wsAddr
		case "wt":
			cfg.WTAddr = *wtAddr
		case "map":
			cfg.MapFile = *mapFile
		case "log-level":
			cfg.LogLevel = *logLevel
		case "cert":
			cfg.CertFile = *certFile
		case "key":
			cfg.KeyFile = *keyFile
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slogadapter.NewText(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lc := cfg.Lobby()
	if cfg.MapFile != "" {
		m, err := terrain.LoadHeightMap(cfg.MapFile)
		if err != nil {
			return err
		}
		lc.Terrain = m
	}

	manager := lobby.NewManager(ctx, lc, logger)
	for _, s := range cfg.SeedLobbies {
		if _, err := manager.CreateLobby(s.Name, s.Capacity, 0); err != nil {
			logger.Error("failed to seed lobby", "name", s.Name, "error", err)
		}
	}

	listeners, err := buildListeners(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(server.ServerConfig{
		Listeners: listeners,
		Manager:   manager,
		Logger:    logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		return manager.Run(ctx)
	})

	logger.Info("server started", "lobbies", len(manager.LobbyList()))
	err = g.Wait()
	logger.Info("server stopped")
	return err
}

func buildListeners(cfg config.Config, logger wlog.Logger) ([]transport.Listener, error) {
	tlsCfg, err := loadTLS(cfg)
	if err != nil {
		return nil, err
	}

	quicTLS := tlsCfg.Clone()
	quicTLS.NextProtos = []string{cfg.AppName}
	listeners := []transport.Listener{
		quictransport.NewListener(cfg.ListenAddr, quicTLS, quictransport.DefaultConfig()),
	}

	if cfg.WTAddr != "" {
		listeners = append(listeners, wtransport.NewListener(cfg.WTAddr, wtransport.DefaultPath, tlsCfg.Clone()))
	}
	if cfg.WSAddr != "" {
		listeners = append(listeners, wstransport.NewListener(cfg.WSAddr, wstransport.DefaultPath))
	}
	if cfg.CertFile == "" {
		logger.Warn("using a self-signed certificate")
	}
	return listeners, nil
}
