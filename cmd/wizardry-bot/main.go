// Command wizardry-bot is a headless client. It joins the first lobby with
// room (or creates one), readies up, then wanders and casts until the match
// ends.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nezek6/Wizardry/pkg/client"
	"github.com/nezek6/Wizardry/pkg/game"
	"github.com/nezek6/Wizardry/pkg/tick"
	quictransport "github.com/nezek6/Wizardry/pkg/transport/quic"
	"github.com/nezek6/Wizardry/pkg/wlog"
	slogadapter "github.com/nezek6/Wizardry/pkg/wlog/slog_adapter"
)

const castInterval = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wizardry-bot:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr     = flag.String("addr", "localhost:13370", "server QUIC address")
		appName  = flag.String("app", "wizardry", "ALPN protocol name")
		name     = flag.String("name", "bot", "player name")
		rate     = flag.Int("rate", 60, "updates per second")
		logLevel = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	logger := slogadapter.NewText(os.Stderr, *logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	peer, err := quictransport.Dial(dialCtx, *addr, &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{*appName},
	}, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", *addr, err)
	}

	ticker, err := tick.PerSecond(*rate)
	if err != nil {
		return err
	}

	ses := client.NewSession(peer, logger)
	b := &bot{
		ses:    ses,
		name:   *name,
		logger: logger,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}

	ctx, cancel = context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- ses.Run(ctx) }()

	ticker.OnTick(b.tick)
	go ticker.Run(ctx)

	if err := ses.RequestLobbyList(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return <-runErr
		case err := <-runErr:
			return err
		case e := <-ses.Events():
			if done := b.handle(e); done {
				cancel()
				return <-runErr
			}
		}
	}
}

type bot struct {
	ses    *client.Session
	name   string
	logger wlog.Logger
	rng    *rand.Rand

	playing  atomic.Bool
	target   game.Vec2
	nextCast time.Duration
}

// handle reacts to one server event and reports whether the bot is done.
func (b *bot) handle(e client.Event) bool {
	switch e.Kind {
	case client.EventLobbyList:
		for _, l := range e.Lobbies {
			if l.NumPlayers < l.MaxPlayers {
				b.logger.Info("joining lobby", "lobby", l.Name)
				b.ses.JoinLobby(l.ID, b.name)
				return false
			}
		}
		b.logger.Info("no free lobby, creating one")
		b.ses.CreateLobby(b.name+"'s lobby", 2, 2, b.name)

	case client.EventJoined:
		b.logger.Info("joined", "lobby", e.LobbyName, "slot", e.Slot)
		b.ses.SetReady(true)

	case client.EventGameStart:
		b.logger.Info("match started")
		b.playing.Store(true)

	case client.EventGameOver:
		b.logger.Info("match over", "winner", e.Winner)
		return true

	case client.EventError:
		b.logger.Error("server refused request", "code", e.Code.String())
		return true
	}
	return false
}

// tick runs on the ticker goroutine.
func (b *bot) tick(dt time.Duration) {
	if b.ses.Slot() == game.NoID {
		return
	}

	var cast bool
	var spell int
	b.ses.View(func(g *game.GameState, slot int) {
		me := g.Character(slot)
		if me == nil || !me.Active || me.Status == game.StatusDead {
			return
		}

		w, h := float32(g.Terrain().Width()), float32(g.Terrain().Height())
		if b.target == (game.Vec2{}) || me.Pos.Sub(b.target).Len() < float32(me.Speed) {
			b.target = game.V(b.rng.Float32()*w, b.rng.Float32()*h)
		}
		me.Pos = me.Pos.Add(b.target.Sub(me.Pos).Normalize().Scale(float32(me.Speed)))

		if b.playing.Load() {
			b.nextCast -= dt
			if b.nextCast <= 0 {
				b.nextCast = castInterval
				cast = true
				spell = me.Spells[b.rng.IntN(len(me.Spells))]
			}
		}
	})

	b.ses.SendCharacter()
	if cast {
		b.ses.Cast(spell, b.target)
	}
}
