package lobby

import (
	"context"
	"time"

	"github.com/nezek6/Wizardry/pkg/game"
	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/sprite"
	"github.com/nezek6/Wizardry/pkg/wlog"
	"github.com/oklog/ulid/v2"
)

// Run drives the lobby until its round clock runs out or ctx is done. A
// finished match broadcasts the result; a cancelled or closed one just stops.
func (l *Lobby) Run(ctx context.Context) {
	defer l.manager.removeLobby(l)

	l.lastBroadcast = l.clock.Now()
	for {
		if ctx.Err() != nil {
			l.logger.Debug("lobby loop cancelled")
			return
		}
		if l.closed.Load() {
			l.logger.Debug("lobby loop stopped after close")
			return
		}

		busy := l.step(l.clock.Now())
		if l.phase == phaseTerminated && !l.closed.Load() {
			l.gameOver()
			return
		}
		if !busy {
			l.clock.Sleep(time.Millisecond)
		}
	}
}

// step applies at most one queued command and advances the simulation if
// a tick is due. It reports whether a command was consumed.
func (l *Lobby) step(now time.Time) bool {
	cmd, busy := l.queue.TryPop()
	if busy {
		l.apply(cmd)
	}

	switch l.phase {
	case phaseWaiting:
		if l.allReady() {
			l.setup(now)
			return busy
		}
		if now.Sub(l.lastBroadcast) >= l.tickInterval {
			l.lastBroadcast = now
			l.broadcast(&protocol.StateUpdate{Snapshot: l.state})
		}

	case phaseRunning:
		if dt := now.Sub(l.lastTick); dt >= l.tickInterval {
			l.lastTick = now
			l.tick(dt)
		}
	}
	return busy
}

func (l *Lobby) allReady() bool {
	players, ready := 0, 0
	for i, m := range l.members {
		if m == nil {
			continue
		}
		players++
		if l.ready[i] {
			ready++
		}
	}
	return players > 0 && ready == players
}

func (l *Lobby) setup(now time.Time) {
	id := ulid.Make().String()
	l.matchID.Store(id)
	l.logger = wlog.With(l.logger, "match", id)

	g := l.state
	g.RoundClock = l.duration
	for i := 0; i < l.crystals; i++ {
		g.SpawnPickup(i, game.PickupCrystal)
	}

	l.phase = phaseRunning
	l.started.Store(true)
	l.lastTick = now

	l.logger.Info("match started", "players", l.Players(), "duration", l.duration)
	l.broadcast(&protocol.GameStart{})
}

func (l *Lobby) tick(dt time.Duration) {
	g := l.state

	g.RoundClock -= dt
	if g.RoundClock <= 0 {
		g.RoundClock = 0
		l.phase = phaseTerminated
		return
	}

	for _, s := range g.Spells {
		if s.Active {
			s.Update(dt)
		}
	}
	for _, p := range g.Pickups {
		if p.Active {
			p.Update(dt)
		}
	}

	l.collide(dt)
	l.checkDeaths()

	l.broadcast(&protocol.StateUpdate{Snapshot: g})
}

// collide hits characters with enemy spells, pixel accurate, and with
// spawned pickups, box only. Casters are never hit by their own spells.
func (l *Lobby) collide(dt time.Duration) {
	g := l.state
	for slot, c := range g.Characters {
		if !c.Active {
			continue
		}
		cp := c.Placement()

		for _, s := range g.Spells {
			if !s.Active || s.Caster == slot {
				continue
			}
			if sprite.Collide(cp, s.Placement(), true) {
				s.Hit(c, dt)
			}
		}

		for _, p := range g.Pickups {
			if !p.Active || p.Status != game.PickupSpawned {
				continue
			}
			if sprite.Collide(cp, p.Placement(), false) {
				p.Hit(c)
			}
		}
	}
}

func (l *Lobby) checkDeaths() {
	g := l.state
	for slot, c := range g.Characters {
		if !c.Active || c.Health() > 0 {
			continue
		}
		if c.Status != game.StatusDead {
			c.Status = game.StatusDead
			g.Scores[c.Team.Opponent()]++
			l.logger.Debug("player died", "slot", slot, "name", c.Name)
		} else if l.respawning(slot) {
			continue
		}
		// A full spell pool leaves the character dead; the cast is retried
		// on the next tick.
		s := g.Cast(game.SpellRespawner, c.Pos, game.Vec2{}, game.Vec2{}, 0, slot)
		if s == nil {
			l.logger.Warn("no spell slot for respawner", "slot", slot)
			continue
		}
		s.MaxDistance = float64(l.respawnDelay) / float64(time.Millisecond)
	}
}

// respawning reports whether a respawner for slot is in flight.
func (l *Lobby) respawning(slot int) bool {
	for _, s := range l.state.Spells {
		if s.Active && s.ID == game.SpellRespawner && s.Caster == slot {
			return true
		}
	}
	return false
}

func (l *Lobby) gameOver() {
	winner := protocol.NoWinner
	if team, ok := l.state.Winner(); ok {
		winner = int32(team)
	}
	l.logger.Info("match over", "winner", winner, "red", l.state.Scores[game.Red], "blue", l.state.Scores[game.Blue])
	l.broadcast(&protocol.GameOver{WinningTeam: winner})
}

func (l *Lobby) send(c Conn, m protocol.Message) {
	if err := c.Send(protocol.Marshal(m), protocol.DeliveryOf(m.Tag())); err != nil {
		l.logger.Debug("send failed", "conn", c.ID(), "type", m.Tag().String(), "error", err)
	}
}

// broadcast encodes m once and sends it to every member.
func (l *Lobby) broadcast(m protocol.Message) {
	data := protocol.Marshal(m)
	d := protocol.DeliveryOf(m.Tag())
	for _, c := range l.members {
		if c == nil {
			continue
		}
		if err := c.Send(data, d); err != nil {
			l.logger.Debug("send failed", "conn", c.ID(), "type", m.Tag().String(), "error", err)
		}
	}
}
