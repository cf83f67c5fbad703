package lobby

import (
	"github.com/nezek6/Wizardry/pkg/game"
	"github.com/nezek6/Wizardry/pkg/protocol"
)

type commandKind uint8

const (
	cmdJoin commandKind = iota
	cmdLeave
	cmdMessage
)

type command struct {
	kind commandKind
	slot int
	conn Conn
	name string
	data []byte
}

const (
	spawnX = 350
	spawnY = 350
)

func (l *Lobby) apply(cmd command) {
	if cmd.slot < 0 || cmd.slot >= len(l.members) {
		return
	}
	switch cmd.kind {
	case cmdJoin:
		l.join(cmd.slot, cmd.conn, cmd.name)
	case cmdLeave:
		l.leave(cmd.slot, cmd.conn)
	case cmdMessage:
		m := l.members[cmd.slot]
		if m == nil || m.ID() != cmd.conn.ID() {
			return
		}
		if err := l.handleMessage(cmd.slot, cmd.data); err != nil {
			l.logger.Warn("dropping message", "slot", cmd.slot, "conn", cmd.conn.ID(), "error", err)
		}
	}
}

func (l *Lobby) join(slot int, conn Conn, name string) {
	g := l.state

	var red, blue int
	for _, c := range g.Characters {
		if !c.Active {
			continue
		}
		if c.Team == game.Blue {
			blue++
		} else {
			red++
		}
	}

	c := g.Characters[slot]
	c.Initialize(g.Rand().IntN(game.RoleCount()), game.V(spawnX, spawnY))
	c.Name = name
	if blue < red {
		c.Team = game.Blue
	} else {
		c.Team = game.Red
	}
	g.Tower(c.Team).Equip(c)

	l.members[slot] = conn
	l.ready[slot] = false

	l.send(conn, &protocol.JoinedLobby{
		Slot:      uint8(slot),
		LobbyName: l.name,
		Snapshot:  g,
	})
}

func (l *Lobby) leave(slot int, conn Conn) {
	m := l.members[slot]
	if m == nil || m.ID() != conn.ID() {
		return
	}
	l.members[slot] = nil
	l.ready[slot] = false
	l.state.ReleaseCaster(slot)
	l.state.Characters[slot].Deactivate()
}

func (l *Lobby) handleMessage(slot int, data []byte) error {
	t, err := protocol.Peek(data)
	if err != nil {
		return err
	}

	g := l.state
	c := g.Characters[slot]

	switch t {
	case protocol.CharUpdate:
		var msg protocol.CharacterUpdate
		if err := protocol.Unmarshal(data, &msg); err != nil {
			return err
		}
		c.Pos = game.V(msg.X, msg.Y)
		c.Anim = msg.Anim
		c.SetFocus(float32(msg.Focus))

	case protocol.ReqSpellCast:
		var msg protocol.SpellCast
		if err := protocol.Unmarshal(data, &msg); err != nil {
			return err
		}
		g.Cast(int(msg.SpellID),
			game.V(msg.StartX, msg.StartY),
			game.V(msg.ClickX, msg.ClickY),
			game.V(msg.DirX, msg.DirY),
			msg.Rotation,
			slot,
		)

	case protocol.ReqClassChange:
		var msg protocol.ClassChange
		if err := protocol.Unmarshal(data, &msg); err != nil {
			return err
		}
		if _, ok := game.RoleByID(int(msg.RoleID)); ok {
			c.SetRole(int(msg.RoleID))
		}

	case protocol.ReqTeamChange:
		var msg protocol.TeamChange
		if err := protocol.Unmarshal(data, &msg); err != nil {
			return err
		}
		if team := game.Team(msg.TeamID); msg.TeamID >= 0 && team.Valid() {
			c.Team = team
		}

	case protocol.ReqReady:
		var msg protocol.Ready
		if err := protocol.Unmarshal(data, &msg); err != nil {
			return err
		}
		l.ready[slot] = msg.Ready

	case protocol.ReqUpgrade:
		var msg protocol.Upgrade
		if err := protocol.Unmarshal(data, &msg); err != nil {
			return err
		}
		if tower := g.Tower(c.Team); tower != nil {
			tower.Upgrade(msg.Kind, c)
		}

	default:
		l.logger.Debug("ignoring message", "slot", slot, "type", t.String())
	}
	return nil
}
