package server

import (
	"errors"
	"time"

	"github.com/nezek6/Wizardry/pkg/lobby"
	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/wlog"
)

// handle classifies one inbound message by its tag. Lobby management is
// answered here; in-game messages are queued on the sender's lobby.
func (s *Server) handle(ses *Session, data []byte, logger wlog.Logger) {
	t, err := protocol.Peek(data)
	if err != nil {
		logger.Warn("dropping message", "error", err)
		return
	}

	switch t {
	case protocol.ReqLobbyList:
		s.reply(ses, &protocol.LobbyList{Lobbies: s.manager.LobbyList()})

	case protocol.ReqJoinLobby:
		var msg protocol.JoinLobby
		if err := protocol.Unmarshal(data, &msg); err != nil {
			logger.Warn("dropping message", "type", t.String(), "error", err)
			return
		}
		if _, err := s.manager.JoinLobby(ses, msg.LobbyID, msg.PlayerName); err != nil {
			logger.Debug("join refused", "lobby", msg.LobbyID, "error", err)
			s.reply(ses, &protocol.ErrorMsg{Code: lobby.ErrorCode(err)})
		}

	case protocol.ReqCreateLobby:
		var msg protocol.CreateLobby
		if err := protocol.Unmarshal(data, &msg); err != nil {
			logger.Warn("dropping message", "type", t.String(), "error", err)
			return
		}
		duration := time.Duration(msg.MatchDuration * float64(time.Minute))
		id, err := s.manager.CreateLobby(msg.Name, int(msg.MaxPlayers), duration)
		if err == nil {
			_, err = s.manager.JoinLobby(ses, id, msg.PlayerName)
		}
		if err != nil {
			logger.Debug("create refused", "name", msg.Name, "error", err)
			s.reply(ses, &protocol.ErrorMsg{Code: lobby.ErrorCode(err)})
		}

	case protocol.ReqLeaveLobby:
		s.manager.LeaveLobby(ses)

	case protocol.ReqStartLobby:
		logger.Debug("ignoring start request")

	case protocol.Debug:
		var msg protocol.DebugMsg
		if err := protocol.Unmarshal(data, &msg); err != nil {
			logger.Warn("dropping message", "type", t.String(), "error", err)
			return
		}
		logger.Info("client debug", "text", msg.Text)

	case protocol.CharUpdate, protocol.ReqSpellCast, protocol.ReqClassChange,
		protocol.ReqTeamChange, protocol.ReqReady, protocol.ReqUpgrade:
		if err := s.manager.RouteMessage(ses, data); err != nil {
			if !errors.Is(err, lobby.ErrNotInLobby) {
				logger.Warn("failed to route message", "type", t.String(), "error", err)
			}
		}

	default:
		logger.Warn("unexpected message from client", "type", t.String())
	}
}

func (s *Server) reply(ses *Session, m protocol.Message) {
	ses.Send(protocol.Marshal(m), protocol.DeliveryOf(m.Tag()))
}
