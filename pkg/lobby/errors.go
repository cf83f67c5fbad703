package lobby

import (
	"errors"

	"github.com/nezek6/Wizardry/pkg/protocol"
)

var (
	ErrLobbyFull         = errors.New("lobby is full")
	ErrInvalidLobby      = errors.New("invalid lobby")
	ErrCannotCreateLobby = errors.New("cannot create lobby")
	ErrNotInLobby        = errors.New("connection is not in a lobby")
)

// ErrorCode maps a manager error to the code sent in an Error message.
func ErrorCode(err error) protocol.ErrorCode {
	switch {
	case err == nil:
		return protocol.CodeNone
	case errors.Is(err, ErrLobbyFull):
		return protocol.CodeLobbyFull
	case errors.Is(err, ErrCannotCreateLobby):
		return protocol.CodeCannotCreateLobby
	default:
		return protocol.CodeInvalidLobby
	}
}
