package protocol

import "fmt"

// MsgType is the single leading byte of every message.
type MsgType uint8

const (
	Error MsgType = iota
	ReqLobbyList
	InfoLobbyList
	ReqJoinLobby
	ReqStartLobby
	InfoJoinedLobby
	GSUpdate
	CharUpdate
	ReqSpellCast
	ReqClassChange
	ReqTeamChange
	ReqReady
	InfoGameStart
	ReqLeaveLobby
	InfoGameOver
	ReqUpgrade
	ReqCreateLobby
	Debug

	msgTypeCount
)

var msgTypeNames = [msgTypeCount]string{
	"Error",
	"ReqLobbyList",
	"InfoLobbyList",
	"ReqJoinLobby",
	"ReqStartLobby",
	"InfoJoinedLobby",
	"GSUpdate",
	"CharUpdate",
	"ReqSpellCast",
	"ReqClassChange",
	"ReqTeamChange",
	"ReqReady",
	"InfoGameStart",
	"ReqLeaveLobby",
	"InfoGameOver",
	"ReqUpgrade",
	"ReqCreateLobby",
	"Debug",
}

func (t MsgType) Valid() bool {
	return t < msgTypeCount
}

func (t MsgType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("MsgType(%d)", uint8(t))
	}
	return msgTypeNames[t]
}

// ErrorCode is the payload of an Error message.
type ErrorCode uint8

const (
	CodeNone ErrorCode = iota
	CodeLobbyFull
	CodeInvalidLobby
	CodeCannotCreateLobby
)

func (c ErrorCode) String() string {
	switch c {
	case CodeNone:
		return "None"
	case CodeLobbyFull:
		return "LobbyFull"
	case CodeInvalidLobby:
		return "InvalidLobby"
	case CodeCannotCreateLobby:
		return "CannotCreateLobby"
	}
	return fmt.Sprintf("ErrorCode(%d)", uint8(c))
}

// UpgradeKind selects the tower pool a ReqUpgrade pays into.
type UpgradeKind uint8

const (
	UpgradeHealth UpgradeKind = iota
	UpgradeFocus
	UpgradeDamage
)

// Delivery says which channel of a transport a message should travel on.
type Delivery uint8

const (
	Reliable Delivery = iota
	Unreliable
)

func (d Delivery) String() string {
	if d == Unreliable {
		return "unreliable"
	}
	return "reliable"
}

// DeliveryOf returns the delivery class for messages tagged t.
// Snapshots and character updates are superseded by the next one, so
// losing one is harmless.
func DeliveryOf(t MsgType) Delivery {
	switch t {
	case GSUpdate, CharUpdate:
		return Unreliable
	}
	return Reliable
}

// Peek returns the tag of an encoded message.
func Peek(data []byte) (MsgType, error) {
	if len(data) == 0 {
		return 0, ErrEmptyMessage
	}
	t := MsgType(data[0])
	if !t.Valid() {
		return t, fmt.Errorf("%w: %d", ErrUnknownTag, data[0])
	}
	return t, nil
}
