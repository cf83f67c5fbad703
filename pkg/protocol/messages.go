package protocol

import "fmt"

// Message is a tagged payload with one fixed field layout shared by both ends.
type Message interface {
	Tag() MsgType
	Encode(w *Writer)
	Decode(r *Reader) error
}

// Snapshot is the full game state carried by GSUpdate and InfoJoinedLobby.
type Snapshot interface {
	WriteToPacket(w *Writer)
	UpdateFromPacket(r *Reader) error
}

// Marshal encodes m, tag first, into a fresh slice.
func Marshal(m Message) []byte {
	w := AcquireWriter()
	defer ReleaseWriter(w)

	w.WriteTag(m.Tag())
	m.Encode(w)

	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out
}

// Unmarshal checks the leading tag of data against m and decodes the payload.
func Unmarshal(data []byte, m Message) error {
	t, err := Peek(data)
	if err != nil {
		return err
	}
	if t != m.Tag() {
		return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedTag, t, m.Tag())
	}

	r := NewReader(data[1:])
	if err := m.Decode(r); err != nil {
		return fmt.Errorf("decode %s: %w", t, err)
	}
	return nil
}

type ErrorMsg struct {
	Code ErrorCode
}

func (*ErrorMsg) Tag() MsgType { return Error }

func (m *ErrorMsg) Encode(w *Writer) {
	w.WriteUint8(uint8(m.Code))
}

func (m *ErrorMsg) Decode(r *Reader) error {
	m.Code = ErrorCode(r.ReadUint8())
	return r.Err()
}

type LobbyListRequest struct{}

func (*LobbyListRequest) Tag() MsgType           { return ReqLobbyList }
func (*LobbyListRequest) Encode(*Writer)         {}
func (*LobbyListRequest) Decode(r *Reader) error { return r.Err() }

type LobbyInfo struct {
	ID         uint8
	Name       string
	MaxPlayers uint8
	NumPlayers uint8
}

type LobbyList struct {
	Lobbies []LobbyInfo
}

func (*LobbyList) Tag() MsgType { return InfoLobbyList }

func (m *LobbyList) Encode(w *Writer) {
	w.WriteUint8(uint8(len(m.Lobbies)))
	for _, l := range m.Lobbies {
		w.WriteUint8(l.ID)
		w.WriteString(l.Name)
		w.WriteUint8(l.MaxPlayers)
		w.WriteUint8(l.NumPlayers)
	}
}

func (m *LobbyList) Decode(r *Reader) error {
	n := int(r.ReadUint8())
	m.Lobbies = m.Lobbies[:0]
	for i := 0; i < n && r.Err() == nil; i++ {
		var l LobbyInfo
		l.ID = r.ReadUint8()
		l.Name = r.ReadString()
		l.MaxPlayers = r.ReadUint8()
		l.NumPlayers = r.ReadUint8()
		m.Lobbies = append(m.Lobbies, l)
	}
	return r.Err()
}

type JoinLobby struct {
	LobbyID    uint8
	PlayerName string
}

func (*JoinLobby) Tag() MsgType { return ReqJoinLobby }

func (m *JoinLobby) Encode(w *Writer) {
	w.WriteUint8(m.LobbyID)
	w.WriteString(m.PlayerName)
}

func (m *JoinLobby) Decode(r *Reader) error {
	m.LobbyID = r.ReadUint8()
	m.PlayerName = r.ReadString()
	return r.Err()
}

// JoinedLobby confirms a join. Snapshot must be set before Decode.
type JoinedLobby struct {
	Slot      uint8
	LobbyName string
	Snapshot  Snapshot
}

func (*JoinedLobby) Tag() MsgType { return InfoJoinedLobby }

func (m *JoinedLobby) Encode(w *Writer) {
	w.WriteUint8(m.Slot)
	w.WriteString(m.LobbyName)
	m.Snapshot.WriteToPacket(w)
}

func (m *JoinedLobby) Decode(r *Reader) error {
	m.Slot = r.ReadUint8()
	m.LobbyName = r.ReadString()
	if err := r.Err(); err != nil {
		return err
	}
	if m.Snapshot == nil {
		return ErrNoSnapshot
	}
	return m.Snapshot.UpdateFromPacket(r)
}

type CreateLobby struct {
	Name          string
	MaxPlayers    int32
	MatchDuration float64
	PlayerName    string
}

func (*CreateLobby) Tag() MsgType { return ReqCreateLobby }

func (m *CreateLobby) Encode(w *Writer) {
	w.WriteString(m.Name)
	w.WriteInt32(m.MaxPlayers)
	w.WriteFloat64(m.MatchDuration)
	w.WriteString(m.PlayerName)
}

func (m *CreateLobby) Decode(r *Reader) error {
	m.Name = r.ReadString()
	m.MaxPlayers = r.ReadInt32()
	m.MatchDuration = r.ReadFloat64()
	m.PlayerName = r.ReadString()
	return r.Err()
}

type LeaveLobby struct{}

func (*LeaveLobby) Tag() MsgType           { return ReqLeaveLobby }
func (*LeaveLobby) Encode(*Writer)         {}
func (*LeaveLobby) Decode(r *Reader) error { return r.Err() }

// StateUpdate is a GSUpdate. Snapshot must be set before Decode.
type StateUpdate struct {
	Snapshot Snapshot
}

func (*StateUpdate) Tag() MsgType { return GSUpdate }

func (m *StateUpdate) Encode(w *Writer) {
	m.Snapshot.WriteToPacket(w)
}

func (m *StateUpdate) Decode(r *Reader) error {
	if m.Snapshot == nil {
		return ErrNoSnapshot
	}
	return m.Snapshot.UpdateFromPacket(r)
}

type CharacterUpdate struct {
	Slot  uint8
	X, Y  float32
	Anim  int32
	Focus int32
}

func (*CharacterUpdate) Tag() MsgType { return CharUpdate }

func (m *CharacterUpdate) Encode(w *Writer) {
	w.WriteUint8(m.Slot)
	w.WriteFloat32(m.X)
	w.WriteFloat32(m.Y)
	w.WriteInt32(m.Anim)
	w.WriteInt32(m.Focus)
}

func (m *CharacterUpdate) Decode(r *Reader) error {
	m.Slot = r.ReadUint8()
	m.X = r.ReadFloat32()
	m.Y = r.ReadFloat32()
	m.Anim = r.ReadInt32()
	m.Focus = r.ReadInt32()
	return r.Err()
}

type SpellCast struct {
	SpellID        int32
	StartX, StartY float32
	ClickX, ClickY float32
	DirX, DirY     float32
	Rotation       float32
}

func (*SpellCast) Tag() MsgType { return ReqSpellCast }

func (m *SpellCast) Encode(w *Writer) {
	w.WriteInt32(m.SpellID)
	w.WriteFloat32(m.StartX)
	w.WriteFloat32(m.StartY)
	w.WriteFloat32(m.ClickX)
	w.WriteFloat32(m.ClickY)
	w.WriteFloat32(m.DirX)
	w.WriteFloat32(m.DirY)
	w.WriteFloat32(m.Rotation)
}

func (m *SpellCast) Decode(r *Reader) error {
	m.SpellID = r.ReadInt32()
	m.StartX = r.ReadFloat32()
	m.StartY = r.ReadFloat32()
	m.ClickX = r.ReadFloat32()
	m.ClickY = r.ReadFloat32()
	m.DirX = r.ReadFloat32()
	m.DirY = r.ReadFloat32()
	m.Rotation = r.ReadFloat32()
	return r.Err()
}

type ClassChange struct {
	RoleID int32
}

func (*ClassChange) Tag() MsgType { return ReqClassChange }

func (m *ClassChange) Encode(w *Writer) {
	w.WriteInt32(m.RoleID)
}

func (m *ClassChange) Decode(r *Reader) error {
	m.RoleID = r.ReadInt32()
	return r.Err()
}

type TeamChange struct {
	TeamID int32
}

func (*TeamChange) Tag() MsgType { return ReqTeamChange }

func (m *TeamChange) Encode(w *Writer) {
	w.WriteInt32(m.TeamID)
}

func (m *TeamChange) Decode(r *Reader) error {
	m.TeamID = r.ReadInt32()
	return r.Err()
}

type Ready struct {
	Ready bool
}

func (*Ready) Tag() MsgType { return ReqReady }

func (m *Ready) Encode(w *Writer) {
	w.WriteBool(m.Ready)
}

func (m *Ready) Decode(r *Reader) error {
	m.Ready = r.ReadBool()
	return r.Err()
}

type GameStart struct{}

func (*GameStart) Tag() MsgType           { return InfoGameStart }
func (*GameStart) Encode(*Writer)         {}
func (*GameStart) Decode(r *Reader) error { return r.Err() }

// NoWinner is the GameOver team value for a tied match.
const NoWinner int32 = -1

type GameOver struct {
	WinningTeam int32
}

func (*GameOver) Tag() MsgType { return InfoGameOver }

func (m *GameOver) Encode(w *Writer) {
	w.WriteInt32(m.WinningTeam)
}

func (m *GameOver) Decode(r *Reader) error {
	m.WinningTeam = r.ReadInt32()
	return r.Err()
}

type Upgrade struct {
	Slot uint8
	Kind UpgradeKind
}

func (*Upgrade) Tag() MsgType { return ReqUpgrade }

func (m *Upgrade) Encode(w *Writer) {
	w.WriteUint8(m.Slot)
	w.WriteUint8(uint8(m.Kind))
}

func (m *Upgrade) Decode(r *Reader) error {
	m.Slot = r.ReadUint8()
	m.Kind = UpgradeKind(r.ReadUint8())
	return r.Err()
}

type DebugMsg struct {
	Text string
}

func (*DebugMsg) Tag() MsgType { return Debug }

func (m *DebugMsg) Encode(w *Writer) {
	w.WriteString(m.Text)
}

func (m *DebugMsg) Decode(r *Reader) error {
	m.Text = r.ReadString()
	return r.Err()
}
