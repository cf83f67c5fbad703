package protocol

import (
	"errors"
	"testing"
)

// TestMarshalCreateLobby checks field order of a create request
func TestMarshalCreateLobby(t *testing.T) {
	in := &CreateLobby{Name: "Mini", MaxPlayers: 2, MatchDuration: 1.5, PlayerName: "Bob"}
	data := Marshal(in)

	if data[0] != byte(ReqCreateLobby) {
		t.Fatalf("tag = %d", data[0])
	}

	r := NewReader(data[1:])
	if r.ReadString() != "Mini" || r.ReadInt32() != 2 || r.ReadFloat64() != 1.5 || r.ReadString() != "Bob" {
		t.Fatal("unexpected field layout")
	}

	var out CreateLobby
	if err := Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out != *in {
		t.Errorf("got %+v, want %+v", out, *in)
	}
}

// TestUnmarshalWrongTag refuses to decode a message into the wrong type
func TestUnmarshalWrongTag(t *testing.T) {
	data := Marshal(&Ready{Ready: true})
	if err := Unmarshal(data, &GameOver{}); !errors.Is(err, ErrUnexpectedTag) {
		t.Fatalf("expected ErrUnexpectedTag, got %v", err)
	}
}

// TestUnmarshalTruncated reports a short read for a cut-off payload
func TestUnmarshalTruncated(t *testing.T) {
	data := Marshal(&SpellCast{SpellID: 1, StartX: 2, Rotation: 3})
	err := Unmarshal(data[:len(data)-2], &SpellCast{})
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}

// TestLobbyList encodes several entries and reads them back in order
func TestLobbyList(t *testing.T) {
	in := &LobbyList{Lobbies: []LobbyInfo{
		{ID: 0, Name: "Mini", MaxPlayers: 2, NumPlayers: 1},
		{ID: 3, Name: "Tiny", MaxPlayers: 1, NumPlayers: 0},
	}}

	var out LobbyList
	if err := Unmarshal(Marshal(in), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Lobbies) != 2 {
		t.Fatalf("got %d lobbies", len(out.Lobbies))
	}
	for i := range in.Lobbies {
		if out.Lobbies[i] != in.Lobbies[i] {
			t.Errorf("lobby %d: got %+v, want %+v", i, out.Lobbies[i], in.Lobbies[i])
		}
	}
}

type fakeSnapshot struct {
	value int32
}

func (s *fakeSnapshot) WriteToPacket(w *Writer) { w.WriteInt32(s.value) }

func (s *fakeSnapshot) UpdateFromPacket(r *Reader) error {
	s.value = r.ReadInt32()
	return r.Err()
}

// TestJoinedLobbySnapshot carries the snapshot after slot and lobby name
func TestJoinedLobbySnapshot(t *testing.T) {
	data := Marshal(&JoinedLobby{Slot: 4, LobbyName: "Lobby1", Snapshot: &fakeSnapshot{value: 77}})

	snap := &fakeSnapshot{}
	out := JoinedLobby{Snapshot: snap}
	if err := Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Slot != 4 || out.LobbyName != "Lobby1" || snap.value != 77 {
		t.Errorf("got slot=%d name=%q value=%d", out.Slot, out.LobbyName, snap.value)
	}

	if err := Unmarshal(data, &JoinedLobby{}); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

// TestEmptyPayloads encode to the bare tag
func TestEmptyPayloads(t *testing.T) {
	for _, m := range []Message{&LobbyListRequest{}, &LeaveLobby{}, &GameStart{}} {
		data := Marshal(m)
		if len(data) != 1 || MsgType(data[0]) != m.Tag() {
			t.Errorf("%s: got % x", m.Tag(), data)
		}
	}
}
