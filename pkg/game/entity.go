// Package game is the authoritative state model shared by server and client:
// characters, spells, pickups, towers and the sparse snapshot that carries them.
package game

import (
	"time"

	"github.com/nezek6/Wizardry/pkg/protocol"
	"github.com/nezek6/Wizardry/pkg/sprite"
)

// NoID marks an inactive pool slot.
const NoID = -1

// Entity is implemented by everything stored in a GameState.
type Entity interface {
	IsActive() bool
	Update(dt time.Duration)
	WriteToPacket(w *protocol.Writer)
	UpdateFromPacket(r *protocol.Reader) error
	BoundingBox() sprite.Rect
}

var (
	_ Entity = (*Character)(nil)
	_ Entity = (*Spell)(nil)
	_ Entity = (*Pickup)(nil)
	_ Entity = (*Tower)(nil)
)

func readVec(r *protocol.Reader) Vec2 {
	x := r.ReadFloat32()
	y := r.ReadFloat32()
	return Vec2{x, y}
}

func writeVec(w *protocol.Writer, v Vec2) {
	w.WriteFloat32(v.X)
	w.WriteFloat32(v.Y)
}
