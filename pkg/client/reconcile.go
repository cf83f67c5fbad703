package client

import (
	"github.com/nezek6/Wizardry/pkg/game"
	"github.com/nezek6/Wizardry/pkg/protocol"
)

// Reconcile decodes a snapshot into state while keeping the locally
// predicted position and focus of the character in mySlot. The server
// values win only when their override flag arrives set.
func Reconcile(state *game.GameState, mySlot int, r *protocol.Reader) error {
	me := state.Character(mySlot)
	if me == nil || !me.Active {
		return state.UpdateFromPacket(r)
	}

	pos := me.Pos
	focus := me.Focus()

	if err := state.UpdateFromPacket(r); err != nil {
		me.Pos = pos
		me.SetFocus(focus)
		return err
	}
	if !me.Active {
		return nil
	}

	if !me.PositionOverride {
		me.Pos = pos
	}
	if !me.FocusOverride {
		me.SetFocus(focus)
	}
	return nil
}

// reconciler plugs Reconcile into the snapshot-carrying messages.
type reconciler struct {
	state *game.GameState
	slot  int
}

func (r reconciler) WriteToPacket(w *protocol.Writer) {
	r.state.WriteToPacket(w)
}

func (r reconciler) UpdateFromPacket(rd *protocol.Reader) error {
	return Reconcile(r.state, r.slot, rd)
}
