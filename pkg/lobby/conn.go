package lobby

import (
	"time"

	"github.com/nezek6/Wizardry/pkg/protocol"
)

// Conn is the lobby side of a client connection.
type Conn interface {
	ID() string
	Send(data []byte, d protocol.Delivery) error
}

// Clock is the time source of the lobby loop.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall clock.
func SystemClock() Clock { return systemClock{} }
