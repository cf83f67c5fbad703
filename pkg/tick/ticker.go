// Package tick paces work at a fixed rate.
package tick

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var (
	ErrTickerRunning    = errors.New("ticker is already running")
	ErrTickerNotRunning = errors.New("ticker is not running")
	ErrInvalidRate      = errors.New("tick rate must be positive")
)

// Ticker calls its tick function once per interval with the time elapsed
// since the previous call. The first call receives 0.
type Ticker struct {
	interval time.Duration
	lastTick time.Time
	onTick   func(dt time.Duration)

	cancel    atomic.Pointer[context.CancelFunc]
	isRunning atomic.Bool
}

func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{
		interval: interval,
		onTick:   func(dt time.Duration) {},
	}
}

// PerSecond returns a ticker firing hz times a second.
func PerSecond(hz int) (*Ticker, error) {
	if hz <= 0 {
		return nil, ErrInvalidRate
	}
	return NewTicker(time.Second / time.Duration(hz)), nil
}

func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// OnTick sets the tick function. It must be called before Run.
func (t *Ticker) OnTick(fn func(dt time.Duration)) {
	t.onTick = fn
}

// Run blocks, ticking until ctx is done or Stop is called. Ticks run on the
// calling goroutine, so a slow tick delays the next one instead of
// overlapping it.
func (t *Ticker) Run(ctx context.Context) error {
	if t.interval <= 0 {
		return ErrInvalidRate
	}
	if !t.isRunning.CompareAndSwap(false, true) {
		return ErrTickerRunning
	}
	defer t.isRunning.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.cancel.Store(&cancel)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tk.C:
			t.step(now)
		}
	}
}

func (t *Ticker) Stop() error {
	if !t.isRunning.Load() {
		return ErrTickerNotRunning
	}
	if c := t.cancel.Load(); c != nil {
		(*c)()
	}
	return nil
}

func (t *Ticker) step(now time.Time) {
	var d time.Duration
	if !t.lastTick.IsZero() {
		d = now.Sub(t.lastTick)
	}
	t.lastTick = now

	t.onTick(d)
}
