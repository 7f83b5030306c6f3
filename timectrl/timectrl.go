package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock reports the current replay time.
type Clock interface {
	Now() time.Time
}

// Mode describes how the TimeController advances replay time.
type Mode int

const (
	// RealTime waits out the recorded gap between frames, scaled by Speed.
	RealTime Mode = iota
	// Accelerated advances as quickly as frames can be delivered.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// TimeController paces playback of recorded traffic and notifies
// registered listeners whenever replay time moves forward.
type TimeController struct {
	mu    sync.RWMutex
	Mode  Mode
	Speed float64

	// currentTime is the recorded timestamp of the most recently released
	// frame. The zero value means nothing has been released yet.
	currentTime time.Time

	listeners []func(time.Time)

	sleep func(ctx context.Context, d time.Duration) error
}

// NewTimeController constructs a controller. A non-positive speed is
// treated as 1.
func NewTimeController(mode Mode, speed float64) *TimeController {
	if speed <= 0 {
		speed = 1
	}
	return &TimeController{
		Mode:  mode,
		Speed: speed,
		sleep: sleepContext,
	}
}

// Now returns the current replay time. Implements Clock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime jumps replay time without waiting or notifying listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// AddListener registers a callback invoked every time AdvanceTo releases
// a frame.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// AdvanceTo blocks until a frame recorded at t is due, then moves replay
// time to t. The first frame, frames recorded out of order and every frame
// in Accelerated mode are released immediately. It returns ctx.Err() when
// cancelled while waiting.
func (tc *TimeController) AdvanceTo(ctx context.Context, t time.Time) error {
	tc.mu.RLock()
	prev := tc.currentTime
	wait := time.Duration(0)
	if tc.Mode == RealTime && !prev.IsZero() && t.After(prev) {
		wait = time.Duration(float64(t.Sub(prev)) / tc.Speed)
	}
	tc.mu.RUnlock()

	if wait > 0 {
		if err := tc.sleep(ctx, wait); err != nil {
			return err
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	tc.mu.Lock()
	tc.currentTime = t
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
