// Package netplay implements the client side of frame-synchronized
// multiplayer: the network receiver, the local input pipeline, the remote
// synchronization controller, and the session that owns them.
//
// Both players run the same deterministic simulation from a shared seed.
// The local simulation tracks the wall clock; the remote simulation is
// played back behind a confirmed frontier that only moves forward when the
// peer's input is known, never speculatively. There is no rollback.
package netplay

import "time"

// FrameRate is the fixed simulation rate. Rendering may run at any rate;
// simulation frames are derived from wall time alone.
const FrameRate = 60

// FrameDuration is the wall-clock length of one simulation frame.
const FrameDuration = time.Second / FrameRate

// Clock maps wall time to simulation frames.
type Clock struct {
	start time.Time
}

// NewClock starts a frame clock at the given instant, which becomes frame 0.
func NewClock(start time.Time) Clock {
	return Clock{start: start}
}

// CurrentFrame returns the simulation frame the wall clock has reached.
func (c Clock) CurrentFrame(now time.Time) uint64 {
	elapsed := now.Sub(c.start)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / FrameDuration)
}

// TargetLocalFrame returns the frame the local simulation should be advanced
// to this tick: one behind the bleeding edge, so input polled during the
// current frame can still be enqueued for it.
func (c Clock) TargetLocalFrame(now time.Time) uint64 {
	frame := c.CurrentFrame(now)
	if frame == 0 {
		return 0
	}
	return frame - 1
}
