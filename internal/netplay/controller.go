package netplay

import (
	"errors"
	"fmt"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
	"github.com/OpenBrickProtocolFoundation/client/internal/tetrion"
)

// Default synchronization bounds, in frames at 60 Hz.
const (
	// DefaultInputDelay is the worst-case network latency buffer for the
	// edge-triggered policy: half a second.
	DefaultInputDelay = 30

	// DefaultPlaybackMargin is how far the local simulation must lead
	// before the level-triggered policy consumes a snapshot: one second.
	DefaultPlaybackMargin = 60
)

// ErrProtocolViolation reports a structurally valid message whose contents
// break a protocol invariant. Fatal; it means the transport or the server is
// broken, not a recoverable runtime condition.
var ErrProtocolViolation = errors.New("netplay: protocol violation")

// controller drives the remote simulation handle. It enforces the one
// invariant the whole design rests on: the remote simulation is never
// advanced past a frame for which the peer's complete input has not been
// received. The confirmed frontier moves only on receipt of peer data.
type controller interface {
	// HandleMessage consumes one decoded remote message. A message kind
	// that cannot occur in this variant is a protocol violation.
	HandleMessage(msg protocol.Message) error

	// Advance moves the remote simulation as far as the frontier permits,
	// given the local simulation's current frame.
	Advance(localFrame uint64)

	// Frontier returns the highest remote frame provably safe to compute
	// right now. Never decreases.
	Frontier(localFrame uint64) uint64
}

// eventController implements the edge-triggered policy: the remote handle
// may run up to min(localFrame - delay, last frame the peer confirmed).
type eventController struct {
	remote        *tetrion.Tetrion
	localClientID uint8
	delay         uint64
	lastKnown     uint64
	known         bool
}

func newEventController(remote *tetrion.Tetrion, localClientID uint8, delay uint64) *eventController {
	return &eventController{remote: remote, localClientID: localClientID, delay: delay}
}

func (c *eventController) HandleMessage(msg protocol.Message) error {
	broadcast, ok := msg.(protocol.EventBroadcast)
	if !ok {
		return fmt.Errorf("%w: unexpected %T mid-match", ErrProtocolViolation, msg)
	}
	if len(broadcast.EventsPerClient) == 0 {
		return fmt.Errorf("%w: broadcast with zero clients", ErrProtocolViolation)
	}

	if broadcast.Frame > c.lastKnown {
		c.lastKnown = broadcast.Frame
	}
	c.known = true

	for _, ce := range broadcast.EventsPerClient {
		if ce.ClientID == c.localClientID {
			continue
		}
		for _, ev := range ce.Events {
			c.remote.EnqueueEvent(ev)
		}
	}
	return nil
}

func (c *eventController) Advance(localFrame uint64) {
	c.remote.AdvanceTo(c.Frontier(localFrame))
}

func (c *eventController) Frontier(localFrame uint64) uint64 {
	if !c.known || localFrame <= c.delay {
		return 0
	}
	frontier := localFrame - c.delay
	if c.lastKnown < frontier {
		frontier = c.lastKnown
	}
	return frontier
}

// heartbeatController implements the level-triggered policy: a FIFO of
// per-frame key-state snapshots, consumed one per remote frame, only while
// the local simulation leads by more than the playback margin. Input is
// synthesized as press/release edges by diffing consecutive snapshots.
type heartbeatController struct {
	remote     *tetrion.Tetrion
	margin     uint64
	pending    []protocol.KeyState
	held       protocol.KeyState
	nextWindow uint64
	seen       bool
}

func newHeartbeatController(remote *tetrion.Tetrion, margin uint64) *heartbeatController {
	return &heartbeatController{remote: remote, margin: margin}
}

func (c *heartbeatController) HandleMessage(msg protocol.Message) error {
	hb, ok := msg.(protocol.Heartbeat)
	if !ok {
		return fmt.Errorf("%w: unexpected %T mid-match", ErrProtocolViolation, msg)
	}
	// Windows must be contiguous. A gap or overlap means the per-frame
	// snapshots no longer line up with remote frames, so fail loudly
	// instead of desyncing.
	if c.seen && hb.Frame != c.nextWindow {
		return fmt.Errorf("%w: heartbeat window starts at frame %d, want %d", ErrProtocolViolation, hb.Frame, c.nextWindow)
	}
	c.seen = true
	c.nextWindow = hb.Frame + protocol.HeartbeatWindowSize
	c.pending = append(c.pending, hb.States[:]...)
	return nil
}

func (c *heartbeatController) Advance(localFrame uint64) {
	for len(c.pending) > 0 && localFrame > c.remote.CurrentFrame()+c.margin {
		state := c.pending[0]
		c.pending = c.pending[1:]
		target := c.remote.CurrentFrame() + 1

		for k := protocol.Key(0); int(k) < protocol.KeyCount; k++ {
			wasHeld, isHeld := c.held.Has(k), state.Has(k)
			if wasHeld == isHeld {
				continue
			}
			typ := protocol.Pressed
			if wasHeld {
				typ = protocol.Released
			}
			c.remote.EnqueueEvent(protocol.InputEvent{Key: k, Type: typ, Frame: target})
		}
		c.held = state
		c.remote.AdvanceTo(target)
	}
}

func (c *heartbeatController) Frontier(uint64) uint64 {
	return c.remote.CurrentFrame() + uint64(len(c.pending))
}
