package netplay

import (
	"io"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
	"github.com/OpenBrickProtocolFoundation/client/internal/tetrion"
)

// flushPeriod is how often, in simulation frames, the edge-triggered
// pipeline transmits its buffered events. It matches the heartbeat window
// size so both variants confirm peer progress at the same cadence.
const flushPeriod = protocol.HeartbeatWindowSize

// pipeline is the local input pipeline: raw key transitions enter the local
// simulation immediately and are buffered for periodic transmission.
// HandleKey and OnFrame are called from the goroutine that owns the local
// simulation handle.
type pipeline interface {
	// HandleKey records a key transition asserted at the given frame.
	HandleKey(key protocol.Key, typ protocol.EventType, frame uint64)

	// OnFrame runs the transmission policy for one newly simulated frame.
	OnFrame(frame uint64) error
}

// eventPipeline is the edge-triggered variant: every key transition becomes
// an InputEvent, and the buffer is flushed as one batch every flushPeriod
// frames, even when empty.
type eventPipeline struct {
	local  *tetrion.Tetrion
	out    io.Writer
	buffer []protocol.InputEvent
}

func newEventPipeline(local *tetrion.Tetrion, out io.Writer) *eventPipeline {
	return &eventPipeline{local: local, out: out}
}

func (p *eventPipeline) HandleKey(key protocol.Key, typ protocol.EventType, frame uint64) {
	ev := protocol.InputEvent{Key: key, Type: typ, Frame: frame}
	p.local.EnqueueEvent(ev)
	p.buffer = append(p.buffer, ev)
}

func (p *eventPipeline) OnFrame(frame uint64) error {
	if frame%flushPeriod != 0 {
		return nil
	}
	data, err := protocol.EncodeInputBatch(frame, p.buffer)
	if err != nil {
		return err
	}
	p.buffer = p.buffer[:0]
	_, err = p.out.Write(data)
	return err
}

// heartbeatPipeline is the level-triggered variant: the full held-key set is
// recorded every frame, and a window of exactly HeartbeatWindowSize states
// is transmitted once full. A lost window is recoverable from the next one,
// which a lost edge-event batch is not.
//
// Transitions are buffered with their tagged frame and folded into the held
// set only once OnFrame reaches that frame, so the snapshot for frame f
// reflects exactly the transitions the local simulation applies at f. A
// press and release on adjacent frames would otherwise cancel out before
// any snapshot sampled them.
type heartbeatPipeline struct {
	local       *tetrion.Tetrion
	out         io.Writer
	held        protocol.KeyState
	transitions []protocol.InputEvent
	window      []protocol.KeyState
	windowStart uint64
}

func newHeartbeatPipeline(local *tetrion.Tetrion, out io.Writer) *heartbeatPipeline {
	return &heartbeatPipeline{
		local:  local,
		out:    out,
		window: make([]protocol.KeyState, 0, protocol.HeartbeatWindowSize),
	}
}

func (p *heartbeatPipeline) HandleKey(key protocol.Key, typ protocol.EventType, frame uint64) {
	ev := protocol.InputEvent{Key: key, Type: typ, Frame: frame}
	p.local.EnqueueEvent(ev)
	p.transitions = append(p.transitions, ev)
}

func (p *heartbeatPipeline) OnFrame(frame uint64) error {
	for len(p.transitions) > 0 && p.transitions[0].Frame <= frame {
		ev := p.transitions[0]
		p.transitions = p.transitions[1:]
		if ev.Type == protocol.Pressed {
			p.held = p.held.Set(ev.Key)
		} else {
			p.held = p.held.Clear(ev.Key)
		}
	}

	if len(p.window) == 0 {
		p.windowStart = frame
	}
	p.window = append(p.window, p.held)
	if len(p.window) < protocol.HeartbeatWindowSize {
		return nil
	}

	var states [protocol.HeartbeatWindowSize]protocol.KeyState
	copy(states[:], p.window)
	p.window = p.window[:0]
	_, err := p.out.Write(protocol.EncodeHeartbeat(p.windowStart, states))
	return err
}
