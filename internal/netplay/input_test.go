package netplay

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
	"github.com/OpenBrickProtocolFoundation/client/internal/tetrion"
)

// drainBatch parses one encoded input batch off the front of buf and returns
// the frame, the event count, and the remaining bytes.
func drainBatch(t *testing.T, buf []byte) (frame uint64, count int, rest []byte) {
	t.Helper()
	if len(buf) < protocol.HeaderSize {
		t.Fatalf("Output holds %d bytes, too short for a header", len(buf))
	}
	if buf[0] != 0 {
		t.Fatalf("Message tag = %d, want 0 (input)", buf[0])
	}
	payloadSize := int(binary.BigEndian.Uint16(buf[1:3]))
	body := buf[protocol.HeaderSize:]
	if len(body) < payloadSize {
		t.Fatalf("Payload holds %d bytes, header promises %d", len(body), payloadSize)
	}
	frame = binary.BigEndian.Uint64(body[:8])
	count = int(body[8])
	return frame, count, body[payloadSize:]
}

func TestEventPipelineFlushesEveryFifteenFrames(t *testing.T) {
	local := tetrion.New(1)
	defer local.Close()
	var out bytes.Buffer
	p := newEventPipeline(local, &out)

	p.HandleKey(protocol.KeyMoveLeft, protocol.Pressed, 3)
	p.HandleKey(protocol.KeyMoveLeft, protocol.Released, 5)

	for frame := uint64(1); frame < flushPeriod; frame++ {
		if err := p.OnFrame(frame); err != nil {
			t.Fatalf("OnFrame(%d) failed: %v", frame, err)
		}
		if out.Len() != 0 {
			t.Fatalf("Flush happened at frame %d, before the period elapsed", frame)
		}
	}
	if err := p.OnFrame(flushPeriod); err != nil {
		t.Fatalf("OnFrame(%d) failed: %v", flushPeriod, err)
	}

	frame, count, rest := drainBatch(t, out.Bytes())
	if frame != flushPeriod {
		t.Errorf("Batch frame = %d, want %d", frame, flushPeriod)
	}
	if count != 2 {
		t.Errorf("Batch carries %d events, want 2", count)
	}
	if len(rest) != 0 {
		t.Errorf("%d bytes left after one batch, want 0", len(rest))
	}
}

func TestEventPipelineFlushesEmptyBatch(t *testing.T) {
	local := tetrion.New(1)
	defer local.Close()
	var out bytes.Buffer
	p := newEventPipeline(local, &out)

	for frame := uint64(1); frame <= 2*flushPeriod; frame++ {
		if err := p.OnFrame(frame); err != nil {
			t.Fatalf("OnFrame(%d) failed: %v", frame, err)
		}
	}

	frame, count, rest := drainBatch(t, out.Bytes())
	if frame != flushPeriod || count != 0 {
		t.Errorf("First batch = (frame %d, %d events), want (%d, 0)", frame, count, flushPeriod)
	}
	frame, count, rest = drainBatch(t, rest)
	if frame != 2*flushPeriod || count != 0 {
		t.Errorf("Second batch = (frame %d, %d events), want (%d, 0)", frame, count, 2*flushPeriod)
	}
	if len(rest) != 0 {
		t.Errorf("%d bytes left after two batches, want 0", len(rest))
	}
}

func TestEventPipelineBufferClearedAfterFlush(t *testing.T) {
	local := tetrion.New(1)
	defer local.Close()
	var out bytes.Buffer
	p := newEventPipeline(local, &out)

	p.HandleKey(protocol.KeyHardDrop, protocol.Pressed, 2)
	for frame := uint64(1); frame <= 2*flushPeriod; frame++ {
		if err := p.OnFrame(frame); err != nil {
			t.Fatalf("OnFrame(%d) failed: %v", frame, err)
		}
	}

	_, count, rest := drainBatch(t, out.Bytes())
	if count != 1 {
		t.Errorf("First batch carries %d events, want 1", count)
	}
	_, count, _ = drainBatch(t, rest)
	if count != 0 {
		t.Errorf("Second batch carries %d events, want 0; old events were resent", count)
	}
}

func TestHeartbeatPipelineEmitsFullWindows(t *testing.T) {
	local := tetrion.New(1)
	defer local.Close()
	var out bytes.Buffer
	p := newHeartbeatPipeline(local, &out)

	// The transition arrives before any frame is snapshotted, tagged for a
	// frame in the near future. It must not show up earlier than its frame.
	pressFrame := uint64(6)
	p.HandleKey(protocol.KeyMoveRight, protocol.Pressed, pressFrame)
	for frame := uint64(1); frame <= protocol.HeartbeatWindowSize; frame++ {
		if err := p.OnFrame(frame); err != nil {
			t.Fatalf("OnFrame(%d) failed: %v", frame, err)
		}
		if frame < protocol.HeartbeatWindowSize && out.Len() != 0 {
			t.Fatalf("Heartbeat sent at frame %d, before the window filled", frame)
		}
	}

	dec := protocol.NewDecoder(protocol.VariantHeartbeat)
	dec.Feed(out.Bytes())
	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	hb, ok := msg.(protocol.Heartbeat)
	if !ok {
		t.Fatalf("Decoded message has type %T, want Heartbeat", msg)
	}
	if hb.Frame != 1 {
		t.Errorf("Window starts at frame %d, want 1", hb.Frame)
	}
	for i, state := range hb.States {
		frame := hb.Frame + uint64(i)
		wantHeld := frame >= pressFrame
		if state.Has(protocol.KeyMoveRight) != wantHeld {
			t.Errorf("State for frame %d: right held = %v, want %v", frame, state.Has(protocol.KeyMoveRight), wantHeld)
		}
	}
}

func TestHeartbeatPipelineTapSurvivesSnapshotting(t *testing.T) {
	local := tetrion.New(1)
	defer local.Close()
	var out bytes.Buffer
	p := newHeartbeatPipeline(local, &out)

	// Terminal input has no key-up, so a tap is a press at frame f and a
	// release at f+1, both queued before the simulation reaches f. The
	// snapshot for frame f must still show the key held for the peer.
	p.HandleKey(protocol.KeyHardDrop, protocol.Pressed, 3)
	p.HandleKey(protocol.KeyHardDrop, protocol.Released, 4)

	for frame := uint64(1); frame <= protocol.HeartbeatWindowSize; frame++ {
		if err := p.OnFrame(frame); err != nil {
			t.Fatalf("OnFrame(%d) failed: %v", frame, err)
		}
	}

	dec := protocol.NewDecoder(protocol.VariantHeartbeat)
	dec.Feed(out.Bytes())
	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	hb := msg.(protocol.Heartbeat)
	for i, state := range hb.States {
		frame := hb.Frame + uint64(i)
		wantHeld := frame == 3
		if state.Has(protocol.KeyHardDrop) != wantHeld {
			t.Errorf("State for frame %d: hard drop held = %v, want %v", frame, state.Has(protocol.KeyHardDrop), wantHeld)
		}
	}
}

func TestHeartbeatPipelineWindowRestartsAfterSend(t *testing.T) {
	local := tetrion.New(1)
	defer local.Close()
	var out bytes.Buffer
	p := newHeartbeatPipeline(local, &out)

	for frame := uint64(1); frame <= 2*protocol.HeartbeatWindowSize; frame++ {
		if err := p.OnFrame(frame); err != nil {
			t.Fatalf("OnFrame(%d) failed: %v", frame, err)
		}
	}

	dec := protocol.NewDecoder(protocol.VariantHeartbeat)
	dec.Feed(out.Bytes())
	first, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	second, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if second == nil {
		t.Fatal("Only one heartbeat sent for two full windows")
	}
	if got := first.(protocol.Heartbeat).Frame; got != 1 {
		t.Errorf("First window starts at frame %d, want 1", got)
	}
	if got := second.(protocol.Heartbeat).Frame; got != 1+protocol.HeartbeatWindowSize {
		t.Errorf("Second window starts at frame %d, want %d", got, 1+protocol.HeartbeatWindowSize)
	}
}
