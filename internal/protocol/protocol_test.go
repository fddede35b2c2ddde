package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func decodeAll(t *testing.T, v Variant, data []byte) []Message {
	t.Helper()
	dec := NewDecoder(v)
	dec.Feed(data)
	var msgs []Message
	for {
		msg, err := dec.Next()
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		if msg == nil {
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestGameStartRoundTrip(t *testing.T) {
	original := GameStart{ClientID: 1, StartFrame: 0, RandomSeed: 123456789}
	encoded := EncodeGameStart(original)

	// 3 header bytes plus the 17-byte payload.
	if len(encoded) != 20 {
		t.Fatalf("Encoded length = %d, want 20", len(encoded))
	}

	msgs := decodeAll(t, VariantEvents, encoded)
	if len(msgs) != 1 {
		t.Fatalf("Decoded %d messages, want 1", len(msgs))
	}
	decoded, ok := msgs[0].(GameStart)
	if !ok {
		t.Fatalf("Decoded message has type %T, want GameStart", msgs[0])
	}
	if decoded != original {
		t.Errorf("Round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestEventBroadcastRoundTrip(t *testing.T) {
	original := EventBroadcast{
		Frame: 45,
		EventsPerClient: []ClientEvents{
			{
				ClientID: 0,
				Events: []InputEvent{
					{Key: KeyMoveLeft, Type: Pressed, Frame: 31},
					{Key: KeyMoveLeft, Type: Released, Frame: 38},
					{Key: KeyRotateCW, Type: Pressed, Frame: 40},
				},
			},
			{ClientID: 1, Events: nil},
		},
	}
	encoded, err := EncodeEventBroadcast(original)
	if err != nil {
		t.Fatalf("EncodeEventBroadcast() failed: %v", err)
	}

	msgs := decodeAll(t, VariantEvents, encoded)
	if len(msgs) != 1 {
		t.Fatalf("Decoded %d messages, want 1", len(msgs))
	}
	decoded, ok := msgs[0].(EventBroadcast)
	if !ok {
		t.Fatalf("Decoded message has type %T, want EventBroadcast", msgs[0])
	}
	if decoded.Frame != original.Frame {
		t.Errorf("Frame = %d, want %d", decoded.Frame, original.Frame)
	}
	if len(decoded.EventsPerClient) != 2 {
		t.Fatalf("Decoded %d client entries, want 2", len(decoded.EventsPerClient))
	}
	if !reflect.DeepEqual(decoded.EventsPerClient[0], original.EventsPerClient[0]) {
		t.Errorf("Client 0 events mismatch: got %+v", decoded.EventsPerClient[0])
	}
	if decoded.EventsPerClient[1].ClientID != 1 || len(decoded.EventsPerClient[1].Events) != 0 {
		t.Errorf("Client 1 entry mismatch: got %+v", decoded.EventsPerClient[1])
	}
}

func TestHeartbeatRoundTrip(t *testing.T) {
	var states [HeartbeatWindowSize]KeyState
	states[0] = KeyState(0).Set(KeyMoveLeft)
	states[7] = KeyState(0).Set(KeyMoveLeft).Set(KeySoftDrop)
	states[14] = KeyState(0).Set(KeyHold)

	encoded := EncodeHeartbeat(90, states)
	msgs := decodeAll(t, VariantHeartbeat, encoded)
	if len(msgs) != 1 {
		t.Fatalf("Decoded %d messages, want 1", len(msgs))
	}
	decoded, ok := msgs[0].(Heartbeat)
	if !ok {
		t.Fatalf("Decoded message has type %T, want Heartbeat", msgs[0])
	}
	if decoded.Frame != 90 {
		t.Errorf("Frame = %d, want 90", decoded.Frame)
	}
	if decoded.States != states {
		t.Errorf("States mismatch: got %v, want %v", decoded.States, states)
	}
}

func TestInputBatchEncoding(t *testing.T) {
	events := []InputEvent{
		{Key: KeyMoveRight, Type: Pressed, Frame: 12},
		{Key: KeyMoveRight, Type: Released, Frame: 14},
	}
	encoded, err := EncodeInputBatch(15, events)
	if err != nil {
		t.Fatalf("EncodeInputBatch() failed: %v", err)
	}

	// Header: tag 0, payload length 8+1+2*10.
	if encoded[0] != byte(TypeInput) {
		t.Errorf("Type tag = %d, want %d", encoded[0], TypeInput)
	}
	wantLen := HeaderSize + 8 + 1 + 2*10
	if len(encoded) != wantLen {
		t.Errorf("Encoded length = %d, want %d", len(encoded), wantLen)
	}
	if count := encoded[HeaderSize+8]; count != 2 {
		t.Errorf("Event count byte = %d, want 2", count)
	}

	// An empty flush still carries the frame.
	empty, err := EncodeInputBatch(30, nil)
	if err != nil {
		t.Fatalf("EncodeInputBatch() failed: %v", err)
	}
	if len(empty) != HeaderSize+9 {
		t.Errorf("Empty batch length = %d, want %d", len(empty), HeaderSize+9)
	}
}

func TestDecoderResumableAtEverySplit(t *testing.T) {
	original := EventBroadcast{
		Frame: 60,
		EventsPerClient: []ClientEvents{
			{ClientID: 1, Events: []InputEvent{{Key: KeyHardDrop, Type: Pressed, Frame: 55}}},
		},
	}
	encoded, err := EncodeEventBroadcast(original)
	if err != nil {
		t.Fatalf("EncodeEventBroadcast() failed: %v", err)
	}

	for split := 0; split <= len(encoded); split++ {
		dec := NewDecoder(VariantEvents)
		dec.Feed(encoded[:split])

		msg, decErr := dec.Next()
		if decErr != nil {
			t.Fatalf("split %d: first Next() failed: %v", split, decErr)
		}
		if msg != nil && split < len(encoded) {
			t.Fatalf("split %d: got message from incomplete input", split)
		}

		dec.Feed(encoded[split:])
		msg, decErr = dec.Next()
		if decErr != nil {
			t.Fatalf("split %d: second Next() failed: %v", split, decErr)
		}
		decoded, ok := msg.(EventBroadcast)
		if !ok {
			t.Fatalf("split %d: message has type %T, want EventBroadcast", split, msg)
		}
		if !reflect.DeepEqual(decoded, original) {
			t.Errorf("split %d: round trip mismatch: got %+v", split, decoded)
		}
	}
}

func TestDecoderTwoMessagesInOneRead(t *testing.T) {
	start := EncodeGameStart(GameStart{ClientID: 0, StartFrame: 0, RandomSeed: 42})
	broadcast, err := EncodeEventBroadcast(EventBroadcast{
		Frame:           15,
		EventsPerClient: []ClientEvents{{ClientID: 1}},
	})
	if err != nil {
		t.Fatalf("EncodeEventBroadcast() failed: %v", err)
	}

	msgs := decodeAll(t, VariantEvents, append(start, broadcast...))
	if len(msgs) != 2 {
		t.Fatalf("Decoded %d messages, want 2", len(msgs))
	}
	if _, ok := msgs[0].(GameStart); !ok {
		t.Errorf("First message has type %T, want GameStart", msgs[0])
	}
	if _, ok := msgs[1].(EventBroadcast); !ok {
		t.Errorf("Second message has type %T, want EventBroadcast", msgs[1])
	}
}

func TestDecoderUnknownTag(t *testing.T) {
	dec := NewDecoder(VariantEvents)
	dec.Feed([]byte{0xFF, 0x00, 0x00})
	if _, err := dec.Next(); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Next() error = %v, want ErrUnknownType", err)
	}
}

func TestDecoderRejectsInboundInputTagInEventVariant(t *testing.T) {
	encoded, err := EncodeInputBatch(15, nil)
	if err != nil {
		t.Fatalf("EncodeInputBatch() failed: %v", err)
	}
	dec := NewDecoder(VariantEvents)
	dec.Feed(encoded)
	if _, decErr := dec.Next(); !errors.Is(decErr, ErrUnknownType) {
		t.Errorf("Next() error = %v, want ErrUnknownType", decErr)
	}
}

func TestDecoderMalformedBroadcast(t *testing.T) {
	// Claims one client entry but the payload ends after the frame+count.
	raw := []byte{byte(TypeEventBroadcast), 0x00, 0x09,
		0, 0, 0, 0, 0, 0, 0, 60, // frame
		1, // client count
	}
	dec := NewDecoder(VariantEvents)
	dec.Feed(raw)
	if _, err := dec.Next(); !errors.Is(err, ErrMalformed) {
		t.Errorf("Next() error = %v, want ErrMalformed", err)
	}
}

func TestKeyStateBitmask(t *testing.T) {
	s := KeyState(0).Set(KeyMoveLeft).Set(KeyHold)
	if !s.Has(KeyMoveLeft) || !s.Has(KeyHold) {
		t.Error("Set keys not reported as held")
	}
	if s.Has(KeyMoveRight) {
		t.Error("Unset key reported as held")
	}
	s = s.Clear(KeyMoveLeft)
	if s.Has(KeyMoveLeft) {
		t.Error("Cleared key still reported as held")
	}
}
