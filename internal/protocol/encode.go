package protocol

import "encoding/binary"

// appendHeader appends the 3-byte message header for a payload of the given
// size.
func appendHeader(dst []byte, t MessageType, payloadSize int) []byte {
	dst = append(dst, byte(t))
	return binary.BigEndian.AppendUint16(dst, uint16(payloadSize))
}

// EncodeInputBatch encodes the client->server edge-triggered input message:
// the sender's current frame followed by every event buffered since the last
// flush. An empty batch is legal and still carries the frame, which is how
// the server learns the sender's progress.
func EncodeInputBatch(frame uint64, events []InputEvent) ([]byte, error) {
	payloadSize := 8 + 1 + eventWireSize*len(events)
	if payloadSize > 0xFFFF {
		return nil, ErrPayloadTooLarge
	}
	if len(events) > 0xFF {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, 0, HeaderSize+payloadSize)
	buf = appendHeader(buf, TypeInput, payloadSize)
	buf = binary.BigEndian.AppendUint64(buf, frame)
	buf = append(buf, byte(len(events)))
	for _, ev := range events {
		buf = appendEvent(buf, ev)
	}
	return buf, nil
}

// EncodeHeartbeat encodes the client->server level-triggered input message:
// the frame of the first state in the window followed by exactly
// HeartbeatWindowSize per-frame key-state bitmasks.
func EncodeHeartbeat(frame uint64, states [HeartbeatWindowSize]KeyState) []byte {
	buf := make([]byte, 0, HeaderSize+heartbeatPayloadSize)
	buf = appendHeader(buf, TypeInput, heartbeatPayloadSize)
	buf = binary.BigEndian.AppendUint64(buf, frame)
	for _, s := range states {
		buf = append(buf, byte(s))
	}
	return buf
}

// EncodeGameStart encodes a game-start announcement. The client never sends
// one; this exists for tests and for tooling that impersonates a server.
func EncodeGameStart(m GameStart) []byte {
	buf := make([]byte, 0, HeaderSize+gameStartPayloadSize)
	buf = appendHeader(buf, TypeGameStart, gameStartPayloadSize)
	buf = append(buf, m.ClientID)
	buf = binary.BigEndian.AppendUint64(buf, m.StartFrame)
	buf = binary.BigEndian.AppendUint64(buf, m.RandomSeed)
	return buf
}

// EncodeEventBroadcast encodes a server->client event broadcast. Like
// EncodeGameStart it exists for tests and server tooling.
func EncodeEventBroadcast(m EventBroadcast) ([]byte, error) {
	payloadSize := 8 + 1
	for _, ce := range m.EventsPerClient {
		if len(ce.Events) > 0xFF {
			return nil, ErrPayloadTooLarge
		}
		payloadSize += 2 + eventWireSize*len(ce.Events)
	}
	if payloadSize > 0xFFFF || len(m.EventsPerClient) > 0xFF {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, 0, HeaderSize+payloadSize)
	buf = appendHeader(buf, TypeEventBroadcast, payloadSize)
	buf = binary.BigEndian.AppendUint64(buf, m.Frame)
	buf = append(buf, byte(len(m.EventsPerClient)))
	for _, ce := range m.EventsPerClient {
		buf = append(buf, ce.ClientID, byte(len(ce.Events)))
		for _, ev := range ce.Events {
			buf = appendEvent(buf, ev)
		}
	}
	return buf, nil
}

func appendEvent(dst []byte, ev InputEvent) []byte {
	dst = append(dst, byte(ev.Key), byte(ev.Type))
	return binary.BigEndian.AppendUint64(dst, ev.Frame)
}
