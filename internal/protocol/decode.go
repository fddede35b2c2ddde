package protocol

import (
	"encoding/binary"
	"fmt"
)

// Variant selects which payload shape an inbound tag-0 message carries.
// Servers running the edge-triggered protocol relay input via
// TypeEventBroadcast and never send tag 0 to a client; servers running the
// level-triggered protocol relay the peer's key states as tag-0 heartbeat
// windows.
type Variant int

const (
	// VariantEvents is the edge-triggered encoding: discrete press/release
	// events, relayed in broadcasts.
	VariantEvents Variant = iota

	// VariantHeartbeat is the level-triggered encoding: full held-key sets
	// for every frame, relayed in fixed-size windows.
	VariantHeartbeat
)

type header struct {
	typ         MessageType
	payloadSize int
}

// Decoder incrementally decodes server->client messages from a byte stream.
// Feed it raw reads in arrival order and call Next until it reports that it
// needs more data. Partial headers and partial payloads are legal
// intermediate states; the Decoder buffers across Feed calls.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	variant Variant
	buf     []byte
	header  *header
}

// NewDecoder returns a Decoder for the given encoding variant.
func NewDecoder(v Variant) *Decoder {
	return &Decoder{variant: v}
}

// Feed appends raw bytes from the transport to the decode buffer.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next returns the next complete message, or (nil, nil) when the buffered
// bytes do not yet form one. Any returned error is fatal to the connection:
// the stream cannot be resynchronized after an unknown tag or a malformed
// payload.
func (d *Decoder) Next() (Message, error) {
	if d.header == nil {
		if len(d.buf) < HeaderSize {
			return nil, nil
		}
		h := header{
			typ:         MessageType(d.buf[0]),
			payloadSize: int(binary.BigEndian.Uint16(d.buf[1:3])),
		}
		d.buf = d.buf[HeaderSize:]
		d.header = &h
	}
	if len(d.buf) < d.header.payloadSize {
		return nil, nil
	}
	payload := d.buf[:d.header.payloadSize]
	typ := d.header.typ

	msg, err := d.decodePayload(typ, payload)
	if err != nil {
		return nil, err
	}
	d.buf = d.buf[d.header.payloadSize:]
	d.header = nil
	return msg, nil
}

func (d *Decoder) decodePayload(typ MessageType, payload []byte) (Message, error) {
	switch typ {
	case TypeGameStart:
		return decodeGameStart(payload)
	case TypeEventBroadcast:
		return decodeEventBroadcast(payload)
	case TypeInput:
		if d.variant != VariantHeartbeat {
			return nil, fmt.Errorf("%w: %d (input tag is client->server in the event variant)", ErrUnknownType, typ)
		}
		return decodeHeartbeat(payload)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, typ)
	}
}

func decodeGameStart(payload []byte) (Message, error) {
	if len(payload) != gameStartPayloadSize {
		return nil, fmt.Errorf("%w: game start payload is %d bytes, want %d", ErrMalformed, len(payload), gameStartPayloadSize)
	}
	return GameStart{
		ClientID:   payload[0],
		StartFrame: binary.BigEndian.Uint64(payload[1:9]),
		RandomSeed: binary.BigEndian.Uint64(payload[9:17]),
	}, nil
}

func decodeEventBroadcast(payload []byte) (Message, error) {
	if len(payload) < 9 {
		return nil, fmt.Errorf("%w: broadcast payload is %d bytes", ErrMalformed, len(payload))
	}
	msg := EventBroadcast{Frame: binary.BigEndian.Uint64(payload[:8])}
	clientCount := int(payload[8])
	rest := payload[9:]
	for i := 0; i < clientCount; i++ {
		if len(rest) < 2 {
			return nil, fmt.Errorf("%w: truncated client entry", ErrMalformed)
		}
		ce := ClientEvents{ClientID: rest[0]}
		eventCount := int(rest[1])
		rest = rest[2:]
		if len(rest) < eventWireSize*eventCount {
			return nil, fmt.Errorf("%w: truncated event list", ErrMalformed)
		}
		ce.Events = make([]InputEvent, 0, eventCount)
		for j := 0; j < eventCount; j++ {
			ev := InputEvent{
				Key:   Key(rest[0]),
				Type:  EventType(rest[1]),
				Frame: binary.BigEndian.Uint64(rest[2:10]),
			}
			if !ev.Key.Valid() || !ev.Type.Valid() {
				return nil, fmt.Errorf("%w: event key=%d type=%d", ErrMalformed, rest[0], rest[1])
			}
			ce.Events = append(ce.Events, ev)
			rest = rest[eventWireSize:]
		}
		msg.EventsPerClient = append(msg.EventsPerClient, ce)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after broadcast", ErrMalformed, len(rest))
	}
	return msg, nil
}

func decodeHeartbeat(payload []byte) (Message, error) {
	if len(payload) != heartbeatPayloadSize {
		return nil, fmt.Errorf("%w: heartbeat payload is %d bytes, want %d", ErrMalformed, len(payload), heartbeatPayloadSize)
	}
	msg := Heartbeat{Frame: binary.BigEndian.Uint64(payload[:8])}
	for i := 0; i < HeartbeatWindowSize; i++ {
		msg.States[i] = KeyState(payload[8+i])
	}
	return msg, nil
}
