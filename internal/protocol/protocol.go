// Package protocol implements the binary wire format spoken between the
// client and a game server: a 3-byte header (message type plus big-endian
// payload length) followed by a type-specific payload. All multi-byte
// integers are big-endian; the byte layout is a compatibility surface and
// must not change.
package protocol

import "errors"

// Key identifies a single game input. The integer values are part of the
// wire format.
type Key uint8

const (
	KeyMoveLeft Key = iota
	KeyMoveRight
	KeySoftDrop
	KeyHardDrop
	KeyRotateCW
	KeyRotateCCW
	KeyHold

	keyCount
)

// KeyCount is the number of distinct keys. Every key fits into one bit of a
// KeyState bitmask.
const KeyCount = int(keyCount)

// String returns a human-readable name for the key.
func (k Key) String() string {
	switch k {
	case KeyMoveLeft:
		return "MoveLeft"
	case KeyMoveRight:
		return "MoveRight"
	case KeySoftDrop:
		return "SoftDrop"
	case KeyHardDrop:
		return "HardDrop"
	case KeyRotateCW:
		return "RotateCW"
	case KeyRotateCCW:
		return "RotateCCW"
	case KeyHold:
		return "Hold"
	default:
		return "Unknown"
	}
}

// Valid reports whether k is one of the defined keys.
func (k Key) Valid() bool {
	return k < keyCount
}

// EventType says whether a key transitioned to pressed or to released.
// Input is edge-triggered: an event marks the transition, not the level.
type EventType uint8

const (
	Pressed EventType = iota
	Released
)

// Valid reports whether t is a defined event type.
func (t EventType) Valid() bool {
	return t == Pressed || t == Released
}

// InputEvent is one key transition asserted to occur at a simulation frame.
// Events within one player's stream are ordered by non-decreasing frame;
// ties keep emission order.
type InputEvent struct {
	Key   Key
	Type  EventType
	Frame uint64
}

// KeyState is the complete set of keys held during one simulation frame,
// packed as a bitmask with bit position == Key value. This is the
// level-triggered alternative to edge-triggered InputEvents.
type KeyState uint8

// Set returns the state with the given key marked as held.
func (s KeyState) Set(k Key) KeyState {
	return s | 1<<k
}

// Clear returns the state with the given key no longer held.
func (s KeyState) Clear(k Key) KeyState {
	return s &^ (1 << k)
}

// Has reports whether the given key is held.
func (s KeyState) Has(k Key) bool {
	return s&(1<<k) != 0
}

// MessageType is the 1-byte tag at the start of every framed message.
//
// Tag 0 carries input in both directions with direction-dependent payload
// shapes (client->server input batch or heartbeat window, depending on the
// encoding variant in use). The tag alone does not disambiguate direction;
// this client resolves the ambiguity by connection role: the encoder only
// produces client->server shapes and the Decoder only accepts
// server->client shapes.
type MessageType uint8

const (
	TypeInput MessageType = iota // input batch / heartbeat window
	TypeGridState                // reserved by the protocol, never produced
	TypeGameStart
	TypeEventBroadcast
)

// HeaderSize is the fixed length of the message header: type tag (1) plus
// payload length (2, big-endian).
const HeaderSize = 3

// HeartbeatWindowSize is the number of consecutive per-frame key states
// carried by one heartbeat message, and equally the flush period of the
// edge-triggered input batch.
const HeartbeatWindowSize = 15

// Wire sizes of fixed-layout payload pieces.
const (
	gameStartPayloadSize = 1 + 8 + 8 // client_id + start_frame + random_seed
	eventWireSize        = 1 + 1 + 8 // key + type + frame
	heartbeatPayloadSize = 8 + HeartbeatWindowSize
)

var (
	// ErrUnknownType reports a type tag outside the defined message set.
	// The connection is unusable afterwards and must be torn down.
	ErrUnknownType = errors.New("protocol: unknown message type tag")

	// ErrMalformed reports a structurally invalid payload, such as a
	// payload length that disagrees with the counts encoded inside it.
	ErrMalformed = errors.New("protocol: malformed payload")

	// ErrPayloadTooLarge reports an outbound message whose payload exceeds
	// the 2-byte length field.
	ErrPayloadTooLarge = errors.New("protocol: payload exceeds 65535 bytes")
)

// Message is a decoded server->client message. The set is closed; consumers
// switch over the concrete types and treat any other value as a protocol
// violation.
type Message interface {
	message()
}

// GameStart announces the match parameters: the receiver's client id, the
// first simulation frame, and the shared random seed both simulations are
// constructed from.
type GameStart struct {
	ClientID   uint8
	StartFrame uint64
	RandomSeed uint64
}

func (GameStart) message() {}

// ClientEvents groups the input events one client produced in a broadcast
// window.
type ClientEvents struct {
	ClientID uint8
	Events   []InputEvent
}

// EventBroadcast relays every client's buffered input events up to Frame.
// A broadcast with zero clients is a protocol violation.
type EventBroadcast struct {
	Frame           uint64
	EventsPerClient []ClientEvents
}

func (EventBroadcast) message() {}

// Heartbeat relays a window of the peer's per-frame key states. States[i]
// is the full held-key set during frame Frame+i.
type Heartbeat struct {
	Frame  uint64
	States [HeartbeatWindowSize]KeyState
}

func (Heartbeat) message() {}
