package netplay

import (
	"sync"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
)

// MessageQueue carries decoded messages from the receiver goroutine to the
// session in strict arrival order. Single producer, single consumer; the
// queue is unbounded, matching the in-order reliable transport assumption
// (the consumer drains it every tick, far faster than the peer can send).
type MessageQueue struct {
	mu   sync.Mutex
	msgs []protocol.Message
}

// NewMessageQueue returns an empty queue.
func NewMessageQueue() *MessageQueue {
	return &MessageQueue{}
}

// Push appends a message. Called only by the receiver goroutine.
func (q *MessageQueue) Push(msg protocol.Message) {
	q.mu.Lock()
	q.msgs = append(q.msgs, msg)
	q.mu.Unlock()
}

// Drain removes and returns all queued messages in arrival order. Returns
// nil when the queue is empty.
func (q *MessageQueue) Drain() []protocol.Message {
	q.mu.Lock()
	msgs := q.msgs
	q.msgs = nil
	q.mu.Unlock()
	return msgs
}

// Requeue puts drained messages back at the front of the queue, ahead of
// anything pushed since the drain, preserving arrival order.
func (q *MessageQueue) Requeue(msgs []protocol.Message) {
	if len(msgs) == 0 {
		return
	}
	q.mu.Lock()
	q.msgs = append(msgs[:len(msgs):len(msgs)], q.msgs...)
	q.mu.Unlock()
}

// Len returns the current queue depth.
func (q *MessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}
