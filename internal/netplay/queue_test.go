package netplay

import (
	"testing"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
)

func TestMessageQueueRequeueKeepsOrder(t *testing.T) {
	q := NewMessageQueue()
	q.Push(protocol.EventBroadcast{Frame: 15})
	q.Push(protocol.EventBroadcast{Frame: 30})
	drained := q.Drain()

	// A message pushed between drain and requeue must come after the
	// requeued ones.
	q.Push(protocol.EventBroadcast{Frame: 45})
	q.Requeue(drained[1:])

	msgs := q.Drain()
	if len(msgs) != 2 {
		t.Fatalf("Queue holds %d messages, want 2", len(msgs))
	}
	if got := msgs[0].(protocol.EventBroadcast).Frame; got != 30 {
		t.Errorf("First message frame = %d, want 30", got)
	}
	if got := msgs[1].(protocol.EventBroadcast).Frame; got != 45 {
		t.Errorf("Second message frame = %d, want 45", got)
	}
}
