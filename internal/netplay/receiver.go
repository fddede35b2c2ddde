package netplay

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
)

// pollInterval bounds how long a blocked read can delay shutdown: the
// receiver rechecks its context at least this often.
const pollInterval = 500 * time.Millisecond

// ErrConnectionClosed reports that the server closed or reset the
// connection. Fatal to the session; there is no reconnect.
var ErrConnectionClosed = errors.New("netplay: connection closed by server")

// Receiver drains the game-server socket on its own goroutine, reassembles
// framed messages, and deposits them on the shared queue in arrival order.
type Receiver struct {
	conn    net.Conn
	decoder *protocol.Decoder
	queue   *MessageQueue
	logger  *log.Logger
}

// NewReceiver wires a receiver to a connection and a destination queue.
func NewReceiver(conn net.Conn, variant protocol.Variant, queue *MessageQueue, logger *log.Logger) *Receiver {
	return &Receiver{
		conn:    conn,
		decoder: protocol.NewDecoder(variant),
		queue:   queue,
		logger:  logger,
	}
}

// Run loops until the context is cancelled or the connection fails. All
// failure modes are fatal: a closed or reset connection and any decode error
// end the session. The returned error is nil only on context cancellation.
func (r *Receiver) Run(ctx context.Context) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if err := r.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return err
		}
		n, err := r.conn.Read(buf)
		if n > 0 {
			r.decoder.Feed(buf[:n])
			if decErr := r.dispatch(); decErr != nil {
				r.logger.Error("fatal decode error", "error", decErr)
				return decErr
			}
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) ||
				errors.Is(err, net.ErrClosed) || errors.Is(err, syscall.ECONNRESET) {
				r.logger.Info("server has disconnected")
				return ErrConnectionClosed
			}
			r.logger.Error("read failed", "error", err)
			return err
		}
	}
}

// dispatch moves every complete message from the decoder to the queue.
func (r *Receiver) dispatch() error {
	for {
		msg, err := r.decoder.Next()
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}
		r.queue.Push(msg)
	}
}
