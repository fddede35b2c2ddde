package netplay

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
	"github.com/OpenBrickProtocolFoundation/client/internal/tetrion"
)

// startPollInterval is how often the session rechecks the queue while
// waiting for the server's game-start announcement.
const startPollInterval = 100 * time.Millisecond

// fixedStepRate is the tick rate of the self-driven simulation loop used by
// the heartbeat variant. Well above the 60 Hz simulation clock so the loop
// can never fall behind it.
const fixedStepRate = 180

// Config tunes a netplay session.
type Config struct {
	// Variant selects the input encoding and synchronization policy.
	Variant protocol.Variant

	// InputDelay is the edge-triggered latency buffer in frames.
	// Zero means DefaultInputDelay.
	InputDelay uint64

	// PlaybackMargin is the level-triggered lead requirement in frames.
	// Zero means DefaultPlaybackMargin.
	PlaybackMargin uint64
}

// PlayerView is a render-ready snapshot of one simulation instance.
type PlayerView struct {
	Frame    uint64
	Board    tetrion.Matrix
	Active   *tetrion.Tetromino
	Ghost    *tetrion.Tetromino
	Held     tetrion.TetrominoType
	Preview  []tetrion.TetrominoType
	Clearing []int
	Score    int
	Lines    int
	GameOver bool
}

// Session owns one match: the connection, both simulation handles, the
// receiver goroutine, the local input pipeline, and the remote
// synchronization controller.
//
// The two handles are never shared across goroutines: both are mutated only
// under the session mutex, by Step. In the events variant Step is driven by
// the caller's render tick; in the heartbeat variant Start launches a
// fixed-rate loop and the caller must not call Step.
type Session struct {
	cfg    Config
	logger *log.Logger
	conn   net.Conn
	queue  *MessageQueue
	recv   *Receiver

	mu       sync.Mutex
	clientID uint8
	seed     uint64
	clock    Clock
	local    *tetrion.Tetrion
	remote   *tetrion.Tetrion
	pipeline pipeline
	ctrl     controller
	started  bool
	fatal    error

	cancel     context.CancelFunc
	done       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
	closeHooks []func()
}

// NewSession wraps an established game-server connection. The session takes
// ownership of the connection and closes it on Close.
func NewSession(conn net.Conn, cfg Config, logger *log.Logger) *Session {
	if cfg.InputDelay == 0 {
		cfg.InputDelay = DefaultInputDelay
	}
	if cfg.PlaybackMargin == 0 {
		cfg.PlaybackMargin = DefaultPlaybackMargin
	}
	queue := NewMessageQueue()
	return &Session{
		cfg:    cfg,
		logger: logger,
		conn:   conn,
		queue:  queue,
		recv:   NewReceiver(conn, cfg.Variant, queue, logger),
		done:   make(chan struct{}),
	}
}

// Start launches the receiver, waits for the server's GameStart, and builds
// both simulation handles from the announced seed. It blocks until the match
// starts or the context is cancelled.
func (s *Session) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.recv.Run(ctx); err != nil {
			s.mu.Lock()
			if s.fatal == nil {
				s.fatal = err
			}
			s.mu.Unlock()
		}
		close(s.done)
		cancel()
	}()

	start, err := s.waitForGameStart(ctx)
	if err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.clientID = start.ClientID
	s.seed = start.RandomSeed
	s.local = tetrion.New(start.RandomSeed)
	s.remote = tetrion.New(start.RandomSeed)
	s.clock = NewClock(time.Now())
	switch s.cfg.Variant {
	case protocol.VariantHeartbeat:
		s.pipeline = newHeartbeatPipeline(s.local, s.conn)
		s.ctrl = newHeartbeatController(s.remote, s.cfg.PlaybackMargin)
	default:
		s.pipeline = newEventPipeline(s.local, s.conn)
		s.ctrl = newEventController(s.remote, start.ClientID, s.cfg.InputDelay)
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("game started", "client_id", start.ClientID, "seed", start.RandomSeed, "start_frame", start.StartFrame)

	if s.SelfDriven() {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runFixed(ctx)
		}()
	}
	return nil
}

// waitForGameStart polls the queue until the first message arrives. Any
// first message other than GameStart is a protocol violation. Messages
// decoded in the same batch as the GameStart go back on the queue for the
// controller; the server may well send its first broadcast in the same
// segment.
func (s *Session) waitForGameStart(ctx context.Context) (protocol.GameStart, error) {
	ticker := time.NewTicker(startPollInterval)
	defer ticker.Stop()

	for {
		if msgs := s.queue.Drain(); len(msgs) > 0 {
			start, ok := msgs[0].(protocol.GameStart)
			if !ok {
				return protocol.GameStart{}, fmt.Errorf("%w: first message is %T, want GameStart", ErrProtocolViolation, msgs[0])
			}
			s.queue.Requeue(msgs[1:])
			return start, nil
		}
		select {
		case <-ctx.Done():
			return protocol.GameStart{}, ctx.Err()
		case <-s.done:
			s.mu.Lock()
			err := s.fatal
			s.mu.Unlock()
			if err == nil {
				err = ErrConnectionClosed
			}
			return protocol.GameStart{}, err
		case <-ticker.C:
		}
	}
}

// SelfDriven reports whether the session advances itself on an internal
// fixed-rate loop. When true the caller must not call Step.
func (s *Session) SelfDriven() bool {
	return s.cfg.Variant == protocol.VariantHeartbeat
}

// runFixed ticks the simulation at a rate that cannot fall behind the frame
// clock, decoupled from rendering.
func (s *Session) runFixed(ctx context.Context) {
	ticker := time.NewTicker(time.Second / fixedStepRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := s.Step(now); err != nil {
				s.logger.Error("session stopped", "error", err)
				s.cancel()
				return
			}
		}
	}
}

// Step advances the whole session to the given instant: drains and applies
// remote messages, advances the local simulation to one frame behind the
// clock, runs the transmission policy for every newly simulated frame, and
// lets the controller advance the remote simulation up to its frontier.
func (s *Session) Step(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	if s.fatal != nil {
		return s.fatal
	}

	for _, msg := range s.queue.Drain() {
		if err := s.ctrl.HandleMessage(msg); err != nil {
			s.fatal = err
			return err
		}
	}

	target := s.clock.TargetLocalFrame(now)
	for frame := s.local.CurrentFrame() + 1; frame <= target; frame++ {
		s.local.AdvanceTo(frame)
		if err := s.pipeline.OnFrame(frame); err != nil {
			s.fatal = err
			return err
		}
	}

	s.ctrl.Advance(s.local.CurrentFrame())
	return nil
}

// HandleKey feeds a key transition into the local pipeline, tagged with the
// current clock frame so it lands on a frame the local simulation has not
// yet computed.
func (s *Session) HandleKey(key protocol.Key, typ protocol.EventType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.fatal != nil {
		return
	}
	frame := s.clock.CurrentFrame(time.Now())
	s.pipeline.HandleKey(key, typ, frame)
}

// Tap records a press immediately followed by a release one frame later.
// Terminal input reports no key-up events, so the TUI front end drives every
// input as a tap.
func (s *Session) Tap(key protocol.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.fatal != nil {
		return
	}
	frame := s.clock.CurrentFrame(time.Now())
	s.pipeline.HandleKey(key, protocol.Pressed, frame)
	s.pipeline.HandleKey(key, protocol.Released, frame+1)
}

// Views returns render snapshots of both simulations. Safe to call from the
// render goroutine at any rate.
func (s *Session) Views() (local, remote PlayerView, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return PlayerView{}, PlayerView{}, false
	}
	return snapshotOf(s.local), snapshotOf(s.remote), true
}

func snapshotOf(t *tetrion.Tetrion) PlayerView {
	view := PlayerView{
		Frame:    t.CurrentFrame(),
		Board:    t.Matrix(),
		Held:     t.HeldPiece(),
		Preview:  t.PreviewPieces(),
		Score:    t.Score(),
		Lines:    t.LinesCleared(),
		GameOver: t.IsGameOver(),
	}
	if active, ok := t.ActiveTetromino(); ok {
		view.Active = &active
	}
	if ghost, ok := t.GhostTetromino(); ok {
		view.Ghost = &ghost
	}
	if clear, ok := t.LineClear(); ok {
		view.Clearing = clear.Lines
	}
	return view
}

// ClientID returns the id the server assigned at game start.
func (s *Session) ClientID() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

// Seed returns the shared random seed of the match.
func (s *Session) Seed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

// Err returns the fatal error that ended the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatal
}

// Done is closed when the receiver has terminated, which ends the session.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// OnClose registers a hook that runs once, on the first Close. Used for
// teardown that outlives the connection, like destroying a hosted lobby.
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeHooks = append(s.closeHooks, fn)
}

// Close tears the session down: cancels the loops, closes the connection,
// releases both simulation handles, and runs the registered close hooks.
// Safe to call more than once.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.conn.Close()
	s.wg.Wait()

	s.mu.Lock()
	if s.local != nil {
		s.local.Close()
	}
	if s.remote != nil {
		s.remote.Close()
	}
	hooks := s.closeHooks
	s.mu.Unlock()

	s.closeOnce.Do(func() {
		for _, fn := range hooks {
			fn()
		}
	})
}
