// Package tetrion implements the deterministic falling-block simulation
// core. Two instances created from the same seed and fed the same
// frame-ordered event sequence reach bit-identical states at every advanced
// frame; the netplay layer depends on exactly this property.
//
// The usage contract mirrors the native simulator the original client
// wrapped: events must be enqueued for a frame before AdvanceTo passes that
// frame, otherwise they are silently ignored.
package tetrion

import (
	"math/rand"

	"github.com/OpenBrickProtocolFoundation/client/internal/protocol"
)

// Board dimensions in cells.
const (
	Width  = 10
	Height = 22
)

// Simulation tuning, in frames at the fixed 60 Hz simulation rate.
const (
	gravityInterval  = 28 // frames per downward step under normal gravity
	softDropInterval = 4  // frames per downward step while soft drop is held
	autoShiftDelay   = 10 // frames a direction must be held before repeating
	autoShiftRepeat  = 2  // frames between repeated shifts once delayed
	lineClearFrames  = 30 // delay between filling a line and removing it
	previewCount     = 6
)

var lineClearScores = [5]int{0, 100, 300, 500, 800}

// Matrix is a read-only snapshot of the board. Index as [y][x], row 0 at the
// top.
type Matrix [Height][Width]TetrominoType

// LineClearDelay describes lines that are filled but not yet removed. Lines
// stay on the board for a fixed delay so the renderer can flash them.
type LineClearDelay struct {
	Lines     []int  // row indices, top to bottom
	Countdown uint64 // frames until removal
	Delay     uint64 // total delay, for animation progress
}

// Tetrion is one player's deterministic simulation instance. It is not safe
// for concurrent use; each instance is owned by exactly one goroutine.
type Tetrion struct {
	frame  uint64
	closed bool

	rng   *rand.Rand
	board Matrix
	bag   []TetrominoType

	active    activePiece
	hasActive bool
	held      TetrominoType
	holdUsed  bool

	pending  []protocol.InputEvent
	heldKeys keyFlags

	gravityCounter int
	shiftCounter   int
	shiftDir       int // -1 left, 1 right, 0 none

	clearing  []int
	countdown uint64

	score    int
	lines    int
	gameOver bool
}

type keyFlags struct {
	left, right, soft bool
}

// New creates a simulation seeded for a match. Identical seeds produce
// identical piece sequences.
func New(seed uint64) *Tetrion {
	t := &Tetrion{
		rng: rand.New(rand.NewSource(int64(seed))),
	}
	t.spawnNext()
	return t
}

// Close releases the instance. Further calls are no-ops; a closed Tetrion
// ignores events and advances.
func (t *Tetrion) Close() {
	if t.closed {
		return
	}
	t.closed = true
	t.pending = nil
}

// CurrentFrame returns the highest frame the simulation has computed.
func (t *Tetrion) CurrentFrame() uint64 {
	return t.frame
}

// EnqueueEvent queues an input event to be applied at its tagged frame.
// Events tagged at or before the current frame are dropped: the frame they
// belong to has already been simulated and cannot be revisited.
func (t *Tetrion) EnqueueEvent(ev protocol.InputEvent) {
	if t.closed || ev.Frame <= t.frame {
		return
	}
	t.pending = append(t.pending, ev)
}

// AdvanceTo deterministically steps the simulation up to and including
// target, applying queued events at their tagged frames. A target at or
// below the current frame is a no-op.
func (t *Tetrion) AdvanceTo(target uint64) {
	if t.closed {
		return
	}
	for t.frame < target {
		t.frame++
		t.applyPendingEvents()
		t.stepFrame()
	}
}

func (t *Tetrion) applyPendingEvents() {
	n := 0
	for _, ev := range t.pending {
		if ev.Frame <= t.frame {
			t.applyEvent(ev)
		} else {
			t.pending[n] = ev
			n++
		}
	}
	t.pending = t.pending[:n]
}

func (t *Tetrion) applyEvent(ev protocol.InputEvent) {
	if ev.Type == protocol.Released {
		switch ev.Key {
		case protocol.KeyMoveLeft:
			t.heldKeys.left = false
			if t.shiftDir == -1 {
				t.shiftDir = 0
			}
		case protocol.KeyMoveRight:
			t.heldKeys.right = false
			if t.shiftDir == 1 {
				t.shiftDir = 0
			}
		case protocol.KeySoftDrop:
			t.heldKeys.soft = false
		}
		return
	}

	switch ev.Key {
	case protocol.KeyMoveLeft:
		t.heldKeys.left = true
		t.shiftDir = -1
		t.shiftCounter = 0
		t.tryShift(-1)
	case protocol.KeyMoveRight:
		t.heldKeys.right = true
		t.shiftDir = 1
		t.shiftCounter = 0
		t.tryShift(1)
	case protocol.KeySoftDrop:
		t.heldKeys.soft = true
	case protocol.KeyHardDrop:
		t.hardDrop()
	case protocol.KeyRotateCW:
		t.tryRotate(1)
	case protocol.KeyRotateCCW:
		t.tryRotate(3)
	case protocol.KeyHold:
		t.holdPiece()
	}
}

func (t *Tetrion) stepFrame() {
	if t.gameOver {
		return
	}

	if len(t.clearing) > 0 {
		t.countdown--
		if t.countdown == 0 {
			t.removeClearedLines()
			t.spawnNext()
		}
		return
	}
	if !t.hasActive {
		return
	}

	// Delayed auto shift while a direction stays held.
	if t.shiftDir != 0 {
		t.shiftCounter++
		if t.shiftCounter >= autoShiftDelay && (t.shiftCounter-autoShiftDelay)%autoShiftRepeat == 0 {
			t.tryShift(t.shiftDir)
		}
	}

	interval := gravityInterval
	if t.heldKeys.soft {
		interval = softDropInterval
	}
	t.gravityCounter++
	if t.gravityCounter >= interval {
		t.gravityCounter = 0
		if !t.tryMove(0, 1) {
			t.lockActive()
		}
	}
}

func (t *Tetrion) tryShift(dx int) {
	t.tryMove(dx, 0)
}

func (t *Tetrion) tryMove(dx, dy int) bool {
	if !t.hasActive {
		return false
	}
	moved := t.active
	moved.pos.X += dx
	moved.pos.Y += dy
	if t.collides(moved) {
		return false
	}
	t.active = moved
	return true
}

func (t *Tetrion) tryRotate(quarterTurns int) {
	if !t.hasActive {
		return
	}
	rotated := t.active
	rotated.rotation = (rotated.rotation + quarterTurns) % 4
	// Simple wall kicks: in place, then one or two cells sideways, then one
	// cell up.
	for _, kick := range [...]Vec2{{0, 0}, {-1, 0}, {1, 0}, {-2, 0}, {2, 0}, {0, -1}} {
		candidate := rotated
		candidate.pos.X += kick.X
		candidate.pos.Y += kick.Y
		if !t.collides(candidate) {
			t.active = candidate
			return
		}
	}
}

func (t *Tetrion) hardDrop() {
	if !t.hasActive {
		return
	}
	for t.tryMove(0, 1) {
	}
	t.lockActive()
}

func (t *Tetrion) holdPiece() {
	if !t.hasActive || t.holdUsed {
		return
	}
	t.holdUsed = true
	previous := t.held
	t.held = t.active.typ
	if previous == TypeEmpty {
		t.spawnPiece(t.nextFromBag())
	} else {
		t.spawnPiece(previous)
	}
}

func (t *Tetrion) collides(p activePiece) bool {
	for _, m := range p.minos() {
		if m.X < 0 || m.X >= Width || m.Y < 0 || m.Y >= Height {
			return true
		}
		if t.board[m.Y][m.X] != TypeEmpty {
			return true
		}
	}
	return false
}

func (t *Tetrion) lockActive() {
	for _, m := range t.active.minos() {
		t.board[m.Y][m.X] = t.active.typ
	}
	t.hasActive = false
	t.holdUsed = false
	t.gravityCounter = 0

	full := t.fullLines()
	if len(full) > 0 {
		t.clearing = full
		t.countdown = lineClearFrames
		t.lines += len(full)
		t.score += lineClearScores[len(full)]
		return
	}
	t.spawnNext()
}

func (t *Tetrion) fullLines() []int {
	var full []int
	for y := 0; y < Height; y++ {
		filled := true
		for x := 0; x < Width; x++ {
			if t.board[y][x] == TypeEmpty {
				filled = false
				break
			}
		}
		if filled {
			full = append(full, y)
		}
	}
	return full
}

func (t *Tetrion) removeClearedLines() {
	for _, line := range t.clearing {
		for y := line; y > 0; y-- {
			t.board[y] = t.board[y-1]
		}
		t.board[0] = [Width]TetrominoType{}
	}
	t.clearing = nil
	t.countdown = 0
}

func (t *Tetrion) spawnNext() {
	t.spawnPiece(t.nextFromBag())
}

func (t *Tetrion) spawnPiece(typ TetrominoType) {
	box := shapes[typ].boxSize
	t.active = activePiece{
		typ: typ,
		pos: Vec2{X: (Width - box) / 2, Y: 0},
	}
	t.hasActive = true
	t.gravityCounter = 0
	if t.collides(t.active) {
		t.hasActive = false
		t.gameOver = true
	}
}

// nextFromBag draws from a 7-bag randomizer, refilling with a fresh shuffle
// of all seven pieces whenever the bag runs low. The preview needs at least
// previewCount pieces ahead of the draw position.
func (t *Tetrion) nextFromBag() TetrominoType {
	t.fillBag(previewCount + 1)
	next := t.bag[0]
	t.bag = t.bag[1:]
	return next
}

func (t *Tetrion) fillBag(minimum int) {
	for len(t.bag) < minimum {
		order := t.rng.Perm(7)
		for _, i := range order {
			t.bag = append(t.bag, TetrominoType(i+1))
		}
	}
}
