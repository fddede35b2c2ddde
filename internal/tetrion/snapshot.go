package tetrion

// Read-only state accessors. All of them return copies; none mutate the
// simulation, so the renderer can call them freely between advances.

// Matrix returns a copy of the locked board contents. Lines that are mid
// line-clear are still present; LineClear reports which ones they are.
func (t *Tetrion) Matrix() Matrix {
	return t.board
}

// ActiveTetromino returns the currently falling piece, or false when no
// piece is active (during line clears and after game over).
func (t *Tetrion) ActiveTetromino() (Tetromino, bool) {
	if !t.hasActive {
		return Tetromino{}, false
	}
	return t.active.tetromino(), true
}

// GhostTetromino returns the active piece projected to its landing position,
// or false when no piece is active.
func (t *Tetrion) GhostTetromino() (Tetromino, bool) {
	if !t.hasActive {
		return Tetromino{}, false
	}
	ghost := t.active
	for {
		next := ghost
		next.pos.Y++
		if t.collides(next) {
			break
		}
		ghost = next
	}
	return ghost.tetromino(), true
}

// HeldPiece returns the piece in the hold slot, TypeEmpty if none.
func (t *Tetrion) HeldPiece() TetrominoType {
	return t.held
}

// PreviewPieces returns the upcoming pieces in draw order. The bag is kept
// topped up on every draw, so the preview is always fully populated.
func (t *Tetrion) PreviewPieces() []TetrominoType {
	n := previewCount
	if len(t.bag) < n {
		n = len(t.bag)
	}
	preview := make([]TetrominoType, n)
	copy(preview, t.bag)
	return preview
}

// LineClear returns the in-progress line clear, or false when no lines are
// awaiting removal.
func (t *Tetrion) LineClear() (LineClearDelay, bool) {
	if len(t.clearing) == 0 {
		return LineClearDelay{}, false
	}
	lines := make([]int, len(t.clearing))
	copy(lines, t.clearing)
	return LineClearDelay{Lines: lines, Countdown: t.countdown, Delay: lineClearFrames}, true
}

// Score returns the accumulated score.
func (t *Tetrion) Score() int {
	return t.score
}

// LinesCleared returns the total number of cleared lines.
func (t *Tetrion) LinesCleared() int {
	return t.lines
}

// IsGameOver reports whether the stack has topped out.
func (t *Tetrion) IsGameOver() bool {
	return t.gameOver
}
