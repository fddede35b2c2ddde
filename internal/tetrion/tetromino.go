package tetrion

// Vec2 is a board-space position. Y grows downwards.
type Vec2 struct {
	X int
	Y int
}

// TetrominoType identifies a piece kind. Zero doubles as "empty cell" in the
// board matrix.
type TetrominoType uint8

const (
	TypeEmpty TetrominoType = iota
	TypeI
	TypeJ
	TypeL
	TypeO
	TypeS
	TypeT
	TypeZ
)

// String returns the conventional one-letter piece name.
func (t TetrominoType) String() string {
	switch t {
	case TypeEmpty:
		return "."
	case TypeI:
		return "I"
	case TypeJ:
		return "J"
	case TypeL:
		return "L"
	case TypeO:
		return "O"
	case TypeS:
		return "S"
	case TypeT:
		return "T"
	case TypeZ:
		return "Z"
	default:
		return "?"
	}
}

// Tetromino is a piece resolved to absolute board positions.
type Tetromino struct {
	MinoPositions [4]Vec2
	Type          TetrominoType
}

// shape holds the four rotation states of a piece as cell offsets inside its
// bounding box, plus the box size used for rotation.
type shape struct {
	rotations [4][4]Vec2
	boxSize   int
}

// Spawn orientations inside the bounding box. Rotations are derived at init
// by rotating the box clockwise.
var baseShapes = map[TetrominoType]struct {
	cells   [4]Vec2
	boxSize int
}{
	TypeI: {cells: [4]Vec2{{0, 1}, {1, 1}, {2, 1}, {3, 1}}, boxSize: 4},
	TypeJ: {cells: [4]Vec2{{0, 0}, {0, 1}, {1, 1}, {2, 1}}, boxSize: 3},
	TypeL: {cells: [4]Vec2{{2, 0}, {0, 1}, {1, 1}, {2, 1}}, boxSize: 3},
	TypeO: {cells: [4]Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, boxSize: 2},
	TypeS: {cells: [4]Vec2{{1, 0}, {2, 0}, {0, 1}, {1, 1}}, boxSize: 3},
	TypeT: {cells: [4]Vec2{{1, 0}, {0, 1}, {1, 1}, {2, 1}}, boxSize: 3},
	TypeZ: {cells: [4]Vec2{{0, 0}, {1, 0}, {1, 1}, {2, 1}}, boxSize: 3},
}

var shapes map[TetrominoType]shape

func init() {
	shapes = make(map[TetrominoType]shape, len(baseShapes))
	for typ, base := range baseShapes {
		s := shape{boxSize: base.boxSize}
		cells := base.cells
		for r := 0; r < 4; r++ {
			s.rotations[r] = cells
			cells = rotateCW(cells, base.boxSize)
		}
		shapes[typ] = s
	}
}

// rotateCW rotates cell offsets a quarter turn clockwise inside an n-sized
// bounding box: (x, y) -> (n-1-y, x).
func rotateCW(cells [4]Vec2, n int) [4]Vec2 {
	var out [4]Vec2
	for i, c := range cells {
		out[i] = Vec2{X: n - 1 - c.Y, Y: c.X}
	}
	return out
}

// activePiece is a falling piece: type, rotation state, and the board
// position of its bounding box.
type activePiece struct {
	typ      TetrominoType
	rotation int
	pos      Vec2
}

// minos returns the absolute board positions of the piece's cells.
func (p activePiece) minos() [4]Vec2 {
	var out [4]Vec2
	for i, c := range shapes[p.typ].rotations[p.rotation] {
		out[i] = Vec2{X: p.pos.X + c.X, Y: p.pos.Y + c.Y}
	}
	return out
}

// tetromino converts the piece to its exported representation.
func (p activePiece) tetromino() Tetromino {
	return Tetromino{MinoPositions: p.minos(), Type: p.typ}
}
