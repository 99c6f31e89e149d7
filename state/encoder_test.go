package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeu5/snake-dqn/game"
)

func testState(dir game.Direction) *game.State {
	board := make([][]int, 9)
	for i := range board {
		board[i] = make([]int, 9)
	}
	board[2][4] = game.CellObstacle
	board[4][6] = game.CellFruitBase
	board[6][4] = game.CellBody
	return &game.State{Board: board, Head: game.Pos{Row: 4, Col: 4}, Dir: dir}
}

func TestSquareEncoderShape(t *testing.T) {
	e := NewSquareEncoder(5)
	require.Equal(t, 121, e.Shape())
	require.Len(t, e.Repr(testState(game.North)), 121)
}

func TestSquareEncoderDeterministic(t *testing.T) {
	e := NewSquareEncoder(2)
	s := testState(game.East)
	require.Equal(t, e.Repr(s), e.Repr(s))
}

func TestSquareEncoderRotates(t *testing.T) {
	e := &SquareEncoder{Radius: 2}

	// The obstacle is two cells north of the head. Facing north it is
	// straight ahead; facing east it appears to the left. In both frames
	// it occupies the same window slot count distance from the center.
	north := e.Repr(testState(game.North))
	east := e.Repr(testState(game.East))

	// center row index in the flattened 5x5 window
	center := 12
	width := 5
	// facing north: two rows ahead of center, same column
	require.Equal(t, -1.0, north[center-2*width])
	// facing east: two columns left of center
	require.Equal(t, -1.0, east[center-2])
}

func TestDiamondEncoderShape(t *testing.T) {
	e := NewDiamondEncoder(5)
	require.Equal(t, 61, e.Shape())
	require.Len(t, e.Repr(testState(game.South)), 61)
}

func TestRadarEncoderShape(t *testing.T) {
	e := NewRadarEncoder(3, 4)
	require.Equal(t, 18, e.Shape())

	repr := e.Repr(testState(game.North))
	require.Len(t, repr, 18)
	for _, v := range repr {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}

func TestRadarEncoderPadsMissingTypes(t *testing.T) {
	e := NewRadarEncoder(2, 4)
	repr := e.Repr(testState(game.North))

	// one obstacle exists: first slot a real distance, second padded to 1
	require.Less(t, repr[0], 1.0)
	require.Equal(t, 1.0, repr[1])
	// fruit type 3 does not exist on the board
	last := len(repr) - 1
	require.Equal(t, 1.0, repr[last])
	require.Equal(t, 1.0, repr[last-1])
}

func TestCellValues(t *testing.T) {
	require.Equal(t, 0.0, cellValue(game.CellEmpty))
	require.Equal(t, -1.0, cellValue(game.CellObstacle))
	require.Equal(t, -0.5, cellValue(game.CellBody))
	require.Equal(t, 0.25, cellValue(game.CellFruitBase))
	require.Equal(t, 1.0, cellValue(game.CellFruitBase+5))
}
