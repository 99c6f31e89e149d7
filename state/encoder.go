// Package state turns raw game snapshots into the fixed-size numeric
// vectors the Q-network consumes.
package state

import (
	"sort"

	"github.com/zeu5/snake-dqn/game"
)

// Encoder maps a game snapshot to a feature vector of fixed length.
// Implementations must be deterministic and side-effect free.
type Encoder interface {
	Repr(s *game.State) []float64
	Shape() int
}

// Representation names accepted in policy args.
const (
	RepSquare  = "square"
	RepDiamond = "diamond"
	RepRadar   = "radar"
)

// cellValue normalizes a board cell code into [-1, 1]. Fruits map to
// increasing positive values by type.
func cellValue(cell int) float64 {
	switch cell {
	case game.CellEmpty:
		return 0
	case game.CellObstacle:
		return -1
	case game.CellBody:
		return -0.5
	}
	v := 0.25 * float64(cell-game.CellFruitBase+1)
	if v > 1 {
		v = 1
	}
	return v
}

// frame is the head-relative coordinate system: offsets are expressed as
// (forward, right) steps and rotated into board coordinates, so the window
// always "looks" in the direction of travel.
func frame(d game.Direction) (fwd, right game.Pos) {
	switch d {
	case game.North:
		return game.Pos{Row: -1}, game.Pos{Col: 1}
	case game.East:
		return game.Pos{Col: 1}, game.Pos{Row: 1}
	case game.South:
		return game.Pos{Row: 1}, game.Pos{Col: -1}
	default:
		return game.Pos{Col: -1}, game.Pos{Row: -1}
	}
}

func at(s *game.State, center game.Pos, fwd, right game.Pos, f, r int) float64 {
	rows, cols := len(s.Board), len(s.Board[0])
	row := (center.Row+f*fwd.Row+r*right.Row)%rows + rows
	col := (center.Col+f*fwd.Col+r*right.Col)%cols + cols
	return cellValue(s.Board[row%rows][col%cols])
}

// SquareEncoder exposes the (2*Radius+1)^2 window around the head,
// rotated head-up. With StepForward the window is centered one cell ahead
// of the head.
type SquareEncoder struct {
	Radius      int
	StepForward bool
}

func NewSquareEncoder(radius int) *SquareEncoder {
	return &SquareEncoder{Radius: radius, StepForward: true}
}

func (e *SquareEncoder) Shape() int {
	n := 2*e.Radius + 1
	return n * n
}

func (e *SquareEncoder) Repr(s *game.State) []float64 {
	fwd, right := frame(s.Dir)
	center := e.center(s, fwd)
	out := make([]float64, 0, e.Shape())
	for f := e.Radius; f >= -e.Radius; f-- {
		for r := -e.Radius; r <= e.Radius; r++ {
			out = append(out, at(s, center, fwd, right, f, r))
		}
	}
	return out
}

func (e *SquareEncoder) center(s *game.State, fwd game.Pos) game.Pos {
	if !e.StepForward {
		return s.Head
	}
	return game.Pos{Row: s.Head.Row + fwd.Row, Col: s.Head.Col + fwd.Col}
}

// DiamondEncoder exposes the Manhattan ball of radius Radius around the
// head, rotated head-up.
type DiamondEncoder struct {
	Radius      int
	StepForward bool
}

func NewDiamondEncoder(radius int) *DiamondEncoder {
	return &DiamondEncoder{Radius: radius, StepForward: true}
}

func (e *DiamondEncoder) Shape() int {
	// 1 + 4 + 8 + ... cells with |f|+|r| <= Radius
	return 2*e.Radius*e.Radius + 2*e.Radius + 1
}

func (e *DiamondEncoder) Repr(s *game.State) []float64 {
	fwd, right := frame(s.Dir)
	center := s.Head
	if e.StepForward {
		center = game.Pos{Row: s.Head.Row + fwd.Row, Col: s.Head.Col + fwd.Col}
	}
	out := make([]float64, 0, e.Shape())
	for f := e.Radius; f >= -e.Radius; f-- {
		for r := -e.Radius; r <= e.Radius; r++ {
			if abs(f)+abs(r) > e.Radius {
				continue
			}
			out = append(out, at(s, center, fwd, right, f, r))
		}
	}
	return out
}

// RadarEncoder summarizes the whole board: for every cell type it reports
// the normalized distances of the PerType nearest occurrences, padded
// with 1 when fewer exist.
type RadarEncoder struct {
	PerType    int
	FruitTypes int
}

func NewRadarEncoder(perType, fruitTypes int) *RadarEncoder {
	return &RadarEncoder{PerType: perType, FruitTypes: fruitTypes}
}

func (e *RadarEncoder) numTypes() int {
	// obstacles, bodies and each fruit type
	return 2 + e.FruitTypes
}

func (e *RadarEncoder) Shape() int {
	return e.numTypes() * e.PerType
}

func (e *RadarEncoder) Repr(s *game.State) []float64 {
	rows, cols := len(s.Board), len(s.Board[0])
	maxDist := float64(rows/2 + cols/2)

	dists := make([][]float64, e.numTypes())
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			t := typeIndex(s.Board[row][col])
			if t < 0 || t >= e.numTypes() {
				continue
			}
			d := float64(torusDist(s.Head.Row, row, rows) + torusDist(s.Head.Col, col, cols))
			dists[t] = append(dists[t], d/maxDist)
		}
	}

	out := make([]float64, 0, e.Shape())
	for _, ds := range dists {
		sort.Float64s(ds)
		for i := 0; i < e.PerType; i++ {
			if i < len(ds) {
				out = append(out, ds[i])
			} else {
				out = append(out, 1)
			}
		}
	}
	return out
}

func typeIndex(cell int) int {
	switch cell {
	case game.CellEmpty:
		return -1
	case game.CellObstacle:
		return 0
	case game.CellBody:
		return 1
	}
	return 2 + (cell - game.CellFruitBase)
}

func torusDist(a, b, n int) int {
	d := abs(a - b)
	if n-d < d {
		d = n - d
	}
	return d
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
