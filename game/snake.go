package game

import (
	"math/rand"
)

// Action is a relative move of the snake's head.
type Action int

const (
	ActionLeft Action = iota
	ActionRight
	ActionForward
)

// Actions is the fixed, ordered action set. Policies receive it by value
// and must return one of its members from Act.
var Actions = []Action{ActionLeft, ActionRight, ActionForward}

func (a Action) String() string {
	switch a {
	case ActionLeft:
		return "L"
	case ActionRight:
		return "R"
	case ActionForward:
		return "F"
	}
	return "?"
}

// Direction of travel of the snake's head on the board.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Cell codes stored on the board. Fruit codes start at CellFruitBase and
// carry their reward in Config.FruitRewards.
const (
	CellEmpty = iota
	CellObstacle
	CellBody
	CellFruitBase
)

type Pos struct {
	Row, Col int
}

// State is an immutable snapshot of the game handed to policies.
type State struct {
	Board [][]int
	Head  Pos
	Dir   Direction
}

// Clone deep-copies the snapshot.
func (s *State) Clone() *State {
	board := make([][]int, len(s.Board))
	for i, row := range s.Board {
		board[i] = make([]int, len(row))
		copy(board[i], row)
	}
	return &State{Board: board, Head: s.Head, Dir: s.Dir}
}

type Config struct {
	Rows, Cols   int
	Obstacles    int
	FruitRewards []float64 // reward of fruit code CellFruitBase+i
	Fruits       int       // fruits kept on the board at any time
	DeathPenalty float64
	InitLength   int
	Seed         int64
}

func DefaultConfig() Config {
	return Config{
		Rows:         20,
		Cols:         30,
		Obstacles:    15,
		FruitRewards: []float64{1, 3, 5, -1},
		Fruits:       25,
		DeathPenalty: -5,
		InitLength:   3,
		Seed:         1,
	}
}

// Game is the snake grid environment. The board wraps around at the edges.
// One Tick moves the head by one cell; eating a fruit grows the snake by
// one and yields the fruit's reward, hitting an obstacle or a snake body
// kills the snake, which respawns at a free spot with the death penalty
// as reward.
type Game struct {
	cfg   Config
	rand  *rand.Rand
	board [][]int
	snake []Pos // head first
	dir   Direction
	grow  int
}

func New(cfg Config) *Game {
	g := &Game{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
	g.Reset()
	return g
}

// Reset clears the board and places obstacles, fruits and a fresh snake.
func (g *Game) Reset() {
	g.board = make([][]int, g.cfg.Rows)
	for i := range g.board {
		g.board[i] = make([]int, g.cfg.Cols)
	}
	for i := 0; i < g.cfg.Obstacles; i++ {
		p := g.randomFree()
		g.board[p.Row][p.Col] = CellObstacle
	}
	for i := 0; i < g.cfg.Fruits; i++ {
		g.spawnFruit()
	}
	g.spawnSnake()
}

// State returns a deep-copy snapshot of the current board and head.
func (g *Game) State() *State {
	s := &State{Board: g.board, Head: g.snake[0], Dir: g.dir}
	return s.Clone()
}

// Tick advances the game by one move and returns the reward of the
// transition.
func (g *Game) Tick(a Action) float64 {
	g.dir = turn(g.dir, a)
	next := g.wrap(step(g.snake[0], g.dir))

	cell := g.board[next.Row][next.Col]
	if cell == CellObstacle || cell == CellBody {
		g.clearSnake()
		g.spawnSnake()
		return g.cfg.DeathPenalty
	}

	reward := 0.0
	if cell >= CellFruitBase {
		reward = g.cfg.FruitRewards[cell-CellFruitBase]
		g.grow++
		g.spawnFruit()
	}

	g.snake = append([]Pos{next}, g.snake...)
	g.board[next.Row][next.Col] = CellBody
	if g.grow > 0 {
		g.grow--
	} else {
		tail := g.snake[len(g.snake)-1]
		g.snake = g.snake[:len(g.snake)-1]
		g.board[tail.Row][tail.Col] = CellEmpty
	}
	return reward
}

// Length of the snake, head included.
func (g *Game) Length() int {
	return len(g.snake)
}

func (g *Game) wrap(p Pos) Pos {
	p.Row = (p.Row + g.cfg.Rows) % g.cfg.Rows
	p.Col = (p.Col + g.cfg.Cols) % g.cfg.Cols
	return p
}

func (g *Game) randomFree() Pos {
	for {
		p := Pos{Row: g.rand.Intn(g.cfg.Rows), Col: g.rand.Intn(g.cfg.Cols)}
		if g.board[p.Row][p.Col] == CellEmpty {
			return p
		}
	}
}

func (g *Game) spawnFruit() {
	p := g.randomFree()
	g.board[p.Row][p.Col] = CellFruitBase + g.rand.Intn(len(g.cfg.FruitRewards))
}

func (g *Game) clearSnake() {
	for _, p := range g.snake {
		g.board[p.Row][p.Col] = CellEmpty
	}
	g.snake = nil
}

// spawnSnake places a straight snake of InitLength heading in a random
// direction, tail trailing behind the head.
func (g *Game) spawnSnake() {
	g.dir = Direction(g.rand.Intn(4))
	g.grow = 0

	back := opposite(g.dir)
	for {
		head := g.randomFree()
		body := make([]Pos, 0, g.cfg.InitLength)
		p := head
		ok := true
		for i := 0; i < g.cfg.InitLength; i++ {
			if g.board[p.Row][p.Col] != CellEmpty {
				ok = false
				break
			}
			body = append(body, p)
			p = g.wrap(step(p, back))
		}
		if !ok {
			continue
		}
		g.snake = body
		for _, p := range body {
			g.board[p.Row][p.Col] = CellBody
		}
		return
	}
}

func step(p Pos, d Direction) Pos {
	switch d {
	case North:
		return Pos{p.Row - 1, p.Col}
	case East:
		return Pos{p.Row, p.Col + 1}
	case South:
		return Pos{p.Row + 1, p.Col}
	default:
		return Pos{p.Row, p.Col - 1}
	}
}

func turn(d Direction, a Action) Direction {
	switch a {
	case ActionLeft:
		return (d + 3) % 4
	case ActionRight:
		return (d + 1) % 4
	}
	return d
}

func opposite(d Direction) Direction {
	return (d + 2) % 4
}
