package core

import (
	"github.com/rs/zerolog"

	"github.com/zeu5/snake-dqn/game"
)

// RunContext carries the run-wide constants a policy needs: the horizon,
// the length of the final score-determining window, the ordered action
// set and the logging sink. Created once per run, read-only afterwards.
type RunContext struct {
	GameDuration int
	ScoreScope   int
	Actions      []game.Action
	Logger       zerolog.Logger
	Seed         uint64
}

// Policy is the lifecycle contract between the run driver and an agent.
// CastArgs parses string-keyed hyperparameter overrides, InitRun builds
// the policy's internals, then the driver calls Act and Learn once per
// round, sequentially.
type Policy interface {
	CastArgs(args map[string]string) error
	InitRun(rc *RunContext) error

	// Act receives the previous state, the action taken there and the
	// reward it produced (prev is nil on the first round), plus the new
	// state, and returns the next action.
	Act(round int, prev *game.State, prevAction game.Action, reward float64, next *game.State) (game.Action, error)

	// Learn performs one training step. Errors are best-effort: the
	// driver logs them and keeps the run going.
	Learn(round int, reward float64) error
}
