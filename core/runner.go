package core

import (
	"context"
	"fmt"

	"github.com/zeu5/snake-dqn/game"
	"github.com/zeu5/snake-dqn/util"
)

// RunResult summarizes one run of the game loop.
type RunResult struct {
	Rounds       int
	TotalReward  float64
	Score        float64 // reward collected in the final ScoreScope rounds
	PolicyErrors int
	Trace        *Trace
}

// Runner drives the game: one Act call and one Learn call per round,
// sequential and single-threaded. The policy must already be initialized
// with InitRun. Policy failures are logged and the run continues with
// stale weights; only context cancellation stops it early.
type Runner struct {
	env    *game.Game
	policy Policy
	rc     *RunContext
	out    *util.Output
}

func NewRunner(env *game.Game, policy Policy, rc *RunContext, out *util.Output) *Runner {
	return &Runner{
		env:    env,
		policy: policy,
		rc:     rc,
		out:    out,
	}
}

func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{Trace: NewTrace()}
	state := r.env.State()
	var prev *game.State
	var prevAction game.Action
	lastReward := 0.0

	for round := 0; round < r.rc.GameDuration; round++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		action, err := r.policy.Act(round, prev, prevAction, lastReward, state)
		if err != nil {
			result.PolicyErrors++
			r.rc.Logger.Error().Err(err).Str("tag", "EXCEPTION").Int("round", round).Msg("act failed")
			action = game.ActionForward
		}
		reward := r.env.Tick(action)

		if err := r.policy.Learn(round, lastReward); err != nil {
			result.PolicyErrors++
			r.rc.Logger.Error().Err(err).Str("tag", "EXCEPTION").Int("round", round).Msg("train step failed")
		}

		result.Trace.AddStep(round, action, reward)
		result.TotalReward += reward
		if round > r.rc.GameDuration-r.rc.ScoreScope {
			result.Score += reward
		}
		result.Rounds++

		prev, prevAction, lastReward = state, action, reward
		state = r.env.State()

		if r.out != nil && round%10 == 0 {
			r.out.TrySet(fmt.Sprintf(
				"round %d/%d, reward: %.1f, score: %.1f, snake: %d",
				round, r.rc.GameDuration, result.TotalReward, result.Score, r.env.Length(),
			))
		}
	}
	return result, nil
}
