package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zeu5/snake-dqn/game"
)

type countingPolicy struct {
	acts      int
	learns    int
	firstPrev *game.State
	actErr    error
	learnErr  error
}

var _ Policy = &countingPolicy{}

func (c *countingPolicy) CastArgs(_ map[string]string) error { return nil }
func (c *countingPolicy) InitRun(_ *RunContext) error        { return nil }

func (c *countingPolicy) Act(round int, prev *game.State, _ game.Action, _ float64, _ *game.State) (game.Action, error) {
	if c.acts == 0 {
		c.firstPrev = prev
	}
	c.acts++
	return game.ActionForward, c.actErr
}

func (c *countingPolicy) Learn(_ int, _ float64) error {
	c.learns++
	return c.learnErr
}

func testRunContext(duration, scope int) *RunContext {
	return &RunContext{
		GameDuration: duration,
		ScoreScope:   scope,
		Actions:      game.Actions,
		Logger:       zerolog.Nop(),
		Seed:         1,
	}
}

func TestRunnerRunsAllRounds(t *testing.T) {
	env := game.New(game.DefaultConfig())
	p := &countingPolicy{}
	r := NewRunner(env, p, testRunContext(300, 50), nil)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 300, res.Rounds)
	require.Equal(t, 300, res.Trace.Len())
	require.Equal(t, 300, p.acts)
	require.Equal(t, 300, p.learns)
	require.Nil(t, p.firstPrev)
	require.Equal(t, 0, res.PolicyErrors)
}

func TestRunnerContinuesOnPolicyErrors(t *testing.T) {
	env := game.New(game.DefaultConfig())
	p := &countingPolicy{
		actErr:   errors.New("act broken"),
		learnErr: errors.New("learn broken"),
	}
	r := NewRunner(env, p, testRunContext(50, 10), nil)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 50, res.Rounds)
	require.Equal(t, 100, res.PolicyErrors)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	env := game.New(game.DefaultConfig())
	p := &countingPolicy{}
	r := NewRunner(env, p, testRunContext(1000, 100), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, res.Rounds)
}
