package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zeu5/snake-dqn/config"
	"github.com/zeu5/snake-dqn/core"
	"github.com/zeu5/snake-dqn/game"
	"github.com/zeu5/snake-dqn/network"
	"github.com/zeu5/snake-dqn/policies"
	"github.com/zeu5/snake-dqn/stats"
	"github.com/zeu5/snake-dqn/util"
)

func TrainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train a policy on the snake game",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			logger := newLogger()
			env := newGame()
			policy, err := newPolicy()
			if err != nil {
				return err
			}

			rc := runContext(logger)
			if err := policy.InitRun(rc); err != nil {
				return err
			}

			printer := util.NewPrinter(100 * time.Millisecond)
			printer.Start(ctx)
			runner := core.NewRunner(env, policy, rc, printer.Output())
			result, err := runner.Run(ctx)
			printer.Stop()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			if err := saveResults(result, policy); err != nil {
				return err
			}
			logger.Info().Str("tag", "VALUE").
				Float64("score", result.Score).
				Float64("total_reward", result.TotalReward).
				Int("rounds", result.Rounds).
				Int("policy_errors", result.PolicyErrors).
				Msg("run finished")
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flags.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func newGame() *game.Game {
	cfg := game.DefaultConfig()
	cfg.Rows = flags.Rows
	cfg.Cols = flags.Cols
	cfg.Obstacles = flags.Obstacles
	cfg.Fruits = flags.Fruits
	cfg.Seed = int64(flags.Seed)
	return game.New(cfg)
}

func newPolicy() (core.Policy, error) {
	var policy core.Policy
	switch flags.Policy {
	case "dqn":
		builder := network.NewBuilder()
		builder.Seed = flags.Seed
		policy = policies.NewDQNPolicy(builder)
	case "random":
		policy = policies.NewRandomPolicy()
	default:
		return nil, fmt.Errorf("unknown policy %q", flags.Policy)
	}

	args, err := config.ParsePolicyArgs(flags.PolicyArgs)
	if err != nil {
		return nil, err
	}
	if err := policy.CastArgs(args); err != nil {
		return nil, err
	}
	return policy, nil
}

func runContext(logger zerolog.Logger) *core.RunContext {
	return &core.RunContext{
		GameDuration: flags.GameDuration,
		ScoreScope:   flags.ScoreScope,
		Actions:      game.Actions,
		Logger:       logger,
		Seed:         flags.Seed,
	}
}

func saveResults(result *core.RunResult, policy core.Policy) error {
	if err := result.Trace.Record(path.Join(flags.SavePath, "trace.jsonl")); err != nil {
		return err
	}
	ds := stats.NewRewardAnalyzer(100).Analyze(result.Trace)
	if err := util.SaveJSON(path.Join(flags.SavePath, "rewards.json"), ds); err != nil {
		return err
	}
	if dqn, ok := policy.(*policies.DQNPolicy); ok {
		return util.SaveJSON(path.Join(flags.SavePath, "model.json"), dqn.Weights())
	}
	return nil
}
