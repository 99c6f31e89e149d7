package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeu5/snake-dqn/core"
	"github.com/zeu5/snake-dqn/network"
	"github.com/zeu5/snake-dqn/policies"
	"github.com/zeu5/snake-dqn/util"
)

// noLearn runs a policy greedily: Act passes through, Learn is skipped.
type noLearn struct {
	core.Policy
}

func (n *noLearn) Learn(_ int, _ float64) error {
	return nil
}

func PlayCommand() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run a trained model greedily and report the score",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			logger := newLogger()
			env := newGame()

			builder := network.NewBuilder()
			builder.Seed = flags.Seed
			policy := policies.NewDQNPolicy(builder)
			// greedy: zero temperature, no random actions
			if err := policy.CastArgs(map[string]string{
				"epsilon":          "0",
				"softmax_sampling": "false",
			}); err != nil {
				return err
			}

			rc := runContext(logger)
			if err := policy.InitRun(rc); err != nil {
				return err
			}

			var weights [][]float64
			if err := util.LoadJSON(modelPath, &weights); err != nil {
				return err
			}
			if err := policy.SetWeights(weights); err != nil {
				return err
			}

			printer := util.NewPrinter(100 * time.Millisecond)
			printer.Start(ctx)
			runner := core.NewRunner(env, &noLearn{policy}, rc, printer.Output())
			result, err := runner.Run(ctx)
			printer.Stop()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			logger.Info().Str("tag", "VALUE").
				Float64("score", result.Score).
				Float64("total_reward", result.TotalReward).
				Int("snake_length", env.Length()).
				Msg("play finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", path.Join("results", "model.json"), "Path to the saved model weights")
	return cmd
}
