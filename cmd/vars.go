package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zeu5/snake-dqn/config"
)

var (
	flags *config.Flags = config.DefaultFlags()

	savePath string
	debug    bool

	rows      int
	cols      int
	obstacles int
	fruits    int

	gameDuration int
	scoreScope   int
	seed         uint64

	policyName string
	policyArgs []string
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&savePath, "save-path", flags.SavePath, "Path to save results")
	cmd.PersistentFlags().BoolVar(&debug, "debug", flags.Debug, "Enable debug logging")

	cmd.PersistentFlags().IntVar(&rows, "rows", flags.Rows, "Board rows")
	cmd.PersistentFlags().IntVar(&cols, "cols", flags.Cols, "Board columns")
	cmd.PersistentFlags().IntVar(&obstacles, "obstacles", flags.Obstacles, "Number of obstacles")
	cmd.PersistentFlags().IntVar(&fruits, "fruits", flags.Fruits, "Number of fruits on the board")

	cmd.PersistentFlags().IntVar(&gameDuration, "game-duration", flags.GameDuration, "Number of rounds")
	cmd.PersistentFlags().IntVar(&scoreScope, "score-scope", flags.ScoreScope, "Final rounds that count towards the score")
	cmd.PersistentFlags().Uint64Var(&seed, "seed", flags.Seed, "Random seed")

	cmd.PersistentFlags().StringVar(&policyName, "policy", flags.Policy, "Policy to run (dqn, random)")
	cmd.PersistentFlags().StringSliceVar(&policyArgs, "policy-arg", flags.PolicyArgs, "Policy arg as key=value, repeatable")
}

func UpdateFlags() {
	flags.SavePath = savePath
	flags.Debug = debug

	flags.Rows = rows
	flags.Cols = cols
	flags.Obstacles = obstacles
	flags.Fruits = fruits

	flags.GameDuration = gameDuration
	flags.ScoreScope = scoreScope
	flags.Seed = seed

	flags.Policy = policyName
	flags.PolicyArgs = policyArgs
}
