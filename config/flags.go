// Package config holds the run configuration shared by the CLI commands.
package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/zeu5/snake-dqn/util"
)

type Flags struct {
	GameFlags
	RunFlags
	PolicyFlags
	SavePath string
	Debug    bool
}

type GameFlags struct {
	Rows      int
	Cols      int
	Obstacles int
	Fruits    int
}

type RunFlags struct {
	GameDuration int
	ScoreScope   int
	Seed         uint64
}

type PolicyFlags struct {
	Policy     string
	PolicyArgs []string // key=value pairs
}

func DefaultFlags() *Flags {
	return &Flags{
		GameFlags: GameFlags{
			Rows:      20,
			Cols:      30,
			Obstacles: 15,
			Fruits:    25,
		},
		RunFlags: RunFlags{
			GameDuration: 5000,
			ScoreScope:   1000,
			Seed:         1,
		},
		PolicyFlags: PolicyFlags{
			Policy: "dqn",
		},
		SavePath: "results",
	}
}

// Record dumps the effective configuration next to the run results.
func (f *Flags) Record() {
	util.SaveJSON(path.Join(f.SavePath, "config.json"), f)
}

// ParsePolicyArgs turns "key=value" pairs into the string-keyed args map
// handed to Policy.CastArgs.
func ParsePolicyArgs(pairs []string) (map[string]string, error) {
	args := make(map[string]string)
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("config: bad policy arg %q, want key=value", p)
		}
		args[k] = v
	}
	return args, nil
}
