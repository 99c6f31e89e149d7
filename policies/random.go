package policies

import (
	"math/rand"
	"time"

	"github.com/zeu5/snake-dqn/core"
	"github.com/zeu5/snake-dqn/game"
)

// RandomPolicy picks uniformly random actions. Baseline for comparing
// learned policies against.
type RandomPolicy struct {
	rc   *core.RunContext
	rand *rand.Rand
}

var _ core.Policy = &RandomPolicy{}

func NewRandomPolicy() *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RandomPolicy) CastArgs(_ map[string]string) error {
	return nil
}

func (r *RandomPolicy) InitRun(rc *core.RunContext) error {
	r.rc = rc
	r.rand = rand.New(rand.NewSource(int64(rc.Seed)))
	return nil
}

func (r *RandomPolicy) Act(_ int, _ *game.State, _ game.Action, _ float64, _ *game.State) (game.Action, error) {
	i := r.rand.Intn(len(r.rc.Actions))
	return r.rc.Actions[i], nil
}

func (r *RandomPolicy) Learn(_ int, _ float64) error {
	return nil
}
