package core

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/zeu5/snake-dqn/game"
)

// Step records one round of the run.
type Step struct {
	Round  int     `json:"round"`
	Action string  `json:"action"`
	Reward float64 `json:"reward"`
}

// Trace accumulates the steps of a run. The run loop is single-threaded,
// so no locking is needed.
type Trace struct {
	steps []*Step
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]*Step, 0),
	}
}

func (t *Trace) AddStep(round int, action game.Action, reward float64) {
	t.steps = append(t.steps, &Step{
		Round:  round,
		Action: action.String(),
		Reward: reward,
	})
}

func (t *Trace) Step(i int) *Step {
	return t.steps[i]
}

func (t *Trace) Len() int {
	return len(t.steps)
}

func (t *Trace) Last() *Step {
	return t.steps[len(t.steps)-1]
}

// Record writes the trace as JSONL to path.
func (t *Trace) Record(path string) error {
	bs := new(bytes.Buffer)
	for _, s := range t.steps {
		line, err := json.Marshal(s)
		if err != nil {
			return err
		}
		bs.Write(line)
		bs.WriteByte('\n')
	}
	return os.WriteFile(path, bs.Bytes(), 0644)
}
