// Package stats post-processes run traces into datasets saved alongside
// the run.
package stats

import (
	"github.com/zeu5/snake-dqn/core"
)

// RewardDataSet aggregates the per-round rewards of a trace into fixed
// windows.
type RewardDataSet struct {
	Window      int       `json:"window"`
	WindowSums  []float64 `json:"window_sums"`
	TotalReward float64   `json:"total_reward"`
}

// RewardAnalyzer sums trace rewards over consecutive windows of a fixed
// number of rounds.
type RewardAnalyzer struct {
	window int
}

func NewRewardAnalyzer(window int) *RewardAnalyzer {
	return &RewardAnalyzer{window: window}
}

func (a *RewardAnalyzer) Analyze(t *core.Trace) *RewardDataSet {
	ds := &RewardDataSet{Window: a.window}
	sum := 0.0
	for i := 0; i < t.Len(); i++ {
		s := t.Step(i)
		sum += s.Reward
		ds.TotalReward += s.Reward
		if (i+1)%a.window == 0 {
			ds.WindowSums = append(ds.WindowSums, sum)
			sum = 0
		}
	}
	if t.Len()%a.window != 0 {
		ds.WindowSums = append(ds.WindowSums, sum)
	}
	return ds
}
