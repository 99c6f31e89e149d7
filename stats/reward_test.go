package stats

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeu5/snake-dqn/core"
	"github.com/zeu5/snake-dqn/game"
)

func TestRewardAnalyzerWindows(t *testing.T) {
	trace := core.NewTrace()
	for i := 0; i < 250; i++ {
		trace.AddStep(i, game.ActionForward, 1)
	}

	ds := NewRewardAnalyzer(100).Analyze(trace)
	require.Equal(t, 100, ds.Window)
	require.Equal(t, []float64{100, 100, 50}, ds.WindowSums)
	require.Equal(t, 250.0, ds.TotalReward)
}

func TestRewardAnalyzerEmptyTrace(t *testing.T) {
	ds := NewRewardAnalyzer(100).Analyze(core.NewTrace())
	require.Empty(t, ds.WindowSums)
	require.Equal(t, 0.0, ds.TotalReward)
}
