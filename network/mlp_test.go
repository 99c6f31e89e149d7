package network

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testModel(t *testing.T, in, out int) *MLP {
	t.Helper()
	b := NewBuilder()
	b.Hidden = []int{8}
	b.LearningRate = 1e-2
	m, err := b.BuildModel(in, out)
	require.NoError(t, err)
	return m.(*MLP)
}

func TestApplyArgs(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.ApplyArgs(map[string]string{
		"hidden": "32, 16",
		"lr":     "0.001",
		"huber":  "true",
	}))
	require.Equal(t, []int{32, 16}, b.Hidden)
	require.Equal(t, 0.001, b.LearningRate)
	require.True(t, b.Huber)

	require.Error(t, b.ApplyArgs(map[string]string{"hidden": "0"}))
	require.Error(t, b.ApplyArgs(map[string]string{"lr": "-1"}))
	require.Error(t, b.ApplyArgs(map[string]string{"huber": "maybe"}))
}

func TestPredictShape(t *testing.T) {
	m := testModel(t, 4, 3)

	preds, err := m.Predict([][]float64{{1, 0, 0, 1}, {0, 1, 1, 0}})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	require.Len(t, preds[0], 3)

	_, err = m.Predict([][]float64{{1, 2}})
	require.Error(t, err)
}

func TestFitReducesLoss(t *testing.T) {
	m := testModel(t, 2, 2)

	states := [][]float64{{0, 1}, {1, 0}, {1, 1}}
	targets := [][]float64{{1, 0}, {0, 1}, {1, 1}}

	first, err := m.Fit(states, targets, nil)
	require.NoError(t, err)

	var last float64
	for i := 0; i < 500; i++ {
		last, err = m.Fit(states, targets, nil)
		require.NoError(t, err)
	}
	require.Less(t, last, first)
}

func TestFitValidatesShapes(t *testing.T) {
	m := testModel(t, 2, 2)

	_, err := m.Fit(nil, nil, nil)
	require.Error(t, err)
	_, err = m.Fit([][]float64{{1, 2}}, [][]float64{}, nil)
	require.Error(t, err)
	_, err = m.Fit([][]float64{{1, 2}}, [][]float64{{1, 2}}, []float64{1, 2})
	require.Error(t, err)
	_, err = m.Fit([][]float64{{1, 2}}, [][]float64{{1, 2, 3}}, nil)
	require.Error(t, err)
}

func TestWeightsRoundTrip(t *testing.T) {
	m := testModel(t, 3, 2)
	other := testModel(t, 3, 2)

	// train one model away from the other
	states := [][]float64{{1, 2, 3}}
	targets := [][]float64{{1, -1}}
	_, err := m.Fit(states, targets, nil)
	require.NoError(t, err)
	require.NotEqual(t, m.Weights(), other.Weights())

	require.NoError(t, other.SetWeights(m.Weights()))
	require.Equal(t, m.Weights(), other.Weights())

	p1, err := m.Predict(states)
	require.NoError(t, err)
	p2, err := other.Predict(states)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
}

func TestWeightsAreCopies(t *testing.T) {
	m := testModel(t, 2, 2)
	w := m.Weights()
	w[0][0] += 100

	require.NotEqual(t, w[0][0], m.Weights()[0][0])
}

func TestSetWeightsValidates(t *testing.T) {
	m := testModel(t, 2, 2)

	require.Error(t, m.SetWeights(nil))
	bad := m.Weights()
	bad[0] = bad[0][:1]
	require.Error(t, m.SetWeights(bad))
}
