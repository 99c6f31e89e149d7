package replay

import (
	"testing"

	"github.com/stretchr/testify/require"
	erand "golang.org/x/exp/rand"
)

func newTestBuffer(capacity int) *PrioritizedBuffer {
	return NewPrioritizedBuffer(capacity, 0.4, erand.NewSource(1))
}

func TestAddEvictsOldest(t *testing.T) {
	b := newTestBuffer(3)

	for i, r := range []float64{1, 2, 3, 4} { // A, B, C, D
		b.Add([]float64{float64(i)}, 0, r, []float64{float64(i + 1)}, false)
	}

	require.Equal(t, 3, b.Len())
	rewards := make(map[float64]bool)
	for i := 0; i < b.Len(); i++ {
		rewards[b.At(i).Reward] = true
	}
	// A evicted, B C D retained
	require.Equal(t, map[float64]bool{2: true, 3: true, 4: true}, rewards)
}

func TestAddUsesMaxPriority(t *testing.T) {
	b := newTestBuffer(10)

	b.Add([]float64{0}, 0, 0, []float64{1}, false)
	require.Equal(t, 1.0, b.Priority(0))

	require.NoError(t, b.UpdatePriorities([]int{0}, []float64{7.5}))
	b.Add([]float64{1}, 1, 0, []float64{2}, false)
	require.Equal(t, 7.5, b.Priority(1))
}

func TestSampleWeightsNormalized(t *testing.T) {
	b := newTestBuffer(16)
	for i := 0; i < 16; i++ {
		b.Add([]float64{float64(i)}, i % 3, float64(i), []float64{float64(i + 1)}, false)
	}
	require.NoError(t, b.UpdatePriorities(
		[]int{0, 1, 2, 3}, []float64{0.1, 5, 10, 0.5},
	))

	batch, err := b.Sample(8, 0.6)
	require.NoError(t, err)
	require.Len(t, batch.States, 8)
	require.Len(t, batch.Indices, 8)

	max := 0.0
	for _, w := range batch.Weights {
		require.GreaterOrEqual(t, w, 0.0)
		if w > max {
			max = w
		}
	}
	require.InDelta(t, 1.0, max, 1e-12)
}

func TestSampleInsufficient(t *testing.T) {
	b := newTestBuffer(10)
	b.Add([]float64{0}, 0, 0, []float64{1}, false)

	_, err := b.Sample(2, 0.6)
	require.ErrorIs(t, err, ErrInsufficient)
}

func TestUpdatePrioritiesRejectsNonPositive(t *testing.T) {
	b := newTestBuffer(4)
	b.Add([]float64{0}, 0, 0, []float64{1}, false)

	require.Error(t, b.UpdatePriorities([]int{0}, []float64{0}))
	require.Error(t, b.UpdatePriorities([]int{0}, []float64{-1}))
	require.Error(t, b.UpdatePriorities([]int{5}, []float64{1}))
	require.Error(t, b.UpdatePriorities([]int{0}, []float64{1, 2}))

	// rejected updates leave the stored priority untouched
	require.Equal(t, 1.0, b.Priority(0))
}

func TestSampleFollowsPriorities(t *testing.T) {
	b := newTestBuffer(4)
	for i := 0; i < 4; i++ {
		b.Add([]float64{float64(i)}, 0, 0, []float64{float64(i + 1)}, false)
	}
	// slot 2 dominates
	require.NoError(t, b.UpdatePriorities(
		[]int{0, 1, 2, 3}, []float64{1e-6, 1e-6, 100, 1e-6},
	))

	counts := make(map[int]int)
	for i := 0; i < 50; i++ {
		batch, err := b.Sample(4, 0.6)
		require.NoError(t, err)
		for _, idx := range batch.Indices {
			counts[idx]++
		}
	}
	for idx, c := range counts {
		if idx != 2 {
			require.Less(t, c, counts[2])
		}
	}
}
