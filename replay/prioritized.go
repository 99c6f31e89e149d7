// Package replay implements the prioritized experience replay buffer
// backing the DQN policy.
package replay

import (
	"errors"
	"fmt"
	"math"

	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ErrInsufficient is returned by Sample when the buffer holds fewer
// transitions than the requested batch size.
var ErrInsufficient = errors.New("replay: not enough transitions to sample")

// Transition is one (s, a, r, s') step, stored by value. Action is an
// index into the fixed action set.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Terminal  bool
}

// Batch is the result of one prioritized draw. Weights are the
// importance-sampling corrections, normalized so the batch max is 1.
// Indices identify the sampled slots for the subsequent priority update.
type Batch struct {
	States     [][]float64
	Actions    []int
	Rewards    []float64
	NextStates [][]float64
	Terminals  []bool
	Weights    []float64
	Indices    []int
}

// PrioritizedBuffer is a bounded ring of transitions with a parallel
// priority slice. Sampling probability of slot i is proportional to
// priorities[i]^alpha. New transitions enter at the current max priority
// so they are sampled at least once before their true error is known.
// Not safe for concurrent use; the policy owns it exclusively.
type PrioritizedBuffer struct {
	capacity int
	alpha    float64

	transitions []Transition
	priorities  []float64
	next        int

	rand erand.Source
}

func NewPrioritizedBuffer(capacity int, alpha float64, src erand.Source) *PrioritizedBuffer {
	return &PrioritizedBuffer{
		capacity:    capacity,
		alpha:       alpha,
		transitions: make([]Transition, 0, capacity),
		priorities:  make([]float64, 0, capacity),
		rand:        src,
	}
}

// Add inserts a transition, evicting the oldest slot when at capacity.
func (b *PrioritizedBuffer) Add(state []float64, action int, reward float64, nextState []float64, terminal bool) {
	t := Transition{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: nextState,
		Terminal:  terminal,
	}
	prio := b.maxPriority()

	if len(b.transitions) < b.capacity {
		b.transitions = append(b.transitions, t)
		b.priorities = append(b.priorities, prio)
	} else {
		b.transitions[b.next] = t
		b.priorities[b.next] = prio
	}
	b.next = (b.next + 1) % b.capacity
}

// Sample draws batchSize transitions with replacement, with probability
// proportional to priority^alpha, and computes the (N*P(i))^-beta
// importance weights normalized by the batch max.
func (b *PrioritizedBuffer) Sample(batchSize int, beta float64) (*Batch, error) {
	n := len(b.transitions)
	if n < batchSize {
		return nil, ErrInsufficient
	}

	scaled := make([]float64, n)
	total := 0.0
	for i, p := range b.priorities {
		scaled[i] = math.Pow(p, b.alpha)
		total += scaled[i]
	}

	batch := &Batch{
		States:     make([][]float64, batchSize),
		Actions:    make([]int, batchSize),
		Rewards:    make([]float64, batchSize),
		NextStates: make([][]float64, batchSize),
		Terminals:  make([]bool, batchSize),
		Weights:    make([]float64, batchSize),
		Indices:    make([]int, batchSize),
	}

	w := sampleuv.NewWeighted(scaled, b.rand)
	maxWeight := 0.0
	for k := 0; k < batchSize; k++ {
		idx, ok := w.Take()
		if !ok {
			return nil, errors.New("replay: weighted sampler exhausted")
		}
		// Take removes the slot; restore its weight to sample with
		// replacement.
		w.Reweight(idx, scaled[idx])

		t := b.transitions[idx]
		batch.States[k] = t.State
		batch.Actions[k] = t.Action
		batch.Rewards[k] = t.Reward
		batch.NextStates[k] = t.NextState
		batch.Terminals[k] = t.Terminal
		batch.Indices[k] = idx

		p := scaled[idx] / total
		batch.Weights[k] = math.Pow(float64(n)*p, -beta)
		if batch.Weights[k] > maxWeight {
			maxWeight = batch.Weights[k]
		}
	}

	for k := range batch.Weights {
		batch.Weights[k] /= maxWeight
	}
	return batch, nil
}

// UpdatePriorities overwrites the priorities of the given slots. All
// priorities must be strictly positive; callers add a small epsilon floor
// to the prediction error before passing it in.
func (b *PrioritizedBuffer) UpdatePriorities(indices []int, priorities []float64) error {
	if len(indices) != len(priorities) {
		return fmt.Errorf("replay: %d indices but %d priorities", len(indices), len(priorities))
	}
	for i, idx := range indices {
		if idx < 0 || idx >= len(b.transitions) {
			return fmt.Errorf("replay: index %d out of range", idx)
		}
		if priorities[i] <= 0 {
			return fmt.Errorf("replay: non-positive priority %f at index %d", priorities[i], idx)
		}
	}
	for i, idx := range indices {
		b.priorities[idx] = priorities[i]
	}
	return nil
}

func (b *PrioritizedBuffer) Len() int {
	return len(b.transitions)
}

func (b *PrioritizedBuffer) Cap() int {
	return b.capacity
}

// Priority returns the stored priority of slot i.
func (b *PrioritizedBuffer) Priority(i int) float64 {
	return b.priorities[i]
}

// At returns the transition in slot i.
func (b *PrioritizedBuffer) At(i int) Transition {
	return b.transitions[i]
}

func (b *PrioritizedBuffer) maxPriority() float64 {
	if len(b.priorities) == 0 {
		return 1
	}
	max := 0.0
	for _, p := range b.priorities {
		if p > max {
			max = p
		}
	}
	return max
}
