// Package network provides the concrete Q-network: a small multilayer
// perceptron trained with Adam on a sample-weighted regression loss.
package network

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/zeu5/snake-dqn/core"
)

const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// Builder constructs MLP models and parses the network-specific policy
// args ("hidden", "lr", "huber").
type Builder struct {
	Hidden       []int
	LearningRate float64
	Huber        bool
	Seed         uint64
}

var _ core.ModelBuilder = &Builder{}

func NewBuilder() *Builder {
	return &Builder{
		Hidden:       []int{64, 64},
		LearningRate: 1e-4,
		Seed:         1,
	}
}

func (b *Builder) ApplyArgs(args map[string]string) error {
	if v, ok := args["hidden"]; ok {
		sizes := make([]int, 0)
		for _, part := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n <= 0 {
				return fmt.Errorf("network: bad hidden layer size %q", part)
			}
			sizes = append(sizes, n)
		}
		b.Hidden = sizes
	}
	if v, ok := args["lr"]; ok {
		lr, err := strconv.ParseFloat(v, 64)
		if err != nil || lr <= 0 {
			return fmt.Errorf("network: bad learning rate %q", v)
		}
		b.LearningRate = lr
	}
	if v, ok := args["huber"]; ok {
		huber, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("network: bad huber flag %q", v)
		}
		b.Huber = huber
	}
	return nil
}

func (b *Builder) BuildModel(inputSize, outputSize int) (core.Model, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("network: invalid shape %dx%d", inputSize, outputSize)
	}

	sizes := make([]int, 0, len(b.Hidden)+2)
	sizes = append(sizes, inputSize)
	sizes = append(sizes, b.Hidden...)
	sizes = append(sizes, outputSize)

	rng := erand.New(erand.NewSource(b.Seed))
	layers := make([]*layer, len(sizes)-1)
	for i := range layers {
		layers[i] = newLayer(sizes[i], sizes[i+1], rng)
	}

	return &MLP{
		layers:  layers,
		lr:      b.LearningRate,
		huber:   b.Huber,
		inSize:  inputSize,
		outSize: outputSize,
	}, nil
}

type layer struct {
	in, out int
	w       *mat.Dense // out x in
	b       []float64

	// Adam moments
	mW, vW []float64
	mB, vB []float64
}

// newLayer initializes weights with Glorot-uniform noise.
func newLayer(in, out int, rng *erand.Rand) *layer {
	limit := math.Sqrt(6 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = (2*rng.Float64() - 1) * limit
	}
	return &layer{
		in:  in,
		out: out,
		w:   mat.NewDense(out, in, data),
		b:   make([]float64, out),
		mW:  make([]float64, in*out),
		vW:  make([]float64, in*out),
		mB:  make([]float64, out),
		vB:  make([]float64, out),
	}
}

// MLP is a feed-forward network with ReLU hidden layers and a linear
// output layer, one output per action. Not safe for concurrent use.
type MLP struct {
	layers  []*layer
	lr      float64
	huber   bool
	step    int
	inSize  int
	outSize int
}

var _ core.Model = &MLP{}

func (m *MLP) Predict(states [][]float64) ([][]float64, error) {
	out := make([][]float64, len(states))
	for i, s := range states {
		acts, err := m.forward(s)
		if err != nil {
			return nil, err
		}
		out[i] = acts[len(acts)-1]
	}
	return out, nil
}

// forward returns the activations of every layer, input included. Hidden
// activations are post-ReLU, so relu'(z) can be read off as act > 0.
func (m *MLP) forward(x []float64) ([][]float64, error) {
	if len(x) != m.inSize {
		return nil, fmt.Errorf("network: input size %d, want %d", len(x), m.inSize)
	}
	acts := make([][]float64, len(m.layers)+1)
	acts[0] = x
	for li, l := range m.layers {
		z := mat.NewVecDense(l.out, nil)
		z.MulVec(l.w, mat.NewVecDense(l.in, acts[li]))

		a := make([]float64, l.out)
		last := li == len(m.layers)-1
		for j := 0; j < l.out; j++ {
			v := z.AtVec(j) + l.b[j]
			if !last && v < 0 {
				v = 0
			}
			a[j] = v
		}
		acts[li+1] = a
	}
	return acts, nil
}

// Fit runs a single gradient epoch over the batch and returns the mean
// per-sample loss, weighted by sampleWeights (nil means uniform).
func (m *MLP) Fit(states, targets [][]float64, sampleWeights []float64) (float64, error) {
	if len(states) == 0 {
		return 0, errors.New("network: empty batch")
	}
	if len(targets) != len(states) {
		return 0, fmt.Errorf("network: %d states but %d targets", len(states), len(targets))
	}
	if sampleWeights != nil && len(sampleWeights) != len(states) {
		return 0, fmt.Errorf("network: %d states but %d sample weights", len(states), len(sampleWeights))
	}

	gradW := make([][]float64, len(m.layers))
	gradB := make([][]float64, len(m.layers))
	for li, l := range m.layers {
		gradW[li] = make([]float64, l.in*l.out)
		gradB[li] = make([]float64, l.out)
	}

	totalLoss := 0.0
	for i, s := range states {
		if len(targets[i]) != m.outSize {
			return 0, fmt.Errorf("network: target size %d, want %d", len(targets[i]), m.outSize)
		}
		sw := 1.0
		if sampleWeights != nil {
			sw = sampleWeights[i]
		}

		acts, err := m.forward(s)
		if err != nil {
			return 0, err
		}
		pred := acts[len(acts)-1]

		// Output delta of the regression loss, averaged over actions.
		delta := make([]float64, m.outSize)
		loss := 0.0
		for j := range pred {
			d := pred[j] - targets[i][j]
			if m.huber {
				loss += huberLoss(d)
				delta[j] = clamp(d, -1, 1) / float64(m.outSize) * sw
			} else {
				loss += d * d
				delta[j] = 2 * d / float64(m.outSize) * sw
			}
		}
		totalLoss += sw * loss / float64(m.outSize)

		m.backprop(acts, delta, gradW, gradB)
	}

	n := float64(len(states))
	m.step++
	for li, l := range m.layers {
		adamUpdate(l.w.RawMatrix().Data, gradW[li], l.mW, l.vW, m.lr, m.step, n)
		adamUpdate(l.b, gradB[li], l.mB, l.vB, m.lr, m.step, n)
	}
	return totalLoss / n, nil
}

// backprop accumulates one sample's gradients into gradW/gradB.
func (m *MLP) backprop(acts [][]float64, delta []float64, gradW, gradB [][]float64) {
	for li := len(m.layers) - 1; li >= 0; li-- {
		l := m.layers[li]
		in := acts[li]

		gw := gradW[li]
		for j := 0; j < l.out; j++ {
			row := j * l.in
			for k := 0; k < l.in; k++ {
				gw[row+k] += delta[j] * in[k]
			}
			gradB[li][j] += delta[j]
		}

		if li == 0 {
			return
		}
		prev := mat.NewVecDense(l.in, nil)
		prev.MulVec(l.w.T(), mat.NewVecDense(l.out, delta))
		delta = make([]float64, l.in)
		for k := 0; k < l.in; k++ {
			if in[k] > 0 { // ReLU gate of the previous layer
				delta[k] = prev.AtVec(k)
			}
		}
	}
}

func adamUpdate(params, grad, mo, vo []float64, lr float64, step int, batch float64) {
	c1 := 1 - math.Pow(adamBeta1, float64(step))
	c2 := 1 - math.Pow(adamBeta2, float64(step))
	for i := range params {
		g := grad[i] / batch
		mo[i] = adamBeta1*mo[i] + (1-adamBeta1)*g
		vo[i] = adamBeta2*vo[i] + (1-adamBeta2)*g*g
		params[i] -= lr * (mo[i] / c1) / (math.Sqrt(vo[i]/c2) + adamEps)
	}
}

// Weights returns deep copies of all parameters, two slices per layer
// (row-major weight matrix, then bias).
func (m *MLP) Weights() [][]float64 {
	out := make([][]float64, 0, 2*len(m.layers))
	for _, l := range m.layers {
		w := make([]float64, len(l.w.RawMatrix().Data))
		copy(w, l.w.RawMatrix().Data)
		b := make([]float64, len(l.b))
		copy(b, l.b)
		out = append(out, w, b)
	}
	return out
}

func (m *MLP) SetWeights(weights [][]float64) error {
	if len(weights) != 2*len(m.layers) {
		return fmt.Errorf("network: got %d weight slices, want %d", len(weights), 2*len(m.layers))
	}
	for li, l := range m.layers {
		w, b := weights[2*li], weights[2*li+1]
		if len(w) != l.in*l.out || len(b) != l.out {
			return fmt.Errorf("network: weight shape mismatch at layer %d", li)
		}
		copy(l.w.RawMatrix().Data, w)
		copy(l.b, b)
	}
	return nil
}

func huberLoss(d float64) float64 {
	if math.Abs(d) <= 1 {
		return 0.5 * d * d
	}
	return math.Abs(d) - 0.5
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
