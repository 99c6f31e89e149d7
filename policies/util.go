package policies

import (
	"math"

	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

func argMax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}

// softmaxSample draws an index with probability proportional to
// exp(vals[i]/temperature). The max value is subtracted before
// exponentiation for numerical stability.
func softmaxSample(vals []float64, temperature float64, src erand.Source) (int, bool) {
	max := vals[argMax(vals)]
	weights := make([]float64, len(vals))
	sum := 0.0
	for i, v := range vals {
		weights[i] = math.Exp((v - max) / temperature)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return sampleuv.NewWeighted(weights, src).Take()
}
