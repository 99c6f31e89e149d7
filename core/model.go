package core

// Model is a trainable function approximator mapping encoded states to
// one value per action. The DQN policy keeps two: the live model, updated
// every training step, and a target model whose weights are only ever
// bulk-overwritten from the live one.
type Model interface {
	// Predict returns one value row per input state.
	Predict(states [][]float64) ([][]float64, error)

	// Fit runs one gradient epoch over the batch, weighting each
	// sample's loss by sampleWeights, and returns the mean loss.
	Fit(states, targets [][]float64, sampleWeights []float64) (float64, error)

	// Weights returns a deep copy of all parameters; SetWeights
	// overwrites them. Together they implement target-network sync.
	Weights() [][]float64
	SetWeights(weights [][]float64) error
}

// ModelBuilder supplies the concrete network topology and its extra
// hyperparameters. Policies depend on this instead of subclassing.
type ModelBuilder interface {
	// ApplyArgs consumes builder-specific keys from the policy args.
	ApplyArgs(args map[string]string) error
	BuildModel(inputSize, outputSize int) (Model, error)
}
