// Package policies contains the agents that play the game: the DQN
// policy with prioritized experience replay, and a random baseline.
package policies

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"
	erand "golang.org/x/exp/rand"

	"github.com/zeu5/snake-dqn/core"
	"github.com/zeu5/snake-dqn/game"
	"github.com/zeu5/snake-dqn/replay"
	"github.com/zeu5/snake-dqn/state"
	"github.com/zeu5/snake-dqn/util"
)

const (
	DefaultEpsilon = 2.0
	DefaultGamma   = 0.75

	defaultEpsilonDecay   = 0.90
	defaultMinEpsilon     = 0.33
	defaultBatchSize      = 96
	defaultStateRadius    = 5
	defaultSaveModelRound = 250

	defaultBufferSize = 6000
	defaultAlpha      = 0.4
	defaultBeta       = 0.6

	priorityEpsilon = 1e-6
	decayEvery      = 200
	logEvery        = 100

	// below this, softmax temperature collapses to greedy
	minTemperature = 1e-3

	radarPerType = 3
)

// DQNConfig are the hyperparameters of the DQN policy. Immutable after
// InitRun; only epsilon changes over the run, by decay.
type DQNConfig struct {
	Epsilon         float64
	Gamma           float64
	EpsilonDecay    float64
	MinEpsilon      float64
	BatchSize       int
	StateRadius     int
	StateRep        string
	DoubleDQN       bool
	SoftmaxSampling bool
	SaveModelRound  int
	BufferSize      int
	Alpha           float64
	Beta            float64
}

func DefaultDQNConfig() DQNConfig {
	return DQNConfig{
		Epsilon:         DefaultEpsilon,
		Gamma:           DefaultGamma,
		EpsilonDecay:    defaultEpsilonDecay,
		MinEpsilon:      defaultMinEpsilon,
		BatchSize:       defaultBatchSize,
		StateRadius:     defaultStateRadius,
		StateRep:        state.RepSquare,
		SoftmaxSampling: true,
		SaveModelRound:  defaultSaveModelRound,
		BufferSize:      defaultBufferSize,
		Alpha:           defaultAlpha,
		Beta:            defaultBeta,
	}
}

// DQNPolicy learns action values online: every Act records the completed
// transition into a prioritized replay buffer and picks the next action,
// every Learn samples a batch, regresses the live network toward the TD
// target and refreshes the sampled priorities. A lagged target network,
// synced every SaveModelRound rounds, stabilizes the targets.
type DQNPolicy struct {
	cfg     DQNConfig
	builder core.ModelBuilder

	rc     *core.RunContext
	logger zerolog.Logger
	enc    state.Encoder
	model  core.Model
	target core.Model
	memory *replay.PrioritizedBuffer
	rand   *erand.Rand

	epsilon         float64
	softmaxSampling bool

	// 100-round logging window
	rSum    float64
	lossSum float64
	samples int
}

var _ core.Policy = &DQNPolicy{}

func NewDQNPolicy(builder core.ModelBuilder) *DQNPolicy {
	return &DQNPolicy{
		cfg:     DefaultDQNConfig(),
		builder: builder,
	}
}

// CastArgs parses string-keyed overrides. Unrecognized keys are left for
// the model builder.
func (p *DQNPolicy) CastArgs(args map[string]string) error {
	if v, ok := args["epsilon"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("policies: bad epsilon %q", v)
		}
		p.cfg.Epsilon = f
	}
	if v, ok := args["gamma"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("policies: bad gamma %q", v)
		}
		p.cfg.Gamma = f
	}
	if v, ok := args["double_dqn"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("policies: bad double_dqn %q", v)
		}
		p.cfg.DoubleDQN = b
	}
	if v, ok := args["softmax_sampling"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("policies: bad softmax_sampling %q", v)
		}
		p.cfg.SoftmaxSampling = b
	}
	if v, ok := args["state_rep"]; ok {
		switch v {
		case state.RepSquare, state.RepDiamond, state.RepRadar:
			p.cfg.StateRep = v
		default:
			return fmt.Errorf("policies: unknown state representation %q", v)
		}
	}
	if v, ok := args["radius"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("policies: bad radius %q", v)
		}
		p.cfg.StateRadius = n
	}
	return p.builder.ApplyArgs(args)
}

func (p *DQNPolicy) InitRun(rc *core.RunContext) error {
	p.rc = rc
	p.logger = rc.Logger
	p.logger.Info().Str("tag", "VALUE").Msg("starting init")

	p.epsilon = p.cfg.Epsilon
	p.softmaxSampling = p.cfg.SoftmaxSampling
	p.rSum = 0
	p.lossSum = 0
	p.samples = 0

	switch p.cfg.StateRep {
	case state.RepSquare:
		p.enc = state.NewSquareEncoder(p.cfg.StateRadius)
	case state.RepDiamond:
		p.enc = state.NewDiamondEncoder(p.cfg.StateRadius)
	case state.RepRadar:
		p.enc = state.NewRadarEncoder(radarPerType, len(game.DefaultConfig().FruitRewards))
	default:
		return fmt.Errorf("policies: unknown state representation %q", p.cfg.StateRep)
	}

	var err error
	p.model, err = p.builder.BuildModel(p.enc.Shape(), len(rc.Actions))
	if err != nil {
		return err
	}
	p.target, err = p.builder.BuildModel(p.enc.Shape(), len(rc.Actions))
	if err != nil {
		return err
	}
	if err := p.syncTarget(); err != nil {
		return err
	}

	p.memory = replay.NewPrioritizedBuffer(p.cfg.BufferSize, p.cfg.Alpha, erand.NewSource(rc.Seed))
	p.rand = erand.New(erand.NewSource(rc.Seed + 1))

	p.logger.Info().Str("tag", "VALUE").
		Int("input", p.enc.Shape()).
		Int("actions", len(rc.Actions)).
		Msg("init finished")
	return nil
}

// syncTarget hard-copies the live network's weights into the target
// network.
func (p *DQNPolicy) syncTarget() error {
	return p.target.SetWeights(p.model.Weights())
}

// Learn performs one round of the learning loop: windowed bookkeeping,
// one training step, periodic target sync and epsilon decay. A failed
// training step is returned to the caller but never prevents the sync
// and decay schedule.
func (p *DQNPolicy) Learn(round int, reward float64) error {
	if round%logEvery == 0 {
		p.logWindow(round)
		p.rSum = 0
	} else {
		p.rSum += reward
	}

	trainErr := p.trainStep()

	if round > 0 && round%p.cfg.SaveModelRound == 0 {
		if err := p.syncTarget(); err != nil {
			return err
		}
	}
	if round > 0 && round%decayEvery == 0 && p.epsilon > 0 {
		p.epsilon = util.MaxFloat(p.epsilon*p.cfg.EpsilonDecay, p.cfg.MinEpsilon)
	}
	return trainErr
}

func (p *DQNPolicy) logWindow(round int) {
	if round > p.rc.GameDuration-p.rc.ScoreScope {
		p.logger.Info().Str("tag", "VALUE").
			Float64("rewards_100", p.rSum).
			Float64("epsilon", p.epsilon).
			Int("db_size", p.memory.Len()).
			Msg("rewards in last 100 rounds, score window")
		return
	}
	if p.samples == 0 {
		p.logger.Error().Str("tag", "EXCEPTION").
			Int("round", round).
			Msg("no samples trained in window")
	} else {
		p.logger.Info().Str("tag", "VALUE").
			Float64("rewards_100", p.rSum).
			Float64("epsilon", p.epsilon).
			Int("db_size", p.memory.Len()).
			Float64("loss", p.lossSum/float64(p.samples)).
			Msg("rewards in last 100 rounds")
	}
	p.lossSum = 0
	p.samples = 0
}

// trainStep samples a prioritized batch, regresses the live network
// toward the TD targets and writes the post-update prediction errors back
// as priorities.
func (p *DQNPolicy) trainStep() error {
	batch, err := p.memory.Sample(p.cfg.BatchSize, p.cfg.Beta)
	if errors.Is(err, replay.ErrInsufficient) {
		// buffer still warming up
		return nil
	}
	if err != nil {
		return err
	}

	qNext, err := p.target.Predict(batch.NextStates)
	if err != nil {
		return err
	}

	td := make([]float64, len(qNext))
	if p.cfg.DoubleDQN {
		// action picked by the live network, valued by the target one
		qLive, err := p.model.Predict(batch.NextStates)
		if err != nil {
			return err
		}
		for i := range td {
			td[i] = batch.Rewards[i] + p.cfg.Gamma*qNext[i][argMax(qLive[i])]
		}
	} else {
		for i := range td {
			td[i] = batch.Rewards[i] + p.cfg.Gamma*qNext[i][argMax(qNext[i])]
		}
	}

	// The regression target equals the current prediction everywhere
	// except the taken action's slot, so non-taken actions contribute no
	// gradient.
	targets, err := p.model.Predict(batch.States)
	if err != nil {
		return err
	}
	for i := range targets {
		targets[i][batch.Actions[i]] = td[i]
	}

	loss, err := p.model.Fit(batch.States, targets, batch.Weights)
	if err != nil {
		return err
	}
	p.lossSum += loss
	p.samples++

	post, err := p.model.Predict(batch.States)
	if err != nil {
		return err
	}
	prios := make([]float64, len(targets))
	for i := range targets {
		e := 0.0
		for j := range targets[i] {
			e += math.Abs(targets[i][j] - post[i][j])
		}
		prios[i] = e + priorityEpsilon
	}
	return p.memory.UpdatePriorities(batch.Indices, prios)
}

// Act records the completed transition and picks the next action, via
// softmax over Q-values with epsilon as temperature, or epsilon-greedy.
// Inside the final ScoreScope rounds exploration is permanently disabled.
func (p *DQNPolicy) Act(round int, prev *game.State, prevAction game.Action, reward float64, next *game.State) (game.Action, error) {
	if round > p.rc.GameDuration-p.rc.ScoreScope {
		// no exploration during the score-determining window
		p.softmaxSampling = false
		p.epsilon = 0
	}

	nextRepr := p.enc.Repr(next)
	if prev != nil {
		// Terminal is always false: episode boundaries are not modeled
		// at this level.
		p.memory.Add(p.enc.Repr(prev), p.actionIndex(prevAction), reward, nextRepr, false)
	}

	preds, err := p.model.Predict([][]float64{nextRepr})
	if err != nil {
		return game.ActionForward, err
	}
	q := preds[0]

	if p.softmaxSampling {
		if p.epsilon <= minTemperature {
			return p.rc.Actions[argMax(q)], nil
		}
		i, ok := softmaxSample(q, p.epsilon, p.rand)
		if !ok {
			return game.ActionForward, errors.New("policies: softmax sampling failed")
		}
		return p.rc.Actions[i], nil
	}

	if p.rand.Float64() < p.epsilon {
		return p.rc.Actions[p.rand.Intn(len(p.rc.Actions))], nil
	}
	return p.rc.Actions[argMax(q)], nil
}

func (p *DQNPolicy) actionIndex(a game.Action) int {
	for i, b := range p.rc.Actions {
		if a == b {
			return i
		}
	}
	return 0
}

// Epsilon returns the current exploration parameter.
func (p *DQNPolicy) Epsilon() float64 {
	return p.epsilon
}

// Weights exposes the live network's parameters for persistence.
func (p *DQNPolicy) Weights() [][]float64 {
	return p.model.Weights()
}

// SetWeights loads parameters into both networks. Call after InitRun.
func (p *DQNPolicy) SetWeights(weights [][]float64) error {
	if err := p.model.SetWeights(weights); err != nil {
		return err
	}
	return p.syncTarget()
}
