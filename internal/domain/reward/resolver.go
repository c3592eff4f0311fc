// Package reward converts raw learner outcomes and auxiliary signals into a
// single scalar reward with a confidence estimate.
package reward

import (
	"fmt"
	"math"

	"github.com/pathwise/bandit/internal/domain/model"
)

// Default resolution constants.
const (
	baseRewardHelped    = 1.0
	baseRewardIgnored   = 0.0
	baseRewardDismissed = 0.0

	// Explicit reactions carry more confidence than passive ignoring; a
	// dismissal is a confident negative, not a penalized reward.
	baseConfidenceHelped    = 0.8
	baseConfidenceDismissed = 0.7
	baseConfidenceIgnored   = 0.4

	// Each corroborating signal closes a fixed fraction of the remaining
	// gap to full confidence, so confidence strictly increases per signal
	// and saturates at 1.0.
	confidenceDecay = 0.75
)

// ComponentBase is the key under which the base-outcome term is recorded
// in Resolution.Components.
const ComponentBase = "base"

// Resolution is the output of resolving one outcome.
type Resolution struct {
	Reward     float64
	Components map[string]float64
	Confidence float64
}

// Resolver combines a base reward derived from the raw outcome with
// weighted signal components. Weights are fixed configuration, not learned.
type Resolver struct {
	weights map[model.SignalType]float64
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithSignalWeights sets per-type signal weights from a configuration map.
// Negative weights are dropped; the weight sum must stay <= 1 and is the
// caller's (config validation's) responsibility.
func WithSignalWeights(weights map[string]float64) Option {
	return func(r *Resolver) {
		r.weights = make(map[model.SignalType]float64, len(weights))
		for name, w := range weights {
			if w >= 0 {
				r.weights[model.SignalType(name)] = w
			}
		}
	}
}

// NewResolver creates a Resolver with the default signal weights.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		weights: map[model.SignalType]float64{
			model.SignalEngagement:   0.2,
			model.SignalLearningGain: 0.5,
			model.SignalCompletion:   0.3,
		},
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve validates the raw outcome and signals and computes the combined
// reward, its audit components, and the confidence estimate.
//
// reward = clamp(base*(1 - sum(weights of provided signals)) + sum(components), 0, 1)
func (r *Resolver) Resolve(raw model.RawOutcome, signals []model.RewardSignal) (Resolution, error) {
	if !raw.Valid() {
		return Resolution{}, fmt.Errorf("%w: unknown raw outcome %q", ErrInvalidRewardInput, raw)
	}
	for _, sig := range signals {
		if _, ok := r.weights[sig.Type]; !ok {
			return Resolution{}, fmt.Errorf("%w: unknown signal type %q", ErrInvalidRewardInput, sig.Type)
		}
		if math.IsNaN(sig.Value) || math.IsInf(sig.Value, 0) || sig.Value < 0 || sig.Value > 1 {
			return Resolution{}, fmt.Errorf("%w: signal %q value %v outside [0,1]", ErrInvalidRewardInput, sig.Type, sig.Value)
		}
	}

	base := baseReward(raw)

	components := make(map[string]float64, len(signals)+1)
	var signalSum, weightSum float64
	for _, sig := range signals {
		w := r.weights[sig.Type]
		component := clamp01(sig.Value) * w
		components[string(sig.Type)] += component
		signalSum += component
		weightSum += w
	}

	baseComponent := base * (1 - math.Min(weightSum, 1))
	components[ComponentBase] = baseComponent

	return Resolution{
		Reward:     clamp01(baseComponent + signalSum),
		Components: components,
		Confidence: confidence(raw, len(signals)),
	}, nil
}

// baseReward maps a raw outcome to its base reward.
func baseReward(raw model.RawOutcome) float64 {
	switch raw {
	case model.OutcomeHelped:
		return baseRewardHelped
	case model.OutcomeDismissed:
		return baseRewardDismissed
	default:
		return baseRewardIgnored
	}
}

// confidence computes the confidence estimate for a resolution. Every
// additional signal strictly raises confidence toward 1.0.
func confidence(raw model.RawOutcome, signalCount int) float64 {
	var base float64
	switch raw {
	case model.OutcomeHelped:
		base = baseConfidenceHelped
	case model.OutcomeDismissed:
		base = baseConfidenceDismissed
	default:
		base = baseConfidenceIgnored
	}
	return clamp01(1 - (1-base)*math.Pow(confidenceDecay, float64(signalCount)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
