// Package policy chooses the next arm to pull. Thompson sampling over each
// arm's Beta posterior drives the choice; UCB1 stays a diagnostic score
// maintained elsewhere.
package policy

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pathwise/bandit/internal/domain/model"
)

// Policy selects one active arm per call. Safe for concurrent use; the
// sampler's rng is guarded since math/rand sources are not.
type Policy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithSeed fixes the sampler seed for reproducible selection in tests.
func WithSeed(seed int64) Option {
	return func(p *Policy) {
		p.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // sampling, not crypto
	}
}

// New creates a Policy with a time-seeded sampler.
func New(opts ...Option) *Policy {
	p := &Policy{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // sampling, not crypto
	}

	// Apply all options
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Select draws one posterior sample per active arm and returns the arm with
// the largest sample, breaking ties toward the least-pulled arm.
// Returns ErrNoActiveArms when no active arm exists.
func (p *Policy) Select(arms []model.Arm) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bestID := ""
	bestSample := math.Inf(-1)
	var bestPulls int64

	for i := range arms {
		arm := &arms[i]
		if !arm.Active {
			continue
		}
		sample := p.sampleBeta(arm.BetaAlpha, arm.BetaBeta)
		if bestID == "" || sample > bestSample ||
			(sample == bestSample && arm.TotalPulls < bestPulls) {
			bestID = arm.ID
			bestSample = sample
			bestPulls = arm.TotalPulls
		}
	}

	if bestID == "" {
		return "", ErrNoActiveArms
	}
	return bestID, nil
}

// sampleBeta draws theta ~ Beta(a, b) via two Gamma draws.
// Caller must hold p.mu.
func (p *Policy) sampleBeta(a, b float64) float64 {
	x := p.sampleGamma(a)
	y := p.sampleGamma(b)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma draws from Gamma(shape, 1) using the Marsaglia-Tsang method.
// Arm posteriors always have shape >= 1, so no boosting step is needed.
func (p *Policy) sampleGamma(shape float64) float64 {
	d := shape - 1.0/3.0
	c := 1.0 / (3.0 * math.Sqrt(d))
	for {
		x := p.rng.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := p.rng.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}
