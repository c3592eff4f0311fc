// Package stats applies resolved rewards to an arm's Beta-Bernoulli state
// and derives the inspection metrics built on top of it.
package stats

import (
	"math"

	"github.com/pathwise/bandit/internal/domain/model"
)

// Default trend classification constants.
const (
	defaultTrendMinPulls  = 20
	defaultTrendImproving = 0.6
	defaultTrendDeclining = 0.3

	// z-score for a 95% normal-approximation interval.
	zScore95 = 1.96
)

// Updater mutates arm statistics under the caller's arm lock.
type Updater struct {
	trendMinPulls  int64
	trendImproving float64
	trendDeclining float64
}

// Option applies a configuration option to the Updater.
type Option func(*Updater)

// WithTrendThresholds sets the trend classification thresholds.
func WithTrendThresholds(minPulls int64, improving, declining float64) Option {
	return func(u *Updater) {
		if minPulls > 0 {
			u.trendMinPulls = minPulls
		}
		if declining < improving {
			u.trendImproving = improving
			u.trendDeclining = declining
		}
	}
}

// NewUpdater creates an Updater with default thresholds.
func NewUpdater(opts ...Option) *Updater {
	u := &Updater{
		trendMinPulls:  defaultTrendMinPulls,
		trendImproving: defaultTrendImproving,
		trendDeclining: defaultTrendDeclining,
	}

	// Apply all options
	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Apply treats reward as a fractional Bernoulli outcome: alpha grows by the
// reward, beta by its complement, preserving alpha + beta == pulls + 2.
// totalPulls is the post-increment global pull count used for UCB1.
// The caller must hold the arm's lock.
func (u *Updater) Apply(arm *model.Arm, reward float64, totalPulls int64) {
	arm.BetaAlpha += reward
	arm.BetaBeta += 1 - reward
	arm.TotalPulls++
	arm.TotalReward += reward
	arm.UCB1Value = UCB1(arm.AverageReward(), arm.TotalPulls, totalPulls)
}

// Trend classifies an arm's performance for observability only; it never
// feeds back into selection.
func (u *Updater) Trend(arm *model.Arm) model.Trend {
	if arm.TotalPulls <= u.trendMinPulls {
		return model.TrendStable
	}
	avg := arm.AverageReward()
	switch {
	case avg > u.trendImproving:
		return model.TrendImproving
	case avg < u.trendDeclining:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// UCB1 computes averageReward + sqrt(2*ln(N)/pulls). An unpulled arm gets
// an infinite priority so it is surfaced before any pulled arm.
func UCB1(averageReward float64, pulls, totalPulls int64) float64 {
	if pulls == 0 {
		return math.Inf(1)
	}
	if totalPulls < 1 {
		totalPulls = 1
	}
	return averageReward + math.Sqrt(2*math.Log(float64(totalPulls))/float64(pulls))
}

// ConfidenceInterval returns the 95% normal-approximation interval on the
// arm's success rate, derived from the Beta posterior variance.
func ConfidenceInterval(arm *model.Arm) (lower, upper float64) {
	n := arm.BetaAlpha + arm.BetaBeta
	rate := arm.BetaAlpha / n
	variance := (arm.BetaAlpha * arm.BetaBeta) / (n * n * (n + 1))
	margin := zScore95 * math.Sqrt(variance)
	return rate - margin, rate + margin
}
