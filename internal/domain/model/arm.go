// Package model contains domain models passed between layers.
package model

import "time"

// InterventionType tags the kind of intervention an arm represents.
type InterventionType string

// Known intervention types.
const (
	InterventionHint             InterventionType = "hint"
	InterventionEncouragement    InterventionType = "encouragement"
	InterventionPacingSuggestion InterventionType = "pacing_suggestion"
)

// Trend classifies an arm's recent performance for observability.
type Trend string

// Trend values.
const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// ArmConfig describes one catalog entry supplied at initialization.
type ArmConfig struct {
	ArmID        string           `json:"arm_id"`
	Intervention InterventionType `json:"intervention_type"`
}

// Arm holds the statistical state for one intervention under evaluation.
//
// Invariant: BetaAlpha + BetaBeta == TotalPulls + 2 at all times, with both
// parameters >= 1. A fresh arm carries the uniform prior Beta(1, 1).
type Arm struct {
	ID           string           `json:"arm_id"`
	Intervention InterventionType `json:"intervention_type"`

	TotalPulls  int64   `json:"total_pulls"`
	TotalReward float64 `json:"total_reward"`

	BetaAlpha float64 `json:"beta_alpha"`
	BetaBeta  float64 `json:"beta_beta"`

	// UCB1Value is a secondary, inspectable exploration score. Thompson
	// sampling drives selection; this field exists for diagnostics.
	UCB1Value float64 `json:"ucb1_value"`

	Active           bool       `json:"is_active"`
	RetiredAt        *time.Time `json:"retired_at,omitempty"`
	RetirementReason string     `json:"retirement_reason,omitempty"`
}

// NewArm returns a fresh arm with the uniform Beta(1, 1) prior.
func NewArm(cfg ArmConfig) *Arm {
	return &Arm{
		ID:           cfg.ArmID,
		Intervention: cfg.Intervention,
		BetaAlpha:    1,
		BetaBeta:     1,
		Active:       true,
	}
}

// AverageReward returns TotalReward / TotalPulls, or 0 for an unpulled arm.
func (a *Arm) AverageReward() float64 {
	if a.TotalPulls == 0 {
		return 0
	}
	return a.TotalReward / float64(a.TotalPulls)
}

// SuccessRate returns the posterior mean alpha / (alpha + beta).
func (a *Arm) SuccessRate() float64 {
	return a.BetaAlpha / (a.BetaAlpha + a.BetaBeta)
}

// Clone returns a copy safe to read without holding the arm's lock.
func (a *Arm) Clone() Arm {
	c := *a
	if a.RetiredAt != nil {
		t := *a.RetiredAt
		c.RetiredAt = &t
	}
	return c
}
