// Package types contains common view types returned across the application
package types

import "github.com/pathwise/bandit/internal/domain/model"

// ConfidenceInterval is a 95% normal-approximation interval on success rate.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// BetaParams exposes an arm's posterior parameters.
type BetaParams struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// ArmStatsView is the read-only projection of one arm for callers.
type ArmStatsView struct {
	ArmID              string                 `json:"arm_id"`
	InterventionType   model.InterventionType `json:"intervention_type"`
	TotalPulls         int64                  `json:"total_pulls"`
	AverageReward      float64                `json:"average_reward"`
	SuccessRate        float64                `json:"success_rate"`
	ExplorationRate    float64                `json:"exploration_rate"`
	UCB1Value          float64                `json:"ucb1_value"`
	Trend              model.Trend            `json:"trend"`
	ConfidenceInterval ConfidenceInterval     `json:"confidence_interval"`
	IsRetired          bool                   `json:"is_retired"`
	RetirementReason   string                 `json:"retirement_reason,omitempty"`
	BetaParams         BetaParams             `json:"beta_params"`
}

// Summary condenses system-wide counters for quick inspection.
type Summary struct {
	TotalArms       int     `json:"total_arms"`
	ActiveArms      int     `json:"active_arms"`
	TotalSelections int64   `json:"total_selections"`
	PendingOutcomes int     `json:"pending_outcomes"`
	BestArmID       string  `json:"best_arm_id,omitempty"`
	BestArmReward   float64 `json:"best_arm_reward"`
}

// Stats is the full GetStats payload.
type Stats struct {
	Arms    []ArmStatsView       `json:"arms"`
	Health  model.HealthSnapshot `json:"health"`
	Summary Summary              `json:"summary"`
}
