package model

import "time"

// HealthSnapshot aggregates system-wide bandit health. It is derived on
// demand from current arm state and never independently mutated.
type HealthSnapshot struct {
	TotalSelections       int64     `json:"total_selections"`
	TotalRewards          float64   `json:"total_rewards"`
	AverageReward         float64   `json:"average_reward"`
	RecentExplorationRate float64   `json:"recent_exploration_rate"`
	ActiveArms            int       `json:"active_arms"`
	RetiredArms           int       `json:"retired_arms"`
	ConvergenceMetric     float64   `json:"convergence_metric"`
	PersistenceDegraded   bool      `json:"persistence_degraded"`
	RecordedAt            time.Time `json:"recorded_at"`
}
