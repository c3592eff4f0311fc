// Package lifecycle retires arms that are statistically dominated once they
// carry enough evidence, never dropping below a minimum of active choices.
package lifecycle

import (
	"sort"

	"github.com/pathwise/bandit/internal/domain/model"
	"github.com/pathwise/bandit/internal/domain/stats"
)

// Default lifecycle constants.
const (
	defaultMinSampleSize = 10
	defaultMinActiveArms = 2
)

// ReasonDominated is the machine-readable retirement reason code.
const ReasonDominated = "dominated_95ci"

// Manager decides which arms to retire after each reward application.
type Manager struct {
	minSampleSize int64
	minActiveArms int
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithMinSampleSize sets the pull count an arm needs before it can retire.
func WithMinSampleSize(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.minSampleSize = n
		}
	}
}

// WithMinActiveArms sets the floor of arms that must stay active.
func WithMinActiveArms(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.minActiveArms = n
		}
	}
}

// New creates a Manager with default thresholds.
func New(opts ...Option) *Manager {
	m := &Manager{
		minSampleSize: defaultMinSampleSize,
		minActiveArms: defaultMinActiveArms,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Evaluate returns the IDs of active arms that should retire now. It works
// on snapshots and leaves mutation to the owner of the arm table.
//
// An arm retires only when all hold: it has at least minSampleSize pulls,
// its 95% CI upper bound sits strictly below the best active arm's lower
// bound, and retiring it still leaves minActiveArms arms active.
func (m *Manager) Evaluate(arms []model.Arm) []string {
	active := make([]model.Arm, 0, len(arms))
	for _, a := range arms {
		if a.Active {
			active = append(active, a)
		}
	}
	if len(active) <= m.minActiveArms {
		return nil
	}

	best := active[0]
	for _, a := range active[1:] {
		if a.SuccessRate() > best.SuccessRate() {
			best = a
		}
	}
	bestLower, _ := stats.ConfidenceInterval(&best)

	dominated := make([]model.Arm, 0, len(active))
	for _, a := range active {
		if a.ID == best.ID || a.TotalPulls < m.minSampleSize {
			continue
		}
		_, upper := stats.ConfidenceInterval(&a)
		if upper < bestLower {
			dominated = append(dominated, a)
		}
	}

	// Retire the weakest arms first so the minActiveArms floor cuts off
	// the strongest of the dominated set.
	sort.Slice(dominated, func(i, j int) bool {
		return dominated[i].SuccessRate() < dominated[j].SuccessRate()
	})

	remaining := len(active)
	retired := make([]string, 0, len(dominated))
	for _, a := range dominated {
		if remaining-1 < m.minActiveArms {
			break
		}
		retired = append(retired, a.ID)
		remaining--
	}
	return retired
}
