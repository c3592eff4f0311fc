// Package health derives system-wide exploration and convergence metrics
// from current arm state and a rolling window of recent pulls.
package health

import (
	"time"

	"github.com/pathwise/bandit/internal/domain/model"
)

// Default health constants.
const (
	defaultMinSampleSize = 10
	defaultWindowSize    = 50
)

// Monitor produces HealthSnapshots on demand. It owns the rolling window of
// recent pull arm IDs.
type Monitor struct {
	minSampleSize int64
	window        *window
}

// Option applies a configuration option to the Monitor.
type Option func(*Monitor)

// WithMinSampleSize sets the system-wide pull count below which convergence
// is reported as zero.
func WithMinSampleSize(n int64) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.minSampleSize = n
		}
	}
}

// WithWindowSize bounds the rolling window of recent pulls.
func WithWindowSize(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.window = newWindow(n)
		}
	}
}

// New creates a Monitor with default configuration.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		minSampleSize: defaultMinSampleSize,
		window:        newWindow(defaultWindowSize),
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RecordPull appends a pull to the rolling window.
func (m *Monitor) RecordPull(armID string) {
	m.window.record(armID)
}

// RecentShares returns each arm's share of the pulls in the rolling window.
// Arms absent from the window are absent from the map.
func (m *Monitor) RecentShares() map[string]float64 {
	recent := m.window.entries()
	if len(recent) == 0 {
		return nil
	}
	shares := make(map[string]float64, len(recent))
	for _, id := range recent {
		shares[id]++
	}
	for id := range shares {
		shares[id] /= float64(len(recent))
	}
	return shares
}

// Snapshot computes the current health view. Arms are snapshots taken under
// their locks; degraded reports the persistence pipeline state.
func (m *Monitor) Snapshot(arms []model.Arm, degraded bool) model.HealthSnapshot {
	snap := model.HealthSnapshot{
		PersistenceDegraded: degraded,
		RecordedAt:          time.Now().UTC(),
	}

	var bestID string
	var bestAvg float64
	var bestPulls int64
	for _, a := range arms {
		snap.TotalSelections += a.TotalPulls
		snap.TotalRewards += a.TotalReward
		if !a.Active {
			snap.RetiredArms++
			continue
		}
		snap.ActiveArms++
		if bestID == "" || a.AverageReward() > bestAvg {
			bestID = a.ID
			bestAvg = a.AverageReward()
			bestPulls = a.TotalPulls
		}
	}

	if snap.TotalSelections > 0 {
		snap.AverageReward = snap.TotalRewards / float64(snap.TotalSelections)
	}

	// Exploration: share of recent pulls that did not go to the best arm.
	recent := m.window.entries()
	if len(recent) > 0 && bestID != "" {
		explored := 0
		for _, id := range recent {
			if id != bestID {
				explored++
			}
		}
		snap.RecentExplorationRate = float64(explored) / float64(len(recent))
	}

	// Convergence: too early to claim anything below the sample floor.
	if snap.TotalSelections >= m.minSampleSize && bestID != "" {
		snap.ConvergenceMetric = float64(bestPulls) / float64(snap.TotalSelections)
	}

	return snap
}
