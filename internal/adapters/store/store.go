// Package store defines the typed persistence adapter consumed by the
// orchestrator. Durable copies are the recovery source after a restart; the
// in-memory arm table stays authoritative while the process lives.
package store

import (
	"context"

	"github.com/pathwise/bandit/internal/domain/model"
)

// Store provides durable read/write access to arm and outcome state.
type Store interface {
	// LoadArms returns the latest persisted snapshot of every arm.
	LoadArms(ctx context.Context) ([]model.Arm, error)

	// SaveArm upserts one arm's statistics.
	SaveArm(ctx context.Context, arm model.Arm) error

	// SaveOutcome upserts one resolved outcome record.
	SaveOutcome(ctx context.Context, outcome model.Outcome) error

	// Close releases the underlying resources.
	Close() error
}
