// Package sqlite provides the reference SQLite-backed persistence adapter.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/pathwise/bandit/internal/domain/model"
)

const armsSchema = `
CREATE TABLE IF NOT EXISTS arms (
    arm_id            TEXT PRIMARY KEY,
    intervention_type TEXT NOT NULL,
    total_pulls       INTEGER NOT NULL DEFAULT 0,
    total_reward      REAL NOT NULL DEFAULT 0,
    beta_alpha        REAL NOT NULL DEFAULT 1,
    beta_beta         REAL NOT NULL DEFAULT 1,
    ucb1_value        REAL,
    is_active         INTEGER NOT NULL DEFAULT 1,
    retired_at        TEXT,
    retirement_reason TEXT,
    updated_at        TEXT NOT NULL
);
`

const outcomesSchema = `
CREATE TABLE IF NOT EXISTS outcomes (
    outcome_id   TEXT PRIMARY KEY,
    user_id      TEXT,
    arm_id       TEXT NOT NULL,
    context_hash TEXT,
    status       TEXT NOT NULL,
    raw_outcome  TEXT,
    reward       REAL NOT NULL DEFAULT 0,
    components   TEXT,
    confidence   REAL NOT NULL DEFAULT 0,
    created_at   TEXT NOT NULL,
    resolved_at  TEXT
);
`

const outcomesIndex = `
CREATE INDEX IF NOT EXISTS idx_outcomes_arm ON outcomes(arm_id);
`

// Store implements the persistence adapter on SQLite via database/sql.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and ensures the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	for _, stmt := range []string{armsSchema, outcomesSchema, outcomesIndex} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// LoadArms returns the latest persisted snapshot of every arm.
func (s *Store) LoadArms(ctx context.Context) ([]model.Arm, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT arm_id, intervention_type, total_pulls, total_reward,
		       beta_alpha, beta_beta, ucb1_value, is_active,
		       retired_at, retirement_reason
		FROM arms`)
	if err != nil {
		return nil, fmt.Errorf("load arms: %w", err)
	}
	defer rows.Close()

	var arms []model.Arm
	for rows.Next() {
		var (
			a         model.Arm
			ucb1      sql.NullFloat64
			active    int
			retiredAt sql.NullString
			retireWhy sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Intervention, &a.TotalPulls, &a.TotalReward,
			&a.BetaAlpha, &a.BetaBeta, &ucb1, &active, &retiredAt, &retireWhy); err != nil {
			return nil, fmt.Errorf("scan arm: %w", err)
		}
		if ucb1.Valid {
			a.UCB1Value = ucb1.Float64
		} else {
			a.UCB1Value = math.Inf(1)
		}
		a.Active = active != 0
		if retiredAt.Valid {
			if t, err := time.Parse(time.RFC3339, retiredAt.String); err == nil {
				a.RetiredAt = &t
			}
		}
		a.RetirementReason = retireWhy.String
		arms = append(arms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load arms: %w", err)
	}
	return arms, nil
}

// SaveArm upserts one arm's statistics.
func (s *Store) SaveArm(ctx context.Context, arm model.Arm) error {
	// Infinite UCB1 (unpulled arm) maps to NULL; it is derived state and
	// recomputed on rehydrate.
	ucb1 := sql.NullFloat64{Float64: arm.UCB1Value, Valid: !math.IsInf(arm.UCB1Value, 0)}
	active := 0
	if arm.Active {
		active = 1
	}
	var retiredAt sql.NullString
	if arm.RetiredAt != nil {
		retiredAt = sql.NullString{String: arm.RetiredAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO arms
		(arm_id, intervention_type, total_pulls, total_reward,
		 beta_alpha, beta_beta, ucb1_value, is_active,
		 retired_at, retirement_reason, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(arm_id) DO UPDATE SET
		 intervention_type = excluded.intervention_type,
		 total_pulls       = excluded.total_pulls,
		 total_reward      = excluded.total_reward,
		 beta_alpha        = excluded.beta_alpha,
		 beta_beta         = excluded.beta_beta,
		 ucb1_value        = excluded.ucb1_value,
		 is_active         = excluded.is_active,
		 retired_at        = excluded.retired_at,
		 retirement_reason = excluded.retirement_reason,
		 updated_at        = excluded.updated_at`,
		arm.ID,
		string(arm.Intervention),
		arm.TotalPulls,
		arm.TotalReward,
		arm.BetaAlpha,
		arm.BetaBeta,
		ucb1,
		active,
		retiredAt,
		arm.RetirementReason,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save arm %s: %w", arm.ID, err)
	}
	return nil
}

// SaveOutcome upserts one outcome record. Components marshal to JSON.
func (s *Store) SaveOutcome(ctx context.Context, outcome model.Outcome) error {
	var components sql.NullString
	if len(outcome.Components) > 0 {
		raw, err := json.Marshal(outcome.Components)
		if err != nil {
			return fmt.Errorf("marshal components for %s: %w", outcome.ID, err)
		}
		components = sql.NullString{String: string(raw), Valid: true}
	}
	var resolvedAt sql.NullString
	if outcome.ResolvedAt != nil {
		resolvedAt = sql.NullString{String: outcome.ResolvedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(outcome_id, user_id, arm_id, context_hash, status,
		 raw_outcome, reward, components, confidence, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(outcome_id) DO UPDATE SET
		 status      = excluded.status,
		 raw_outcome = excluded.raw_outcome,
		 reward      = excluded.reward,
		 components  = excluded.components,
		 confidence  = excluded.confidence,
		 resolved_at = excluded.resolved_at`,
		outcome.ID,
		outcome.UserID,
		outcome.ArmID,
		outcome.ContextHash,
		string(outcome.Status),
		string(outcome.RawOutcome),
		outcome.Reward,
		components,
		outcome.Confidence,
		outcome.CreatedAt.UTC().Format(time.RFC3339),
		resolvedAt,
	)
	if err != nil {
		return fmt.Errorf("save outcome %s: %w", outcome.ID, err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
