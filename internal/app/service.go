// Package service orchestrates the intervention-selection loop: arm
// selection, reward resolution, statistics updates, retirement and health
// reporting. It owns the authoritative in-memory state; persistence is an
// async, best-effort mirror.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/bandit/internal/adapters/mq/queue"
	"github.com/pathwise/bandit/internal/adapters/mq/worker"
	"github.com/pathwise/bandit/internal/adapters/store"
	"github.com/pathwise/bandit/internal/domain/health"
	"github.com/pathwise/bandit/internal/domain/lifecycle"
	"github.com/pathwise/bandit/internal/domain/model"
	"github.com/pathwise/bandit/internal/domain/policy"
	"github.com/pathwise/bandit/internal/domain/reward"
	"github.com/pathwise/bandit/internal/domain/stats"
	"github.com/pathwise/bandit/internal/domain/types"
	"github.com/pathwise/bandit/pkg/logger"
	"github.com/pathwise/bandit/pkg/metrics"
)

// Default orchestrator configuration constants.
const (
	defaultMinSampleSize    = 10
	defaultMinActiveArms    = 2
	defaultWindowSize       = 50
	defaultTrendMinPulls    = 20
	defaultTrendImproving   = 0.6
	defaultTrendDeclining   = 0.3
	defaultPersistQueueSize = 10_000
	defaultWriterCount      = 2
	defaultMaxRetries       = 5
	defaultBackoff          = 100 * time.Millisecond
)

// Selection is the result of one arm pull: the chosen arm and the pending
// outcome the caller must later resolve.
type Selection struct {
	ArmID     string `json:"arm_id"`
	OutcomeID string `json:"outcome_id"`
}

// RewardRequest carries the observed reaction for a pending outcome.
type RewardRequest struct {
	OutcomeID  string               `json:"outcome_id"`
	RawOutcome model.RawOutcome     `json:"raw_outcome"`
	Signals    []model.RewardSignal `json:"signals,omitempty"`
}

// Resolution is the applied result of a reward submission. StaleArm marks a
// resolution recorded against an already-retired arm: the outcome is kept
// for audit but the arm's statistics stay frozen.
type Resolution struct {
	OutcomeID  string             `json:"outcome_id"`
	ArmID      string             `json:"arm_id"`
	Reward     float64            `json:"reward"`
	Components map[string]float64 `json:"reward_components"`
	Confidence float64            `json:"confidence"`
	StaleArm   bool               `json:"stale_arm,omitempty"`
}

// armState pairs an arm with the mutex that guards its mutation.
type armState struct {
	mu  sync.Mutex
	arm *model.Arm
}

// Service is the orchestrator. All exported methods are safe for
// concurrent use.
type Service struct {
	// Arm table. mu guards the map and the initialized flag, not the arms
	// themselves; each arm has its own lock.
	mu          sync.RWMutex
	arms        map[string]*armState
	initialized bool

	// Outcome ledger. omu guards the map and the pending counter.
	omu      sync.Mutex
	outcomes map[string]*model.Outcome
	pending  int

	// Global pull counter, the N of the UCB1 exploration term.
	totalPulls atomic.Int64

	// Domain collaborators.
	policy    *policy.Policy
	resolver  *reward.Resolver
	updater   *stats.Updater
	lifecycle *lifecycle.Manager
	monitor   *health.Monitor

	// Persistence pipeline, wired only when a store is configured.
	store   store.Store
	queue   queue.Queue
	writers *worker.Pool
	started bool

	// Configuration captured by options before the collaborators exist.
	signalWeights     map[string]float64
	minSampleSize     int64
	minActiveArms     int
	windowSize        int
	trendMinPulls     int64
	trendImproving    float64
	trendDeclining    float64
	persistQueueSize  int
	writerCount       int
	persistMaxRetries int
	persistBackoff    time.Duration
	policySeed        *int64

	logger logger.Logger
}

// New creates a Service with configuration options applied.
func New(opts ...Option) *Service {
	s := &Service{
		arms:              make(map[string]*armState),
		outcomes:          make(map[string]*model.Outcome),
		minSampleSize:     defaultMinSampleSize,
		minActiveArms:     defaultMinActiveArms,
		windowSize:        defaultWindowSize,
		trendMinPulls:     defaultTrendMinPulls,
		trendImproving:    defaultTrendImproving,
		trendDeclining:    defaultTrendDeclining,
		persistQueueSize:  defaultPersistQueueSize,
		writerCount:       defaultWriterCount,
		persistMaxRetries: defaultMaxRetries,
		persistBackoff:    defaultBackoff,
		logger:            logger.Get().Named("bandit"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	policyOpts := []policy.Option{}
	if s.policySeed != nil {
		policyOpts = append(policyOpts, policy.WithSeed(*s.policySeed))
	}
	s.policy = policy.New(policyOpts...)

	resolverOpts := []reward.Option{}
	if s.signalWeights != nil {
		resolverOpts = append(resolverOpts, reward.WithSignalWeights(s.signalWeights))
	}
	s.resolver = reward.NewResolver(resolverOpts...)

	s.updater = stats.NewUpdater(
		stats.WithTrendThresholds(s.trendMinPulls, s.trendImproving, s.trendDeclining),
	)
	s.lifecycle = lifecycle.New(
		lifecycle.WithMinSampleSize(s.minSampleSize),
		lifecycle.WithMinActiveArms(s.minActiveArms),
	)
	s.monitor = health.New(
		health.WithMinSampleSize(s.minSampleSize),
		health.WithWindowSize(s.windowSize),
	)

	return s
}

// Start brings up the durable-write pipeline. It is a no-op without a store.
func (s *Service) Start(ctx context.Context) {
	if s.store == nil || s.started {
		return
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.persistQueueSize))
	s.writers = worker.NewPool(s.queue, s.store,
		worker.WithWriterCount(s.writerCount),
		worker.WithRetryPolicy(s.persistMaxRetries, s.persistBackoff),
		worker.WithLogger(s.logger.Named("persist")),
	)
	s.writers.Start(ctx)
	s.started = true

	s.logger.Info(ctx, "persistence pipeline started",
		logger.Int("writers", s.writerCount),
		logger.Int("queue_capacity", s.persistQueueSize),
	)
}

// Stop drains and shuts down the durable-write pipeline.
func (s *Service) Stop(ctx context.Context) error {
	if !s.started {
		return nil
	}
	s.started = false
	if err := s.writers.Shutdown(ctx); err != nil {
		return fmt.Errorf("stopping writer pool: %w", err)
	}
	return nil
}

// Initialize builds the arm table from the catalog, overlaying any persisted
// statistics by arm ID. Persisted arms absent from the catalog are ignored.
// It may be called exactly once per Service.
func (s *Service) Initialize(ctx context.Context, catalog []model.ArmConfig, persisted []model.Arm) error {
	if len(catalog) == 0 {
		return ErrEmptyCatalog
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return ErrAlreadyInitialized
	}

	byID := make(map[string]model.Arm, len(persisted))
	for _, a := range persisted {
		byID[a.ID] = a
	}

	var total int64
	restored := 0
	for _, cfg := range catalog {
		if cfg.ArmID == "" {
			return fmt.Errorf("%w: catalog entry with empty arm_id", ErrEmptyCatalog)
		}
		arm := model.NewArm(cfg)
		if prev, ok := byID[cfg.ArmID]; ok {
			arm.TotalPulls = prev.TotalPulls
			arm.TotalReward = prev.TotalReward
			arm.BetaAlpha = prev.BetaAlpha
			arm.BetaBeta = prev.BetaBeta
			arm.Active = prev.Active
			arm.RetiredAt = prev.RetiredAt
			arm.RetirementReason = prev.RetirementReason
			restored++
		}
		total += arm.TotalPulls
		s.arms[cfg.ArmID] = &armState{arm: arm}
	}
	s.totalPulls.Store(total)

	// UCB1 depends on the global pull count, so it is recomputed once all
	// arms are loaded rather than trusted from storage.
	active, retired := 0, 0
	for _, st := range s.arms {
		st.arm.UCB1Value = stats.UCB1(st.arm.AverageReward(), st.arm.TotalPulls, total)
		if st.arm.Active {
			active++
		} else {
			retired++
		}
	}

	s.initialized = true
	metrics.UpdateActiveArms(active)
	metrics.UpdateRetiredArms(retired)

	s.logger.Info(ctx, "orchestrator initialized",
		logger.Int("catalog_arms", len(catalog)),
		logger.Int("restored_arms", restored),
		logger.Int64("total_pulls", total),
	)
	return nil
}

// IsInitialized reports whether Initialize has completed.
func (s *Service) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// SelectArm picks one active arm by Thompson sampling and opens a pending
// outcome for it. The context features are fingerprinted, never stored raw.
func (s *Service) SelectArm(ctx context.Context, userID string, features model.ContextFeatures) (Selection, error) {
	snaps, err := s.snapshotArms()
	if err != nil {
		return Selection{}, err
	}

	armID, err := s.policy.Select(snaps)
	if err != nil {
		return Selection{}, fmt.Errorf("selecting arm: %w", err)
	}

	outcome := &model.Outcome{
		ID:          uuid.NewString(),
		UserID:      userID,
		ArmID:       armID,
		ContextHash: features.Hash(),
		Status:      model.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	s.omu.Lock()
	s.outcomes[outcome.ID] = outcome
	s.pending++
	pending := s.pending
	s.omu.Unlock()

	s.monitor.RecordPull(armID)
	metrics.RecordSelection(armID)
	metrics.UpdatePendingOutcomes(pending)

	s.logger.Debug(ctx, "arm selected",
		logger.String("arm_id", armID),
		logger.String("outcome_id", outcome.ID),
	)
	return Selection{ArmID: armID, OutcomeID: outcome.ID}, nil
}

// RecordReward resolves a pending outcome and applies the reward to its arm.
// A resolved outcome is immutable: a second submission for the same outcome
// returns ErrAlreadyResolved and mutates nothing. A reward for a retired arm
// is recorded on the outcome but leaves the arm's statistics frozen.
func (s *Service) RecordReward(ctx context.Context, req RewardRequest) (Resolution, error) {
	if !s.IsInitialized() {
		return Resolution{}, ErrNotInitialized
	}

	// Resolve first; validation failures must not claim the outcome.
	res, err := s.resolver.Resolve(req.RawOutcome, req.Signals)
	if err != nil {
		metrics.RecordRejectedInput("reward")
		return Resolution{}, fmt.Errorf("resolving reward: %w", err)
	}

	outcome, err := s.claimOutcome(req.OutcomeID, req.RawOutcome, res)
	if err != nil {
		return Resolution{}, err
	}

	resolution := Resolution{
		OutcomeID:  outcome.ID,
		ArmID:      outcome.ArmID,
		Reward:     res.Reward,
		Components: res.Components,
		Confidence: res.Confidence,
	}

	s.mu.RLock()
	state, ok := s.arms[outcome.ArmID]
	s.mu.RUnlock()
	if !ok {
		// The ledger references an arm the table does not know; the
		// resolution stands but nothing can absorb it.
		return resolution, fmt.Errorf("%w: %s", ErrArmNotFound, outcome.ArmID)
	}

	state.mu.Lock()
	if !state.arm.Active {
		state.mu.Unlock()
		resolution.StaleArm = true
		metrics.RecordStaleReward()
		s.logger.Debug(ctx, "reward for retired arm recorded without stats update",
			logger.String("arm_id", outcome.ArmID),
			logger.String("outcome_id", outcome.ID),
		)
		s.enqueuePersist(ctx, nil, outcome)
		return resolution, nil
	}

	n := s.totalPulls.Add(1)
	s.updater.Apply(state.arm, res.Reward, n)
	armSnap := state.arm.Clone()
	state.mu.Unlock()

	metrics.RecordResolution(outcome.ArmID, string(req.RawOutcome), res.Reward, res.Confidence)

	// The global pull count moved, so every arm's UCB1 score is stale.
	s.refreshUCB1(n)
	s.applyRetirements(ctx)

	s.enqueuePersist(ctx, &armSnap, outcome)
	return resolution, nil
}

// claimOutcome transitions the outcome pending -> resolved and stamps the
// resolution onto it. The transition happens exactly once per outcome.
func (s *Service) claimOutcome(outcomeID string, raw model.RawOutcome, res reward.Resolution) (*model.Outcome, error) {
	s.omu.Lock()
	defer s.omu.Unlock()

	outcome, ok := s.outcomes[outcomeID]
	if !ok {
		metrics.RecordRejectedInput("outcome_id")
		return nil, fmt.Errorf("%w: %s", ErrOutcomeNotFound, outcomeID)
	}
	if outcome.Status == model.StatusResolved {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyResolved, outcomeID)
	}

	now := time.Now().UTC()
	outcome.Status = model.StatusResolved
	outcome.RawOutcome = raw
	outcome.Reward = res.Reward
	outcome.Components = res.Components
	outcome.Confidence = res.Confidence
	outcome.ResolvedAt = &now

	s.pending--
	metrics.UpdatePendingOutcomes(s.pending)

	return outcome, nil
}

// refreshUCB1 recomputes every arm's UCB1 score against the new global N.
func (s *Service) refreshUCB1(totalPulls int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.arms {
		st.mu.Lock()
		st.arm.UCB1Value = stats.UCB1(st.arm.AverageReward(), st.arm.TotalPulls, totalPulls)
		st.mu.Unlock()
	}
}

// applyRetirements evaluates retirement on a snapshot and applies the
// verdicts under each arm's lock.
func (s *Service) applyRetirements(ctx context.Context) {
	snaps, err := s.snapshotArms()
	if err != nil {
		return
	}

	retire := s.lifecycle.Evaluate(snaps)
	if len(retire) == 0 {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	for _, id := range retire {
		state, ok := s.arms[id]
		if !ok {
			continue
		}
		state.mu.Lock()
		if !state.arm.Active {
			state.mu.Unlock()
			continue
		}
		state.arm.Active = false
		t := now
		state.arm.RetiredAt = &t
		state.arm.RetirementReason = lifecycle.ReasonDominated
		armSnap := state.arm.Clone()
		state.mu.Unlock()

		metrics.RecordRetirement(lifecycle.ReasonDominated)
		s.logger.Info(ctx, "arm retired",
			logger.String("arm_id", id),
			logger.String("reason", lifecycle.ReasonDominated),
			logger.Int64("total_pulls", armSnap.TotalPulls),
		)
		s.enqueuePersist(ctx, &armSnap, nil)
	}

	active, retired := 0, 0
	for _, st := range s.arms {
		st.mu.Lock()
		if st.arm.Active {
			active++
		} else {
			retired++
		}
		st.mu.Unlock()
	}
	metrics.UpdateActiveArms(active)
	metrics.UpdateRetiredArms(retired)
}

// GetStats assembles the full read-only view: per-arm projections, the
// health snapshot and system-wide summary counters.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	snaps, err := s.snapshotArms()
	if err != nil {
		return types.Stats{}, err
	}

	shares := s.monitor.RecentShares()

	views := make([]types.ArmStatsView, 0, len(snaps))
	var bestID string
	var bestAvg float64
	activeCount := 0
	for i := range snaps {
		a := &snaps[i]
		lower, upper := stats.ConfidenceInterval(a)
		views = append(views, types.ArmStatsView{
			ArmID:            a.ID,
			InterventionType: a.Intervention,
			TotalPulls:       a.TotalPulls,
			AverageReward:    a.AverageReward(),
			SuccessRate:      a.SuccessRate(),
			ExplorationRate:  shares[a.ID],
			UCB1Value:        a.UCB1Value,
			Trend:            s.updater.Trend(a),
			ConfidenceInterval: types.ConfidenceInterval{
				Lower: lower,
				Upper: upper,
			},
			IsRetired:        !a.Active,
			RetirementReason: a.RetirementReason,
			BetaParams: types.BetaParams{
				Alpha: a.BetaAlpha,
				Beta:  a.BetaBeta,
			},
		})
		if a.Active {
			activeCount++
			if bestID == "" || a.AverageReward() > bestAvg {
				bestID = a.ID
				bestAvg = a.AverageReward()
			}
		}
	}

	snapshot := s.monitor.Snapshot(snaps, s.persistenceDegraded())
	metrics.UpdateConvergence(snapshot.ConvergenceMetric)
	metrics.UpdateExplorationRate(snapshot.RecentExplorationRate)

	s.omu.Lock()
	pending := s.pending
	s.omu.Unlock()

	return types.Stats{
		Arms:   views,
		Health: snapshot,
		Summary: types.Summary{
			TotalArms:       len(snaps),
			ActiveArms:      activeCount,
			TotalSelections: snapshot.TotalSelections,
			PendingOutcomes: pending,
			BestArmID:       bestID,
			BestArmReward:   bestAvg,
		},
	}, nil
}

// Outcome returns a copy of one outcome from the ledger.
func (s *Service) Outcome(id string) (model.Outcome, error) {
	s.omu.Lock()
	defer s.omu.Unlock()

	outcome, ok := s.outcomes[id]
	if !ok {
		return model.Outcome{}, fmt.Errorf("%w: %s", ErrOutcomeNotFound, id)
	}
	return outcome.Clone(), nil
}

// Arm returns a copy of one arm's current state.
func (s *Service) Arm(id string) (model.Arm, error) {
	s.mu.RLock()
	state, ok := s.arms[id]
	s.mu.RUnlock()
	if !ok {
		return model.Arm{}, fmt.Errorf("%w: %s", ErrArmNotFound, id)
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.arm.Clone(), nil
}

// snapshotArms copies every arm under its lock, gating on initialization.
func (s *Service) snapshotArms() ([]model.Arm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	snaps := make([]model.Arm, 0, len(s.arms))
	for _, st := range s.arms {
		st.mu.Lock()
		snaps = append(snaps, st.arm.Clone())
		st.mu.Unlock()
	}
	return snaps, nil
}

// enqueuePersist hands a snapshot to the durable-write pipeline. Dropped
// jobs are logged; in-memory state is already committed and stays so.
func (s *Service) enqueuePersist(ctx context.Context, arm *model.Arm, outcome *model.Outcome) {
	if !s.started {
		return
	}

	job := queue.Job{Arm: arm}
	if outcome != nil {
		s.omu.Lock()
		o := outcome.Clone()
		s.omu.Unlock()
		job.Outcome = &o
	}

	if !s.queue.Enqueue(ctx, job) {
		s.logger.Warn(ctx, "durable-write queue full, dropping job",
			logger.Int("queue_len", s.queue.Len(ctx)),
		)
	}
}

// persistenceDegraded reports the pipeline state for health snapshots.
func (s *Service) persistenceDegraded() bool {
	if s.writers == nil {
		return false
	}
	return s.writers.Degraded()
}
