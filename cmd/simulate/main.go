// Command simulate drives the orchestrator with synthetic learner traffic.
//
// Each arm gets a hidden help probability; the simulator pulls arms, draws
// outcomes from those probabilities and feeds the rewards back, so the
// posterior concentration, retirement and health behavior can be observed
// end to end without a real traffic source.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pathwise/bandit/internal/adapters/store"
	"github.com/pathwise/bandit/internal/adapters/store/sqlite"
	service "github.com/pathwise/bandit/internal/app"
	"github.com/pathwise/bandit/internal/config"
	"github.com/pathwise/bandit/internal/domain/model"
	"github.com/pathwise/bandit/pkg/logger"
)

// Default simulation constants.
const (
	defaultRounds       = 2000
	defaultUsers        = 50
	defaultSignalChance = 0.4
	healthLogInterval   = 500
)

// scenario pairs a catalog entry with its hidden ground truth.
type scenario struct {
	cfg      model.ArmConfig
	helpProb float64
}

// defaultScenarios mirrors a typical three-intervention deployment with one
// clearly weak arm, so retirement triggers within a reasonable run.
var defaultScenarios = []scenario{
	{cfg: model.ArmConfig{ArmID: "hint-basic", Intervention: model.InterventionHint}, helpProb: 0.55},
	{cfg: model.ArmConfig{ArmID: "encourage-basic", Intervention: model.InterventionEncouragement}, helpProb: 0.35},
	{cfg: model.ArmConfig{ArmID: "pacing-basic", Intervention: model.InterventionPacingSuggestion}, helpProb: 0.15},
}

func main() {
	var (
		rounds       = flag.Int("rounds", defaultRounds, "Number of select/reward rounds to run")
		users        = flag.Int("users", defaultUsers, "Number of distinct simulated users")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "Simulation RNG seed")
		signalChance = flag.Float64("signals", defaultSignalChance, "Probability a resolution carries auxiliary signals")
		dsn          = flag.String("dsn", "", "SQLite DSN for durable state (overrides config; empty keeps config value)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get().Named("simulate")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if *dsn != "" {
		cfg.StoreDSN = *dsn
	}

	if err := run(ctx, cfg, log, *rounds, *users, *seed, *signalChance); err != nil {
		log.Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger, rounds, users int, seed int64, signalChance float64) error {
	opts := []service.Option{
		service.WithLogger(log),
		service.WithSignalWeights(cfg.SignalWeights),
		service.WithMinSampleSize(cfg.MinSampleSize),
		service.WithMinActiveArms(cfg.MinActiveArms),
		service.WithRecentWindowSize(cfg.RecentWindowSize),
		service.WithTrendThresholds(cfg.TrendMinPulls, cfg.TrendImproving, cfg.TrendDeclining),
		service.WithPersistQueueSize(cfg.PersistQueueSize),
		service.WithWriterCount(cfg.PersistWriterCount),
		service.WithRetryPolicy(cfg.PersistMaxRetries, time.Duration(cfg.PersistRetryBackoffMS)*time.Millisecond),
		service.WithPolicySeed(seed),
	}

	var persisted []model.Arm
	var st store.Store
	if cfg.StoreDSN != "" {
		db, err := sqlite.Open(cfg.StoreDSN)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer db.Close()
		st = db

		persisted, err = db.LoadArms(ctx)
		if err != nil {
			return fmt.Errorf("loading persisted arms: %w", err)
		}
		opts = append(opts, service.WithStore(st))
		log.Info(ctx, "durable store attached",
			logger.String("dsn", cfg.StoreDSN),
			logger.Int("persisted_arms", len(persisted)),
		)
	}

	svc := service.New(opts...)
	svc.Start(ctx)
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	catalog := make([]model.ArmConfig, 0, len(defaultScenarios))
	truth := make(map[string]float64, len(defaultScenarios))
	for _, sc := range defaultScenarios {
		catalog = append(catalog, sc.cfg)
		truth[sc.cfg.ArmID] = sc.helpProb
	}
	if err := svc.Initialize(ctx, catalog, persisted); err != nil {
		return fmt.Errorf("initializing orchestrator: %w", err)
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not crypto
	start := time.Now()

	for i := 0; i < rounds; i++ {
		select {
		case <-ctx.Done():
			log.Info(ctx, "simulation interrupted", logger.Int("completed_rounds", i))
			return printStats(ctx, svc)
		default:
		}

		userID := fmt.Sprintf("learner-%03d", rng.Intn(users))
		features := model.ContextFeatures{
			"session_phase": []string{"warmup", "practice", "review"}[rng.Intn(3)],
			"difficulty":    []string{"easy", "medium", "hard"}[rng.Intn(3)],
		}

		sel, err := svc.SelectArm(ctx, userID, features)
		if err != nil {
			return fmt.Errorf("round %d select: %w", i, err)
		}

		req := service.RewardRequest{
			OutcomeID:  sel.OutcomeID,
			RawOutcome: drawOutcome(rng, truth[sel.ArmID]),
		}
		if rng.Float64() < signalChance {
			req.Signals = drawSignals(rng, req.RawOutcome)
		}

		if _, err := svc.RecordReward(ctx, req); err != nil {
			return fmt.Errorf("round %d reward: %w", i, err)
		}

		if (i+1)%healthLogInterval == 0 {
			stats, err := svc.GetStats(ctx)
			if err != nil {
				return fmt.Errorf("round %d stats: %w", i, err)
			}
			log.Info(ctx, "simulation progress",
				logger.Int("round", i+1),
				logger.String("best_arm", stats.Summary.BestArmID),
				logger.Float64("convergence", stats.Health.ConvergenceMetric),
				logger.Float64("exploration_rate", stats.Health.RecentExplorationRate),
				logger.Int("active_arms", stats.Summary.ActiveArms),
			)
		}
	}

	log.Info(ctx, "simulation complete",
		logger.Int("rounds", rounds),
		logger.Duration("elapsed", time.Since(start)),
	)
	return printStats(ctx, svc)
}

// drawOutcome samples a raw outcome from an arm's hidden help probability.
// Non-helped reactions split between passive ignoring and explicit dismissal.
func drawOutcome(rng *rand.Rand, helpProb float64) model.RawOutcome {
	r := rng.Float64()
	switch {
	case r < helpProb:
		return model.OutcomeHelped
	case r < helpProb+(1-helpProb)*0.7:
		return model.OutcomeIgnored
	default:
		return model.OutcomeDismissed
	}
}

// drawSignals fabricates auxiliary evidence loosely consistent with the raw
// outcome, so resolved rewards spread over the unit interval.
func drawSignals(rng *rand.Rand, raw model.RawOutcome) []model.RewardSignal {
	center := 0.2
	if raw == model.OutcomeHelped {
		center = 0.8
	}
	jitter := func() float64 {
		v := center + (rng.Float64()-0.5)*0.4
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}

	signals := []model.RewardSignal{
		{Type: model.SignalEngagement, Value: jitter()},
	}
	if rng.Float64() < 0.5 {
		signals = append(signals, model.RewardSignal{Type: model.SignalLearningGain, Value: jitter()})
	}
	if rng.Float64() < 0.5 {
		signals = append(signals, model.RewardSignal{Type: model.SignalCompletion, Value: jitter()})
	}
	return signals
}

// printStats dumps the final orchestrator view as indented JSON on stdout.
func printStats(ctx context.Context, svc *service.Service) error {
	stats, err := svc.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("final stats: %w", err)
	}
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
