package service

import (
	"time"

	"github.com/pathwise/bandit/internal/adapters/store"
	"github.com/pathwise/bandit/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the persistence collaborator. Without one, state lives in
// memory only and the durable-write pipeline stays off.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithSignalWeights sets the reward signal weights for resolution.
func WithSignalWeights(weights map[string]float64) Option {
	return func(s *Service) {
		if len(weights) > 0 {
			s.signalWeights = weights
		}
	}
}

// WithMinSampleSize sets the evidence floor for retirement and convergence.
func WithMinSampleSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.minSampleSize = n
		}
	}
}

// WithMinActiveArms sets the floor of arms retirement must leave active.
func WithMinActiveArms(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minActiveArms = n
		}
	}
}

// WithRecentWindowSize bounds the rolling window behind the exploration rate.
func WithRecentWindowSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.windowSize = n
		}
	}
}

// WithTrendThresholds sets the trend classification thresholds.
func WithTrendThresholds(minPulls int64, improving, declining float64) Option {
	return func(s *Service) {
		if minPulls > 0 && declining < improving {
			s.trendMinPulls = minPulls
			s.trendImproving = improving
			s.trendDeclining = declining
		}
	}
}

// WithPersistQueueSize bounds the durable-write job queue.
func WithPersistQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.persistQueueSize = n
		}
	}
}

// WithWriterCount sets the number of durable-write workers.
func WithWriterCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.writerCount = n
		}
	}
}

// WithRetryPolicy sets the durable-write retry budget and initial backoff.
func WithRetryPolicy(maxRetries int, backoff time.Duration) Option {
	return func(s *Service) {
		if maxRetries >= 0 {
			s.persistMaxRetries = maxRetries
		}
		if backoff > 0 {
			s.persistBackoff = backoff
		}
	}
}

// WithPolicySeed fixes the Thompson sampler seed, for reproducible tests.
func WithPolicySeed(seed int64) Option {
	return func(s *Service) {
		s.policySeed = &seed
	}
}
