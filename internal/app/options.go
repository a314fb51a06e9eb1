package service

import (
	"github.com/okian/pitchiq/internal/adapters/repository"
	"github.com/okian/pitchiq/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of forecast workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithClusters sets the requested number of profile clusters.
func WithClusters(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.clusters = k
		}
	}
}

// WithComponents sets the requested number of principal components.
func WithComponents(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.components = n
		}
	}
}

// WithSimilarTopN sets the default neighbour count.
func WithSimilarTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.similarTopN = n
		}
	}
}

// WithForecastHorizon sets how many months ahead to forecast.
func WithForecastHorizon(periods int) Option {
	return func(s *Service) {
		if periods > 0 {
			s.horizon = periods
		}
	}
}

// WithForecastIntervalWidth sets the prediction interval coverage.
func WithForecastIntervalWidth(width float64) Option {
	return func(s *Service) {
		if width > 0 && width < 1 {
			s.intervalWidth = width
		}
	}
}

// WithMonthlySeasonality toggles the monthly seasonal component.
func WithMonthlySeasonality(enabled bool) Option {
	return func(s *Service) {
		s.seasonality = enabled
	}
}

// WithDedupeSize sets how many cohort idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStore replaces the default in-memory snapshot store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
