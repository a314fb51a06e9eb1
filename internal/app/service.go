// Package service runs the analytics pipeline and serves its results to
// the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	workerpool "github.com/okian/pitchiq/internal/adapters/mq/worker"
	repository "github.com/okian/pitchiq/internal/adapters/repository"
	"github.com/okian/pitchiq/internal/domain/clustering"
	"github.com/okian/pitchiq/internal/domain/dedupe"
	"github.com/okian/pitchiq/internal/domain/forecast"
	"github.com/okian/pitchiq/internal/domain/scoring"
	"github.com/okian/pitchiq/internal/domain/similarity"
	"github.com/okian/pitchiq/pkg/logger"
	"github.com/okian/pitchiq/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const defaultDedupeSize = 1024

// Service owns the pipeline components and the published snapshot.
type Service struct {
	mu sync.RWMutex
	// Serialises pipeline runs; readers never take it.
	runMu sync.Mutex
	// In-flight keyed loads.
	loads singleflight.Group

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	engine     *scoring.Engine
	clusterer  *clustering.Clusterer
	forecaster *forecast.Forecaster
	pool       *workerpool.Pool

	// Configuration
	workerCount   int
	clusters      int
	components    int
	similarTopN   int
	horizon       int
	intervalWidth float64
	seasonality   bool
	dedupeSize    int

	// State
	started bool
	runs    atomic.Int64

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		clusters:      clustering.DefaultClusters,
		components:    clustering.DefaultComponents,
		similarTopN:   similarity.DefaultTopN,
		horizon:       forecast.DefaultHorizon,
		intervalWidth: forecast.DefaultIntervalWidth,
		seasonality:   true,
		dedupeSize:    defaultDedupeSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting analytics service...")

	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.engine = scoring.NewEngine(scoring.WithLogger(s.logger.Named("scoring")))
	s.clusterer = clustering.New(
		clustering.WithClusters(s.clusters),
		clustering.WithComponents(s.components),
		clustering.WithLogger(s.logger.Named("clustering")),
	)
	s.forecaster = forecast.New(
		forecast.WithHorizon(s.horizon),
		forecast.WithIntervalWidth(s.intervalWidth),
		forecast.WithMonthlySeasonality(s.seasonality),
		forecast.WithLogger(s.logger.Named("forecast")),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.forecaster,
		workerpool.WithPoolLogger(s.logger.Named("worker-pool")))

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Int("workers", s.workerCount),
		logger.Int("clusters", s.clusters),
		logger.Int("components", s.components),
		logger.Int("horizon", s.horizon),
		logger.Bool("monthlySeasonality", s.seasonality),
	)
	return nil
}

// Stop marks the service stopped. Published results stay readable.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "analytics service stopped")
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"clusters":       s.clusters,
		"components":     s.components,
		"horizon":        s.horizon,
		"weightsVersion": scoring.WeightsVersion,
		"runs":           s.runs.Load(),
	}
	if !s.started {
		return stats
	}

	stats["players"] = s.store.Count(ctx)
	stats["dedupeSize"] = s.deduper.Size()
	if snap, err := s.store.Current(ctx); err == nil {
		stats["runId"] = snap.RunID
		stats["lastRunAt"] = snap.CreatedAt
		stats["lastRunMs"] = snap.Duration.Milliseconds()
		stats["forecasts"] = len(snap.Forecasts)
		stats["skippedForecasts"] = len(snap.Failures)
		if snap.Model != nil {
			stats["fittedClusters"] = snap.Model.K
		}
	}
	metrics.UpdateWorkerCount(s.workerCount)
	return stats
}
