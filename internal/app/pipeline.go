package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	workerpool "github.com/okian/pitchiq/internal/adapters/mq/worker"
	repository "github.com/okian/pitchiq/internal/adapters/repository"
	"github.com/okian/pitchiq/internal/domain/clustering"
	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/internal/domain/forecast"
	"github.com/okian/pitchiq/internal/domain/model"
	"github.com/okian/pitchiq/internal/domain/scoring"
	"github.com/okian/pitchiq/internal/domain/types"
	"github.com/okian/pitchiq/pkg/logger"
	"github.com/okian/pitchiq/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Pipeline stage names used for timings and metrics.
const (
	stageExtract    = "extract"
	stageScore      = "score"
	stageCluster    = "cluster"
	stageForecast   = "forecast"
	stagePublish    = "publish"
	pipelineSuccess = "ok"
	pipelineError   = "error"
)

// Load runs the full pipeline over cohort and publishes the result.
//
// Scoring, clustering and forecasting run concurrently on the same feature
// table. A failure in any of them leaves the previous snapshot in place.
// Per-series forecast failures are recorded in the snapshot instead.
func (s *Service) Load(ctx context.Context, cohort model.Cohort) (types.RunSummary, error) {
	if !s.isStarted() {
		return types.RunSummary{}, ErrNotStarted
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	summary, err := s.run(ctx, cohort)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordPipelineRun(pipelineError, elapsed)
		metrics.RecordError("pipeline", errorKind(err))
		s.logger.Error(ctx, "pipeline run failed", logger.Error(err))
		return types.RunSummary{}, err
	}
	metrics.RecordPipelineRun(pipelineSuccess, elapsed)
	s.runs.Add(1)
	s.logger.Info(ctx, "pipeline run published",
		logger.String("runId", summary.RunID),
		logger.Int("players", summary.Players),
		logger.Int("clusters", summary.Clusters),
		logger.Int("forecasts", summary.Forecasts),
		logger.Int("skipped", summary.Skipped),
		logger.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// LoadOnce runs Load unless key was already accepted. A repeated key returns
// the run summary flagged as a duplicate. Callers arriving while the first
// run for key is still in flight wait for it and share its result; if it
// fails they get its error and the key stays retryable. An empty key always
// runs.
func (s *Service) LoadOnce(ctx context.Context, key string, cohort model.Cohort) (types.RunSummary, error) {
	if key == "" {
		return s.Load(ctx, cohort)
	}
	if !s.isStarted() {
		return types.RunSummary{}, ErrNotStarted
	}

	// Only the caller whose closure executes owns the run; singleflight
	// reports every caller as shared once anyone joined.
	var owner bool
	ch := s.loads.DoChan(key, func() (any, error) {
		owner = true
		if s.deduper.SeenAndRecord(ctx, key) {
			s.logger.Debug(ctx, "duplicate cohort load", logger.String("key", key))
			summary, err := s.CurrentRun(ctx)
			if err != nil {
				return nil, err
			}
			summary.Duplicate = true
			return summary, nil
		}
		summary, err := s.Load(ctx, cohort)
		if err != nil {
			// A failed run must be retryable with the same key.
			s.deduper.Unrecord(ctx, key)
			return nil, err
		}
		return summary, nil
	})

	select {
	case <-ctx.Done():
		return types.RunSummary{}, fmt.Errorf("load %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return types.RunSummary{}, res.Err
		}
		summary := res.Val.(types.RunSummary)
		if !owner {
			s.logger.Debug(ctx, "joined in-flight cohort load", logger.String("key", key))
			summary.Duplicate = true
		}
		return summary, nil
	}
}

// CurrentRun summarises the published snapshot.
func (s *Service) CurrentRun(ctx context.Context) (types.RunSummary, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return types.RunSummary{}, err
	}
	return summarize(snap), nil
}

func (s *Service) run(ctx context.Context, cohort model.Cohort) (types.RunSummary, error) {
	if err := cohort.Validate(); err != nil {
		return types.RunSummary{}, err
	}
	start := time.Now()
	stages := make(map[string]time.Duration, 5)
	var stagesMu sync.Mutex
	timed := func(stage string, since time.Time) {
		d := time.Since(since)
		stagesMu.Lock()
		stages[stage] = d
		stagesMu.Unlock()
		metrics.RecordStageLatency(stage, float64(d.Milliseconds()))
	}

	t := time.Now()
	table := features.Extract(cohort.Players)
	playerSeries := features.GoalSeries(cohort.Goals, table.IDs()...)
	teamSeries := features.TeamSeries(withTeams(cohort.Goals, table))
	timed(stageExtract, t)
	metrics.UpdateCohortPlayers(table.Len())

	var (
		scores      []scoring.Result
		scaler      features.Scaler
		fitted      *clustering.Model
		assignments []clustering.Assignment
		outcomes    []workerpool.Outcome
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.Now()
		defer timed(stageScore, t)
		var err error
		scores, scaler, err = s.engine.Score(gctx, table)
		if err != nil {
			return fmt.Errorf("score: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		t := time.Now()
		defer timed(stageCluster, t)
		var err error
		fitted, assignments, err = s.cluster(gctx, table)
		if err != nil {
			return fmt.Errorf("cluster: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		t := time.Now()
		defer timed(stageForecast, t)
		all := make([]features.Series, 0, len(playerSeries)+len(teamSeries))
		all = append(all, playerSeries...)
		all = append(all, teamSeries...)
		outcomes = s.pool.ForecastAll(gctx, all)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return types.RunSummary{}, err
	}

	snap := &repository.Snapshot{
		RunID:          uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		Stages:         stages,
		Table:          table,
		Observations:   len(cohort.Goals),
		Scaler:         scaler,
		WeightsVersion: scoring.WeightsVersion,
		Scores:         scores,
		Model:          fitted,
		Assignments:    assignments,
		Forecasts:      make(map[string]forecast.Result, len(playerSeries)),
		Failures:       make(map[string]error),
		TeamForecasts:  make(map[string]forecast.Result, len(teamSeries)),
		TeamFailures:   make(map[string]error),
	}
	for i, o := range outcomes {
		results, failures := snap.Forecasts, snap.Failures
		if i >= len(playerSeries) {
			results, failures = snap.TeamForecasts, snap.TeamFailures
		}
		if o.Err != nil {
			failures[o.Key] = o.Err
			continue
		}
		results[o.Key] = o.Result
	}
	if fitted != nil {
		metrics.UpdateClusterShape(fitted.K, fitted.Components)
	}

	t = time.Now()
	snap.Duration = time.Since(start)
	if err := s.store.Publish(ctx, snap); err != nil {
		return types.RunSummary{}, fmt.Errorf("publish: %w", err)
	}
	timed(stagePublish, t)
	return summarize(snap), nil
}

// cluster fits its own scaler so it does not wait on scoring. Both fit the
// same min-max transform on the same table.
func (s *Service) cluster(ctx context.Context, table *features.Table) (*clustering.Model, []clustering.Assignment, error) {
	scaler, err := features.FitScaler(table.Vectors(), features.Dimensions)
	if err != nil {
		return nil, nil, err
	}
	normalized, err := scaler.TransformAll(table.Vectors())
	if err != nil {
		return nil, nil, err
	}
	points := make([]clustering.Point, len(normalized))
	for i, v := range normalized {
		points[i] = clustering.Point{PlayerID: table.Rows[i].ID, Vector: v}
	}
	return s.clusterer.Fit(ctx, points)
}

// withTeams fills the team of observations that carry none from the
// player's aggregated row.
func withTeams(obs []model.GoalObservation, table *features.Table) []model.GoalObservation {
	out := make([]model.GoalObservation, len(obs))
	copy(out, obs)
	for i := range out {
		if out[i].Team != "" {
			continue
		}
		if idx, ok := table.Index(out[i].PlayerID); ok {
			out[i].Team = table.Rows[idx].Team
		}
	}
	return out
}

func summarize(snap *repository.Snapshot) types.RunSummary {
	summary := types.RunSummary{
		RunID:          snap.RunID,
		Players:        snap.Table.Len(),
		Observations:   snap.Observations,
		Forecasts:      len(snap.Forecasts),
		Skipped:        len(snap.Failures),
		WeightsVersion: snap.WeightsVersion,
		Duration:       snap.Duration,
	}
	if snap.Model != nil {
		summary.Clusters = snap.Model.K
	}
	return summary
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidRecord):
		return "invalid_cohort"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, features.ErrShapeMismatch):
		return "shape_mismatch"
	default:
		return "internal"
	}
}
