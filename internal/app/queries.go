package service

import (
	"context"
	"errors"
	"fmt"

	repository "github.com/okian/pitchiq/internal/adapters/repository"
	"github.com/okian/pitchiq/internal/domain/clustering"
	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/internal/domain/forecast"
	"github.com/okian/pitchiq/internal/domain/lineup"
	"github.com/okian/pitchiq/internal/domain/similarity"
	"github.com/okian/pitchiq/internal/domain/types"
)

const noObservations = "no goal observations"

func (s *Service) snapshot(ctx context.Context) (*repository.Snapshot, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.store.Current(ctx)
}

// TopScores returns the n best scores, ties sharing a rank.
func (s *Service) TopScores(ctx context.Context, n int) ([]types.Entry, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Rank: e.Rank, PlayerID: e.PlayerID, Name: e.Name, Score: e.Score}
	}
	return out, nil
}

// Score returns a player's score, rank and raw features.
func (s *Service) Score(ctx context.Context, playerID string) (types.PlayerScore, error) {
	if !s.isStarted() {
		return types.PlayerScore{}, ErrNotStarted
	}
	snap, e, err := s.store.Lookup(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return types.PlayerScore{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}
		return types.PlayerScore{}, err
	}
	idx, ok := snap.Table.Index(playerID)
	if !ok {
		return types.PlayerScore{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}

	row := snap.Table.Rows[idx]
	named := make(map[string]float64, len(row.Vector))
	for i, v := range row.Vector {
		named[features.Names[i]] = v
	}
	return types.PlayerScore{
		Entry:    types.Entry{Rank: e.Rank, PlayerID: e.PlayerID, Name: e.Name, Score: e.Score},
		Team:     row.Team,
		Position: row.Position,
		Cluster:  labelAt(snap, idx),
		Features: named,
	}, nil
}

// Assignments returns every player's cluster label and reduced coordinates
// in cohort order.
func (s *Service) Assignments(ctx context.Context) ([]clustering.Assignment, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Assignments, nil
}

// Clusters describes the fitted clustering and its groups.
func (s *Service) Clusters(ctx context.Context) (types.ClusterSummary, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return types.ClusterSummary{}, err
	}
	summary := types.ClusterSummary{RunID: snap.RunID, Clusters: groups(snap)}
	if m := snap.Model; m != nil {
		summary.RequestedK = m.RequestedK
		summary.K = m.K
		summary.Components = m.Components
		summary.ExplainedVariance = m.ExplainedVariance
		summary.Inertia = m.Inertia
	}
	return summary, nil
}

// Cluster returns one group by label.
func (s *Service) Cluster(ctx context.Context, label int) (types.Cluster, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return types.Cluster{}, err
	}
	all := groups(snap)
	if label < 0 || label >= len(all) {
		return types.Cluster{}, fmt.Errorf("%w: %d", ErrClusterNotFound, label)
	}
	return all[label], nil
}

// Similar returns the n players most alike to playerID. n <= 0 uses the
// configured default.
func (s *Service) Similar(ctx context.Context, playerID string, n int) (types.SimilarPlayers, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return types.SimilarPlayers{}, err
	}
	if n <= 0 {
		n = s.similarTopN
	}
	res, err := similarity.Similar(playerID, snap.Assignments, n)
	if err != nil {
		return types.SimilarPlayers{}, err
	}

	idx, _ := snap.Table.Index(playerID)
	out := types.SimilarPlayers{
		PlayerID:   playerID,
		Name:       snap.Table.Rows[idx].Name,
		Cluster:    labelAt(snap, idx),
		Neighbours: make([]types.Neighbour, 0, len(res.Neighbours)),
	}
	for _, nb := range res.Neighbours {
		j, _ := snap.Table.Index(nb.PlayerID)
		row := snap.Table.Rows[j]
		out.Neighbours = append(out.Neighbours, types.Neighbour{
			PlayerID:   nb.PlayerID,
			Name:       row.Name,
			Team:       row.Team,
			Position:   row.Position,
			Similarity: nb.Similarity,
			Cluster:    labelAt(snap, j),
			Score:      scoreAt(snap, j),
			Goals:      row.Goals,
			Assists:    row.Assists,
		})
	}
	return out, nil
}

// Forecast returns a player's forecast or why it was skipped.
func (s *Service) Forecast(ctx context.Context, playerID string) (types.Forecast, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return types.Forecast{}, err
	}
	if _, ok := snap.Table.Index(playerID); !ok {
		return types.Forecast{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return lookupForecast(playerID, snap.Forecasts, snap.Failures), nil
}

// TeamForecast returns a team's aggregated goal forecast.
func (s *Service) TeamForecast(ctx context.Context, team string) (types.Forecast, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return types.Forecast{}, err
	}
	_, fitted := snap.TeamForecasts[team]
	_, failed := snap.TeamFailures[team]
	if !fitted && !failed && !hasTeam(snap.Table, team) {
		return types.Forecast{}, fmt.Errorf("%w: %s", ErrTeamNotFound, team)
	}
	return lookupForecast(team, snap.TeamForecasts, snap.TeamFailures), nil
}

// Lineup recommends a team's starting eleven.
func (s *Service) Lineup(ctx context.Context, team string) (lineup.Lineup, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return lineup.Lineup{}, err
	}
	return lineup.Build(team, snap.Table.Rows)
}

func lookupForecast(key string, results map[string]forecast.Result, failures map[string]error) types.Forecast {
	if r, ok := results[key]; ok {
		return types.Forecast{Key: key, History: r.History, Periods: r.Periods, Status: types.ForecastOK}
	}
	err, ok := failures[key]
	switch {
	case !ok:
		return types.Forecast{Key: key, Status: types.ForecastInsufficientHistory, Reason: noObservations}
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return types.Forecast{Key: key, Status: types.ForecastInsufficientHistory, Reason: err.Error()}
	default:
		return types.Forecast{Key: key, Status: types.ForecastFailed, Reason: err.Error()}
	}
}

func groups(snap *repository.Snapshot) []types.Cluster {
	if snap.Model == nil || snap.Model.K == 0 {
		return []types.Cluster{}
	}
	out := make([]types.Cluster, snap.Model.K)
	for label := range out {
		out[label] = types.Cluster{Label: label, Members: []string{}, Centroid: snap.Model.Centroids[label]}
	}
	for _, a := range snap.Assignments {
		c := &out[a.Label]
		c.Members = append(c.Members, a.PlayerID)
		c.Size++
	}
	return out
}

func labelAt(snap *repository.Snapshot, idx int) int {
	if idx < len(snap.Assignments) {
		return snap.Assignments[idx].Label
	}
	return -1
}

func scoreAt(snap *repository.Snapshot, idx int) float64 {
	if idx < len(snap.Scores) {
		return snap.Scores[idx].Score
	}
	return 0
}

func hasTeam(table *features.Table, team string) bool {
	if table == nil {
		return false
	}
	for _, r := range table.Rows {
		if r.Team == team {
			return true
		}
	}
	return false
}
