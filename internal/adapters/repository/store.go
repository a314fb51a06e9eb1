// Package repository keeps the latest analytics snapshot and its score
// ranking for readers.
package repository

import (
	"context"
	"time"

	"github.com/okian/pitchiq/internal/domain/clustering"
	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/internal/domain/forecast"
	"github.com/okian/pitchiq/internal/domain/scoring"
)

// Entry is one row of the score ranking.
type Entry struct {
	Rank     int
	PlayerID string
	Name     string
	Score    float64
}

// Snapshot is the immutable output of one pipeline run. Scores and
// Assignments are aligned with Table.Rows.
type Snapshot struct {
	RunID     string
	CreatedAt time.Time
	Duration  time.Duration
	Stages    map[string]time.Duration

	Table          *features.Table
	Observations   int
	Scaler         features.Scaler
	WeightsVersion string
	Scores         []scoring.Result
	Model          *clustering.Model
	Assignments    []clustering.Assignment

	// Forecasts by player ID; Failures holds players whose fit was skipped.
	Forecasts map[string]forecast.Result
	Failures  map[string]error

	// Team forecasts by team name.
	TeamForecasts map[string]forecast.Result
	TeamFailures  map[string]error
}

// Store provides read/write access to the published snapshot.
type Store interface {
	// Publish atomically replaces the current snapshot.
	Publish(ctx context.Context, s *Snapshot) error

	// Current returns the latest snapshot or ErrNoSnapshot.
	Current(ctx context.Context) (*Snapshot, error)

	// Rank returns a player's rank and score. Returns ErrNotFound if the
	// player is unknown.
	Rank(ctx context.Context, playerID string) (Entry, error)

	// Lookup returns the current snapshot and the player's entry in that
	// same snapshot. The snapshot is returned with ErrNotFound so callers
	// can still report on the run.
	Lookup(ctx context.Context, playerID string) (*Snapshot, Entry, error)

	// TopN returns the top-N entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of ranked players.
	Count(ctx context.Context) int
}
