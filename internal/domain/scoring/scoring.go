// Package scoring computes the composite 0-100 performance score of every
// player in a cohort from min-max normalised features.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/pkg/logger"
	"gonum.org/v1/gonum/floats"
)

// WeightsVersion identifies the weight set below. Bump it whenever a weight
// changes so stored scores can be told apart.
const WeightsVersion = "v1"

const (
	maxScoreValue = 100
	scoreScale    = 100
)

// Weights are the signed per-feature contributions, in feature order.
// Discipline stats pull the score down.
var Weights = [features.Dimensions]float64{
	features.GoalsPerMatch:   0.35,
	features.AssistsPerMatch: 0.25,
	features.MinutesPerMatch: 0.15,
	features.MarketValue:     0.20,
	features.YellowCards:     -0.10,
	features.RedCards:        -0.15,
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the logger used for degenerate-cohort notices.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Result is the score of one player.
type Result struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

// Scorer scores a whole cohort.
type Scorer interface {
	// Score fits a scaler on the cohort and scores every player with it.
	Score(ctx context.Context, table *features.Table) ([]Result, features.Scaler, error)
}

// Engine implements Scorer with the fixed weight set.
type Engine struct {
	log logger.Logger
}

// NewEngine creates a score engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score fits a min-max scaler on the cohort and scores every player.
//
// Scores are relative to the cohort: the same player scores differently
// against a different population. An empty cohort yields no scores and a
// single-player cohort scores 0, since every feature has a zero range.
func (e *Engine) Score(ctx context.Context, table *features.Table) ([]Result, features.Scaler, error) {
	scaler, err := features.FitScaler(table.Vectors(), features.Dimensions)
	if err != nil {
		return nil, features.Scaler{}, fmt.Errorf("fit scaler: %w", err)
	}
	if table.Len() == 1 {
		e.log.Debug(ctx, "single-player cohort, every feature has zero range",
			logger.String("player_id", table.Rows[0].ID))
	}
	results, err := e.Apply(ctx, scaler, table)
	if err != nil {
		return nil, features.Scaler{}, err
	}
	return results, scaler, nil
}

// Apply scores a table with a previously fitted scaler.
func (e *Engine) Apply(ctx context.Context, scaler features.Scaler, table *features.Table) ([]Result, error) {
	if scaler.Dims() != features.Dimensions {
		return nil, fmt.Errorf("%w: scaler has %d features, want %d", features.ErrShapeMismatch, scaler.Dims(), features.Dimensions)
	}
	results := make([]Result, 0, table.Len())
	for i := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}
		row := table.Rows[i]
		normalized, err := scaler.Transform(row.Vector)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", row.ID, err)
		}
		results = append(results, Result{
			PlayerID: row.ID,
			Name:     row.Name,
			Score:    Composite(normalized),
		})
	}
	return results, nil
}

// Composite turns one normalised vector into a clamped, one-decimal score.
func Composite(normalized []float64) float64 {
	score := floats.Dot(normalized, Weights[:]) * scoreScale
	score = math.Max(0, math.Min(maxScoreValue, score))
	return math.Round(score*10) / 10
}
