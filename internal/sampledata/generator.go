package sampledata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pitchiq/internal/domain/model"
	"github.com/okian/pitchiq/pkg/logger"
)

// ErrInvalidConfig reports a generation config that cannot produce a cohort.
var ErrInvalidConfig = errors.New("invalid sample config")

// Profile ranges. Rates are per match.
const (
	seasonMatches     = 38
	minMatches        = 4
	maxMinutesPer     = 90
	minMinutesPer     = 15
	rookieShare       = 0.1
	seasonalAmplitude = 0.3
	monthsPerYear     = 12
	marketValueFloor  = 0.25 // millions
)

type tier struct {
	weight     int
	goalRate   [2]float64
	assistRate [2]float64
	value      [2]float64
	yellowRate float64
	redRate    float64
}

// tiers run elite, high, average, low; elites are rare.
var tiers = []tier{
	{1, [2]float64{0.6, 1.0}, [2]float64{0.3, 0.6}, [2]float64{60, 180}, 0.05, 0.002},
	{2, [2]float64{0.3, 0.6}, [2]float64{0.2, 0.4}, [2]float64{20, 60}, 0.08, 0.005},
	{4, [2]float64{0.05, 0.3}, [2]float64{0.05, 0.2}, [2]float64{3, 20}, 0.12, 0.01},
	{2, [2]float64{0, 0.05}, [2]float64{0, 0.08}, [2]float64{0.5, 3}, 0.2, 0.03},
}

var positions = []string{
	"Goalkeeper",
	"Defender - Centre-Back", "Defender - Left-Back", "Defender - Right-Back",
	"Midfield - Central Midfield", "Midfield - Defensive Midfield", "Midfield - Attacking Midfield",
	"Attack - Centre-Forward", "Attack - Left Winger", "Attack - Right Winger",
}

var firstNames = []string{"Ana", "Bruno", "Chidi", "Dario", "Emil", "Femi", "Goran", "Hugo", "Iker", "Jonas", "Kai", "Luca", "Mateo", "Nico", "Omar", "Pavel"}

var lastNames = []string{"Silva", "Okafor", "Novak", "Moreau", "Lindqvist", "Kovac", "Jensen", "Ivanov", "Herrera", "Garcia", "Fischer", "Eriksen"}

// Validate checks the config.
func (c *Config) Validate() error {
	switch {
	case c.Players < 1:
		return fmt.Errorf("%w: players must be >= 1", ErrInvalidConfig)
	case c.Teams < 1:
		return fmt.Errorf("%w: teams must be >= 1", ErrInvalidConfig)
	case c.Months < 1:
		return fmt.Errorf("%w: months must be >= 1", ErrInvalidConfig)
	}
	return nil
}

// Generate builds a cohort from cfg. The same config always yields the
// same cohort, IDs included.
func Generate(ctx context.Context, cfg *Config) (model.Cohort, error) {
	if err := cfg.Validate(); err != nil {
		return model.Cohort{}, err
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible sample data

	cohort := model.Cohort{Players: make([]model.PlayerRecord, 0, cfg.Players)}
	for i := 0; i < cfg.Players; i++ {
		if err := ctx.Err(); err != nil {
			return model.Cohort{}, fmt.Errorf("context cancelled during generation: %w", err)
		}
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return model.Cohort{}, fmt.Errorf("player id: %w", err)
		}
		t := pickTier(rng)
		team := fmt.Sprintf("Team %02d", i%cfg.Teams+1)
		p := player(rng, t, id.String(), team, positions[i%len(positions)])
		cohort.Players = append(cohort.Players, p)
		cohort.Goals = append(cohort.Goals, history(rng, p, start, historyLength(rng, cfg.Months))...)
	}

	logger.Get().Info(ctx, "generated cohort",
		logger.Int("players", len(cohort.Players)),
		logger.Int("observations", len(cohort.Goals)),
		logger.Int("teams", cfg.Teams))
	return cohort, nil
}

func pickTier(rng *rand.Rand) tier {
	total := 0
	for _, t := range tiers {
		total += t.weight
	}
	n := rng.Intn(total)
	for _, t := range tiers {
		if n < t.weight {
			return t
		}
		n -= t.weight
	}
	return tiers[len(tiers)-1]
}

func player(rng *rand.Rand, t tier, id, team, position string) model.PlayerRecord {
	matches := float64(minMatches + rng.Intn(seasonMatches-minMatches+1))
	minutesPer := minMinutesPer + rng.Float64()*(maxMinutesPer-minMinutesPer)
	goalRate := between(rng, t.goalRate)
	if position == positions[0] {
		goalRate = 0
	}
	p := model.PlayerRecord{
		ID:          id,
		Name:        firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
		Team:        team,
		Position:    position,
		Matches:     matches,
		Goals:       math.Round(goalRate * matches),
		Assists:     math.Round(between(rng, t.assistRate) * matches),
		Minutes:     math.Round(minutesPer * matches),
		YellowCards: math.Round(t.yellowRate * matches * (0.5 + rng.Float64())),
		RedCards:    math.Round(t.redRate * matches * rng.Float64() * 2),
	}
	// Some players have no known market value.
	if rng.Float64() > rookieShare {
		p.MarketValue = model.Value(math.Max(marketValueFloor, math.Round(between(rng, t.value)*10)/10))
	}
	return p
}

// historyLength gives most players a full history and a few rookies one
// month, too short to forecast.
func historyLength(rng *rand.Rand, months int) int {
	if rng.Float64() < rookieShare {
		return 1
	}
	return max(1, months-rng.Intn(max(1, months/2)))
}

// history spreads the player's scoring rate over months with a yearly
// swing, one dated observation per month from start.
func history(rng *rand.Rand, p model.PlayerRecord, start time.Time, months int) []model.GoalObservation {
	perMonth := 0.0
	if p.Matches > 0 {
		perMonth = p.Goals / p.Matches * seasonMatches / monthsPerYear
	}
	out := make([]model.GoalObservation, 0, months)
	for m := 0; m < months; m++ {
		date := start.AddDate(0, m, rng.Intn(28))
		swing := 1 + seasonalAmplitude*math.Sin(2*math.Pi*float64(date.Month()-1)/monthsPerYear)
		goals := math.Max(0, math.Round(perMonth*swing+rng.NormFloat64()*0.5))
		out = append(out, model.GoalObservation{PlayerID: p.ID, Team: p.Team, Date: date, Goals: goals})
	}
	return out
}

func between(rng *rand.Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}
