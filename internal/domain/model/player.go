// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidRecord reports a record that cannot enter the pipeline at all.
var ErrInvalidRecord = errors.New("invalid record")

// PlayerRecord is one row of the player table: a player-season or an
// aggregated career line. Rows sharing an ID are aggregated downstream.
//
// Counting stats are non-negative; NaN marks a missing value and is
// imputed as zero. A nil or NaN MarketValue is imputed with the cohort mean.
type PlayerRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Team     string `json:"team"`
	Position string `json:"position"`
	Season   string `json:"season,omitempty"`

	Matches     float64 `json:"matches"`
	Goals       float64 `json:"goals"`
	Assists     float64 `json:"assists"`
	Minutes     float64 `json:"minutes"`
	YellowCards float64 `json:"yellow_cards"`
	RedCards    float64 `json:"red_cards"`

	MarketValue *float64 `json:"market_value,omitempty"`
}

// GoalObservation is a dated goal count used to build forecasting series.
type GoalObservation struct {
	PlayerID string    `json:"player_id"`
	Team     string    `json:"team,omitempty"`
	Date     time.Time `json:"date"`
	Goals    float64   `json:"goals"`
}

// Cohort is the full input of one pipeline run.
type Cohort struct {
	Players []PlayerRecord    `json:"players"`
	Goals   []GoalObservation `json:"goals"`
}

// Value returns a pointer to v, for optional fields such as MarketValue.
func Value(v float64) *float64 {
	return &v
}

// Validate rejects rows that are malformed rather than merely degenerate:
// empty identifiers, negative or infinite stats, undated observations.
func (c Cohort) Validate() error {
	for i, p := range c.Players {
		if p.ID == "" {
			return fmt.Errorf("%w: players[%d]: empty id", ErrInvalidRecord, i)
		}
		stats := map[string]float64{
			"matches": p.Matches, "goals": p.Goals, "assists": p.Assists,
			"minutes": p.Minutes, "yellow_cards": p.YellowCards, "red_cards": p.RedCards,
		}
		for name, v := range stats {
			if v < 0 || math.IsInf(v, 0) {
				return fmt.Errorf("%w: players[%d] (%s): %s = %v", ErrInvalidRecord, i, p.ID, name, v)
			}
		}
		if p.MarketValue != nil && (*p.MarketValue < 0 || math.IsInf(*p.MarketValue, 0)) {
			return fmt.Errorf("%w: players[%d] (%s): market_value = %v", ErrInvalidRecord, i, p.ID, *p.MarketValue)
		}
	}
	for i, g := range c.Goals {
		switch {
		case g.PlayerID == "":
			return fmt.Errorf("%w: goals[%d]: empty player_id", ErrInvalidRecord, i)
		case g.Date.IsZero():
			return fmt.Errorf("%w: goals[%d] (%s): missing date", ErrInvalidRecord, i, g.PlayerID)
		case g.Goals < 0 || math.IsInf(g.Goals, 0):
			return fmt.Errorf("%w: goals[%d] (%s): goals = %v", ErrInvalidRecord, i, g.PlayerID, g.Goals)
		}
	}
	return nil
}
