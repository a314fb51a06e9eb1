// Package types contains the read models served by the API.
package types

import (
	"time"

	"github.com/okian/pitchiq/internal/domain/forecast"
)

// Entry represents a row of the score ranking.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

// PlayerScore is one player's score with its profile context.
type PlayerScore struct {
	Entry
	Team     string             `json:"team"`
	Position string             `json:"position"`
	Cluster  int                `json:"cluster"`
	Features map[string]float64 `json:"features"`
}

// Cluster is one profile group.
type Cluster struct {
	Label    int       `json:"label"`
	Size     int       `json:"size"`
	Members  []string  `json:"members"`
	Centroid []float64 `json:"centroid"`
}

// ClusterSummary describes the fitted clustering of a run.
type ClusterSummary struct {
	RunID             string    `json:"run_id"`
	RequestedK        int       `json:"requested_k"`
	K                 int       `json:"k"`
	Components        int       `json:"components"`
	ExplainedVariance []float64 `json:"explained_variance"`
	Inertia           float64   `json:"inertia"`
	Clusters          []Cluster `json:"clusters"`
}

// Neighbour is a similar player enriched for display.
type Neighbour struct {
	PlayerID   string  `json:"player_id"`
	Name       string  `json:"name"`
	Team       string  `json:"team"`
	Position   string  `json:"position"`
	Similarity float64 `json:"similarity"`
	Cluster    int     `json:"cluster"`
	Score      float64 `json:"score"`
	Goals      float64 `json:"goals"`
	Assists    float64 `json:"assists"`
}

// SimilarPlayers is the neighbour list of a query player.
type SimilarPlayers struct {
	PlayerID   string      `json:"player_id"`
	Name       string      `json:"name"`
	Cluster    int         `json:"cluster"`
	Neighbours []Neighbour `json:"neighbours"`
}

// Forecast is a forecast or the reason it was skipped.
type Forecast struct {
	Key     string            `json:"key"`
	History int               `json:"history"`
	Periods []forecast.Period `json:"periods"`
	Status  string            `json:"status"`
	Reason  string            `json:"reason,omitempty"`
}

// Forecast statuses.
const (
	ForecastOK                  = "ok"
	ForecastInsufficientHistory = "insufficient_history"
	ForecastFailed              = "failed"
)

// RunSummary reports the outcome of a pipeline run.
type RunSummary struct {
	RunID          string        `json:"run_id"`
	Players        int           `json:"players"`
	Observations   int           `json:"observations"`
	Clusters       int           `json:"clusters"`
	Forecasts      int           `json:"forecasts"`
	Skipped        int           `json:"skipped"`
	WeightsVersion string        `json:"weights_version"`
	Duration       time.Duration `json:"duration_ns"`
	Duplicate      bool          `json:"duplicate"`
}
