// Package clustering groups players into style profiles: PCA on the
// normalised feature vectors followed by seeded K-Means.
package clustering

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/pkg/logger"
)

// Point is one player's normalised feature vector.
type Point struct {
	PlayerID string
	Vector   []float64
}

// Assignment is a player's cluster label and reduced coordinates.
//
// Coordinates are centred on the cohort mean and drive K-Means. Profile is
// the same projection without centring: proportional input vectors keep
// proportional profiles, so cosine on Profile compares statistical shape.
type Assignment struct {
	PlayerID    string    `json:"player_id"`
	Label       int       `json:"label"`
	Coordinates []float64 `json:"coordinates"`
	Profile     []float64 `json:"profile"`
}

// Model is the fitted transform: PCA projection plus centroids. It is
// immutable once returned and can label new vectors consistently.
//
// Labels are only comparable between assignments produced by the same
// Model; a refit may permute them.
type Model struct {
	RequestedK        int         `json:"requested_k"`
	K                 int         `json:"k"`
	Components        int         `json:"components"`
	Mean              []float64   `json:"mean"`
	Axes              [][]float64 `json:"axes"`
	ExplainedVariance []float64   `json:"explained_variance"`
	Centroids         [][]float64 `json:"centroids"`
	Inertia           float64     `json:"inertia"`
	Seed              int64       `json:"seed"`
}

// Project maps a normalised vector into the reduced space.
func (m *Model) Project(v []float64) ([]float64, error) {
	if len(v) != len(m.Mean) {
		return nil, fmt.Errorf("%w: vector has %d features, model fitted on %d", features.ErrShapeMismatch, len(v), len(m.Mean))
	}
	return pca{mean: m.Mean, axes: m.Axes}.project(v), nil
}

// Assign labels new points with the fitted projection and centroids.
func (m *Model) Assign(points []Point) ([]Assignment, error) {
	out := make([]Assignment, len(points))
	for i, p := range points {
		coords, err := m.Project(p.Vector)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", p.PlayerID, err)
		}
		out[i] = Assignment{
			PlayerID:    p.PlayerID,
			Label:       nearest(coords, m.Centroids),
			Coordinates: coords,
			Profile:     pca{mean: m.Mean, axes: m.Axes}.profile(p.Vector),
		}
	}
	return out, nil
}

// Clusterer fits Models.
type Clusterer struct {
	k          int
	components int
	seed       int64
	restarts   int
	maxIter    int
	log        logger.Logger
}

// New creates a clusterer.
func New(opts ...Option) *Clusterer {
	c := &Clusterer{
		k:          DefaultClusters,
		components: DefaultComponents,
		seed:       DefaultSeed,
		restarts:   DefaultRestarts,
		maxIter:    DefaultMaxIterations,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fit reduces points with PCA and clusters them.
//
// With fewer players than requested clusters k shrinks to the player count;
// components shrink to min(components, features, players). An empty input
// returns a zero Model and no assignments.
func (c *Clusterer) Fit(ctx context.Context, points []Point) (*Model, []Assignment, error) {
	model := &Model{RequestedK: c.k, Seed: c.seed}
	if len(points) == 0 {
		return model, nil, nil
	}

	dims := len(points[0].Vector)
	data := make([][]float64, len(points))
	for i, p := range points {
		data[i] = p.Vector
	}
	if err := features.CheckShape(data, dims); err != nil {
		return nil, nil, err
	}
	if dims == 0 {
		return nil, nil, fmt.Errorf("%w: empty feature vectors", features.ErrShapeMismatch)
	}

	model.K = min(c.k, len(points))
	if model.K < c.k {
		c.log.Warn(ctx, "fewer players than clusters, reducing k",
			logger.Int("requested_k", c.k),
			logger.Int("k", model.K),
			logger.Int("players", len(points)))
	}
	model.Components = min(c.components, dims, len(points))

	p, err := fitPCA(data, model.Components)
	if err != nil {
		return nil, nil, err
	}
	model.Mean, model.Axes, model.ExplainedVariance = p.mean, p.axes, p.explained

	reduced := make([][]float64, len(data))
	for i, row := range data {
		reduced[i] = p.project(row)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context cancelled: %w", err)
	}

	rng := rand.New(rand.NewSource(c.seed)) //nolint:gosec // reproducible clustering
	fit := kmeans(reduced, model.K, c.restarts, c.maxIter, rng)
	model.Centroids, model.Inertia = fit.centroids, fit.inertia

	assignments := make([]Assignment, len(points))
	for i, pt := range points {
		assignments[i] = Assignment{
			PlayerID:    pt.PlayerID,
			Label:       fit.labels[i],
			Coordinates: reduced[i],
			Profile:     p.profile(pt.Vector),
		}
	}
	c.log.Debug(ctx, "clustering fitted",
		logger.Int("k", model.K),
		logger.Int("components", model.Components),
		logger.Float64("inertia", model.Inertia))
	return model, assignments, nil
}
