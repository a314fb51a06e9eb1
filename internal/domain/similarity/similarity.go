// Package similarity finds the players most alike to a query player in the
// clusterer's reduced space.
package similarity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/pitchiq/internal/domain/clustering"
	"github.com/okian/pitchiq/internal/domain/features"
	"gonum.org/v1/gonum/floats"
)

// DefaultTopN is the number of neighbours returned when none is requested.
const DefaultTopN = 5

// ErrPlayerNotFound is returned when the query player is not in the cohort.
var ErrPlayerNotFound = errors.New("player not found")

// Neighbour is one similar player.
type Neighbour struct {
	PlayerID   string  `json:"player_id"`
	Similarity float64 `json:"similarity"`
}

// Result is the ordered neighbour list of a query player.
type Result struct {
	PlayerID   string      `json:"player_id"`
	Neighbours []Neighbour `json:"neighbours"`
}

// Similar ranks every other player by cosine similarity to the query.
//
// Similarity is computed on the uncentred profiles the clusterer produced,
// so a player and a scaled copy of that player score 1. A zero vector is
// similar to nothing (0). Order is descending with ties in input order;
// topN <= 0 means DefaultTopN. Profiles of differing width fail with
// features.ErrShapeMismatch.
func Similar(queryID string, assignments []clustering.Assignment, topN int) (Result, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	q := -1
	for i, a := range assignments {
		if a.PlayerID == queryID {
			q = i
			break
		}
	}
	if q < 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, queryID)
	}

	query := assignments[q].Profile
	profiles := make([][]float64, len(assignments))
	for i, a := range assignments {
		profiles[i] = a.Profile
	}
	if err := features.CheckShape(profiles, len(query)); err != nil {
		return Result{}, err
	}

	out := make([]Neighbour, 0, len(assignments)-1)
	for i, a := range assignments {
		if i == q {
			continue
		}
		out = append(out, Neighbour{PlayerID: a.PlayerID, Similarity: Cosine(query, a.Profile)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > topN {
		out = out[:topN]
	}
	return Result{PlayerID: queryID, Neighbours: out}, nil
}

// Cosine returns the cosine of the angle between a and b, clamped to
// [-1,1]. A zero vector gives 0, as do mismatched lengths; Similar rejects
// those before scoring.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	c := floats.Dot(a, b) / (na * nb)
	return max(-1, min(1, c))
}
