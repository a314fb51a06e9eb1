// Package features turns player records into the fixed-order numeric vectors
// shared by scoring and clustering, and into per-player goal series for
// forecasting.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/pitchiq/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Feature indexes. The order is part of the contract between the Score
// Engine and the Profile Clusterer and must not change within a run.
const (
	GoalsPerMatch = iota
	AssistsPerMatch
	MinutesPerMatch
	MarketValue
	YellowCards
	RedCards

	// Dimensions is the length of every feature vector.
	Dimensions
)

// Names labels each feature index.
var Names = [Dimensions]string{
	GoalsPerMatch:   "goals_per_match",
	AssistsPerMatch: "assists_per_match",
	MinutesPerMatch: "minutes_per_match",
	MarketValue:     "market_value",
	YellowCards:     "yellow_cards",
	RedCards:        "red_cards",
}

// ErrShapeMismatch means two components disagree on the feature layout.
// It is a programming error and aborts the run.
var ErrShapeMismatch = errors.New("feature shape mismatch")

// Identity is the categorical part of a player.
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Team     string `json:"team"`
	Position string `json:"position"`
}

// Totals are the aggregated counting stats behind a vector.
type Totals struct {
	Matches float64 `json:"matches"`
	Goals   float64 `json:"goals"`
	Assists float64 `json:"assists"`
	Minutes float64 `json:"minutes"`
}

// Row is one player of a Table.
type Row struct {
	Identity
	Totals
	Vector []float64
}

// Table is the extracted cohort: rows in first-seen order of player ID.
type Table struct {
	Rows  []Row
	index map[string]int
}

// Len returns the number of players.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the row position of a player.
func (t *Table) Index(id string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[id]
	return i, ok
}

// Vectors returns the raw (imputed, unscaled) vectors in row order.
func (t *Table) Vectors() [][]float64 {
	out := make([][]float64, t.Len())
	for i := range t.Rows {
		out[i] = t.Rows[i].Vector
	}
	return out
}

// IDs returns player IDs in row order.
func (t *Table) IDs() []string {
	out := make([]string, t.Len())
	for i := range t.Rows {
		out[i] = t.Rows[i].ID
	}
	return out
}

type accumulator struct {
	row         Row
	yellow, red float64
	marketValue float64
	hasValue    bool
}

// Extract aggregates records by player ID and builds one vector per player.
//
// Counting stats are summed (missing values count as zero) and divided by
// total matches; a player without matches gets zero rates. Cards are season
// totals. Market value is the last non-missing value seen for the player,
// otherwise the mean over players that have one (zero if none do).
func Extract(records []model.PlayerRecord) *Table {
	acc := make([]*accumulator, 0, len(records))
	index := make(map[string]int, len(records))

	for _, r := range records {
		i, ok := index[r.ID]
		if !ok {
			i = len(acc)
			index[r.ID] = i
			acc = append(acc, &accumulator{row: Row{Identity: Identity{ID: r.ID}}})
		}
		a := acc[i]
		// Later rows refresh identity: a transfer shows the latest team.
		mergeIdentity(&a.row.Identity, r)
		a.row.Matches += zeroIfMissing(r.Matches)
		a.row.Goals += zeroIfMissing(r.Goals)
		a.row.Assists += zeroIfMissing(r.Assists)
		a.row.Minutes += zeroIfMissing(r.Minutes)
		a.yellow += zeroIfMissing(r.YellowCards)
		a.red += zeroIfMissing(r.RedCards)
		if r.MarketValue != nil && !math.IsNaN(*r.MarketValue) {
			a.marketValue = *r.MarketValue
			a.hasValue = true
		}
	}

	known := make([]float64, 0, len(acc))
	for _, a := range acc {
		if a.hasValue {
			known = append(known, a.marketValue)
		}
	}
	meanValue := 0.0
	if len(known) > 0 {
		meanValue = stat.Mean(known, nil)
	}

	t := &Table{Rows: make([]Row, len(acc)), index: index}
	for i, a := range acc {
		v := make([]float64, Dimensions)
		if a.row.Matches > 0 {
			v[GoalsPerMatch] = a.row.Goals / a.row.Matches
			v[AssistsPerMatch] = a.row.Assists / a.row.Matches
			v[MinutesPerMatch] = a.row.Minutes / a.row.Matches
		}
		v[MarketValue] = meanValue
		if a.hasValue {
			v[MarketValue] = a.marketValue
		}
		v[YellowCards] = a.yellow
		v[RedCards] = a.red
		a.row.Vector = v
		t.Rows[i] = a.row
	}
	return t
}

func mergeIdentity(id *Identity, r model.PlayerRecord) {
	if r.Name != "" {
		id.Name = r.Name
	}
	if r.Team != "" {
		id.Team = r.Team
	}
	if r.Position != "" {
		id.Position = r.Position
	}
	if id.Name == "" {
		id.Name = r.ID
	}
}

func zeroIfMissing(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// CheckShape verifies every vector has exactly dims entries.
func CheckShape(vectors [][]float64, dims int) error {
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: vector %d has %d features, want %d", ErrShapeMismatch, i, len(v), dims)
		}
	}
	return nil
}
