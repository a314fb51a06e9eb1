// Package lineup recommends a team's best 4-3-3 starting eleven from
// aggregated player totals.
package lineup

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/pitchiq/internal/domain/features"
)

// Size is the number of starters.
const Size = 11

// Contribution weights.
const (
	goalWeight    = 5
	assistWeight  = 3
	minutesPerPts = 90
)

// ErrTeamNotFound is returned when no player belongs to the team.
var ErrTeamNotFound = errors.New("team not found")

// Role is a slot group of the formation.
type Role string

// Formation roles.
const (
	Goalkeeper Role = "goalkeeper"
	Defender   Role = "defender"
	Midfielder Role = "midfielder"
	Attacker   Role = "attacker"
)

// formation lists slot counts in filling order.
var formation = []struct {
	role     Role
	slots    int
	keywords []string
}{
	{Goalkeeper, 1, []string{"goalkeeper", "gk"}},
	{Defender, 4, []string{"defender", "def", "back"}},
	{Midfielder, 3, []string{"midfielder", "mid", "central"}},
	{Attacker, 3, []string{"attacking", "forward", "striker", "winger", "attack"}},
}

// Pick is one starter.
type Pick struct {
	PlayerID     string  `json:"player_id"`
	Name         string  `json:"name"`
	Position     string  `json:"position"`
	Role         Role    `json:"role"`
	Goals        float64 `json:"goals"`
	Assists      float64 `json:"assists"`
	Minutes      float64 `json:"minutes"`
	Contribution float64 `json:"contribution"`
}

// Lineup is a team's recommended eleven in formation order.
type Lineup struct {
	Team      string `json:"team"`
	Formation string `json:"formation"`
	Players   []Pick `json:"players"`
}

// Contribution rates a player's output: goals*5 + assists*3 + minutes/90.
func Contribution(t features.Totals) float64 {
	return t.Goals*goalWeight + t.Assists*assistWeight + t.Minutes/minutesPerPts
}

// Build picks the best eleven of team from rows.
//
// Each role takes its best matching players by contribution. A role short
// of specialists is topped up with the best unused players of any position.
// A squad of fewer than eleven yields a short lineup. Each player is picked
// at most once.
func Build(team string, rows []features.Row) (Lineup, error) {
	squad := make([]Pick, 0, len(rows))
	for _, r := range rows {
		if r.Team != team {
			continue
		}
		squad = append(squad, Pick{
			PlayerID:     r.ID,
			Name:         r.Name,
			Position:     r.Position,
			Goals:        r.Goals,
			Assists:      r.Assists,
			Minutes:      r.Minutes,
			Contribution: Contribution(r.Totals),
		})
	}
	if len(squad) == 0 {
		return Lineup{}, fmt.Errorf("%w: %s", ErrTeamNotFound, team)
	}
	sort.SliceStable(squad, func(i, j int) bool { return squad[i].Contribution > squad[j].Contribution })

	used := make([]bool, len(squad))
	take := func(role Role, n int, match func(Pick) bool) []Pick {
		out := make([]Pick, 0, n)
		for i := range squad {
			if len(out) == n {
				break
			}
			if used[i] || !match(squad[i]) {
				continue
			}
			used[i] = true
			p := squad[i]
			p.Role = role
			out = append(out, p)
		}
		return out
	}
	anyone := func(Pick) bool { return true }

	picks := make([]Pick, 0, Size)
	for _, slot := range formation {
		keywords := slot.keywords
		group := take(slot.role, slot.slots, func(p Pick) bool { return matches(p.Position, keywords) })
		if len(group) < slot.slots {
			group = append(group, take(slot.role, slot.slots-len(group), anyone)...)
		}
		picks = append(picks, group...)
	}

	return Lineup{Team: team, Formation: "4-3-3", Players: picks}, nil
}

func matches(position string, keywords []string) bool {
	position = strings.ToLower(position)
	for _, k := range keywords {
		if strings.Contains(position, k) {
			return true
		}
	}
	return false
}
