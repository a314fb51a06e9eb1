package features

import (
	"sort"
	"time"

	"github.com/okian/pitchiq/internal/domain/model"
)

// Point is the goal total of one calendar month.
type Point struct {
	Period time.Time `json:"period"`
	Goals  float64   `json:"goals"`
}

// Series is a chronological, gap-preserving monthly goal series.
type Series struct {
	Key    string  `json:"key"`
	Points []Point `json:"points"`
}

// MonthStart truncates t to the first instant of its UTC calendar month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// GoalSeries buckets observations into monthly series keyed by player ID.
// Every roster ID gets a series, possibly empty, in roster order; players
// that only appear in observations follow in first-seen order.
func GoalSeries(obs []model.GoalObservation, roster ...string) []Series {
	return bucket(obs, roster, func(o model.GoalObservation) string { return o.PlayerID })
}

// TeamSeries buckets observations into monthly series keyed by team.
// Observations without a team are ignored.
func TeamSeries(obs []model.GoalObservation) []Series {
	return bucket(obs, nil, func(o model.GoalObservation) string { return o.Team })
}

func bucket(obs []model.GoalObservation, roster []string, key func(model.GoalObservation) string) []Series {
	order := make([]string, 0, len(roster))
	months := make(map[string]map[time.Time]float64, len(roster))
	for _, id := range roster {
		if _, ok := months[id]; ok {
			continue
		}
		months[id] = map[time.Time]float64{}
		order = append(order, id)
	}

	for _, o := range obs {
		k := key(o)
		if k == "" {
			continue
		}
		m, ok := months[k]
		if !ok {
			m = map[time.Time]float64{}
			months[k] = m
			order = append(order, k)
		}
		m[MonthStart(o.Date)] += zeroIfMissing(o.Goals)
	}

	out := make([]Series, len(order))
	for i, k := range order {
		pts := make([]Point, 0, len(months[k]))
		for period, goals := range months[k] {
			pts = append(pts, Point{Period: period, Goals: goals})
		}
		sort.Slice(pts, func(a, b int) bool { return pts[a].Period.Before(pts[b].Period) })
		out[i] = Series{Key: k, Points: pts}
	}
	return out
}
