package lineup_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/internal/domain/lineup"
	. "github.com/smartystreets/goconvey/convey"
)

func row(id, team, position string, goals, assists, minutes float64) features.Row {
	return features.Row{
		Identity: features.Identity{ID: id, Name: id, Team: team, Position: position},
		Totals:   features.Totals{Matches: 10, Goals: goals, Assists: assists, Minutes: minutes},
	}
}

func TestBuild(t *testing.T) {
	Convey("Given a full squad", t, func() {
		var rows []features.Row
		rows = append(rows, row("gk1", "Reds", "Goalkeeper", 0, 0, 2700), row("gk2", "Reds", "Goalkeeper", 0, 0, 900))
		for i := 0; i < 6; i++ {
			rows = append(rows, row(fmt.Sprintf("d%d", i), "Reds", "Defender - Centre-Back", float64(i%2), 1, float64(900+i*180)))
		}
		for i := 0; i < 4; i++ {
			rows = append(rows, row(fmt.Sprintf("m%d", i), "Reds", "Midfield - Central Midfield", float64(i), 2, 1800))
		}
		for i := 0; i < 4; i++ {
			rows = append(rows, row(fmt.Sprintf("f%d", i), "Reds", "Attack - Centre-Forward", float64(5+i), 1, 1500))
		}
		rows = append(rows, row("x", "Blues", "Attack", 40, 10, 3000))

		Convey("When building the Reds lineup", func() {
			l, err := lineup.Build("Reds", rows)
			So(err, ShouldBeNil)

			Convey("Then eleven distinct players fill a 4-3-3", func() {
				So(l.Formation, ShouldEqual, "4-3-3")
				So(l.Players, ShouldHaveLength, lineup.Size)
				seen := map[string]bool{}
				roles := map[lineup.Role]int{}
				for _, p := range l.Players {
					So(seen[p.PlayerID], ShouldBeFalse)
					seen[p.PlayerID] = true
					roles[p.Role]++
				}
				So(roles[lineup.Goalkeeper], ShouldEqual, 1)
				So(roles[lineup.Defender], ShouldEqual, 4)
				So(roles[lineup.Midfielder], ShouldEqual, 3)
				So(roles[lineup.Attacker], ShouldEqual, 3)
			})

			Convey("And the best specialist wins each slot", func() {
				So(l.Players[0].PlayerID, ShouldEqual, "gk1")
				So(l.Players[8].PlayerID, ShouldEqual, "f3")
				So(contains(l, "x"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a squad without a goalkeeper", t, func() {
		rows := []features.Row{
			row("a", "Reds", "Striker", 10, 0, 900),
			row("b", "Reds", "Defender", 1, 0, 900),
			row("c", "Reds", "", 0, 0, 90),
		}

		Convey("Then the best remaining player covers goal and the lineup is short", func() {
			l, err := lineup.Build("Reds", rows)
			So(err, ShouldBeNil)
			So(l.Players, ShouldHaveLength, 3)
			So(l.Players[0].PlayerID, ShouldEqual, "a")
			So(l.Players[0].Role, ShouldEqual, lineup.Goalkeeper)
			So(l.Players[1].PlayerID, ShouldEqual, "b")
			So(l.Players[1].Role, ShouldEqual, lineup.Defender)
		})
	})

	Convey("Given an unknown team", t, func() {
		_, err := lineup.Build("Nobody", []features.Row{row("a", "Reds", "GK", 0, 0, 0)})

		Convey("Then ErrTeamNotFound is returned", func() {
			So(errors.Is(err, lineup.ErrTeamNotFound), ShouldBeTrue)
		})
	})
}

func TestContribution(t *testing.T) {
	Convey("Given season totals", t, func() {
		Convey("Then the weighted contribution is returned", func() {
			So(lineup.Contribution(features.Totals{Goals: 2, Assists: 1, Minutes: 180}), ShouldEqual, 15)
		})
	})
}

func contains(l lineup.Lineup, id string) bool {
	for _, p := range l.Players {
		if p.PlayerID == id {
			return true
		}
	}
	return false
}
