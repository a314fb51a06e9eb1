package features_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExtract(t *testing.T) {
	Convey("Given player records across two seasons", t, func() {
		records := []model.PlayerRecord{
			{ID: "p1", Name: "Ana", Team: "Reds", Position: "Forward", Matches: 10, Goals: 5, Assists: 2, Minutes: 900, YellowCards: 1, MarketValue: model.Value(10)},
			{ID: "p2", Name: "Bo", Team: "Blues", Position: "Defender", Matches: 20, Goals: 1, Assists: 1, Minutes: 1800, RedCards: 1},
			{ID: "p1", Team: "Greens", Matches: 10, Goals: 5, Assists: math.NaN(), Minutes: 900, YellowCards: 2, MarketValue: model.Value(20)},
		}

		Convey("When extracting", func() {
			table := features.Extract(records)

			Convey("Then rows are aggregated in first-seen order", func() {
				So(table.Len(), ShouldEqual, 2)
				So(table.IDs(), ShouldResemble, []string{"p1", "p2"})
				idx, ok := table.Index("p2")
				So(ok, ShouldBeTrue)
				So(idx, ShouldEqual, 1)
			})

			Convey("And per-match rates use summed totals", func() {
				v := table.Rows[0].Vector
				So(v, ShouldHaveLength, features.Dimensions)
				So(v[features.GoalsPerMatch], ShouldEqual, 0.5)
				So(v[features.AssistsPerMatch], ShouldEqual, 0.1)
				So(v[features.MinutesPerMatch], ShouldEqual, 90)
				So(v[features.YellowCards], ShouldEqual, 3)
			})

			Convey("And the latest market value and team win", func() {
				So(table.Rows[0].Vector[features.MarketValue], ShouldEqual, 20)
				So(table.Rows[0].Team, ShouldEqual, "Greens")
				So(table.Rows[0].Name, ShouldEqual, "Ana")
			})

			Convey("And missing market value is imputed with the mean", func() {
				So(table.Rows[1].Vector[features.MarketValue], ShouldEqual, 20)
			})
		})
	})

	Convey("Given a player with no matches", t, func() {
		table := features.Extract([]model.PlayerRecord{{ID: "ghost"}})

		Convey("Then the vector falls back to zeros", func() {
			So(table.Rows[0].Vector, ShouldResemble, make([]float64, features.Dimensions))
			So(table.Rows[0].Name, ShouldEqual, "ghost")
		})
	})

	Convey("Given no records", t, func() {
		table := features.Extract(nil)

		Convey("Then the table is empty", func() {
			So(table.Len(), ShouldEqual, 0)
			So(table.Vectors(), ShouldBeEmpty)
			_, ok := table.Index("x")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestScaler(t *testing.T) {
	Convey("Given a cohort of vectors", t, func() {
		vectors := [][]float64{
			{0, 10, 5},
			{2, 20, 5},
			{1, 30, 5},
		}

		Convey("When fitting a scaler", func() {
			s, err := features.FitScaler(vectors, 3)
			So(err, ShouldBeNil)

			Convey("Then min and max are learned per feature", func() {
				So(s.Min, ShouldResemble, []float64{0, 10, 5})
				So(s.Max, ShouldResemble, []float64{2, 30, 5})
			})

			Convey("And constant features map to zero", func() {
				out, err := s.TransformAll(vectors)
				So(err, ShouldBeNil)
				So(out[0], ShouldResemble, []float64{0, 0, 0})
				So(out[1], ShouldResemble, []float64{1, 0.5, 0})
				So(out[2], ShouldResemble, []float64{0.5, 1, 0})
			})

			Convey("And a vector of the wrong width is rejected", func() {
				_, err := s.Transform([]float64{1, 2})
				So(errors.Is(err, features.ErrShapeMismatch), ShouldBeTrue)
			})
		})

		Convey("When a vector is ragged", func() {
			_, err := features.FitScaler(append(vectors, []float64{1}), 3)

			Convey("Then fitting fails with a shape mismatch", func() {
				So(errors.Is(err, features.ErrShapeMismatch), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty cohort", t, func() {
		s, err := features.FitScaler(nil, features.Dimensions)

		Convey("Then the scaler has the requested width", func() {
			So(err, ShouldBeNil)
			So(s.Dims(), ShouldEqual, features.Dimensions)
		})
	})
}

func TestGoalSeries(t *testing.T) {
	Convey("Given dated goal observations", t, func() {
		day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 15, 0, 0, 0, time.UTC) }
		obs := []model.GoalObservation{
			{PlayerID: "p1", Team: "Reds", Date: day(2024, 3, 20), Goals: 1},
			{PlayerID: "p1", Team: "Reds", Date: day(2024, 1, 5), Goals: 2},
			{PlayerID: "p1", Team: "Reds", Date: day(2024, 3, 2), Goals: 1},
			{PlayerID: "p3", Team: "Blues", Date: day(2024, 2, 1), Goals: 1},
		}

		Convey("When bucketing by player with a roster", func() {
			series := features.GoalSeries(obs, "p2", "p1")

			Convey("Then roster players come first, then unknown ones", func() {
				So(series, ShouldHaveLength, 3)
				So(series[0].Key, ShouldEqual, "p2")
				So(series[0].Points, ShouldBeEmpty)
				So(series[1].Key, ShouldEqual, "p1")
				So(series[2].Key, ShouldEqual, "p3")
			})

			Convey("And months are summed in order without filling gaps", func() {
				pts := series[1].Points
				So(pts, ShouldHaveLength, 2)
				So(pts[0].Period, ShouldEqual, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
				So(pts[0].Goals, ShouldEqual, 2)
				So(pts[1].Period, ShouldEqual, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
				So(pts[1].Goals, ShouldEqual, 2)
			})
		})

		Convey("When bucketing by team", func() {
			series := features.TeamSeries(obs)

			Convey("Then one series per team is produced", func() {
				So(series, ShouldHaveLength, 2)
				So(series[0].Key, ShouldEqual, "Reds")
				So(series[1].Key, ShouldEqual, "Blues")
			})
		})
	})

	Convey("Given a timestamp in another zone", t, func() {
		loc := time.FixedZone("east", 5*3600)
		ts := time.Date(2024, 5, 1, 2, 0, 0, 0, loc)

		Convey("Then MonthStart uses the UTC calendar month", func() {
			So(features.MonthStart(ts), ShouldEqual, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
		})
	})
}
