package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	service "github.com/okian/pitchiq/internal/app"
	"github.com/okian/pitchiq/internal/domain/lineup"
	"github.com/okian/pitchiq/internal/domain/model"
	"github.com/okian/pitchiq/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func player(id, team, position string, matches, goals, assists, minutes, yellow, red, value float64) model.PlayerRecord {
	return model.PlayerRecord{
		ID: id, Name: "Player " + id, Team: team, Position: position,
		Matches: matches, Goals: goals, Assists: assists, Minutes: minutes,
		YellowCards: yellow, RedCards: red, MarketValue: model.Value(value),
	}
}

func history(id string, months int) []model.GoalObservation {
	start := time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC)
	out := make([]model.GoalObservation, months)
	for i := range out {
		out[i] = model.GoalObservation{PlayerID: id, Date: start.AddDate(0, i, 0), Goals: float64(i%3) + 1}
	}
	return out
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithDedupeSize(500),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When loading a strong and a weak player", func() {
			cohort := model.Cohort{
				Players: []model.PlayerRecord{
					player("strong", "Reds", "Attack - Centre-Forward", 10, 20, 10, 900, 0, 0, 100),
					player("weak", "Reds", "Defender - Centre-Back", 10, 0, 0, 100, 10, 2, 1),
				},
				Goals: append(history("strong", 24), history("weak", 1)...),
			}
			summary, err := svc.Load(ctx, cohort)
			So(err, ShouldBeNil)

			Convey("Then the run summary describes the cohort", func() {
				So(summary.RunID, ShouldNotBeEmpty)
				So(summary.Players, ShouldEqual, 2)
				So(summary.Observations, ShouldEqual, 25)
				So(summary.Clusters, ShouldEqual, 2)
				So(summary.Forecasts, ShouldEqual, 1)
				So(summary.Skipped, ShouldEqual, 1)
				So(summary.WeightsVersion, ShouldEqual, "v1")
			})

			Convey("And the scores are 95 and 0", func() {
				top, err := svc.TopScores(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 2)
				So(top[0].PlayerID, ShouldEqual, "strong")
				So(top[0].Score, ShouldAlmostEqual, 95.0)
				So(top[1].Score, ShouldEqual, 0)

				weak, err := svc.Score(ctx, "weak")
				So(err, ShouldBeNil)
				So(weak.Rank, ShouldEqual, 2)
				So(weak.Team, ShouldEqual, "Reds")
				So(weak.Features["red_cards"], ShouldEqual, 2)
			})

			Convey("And the long history is forecast while the short one is skipped", func() {
				fc, err := svc.Forecast(ctx, "strong")
				So(err, ShouldBeNil)
				So(fc.Status, ShouldEqual, types.ForecastOK)
				So(fc.Periods, ShouldHaveLength, 3)
				for _, p := range fc.Periods {
					So(p.Lower, ShouldBeGreaterThanOrEqualTo, 0)
					So(p.Lower, ShouldBeLessThanOrEqualTo, p.Predicted)
					So(p.Predicted, ShouldBeLessThanOrEqualTo, p.Upper)
				}

				skipped, err := svc.Forecast(ctx, "weak")
				So(err, ShouldBeNil)
				So(skipped.Status, ShouldEqual, types.ForecastInsufficientHistory)
				So(skipped.Reason, ShouldNotBeEmpty)
			})

			Convey("And the team series is forecast from its players' goals", func() {
				fc, err := svc.TeamForecast(ctx, "Reds")
				So(err, ShouldBeNil)
				So(fc.Status, ShouldEqual, types.ForecastOK)
				So(fc.History, ShouldEqual, 24)

				_, err = svc.TeamForecast(ctx, "Blues")
				So(errors.Is(err, service.ErrTeamNotFound), ShouldBeTrue)
			})

			Convey("And unknown players are reported as not found", func() {
				_, err := svc.Score(ctx, "ghost")
				So(errors.Is(err, service.ErrPlayerNotFound), ShouldBeTrue)
				_, err = svc.Similar(ctx, "ghost", 5)
				So(errors.Is(err, service.ErrPlayerNotFound), ShouldBeTrue)
				_, err = svc.Forecast(ctx, "ghost")
				So(errors.Is(err, service.ErrPlayerNotFound), ShouldBeTrue)
			})

			Convey("And the stats reflect the published run", func() {
				stats := svc.GetStats()
				So(stats["players"], ShouldEqual, 2)
				So(stats["runId"], ShouldEqual, summary.RunID)
				So(stats["skippedForecasts"], ShouldEqual, 1)
			})
		})

		Convey("When loading five distinct players", func() {
			cohort := model.Cohort{Players: []model.PlayerRecord{
				player("a", "Reds", "Goalkeeper", 30, 0, 0, 2700, 1, 0, 5),
				player("b", "Reds", "Defender", 30, 2, 3, 2600, 8, 1, 10),
				player("c", "Reds", "Midfield", 30, 6, 12, 2400, 4, 0, 40),
				player("d", "Reds", "Attack", 30, 25, 5, 2500, 2, 0, 90),
				player("e", "Blues", "Attack", 5, 1, 0, 200, 0, 1, 1),
			}}
			_, err := svc.Load(ctx, cohort)
			So(err, ShouldBeNil)

			Convey("Then each player gets its own cluster", func() {
				summary, err := svc.Clusters(ctx)
				So(err, ShouldBeNil)
				So(summary.K, ShouldEqual, 5)
				So(summary.Components, ShouldEqual, 5)
				So(summary.Clusters, ShouldHaveLength, 5)
				for _, c := range summary.Clusters {
					So(c.Size, ShouldEqual, 1)
				}

				c, err := svc.Cluster(ctx, 0)
				So(err, ShouldBeNil)
				So(c.Members, ShouldHaveLength, 1)

				_, err = svc.Cluster(ctx, 5)
				So(errors.Is(err, service.ErrClusterNotFound), ShouldBeTrue)
			})

			Convey("And similarity excludes the query and is non-increasing", func() {
				res, err := svc.Similar(ctx, "d", 3)
				So(err, ShouldBeNil)
				So(res.Neighbours, ShouldHaveLength, 3)
				for i, nb := range res.Neighbours {
					So(nb.PlayerID, ShouldNotEqual, "d")
					So(nb.Name, ShouldNotBeEmpty)
					if i > 0 {
						So(nb.Similarity, ShouldBeLessThanOrEqualTo, res.Neighbours[i-1].Similarity)
					}
				}

				all, err := svc.Similar(ctx, "d", 0)
				So(err, ShouldBeNil)
				So(all.Neighbours, ShouldHaveLength, 4)
			})

			Convey("And players without goal history report why", func() {
				fc, err := svc.Forecast(ctx, "a")
				So(err, ShouldBeNil)
				So(fc.Status, ShouldEqual, types.ForecastInsufficientHistory)
			})

			Convey("And the Reds lineup uses each player once", func() {
				l, err := svc.Lineup(ctx, "Reds")
				So(err, ShouldBeNil)
				So(l.Players, ShouldHaveLength, 4)
				So(l.Players[0].Role, ShouldEqual, lineup.Goalkeeper)
				So(l.Players[0].PlayerID, ShouldEqual, "a")
			})
		})

		Convey("When loading a player and a scaled copy of their profile", func() {
			_, err := svc.Load(ctx, model.Cohort{Players: []model.PlayerRecord{
				player("bench", "Reds", "Defender - Right-Back", 10, 0, 0, 0, 0, 0, 0),
				player("low", "Reds", "Attack - Left Winger", 10, 2, 1, 180, 1, 0, 4),
				player("keeper", "Reds", "Goalkeeper", 10, 0, 0, 900, 0, 1, 10),
				player("creator", "Blues", "Midfield - Attacking Midfield", 10, 1, 8, 700, 2, 0, 15),
				player("high", "Blues", "Attack - Right Winger", 10, 10, 5, 900, 5, 0, 20),
				player("enforcer", "Blues", "Midfield - Defensive Midfield", 10, 0, 1, 850, 9, 3, 5),
			}})
			So(err, ShouldBeNil)

			Convey("Then the copy is the top neighbour regardless of volume", func() {
				res, err := svc.Similar(ctx, "low", 0)
				So(err, ShouldBeNil)
				So(res.Neighbours[0].PlayerID, ShouldEqual, "high")
				So(res.Neighbours[0].Similarity, ShouldAlmostEqual, 1, 1e-9)
				So(res.Neighbours[1].Similarity, ShouldBeLessThan, 0.999)
			})
		})

		Convey("When loading an empty cohort", func() {
			summary, err := svc.Load(ctx, model.Cohort{})

			Convey("Then the run succeeds with no results", func() {
				So(err, ShouldBeNil)
				So(summary.Players, ShouldEqual, 0)
				top, err := svc.TopScores(ctx, 5)
				So(err, ShouldBeNil)
				So(top, ShouldBeEmpty)
				clusters, err := svc.Clusters(ctx)
				So(err, ShouldBeNil)
				So(clusters.Clusters, ShouldBeEmpty)
			})
		})

		Convey("When the same cohort is submitted twice with one key", func() {
			cohort := model.Cohort{Players: []model.PlayerRecord{player("p1", "Reds", "GK", 1, 0, 0, 90, 0, 0, 1)}}
			first, err := svc.LoadOnce(ctx, "cohort-42", cohort)
			So(err, ShouldBeNil)
			second, err := svc.LoadOnce(ctx, "cohort-42", cohort)
			So(err, ShouldBeNil)

			Convey("Then the second call reports the first run as a duplicate", func() {
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(second.RunID, ShouldEqual, first.RunID)
				So(svc.GetStats()["runs"], ShouldEqual, int64(1))
			})
		})

		Convey("When one key is submitted concurrently before any run exists", func() {
			var cohort model.Cohort
			for i := 0; i < 30; i++ {
				id := fmt.Sprintf("c%02d", i)
				cohort.Players = append(cohort.Players,
					player(id, "Reds", "Midfield", 20, float64(i%7), float64(i%3), float64(900+i*20), float64(i%3), 0, float64(i+1)))
				cohort.Goals = append(cohort.Goals, history(id, 12)...)
			}

			const callers = 8
			summaries := make([]types.RunSummary, callers)
			errs := make([]error, callers)
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					summaries[i], errs[i] = svc.LoadOnce(ctx, "burst", cohort)
				}(i)
			}
			wg.Wait()

			Convey("Then every caller gets the single run and exactly one owns it", func() {
				owners := 0
				for i := 0; i < callers; i++ {
					So(errs[i], ShouldBeNil)
					So(summaries[i].RunID, ShouldEqual, summaries[0].RunID)
					So(summaries[i].Players, ShouldEqual, 30)
					if !summaries[i].Duplicate {
						owners++
					}
				}
				So(owners, ShouldEqual, 1)
				So(svc.GetStats()["runs"], ShouldEqual, int64(1))
			})
		})

		Convey("When a larger cohort is reloaded", func() {
			var cohort model.Cohort
			for i := 0; i < 40; i++ {
				id := fmt.Sprintf("p%02d", i)
				cohort.Players = append(cohort.Players,
					player(id, fmt.Sprintf("Team %d", i%4), "Midfield", 20, float64(i%9), float64(i%5), float64(1000+i*30), float64(i%4), float64(i%2), float64(i)))
				cohort.Goals = append(cohort.Goals, history(id, 6+i%12)...)
			}
			first, err := svc.Load(ctx, cohort)
			So(err, ShouldBeNil)
			firstScores, _ := svc.TopScores(ctx, 40)
			second, err := svc.Load(ctx, cohort)
			So(err, ShouldBeNil)
			secondScores, _ := svc.TopScores(ctx, 40)

			Convey("Then results are deterministic across runs", func() {
				So(second.RunID, ShouldNotEqual, first.RunID)
				So(secondScores, ShouldResemble, firstScores)
				So(second.Forecasts, ShouldEqual, 40)
				for _, e := range secondScores {
					So(e.Score, ShouldBeBetweenOrEqual, 0, 100)
				}
			})
		})
	})
}
