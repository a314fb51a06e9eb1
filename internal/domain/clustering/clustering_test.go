package clustering_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/okian/pitchiq/internal/domain/clustering"
	"github.com/okian/pitchiq/internal/domain/features"
	. "github.com/smartystreets/goconvey/convey"
)

func points(vectors ...[]float64) []clustering.Point {
	out := make([]clustering.Point, len(vectors))
	for i, v := range vectors {
		out[i] = clustering.Point{PlayerID: fmt.Sprintf("p%d", i), Vector: v}
	}
	return out
}

func cohort(n int) []clustering.Point {
	vectors := make([][]float64, n)
	for i := range vectors {
		x := float64(i) / float64(n)
		vectors[i] = []float64{
			math.Mod(x*7, 1),
			math.Mod(x*3, 1),
			x,
			1 - x,
			math.Mod(x*5, 1),
			float64(i%2) * 0.5,
		}
	}
	return points(vectors...)
}

func TestClusterer_Fit(t *testing.T) {
	Convey("Given a clusterer with defaults", t, func() {
		ctx := context.Background()
		c := clustering.New()

		Convey("When clustering exactly five distinct players", func() {
			model, assignments, err := c.Fit(ctx, points(
				[]float64{1, 0, 0, 0, 0, 0},
				[]float64{0, 1, 0, 0, 0, 0},
				[]float64{0, 0, 1, 0, 0, 0},
				[]float64{0, 0, 0, 1, 0, 0},
				[]float64{0, 0, 0, 0, 1, 0},
			))

			Convey("Then every player forms a singleton cluster", func() {
				So(err, ShouldBeNil)
				So(model.K, ShouldEqual, 5)
				seen := map[int]int{}
				for _, a := range assignments {
					seen[a.Label]++
				}
				So(seen, ShouldHaveLength, 5)
				for _, count := range seen {
					So(count, ShouldEqual, 1)
				}
				So(model.Inertia, ShouldAlmostEqual, 0, 1e-9)
			})
		})

		Convey("When clustering a larger cohort twice", func() {
			data := cohort(40)
			m1, first, err := c.Fit(ctx, data)
			So(err, ShouldBeNil)
			_, second, err := clustering.New().Fit(ctx, data)
			So(err, ShouldBeNil)

			Convey("Then labels are reproducible", func() {
				So(second, ShouldResemble, first)
			})

			Convey("And at most k distinct labels appear", func() {
				labels := map[int]bool{}
				for _, a := range first {
					So(a.Label, ShouldBeBetweenOrEqual, 0, m1.K-1)
					labels[a.Label] = true
				}
				So(len(labels), ShouldBeLessThanOrEqualTo, clustering.DefaultClusters)
			})

			Convey("And the model reduces to five components", func() {
				So(m1.Components, ShouldEqual, 5)
				So(first[0].Coordinates, ShouldHaveLength, 5)
				So(m1.ExplainedVariance, ShouldHaveLength, 5)
			})

			Convey("And reusing the model reproduces the labels", func() {
				again, err := m1.Assign(data)
				So(err, ShouldBeNil)
				for i := range again {
					So(again[i].Label, ShouldEqual, first[i].Label)
					for j := range again[i].Coordinates {
						So(again[i].Coordinates[j], ShouldAlmostEqual, first[i].Coordinates[j], 1e-9)
					}
				}
			})

			Convey("And profiles scale with the input vector", func() {
				scaled := make([]float64, len(data[1].Vector))
				for j, x := range data[1].Vector {
					scaled[j] = 3 * x
				}
				out, err := m1.Assign([]clustering.Point{{PlayerID: "copy", Vector: scaled}})
				So(err, ShouldBeNil)
				So(first[1].Profile, ShouldHaveLength, 5)
				for j, x := range first[1].Profile {
					So(out[0].Profile[j], ShouldAlmostEqual, 3*x, 1e-9)
				}
			})

			Convey("And each axis has a positive dominant loading", func() {
				for _, axis := range m1.Axes {
					best := 0.0
					for _, x := range axis {
						if math.Abs(x) > math.Abs(best) {
							best = x
						}
					}
					So(best, ShouldBeGreaterThan, 0)
				}
			})
		})

		Convey("When there are fewer players than clusters", func() {
			model, assignments, err := c.Fit(ctx, cohort(3))

			Convey("Then k and components shrink to the player count", func() {
				So(err, ShouldBeNil)
				So(model.RequestedK, ShouldEqual, 5)
				So(model.K, ShouldEqual, 3)
				So(model.Components, ShouldEqual, 3)
				So(assignments, ShouldHaveLength, 3)
			})
		})

		Convey("When there is a single player", func() {
			model, assignments, err := c.Fit(ctx, cohort(1))

			Convey("Then it sits alone at the origin", func() {
				So(err, ShouldBeNil)
				So(model.K, ShouldEqual, 1)
				So(assignments[0].Label, ShouldEqual, 0)
				So(assignments[0].Coordinates, ShouldResemble, []float64{0})
			})
		})

		Convey("When there are no players", func() {
			model, assignments, err := c.Fit(ctx, nil)

			Convey("Then the result is empty", func() {
				So(err, ShouldBeNil)
				So(model.K, ShouldEqual, 0)
				So(assignments, ShouldBeEmpty)
			})
		})

		Convey("When vectors are ragged", func() {
			_, _, err := c.Fit(ctx, points([]float64{1, 2}, []float64{1}))

			Convey("Then a shape mismatch is reported", func() {
				So(errors.Is(err, features.ErrShapeMismatch), ShouldBeTrue)
			})
		})
	})

	Convey("Given a clusterer with k=2", t, func() {
		c := clustering.New(clustering.WithClusters(2), clustering.WithComponents(2))

		Convey("When two well separated groups are clustered", func() {
			_, assignments, err := c.Fit(context.Background(), points(
				[]float64{0, 0, 0},
				[]float64{0.1, 0, 0},
				[]float64{0, 0.1, 0},
				[]float64{1, 1, 1},
				[]float64{0.9, 1, 1},
				[]float64{1, 0.9, 1},
			))

			Convey("Then each group shares a label", func() {
				So(err, ShouldBeNil)
				So(assignments[1].Label, ShouldEqual, assignments[0].Label)
				So(assignments[2].Label, ShouldEqual, assignments[0].Label)
				So(assignments[4].Label, ShouldEqual, assignments[3].Label)
				So(assignments[5].Label, ShouldEqual, assignments[3].Label)
				So(assignments[3].Label, ShouldNotEqual, assignments[0].Label)
			})
		})
	})
}
