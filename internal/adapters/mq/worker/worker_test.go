package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/pitchiq/internal/adapters/mq/queue"
	worker "github.com/okian/pitchiq/internal/adapters/mq/worker"
	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/internal/domain/forecast"
	logging "github.com/okian/pitchiq/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockForecaster struct {
	mu     sync.Mutex
	errors map[string]error
	calls  map[string]int
}

func newMockForecaster() *mockForecaster {
	return &mockForecaster{errors: map[string]error{}, calls: map[string]int{}}
}

func (m *mockForecaster) Forecast(_ context.Context, s features.Series) (forecast.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[s.Key]++
	if err, ok := m.errors[s.Key]; ok {
		return forecast.Result{Key: s.Key}, err
	}
	return forecast.Result{Key: s.Key, History: len(s.Points)}, nil
}

func (m *mockForecaster) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.calls {
		total += c
	}
	return total
}

func monthly(key string, n int) features.Series {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]features.Point, n)
	for i := range pts {
		pts[i] = features.Point{Period: start.AddDate(0, i, 0), Goals: float64(i%4) + 1}
	}
	return features.Series{Key: key, Points: pts}
}

func TestPool_ForecastAll(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()
		ctx := context.Background()

		convey.Convey("When a batch mixes a one-point and a 24-point player", func() {
			pool := worker.NewPool(4, forecast.New(forecast.WithHorizon(3)))
			outcomes := pool.ForecastAll(ctx, []features.Series{monthly("rookie", 1), monthly("veteran", 24)})

			convey.Convey("Then the short history is captured without aborting the batch", func() {
				convey.So(outcomes, convey.ShouldHaveLength, 2)
				convey.So(outcomes[0].Key, convey.ShouldEqual, "rookie")
				convey.So(errors.Is(outcomes[0].Err, forecast.ErrInsufficientHistory), convey.ShouldBeTrue)
			})

			convey.Convey("And the long history yields a 3-period forecast", func() {
				convey.So(outcomes[1].Err, convey.ShouldBeNil)
				convey.So(outcomes[1].Result.Periods, convey.ShouldHaveLength, 3)
				for _, p := range outcomes[1].Result.Periods {
					convey.So(p.Lower, convey.ShouldBeGreaterThanOrEqualTo, 0)
					convey.So(p.Lower, convey.ShouldBeLessThanOrEqualTo, p.Predicted)
					convey.So(p.Predicted, convey.ShouldBeLessThanOrEqualTo, p.Upper)
				}
			})
		})

		convey.Convey("When many series run on fewer workers", func() {
			mock := newMockForecaster()
			mock.errors["p7"] = errors.New("boom")
			pool := worker.NewPool(3, mock)

			series := make([]features.Series, 50)
			for i := range series {
				series[i] = monthly(fmt.Sprintf("p%d", i), i%5)
			}
			outcomes := pool.ForecastAll(ctx, series)

			convey.Convey("Then every series is processed once, in input order", func() {
				convey.So(mock.callCount(), convey.ShouldEqual, 50)
				for i, o := range outcomes {
					convey.So(o.Key, convey.ShouldEqual, series[i].Key)
					convey.So(o.Result.Key, convey.ShouldEqual, series[i].Key)
				}
			})

			convey.Convey("And a failing series only affects its own outcome", func() {
				convey.So(outcomes[7].Err, convey.ShouldNotBeNil)
				convey.So(outcomes[6].Err, convey.ShouldBeNil)
				convey.So(outcomes[8].Err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the batch is empty", func() {
			outcomes := worker.NewPool(2, newMockForecaster()).ForecastAll(ctx, nil)

			convey.Convey("Then no outcomes are returned", func() {
				convey.So(outcomes, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			mock := newMockForecaster()
			outcomes := worker.NewPool(2, mock).ForecastAll(cctx, []features.Series{monthly("a", 3), monthly("b", 3)})

			convey.Convey("Then every outcome is either processed or carries an error", func() {
				convey.So(outcomes, convey.ShouldHaveLength, 2)
				for _, o := range outcomes {
					if o.Err == nil {
						convey.So(o.Result.Key, convey.ShouldEqual, o.Key)
					}
				}
				convey.So(mock.callCount(), convey.ShouldBeLessThanOrEqualTo, 2)
			})
		})

		convey.Convey("When the pool is sized below one", func() {
			pool := worker.NewPool(0, newMockForecaster())

			convey.Convey("Then it falls back to a positive size", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker on an open queue", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))

		var (
			mu   sync.Mutex
			seen []string
		)
		sink := func(j queue.Job, o worker.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, o.Key)
		}
		w := worker.NewInMemoryWorker(q, newMockForecaster(), sink, worker.WithName("test-worker"))
		go w.Run(ctx)

		convey.Convey("When a job is enqueued and the worker is shut down", func() {
			convey.So(q.Enqueue(ctx, queue.Job{Series: monthly("solo", 2)}), convey.ShouldBeTrue)

			deadline := time.Now().Add(time.Second)
			for time.Now().Before(deadline) {
				mu.Lock()
				n := len(seen)
				mu.Unlock()
				if n == 1 {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}
			err := w.Shutdown(ctx)

			convey.Convey("Then the job was delivered to the sink and shutdown succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				mu.Lock()
				defer mu.Unlock()
				convey.So(seen, convey.ShouldResemble, []string{"solo"})
			})
		})
	})
}
