// Package worker runs forecast jobs off the queue on a bounded pool of
// goroutines and captures every job's outcome.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/pitchiq/internal/adapters/mq/queue"
	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/internal/domain/forecast"
	"github.com/okian/pitchiq/pkg/logger"
	"github.com/okian/pitchiq/pkg/metrics"
)

// Forecaster fits one series.
type Forecaster interface {
	Forecast(ctx context.Context, s features.Series) (forecast.Result, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Sink receives the outcome of each processed job.
type Sink func(j queue.Job, o Outcome)

// Outcome is the captured result of one job. Err is set instead of
// aborting the batch; ErrInsufficientHistory is the expected case.
type Outcome struct {
	Key    string
	Result forecast.Result
	Err    error
}

// Worker processes jobs until its queue drains or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	forecaster Forecaster
	sink       Sink
	name       string

	shutdown chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, f Forecaster, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		forecaster: f,
		sink:       sink,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.WorkerBusy(1)
	defer metrics.WorkerBusy(-1)
	metrics.RecordJobLatency(float64(time.Since(j.Enqueued).Milliseconds()))

	start := time.Now()
	res, err := w.forecaster.Forecast(ctx, j.Series)
	elapsed := float64(time.Since(start).Milliseconds())

	switch {
	case err == nil:
		metrics.RecordForecast(metrics.ForecastOK, elapsed)
	case errors.Is(err, forecast.ErrInsufficientHistory):
		metrics.RecordForecast(metrics.ForecastInsufficientHistory, elapsed)
		w.logger.Debug(ctx, "skipping forecast",
			logger.String("key", j.Series.Key),
			logger.Error(err))
	default:
		metrics.RecordForecast(metrics.ForecastFailed, elapsed)
		metrics.RecordError("worker", "forecast_error")
		w.logger.Error(ctx, "forecast failed",
			logger.String("key", j.Series.Key),
			logger.Error(err))
	}
	w.sink(j, Outcome{Key: j.Series.Key, Result: res, Err: err})
}

// Pool fans batches of series out to a fixed number of workers.
type Pool struct {
	size       int
	forecaster Forecaster
	logger     logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, f Forecaster, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{size: workerCount, forecaster: f}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the configured number of workers.
func (p *Pool) Size() int {
	return p.size
}

// ForecastAll forecasts every series and returns outcomes in input order.
// Per-series failures are captured in the outcome; jobs left unprocessed
// by a cancelled context carry the context error.
func (p *Pool) ForecastAll(ctx context.Context, series []features.Series) []Outcome {
	outcomes := make([]Outcome, len(series))
	if len(series) == 0 {
		return outcomes
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(series)))
	processed := make([]bool, len(series))
	for i, s := range series {
		outcomes[i].Key = s.Key
		if !q.Enqueue(ctx, queue.Job{Index: i, Series: s}) {
			outcomes[i].Err = fmt.Errorf("%w: %s", queue.ErrRejected, s.Key)
			processed[i] = true
		}
	}
	if err := q.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	// Each index is written by exactly one worker.
	sink := func(j queue.Job, o Outcome) {
		outcomes[j.Index] = o
		processed[j.Index] = true
	}

	n := min(p.size, len(series))
	workers := make([]*InMemoryWorker, n)
	for i := range workers {
		workers[i] = NewInMemoryWorker(q, p.forecaster, sink,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger.Named("worker-"+strconv.Itoa(i))))
		go workers[i].Run(ctx)
	}
	for _, w := range workers {
		<-w.done
	}

	if err := ctx.Err(); err != nil {
		for i := range outcomes {
			if !processed[i] {
				outcomes[i].Err = fmt.Errorf("context cancelled: %w", err)
			}
		}
	}
	metrics.UpdateQueueDepth(0)
	return outcomes
}
