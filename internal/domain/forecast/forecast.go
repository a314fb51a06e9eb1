// Package forecast predicts monthly goal output with an additive trend plus
// optional monthly seasonality model fitted per series.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/pitchiq/internal/domain/features"
	"github.com/okian/pitchiq/pkg/logger"
	"gonum.org/v1/gonum/stat/distuv"
)

// Default forecaster configuration constants.
const (
	DefaultHorizon       = 3
	DefaultIntervalWidth = 0.8
	minPeriods           = 2
)

var (
	// ErrInsufficientHistory means the series has fewer than two distinct
	// periods. It is recorded per player and never aborts a batch.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrFitFailed means the normal equations could not be solved.
	ErrFitFailed = errors.New("forecast fit failed")
)

// Period is the prediction for one future month. Lower <= Predicted <= Upper
// and all three are non-negative.
type Period struct {
	Period    time.Time `json:"period"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Result is the forecast of one series.
type Result struct {
	Key           string   `json:"key"`
	History       int      `json:"history"`
	Seasonality   bool     `json:"seasonality"`
	IntervalWidth float64  `json:"interval_width"`
	Periods       []Period `json:"periods"`
}

// Forecaster fits and extrapolates goal series.
type Forecaster struct {
	horizon     int
	width       float64
	seasonality bool
	log         logger.Logger
}

// New creates a forecaster.
func New(opts ...Option) *Forecaster {
	f := &Forecaster{
		horizon:     DefaultHorizon,
		width:       DefaultIntervalWidth,
		seasonality: true,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Horizon returns the configured number of periods ahead.
func (f *Forecaster) Horizon() int {
	return f.horizon
}

// Forecast fits the series and predicts the next horizon months after its
// last observed period.
func (f *Forecaster) Forecast(ctx context.Context, s features.Series) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	times, y := monthly(s.Points)
	res := Result{Key: s.Key, History: len(times), Seasonality: f.seasonality, IntervalWidth: f.width}
	if len(times) < minPeriods {
		return res, fmt.Errorf("%w: %s has %d periods, need %d", ErrInsufficientHistory, s.Key, len(times), minPeriods)
	}

	m, err := fitSeries(times, y, f.seasonality)
	if err != nil {
		return res, fmt.Errorf("%s: %w", s.Key, err)
	}

	z := distuv.UnitNormal.Quantile(0.5 + f.width/2)
	last := times[len(times)-1]
	res.Periods = make([]Period, 0, f.horizon)
	for h := 1; h <= f.horizon; h++ {
		at := last.AddDate(0, h, 0)
		mean, sd, err := m.predict(at)
		if err != nil {
			return res, fmt.Errorf("%s: %w", s.Key, err)
		}
		res.Periods = append(res.Periods, Period{
			Period:    at,
			Predicted: math.Max(0, mean),
			Lower:     math.Max(0, mean-z*sd),
			Upper:     math.Max(0, mean+z*sd),
		})
	}
	f.log.Debug(ctx, "series forecast",
		logger.String("key", s.Key),
		logger.Int("history", res.History),
		logger.Int("horizon", f.horizon))
	return res, nil
}

// monthly merges points into distinct, chronological calendar months.
func monthly(points []features.Point) ([]time.Time, []float64) {
	sums := make(map[time.Time]float64, len(points))
	times := make([]time.Time, 0, len(points))
	for _, p := range points {
		m := features.MonthStart(p.Period)
		if _, ok := sums[m]; !ok {
			times = append(times, m)
		}
		sums[m] += p.Goals
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	y := make([]float64, len(times))
	for i, m := range times {
		y[i] = sums[m]
	}
	return times, y
}
