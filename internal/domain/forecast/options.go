package forecast

import "github.com/okian/pitchiq/pkg/logger"

// Option applies a configuration option to the Forecaster.
type Option func(*Forecaster)

// WithHorizon sets how many monthly periods to predict.
func WithHorizon(periods int) Option {
	return func(f *Forecaster) {
		if periods > 0 {
			f.horizon = periods
		}
	}
}

// WithIntervalWidth sets the coverage of the prediction interval, in (0,1).
func WithIntervalWidth(width float64) Option {
	return func(f *Forecaster) {
		if width > 0 && width < 1 {
			f.width = width
		}
	}
}

// WithMonthlySeasonality toggles the monthly Fourier terms.
func WithMonthlySeasonality(enabled bool) Option {
	return func(f *Forecaster) {
		f.seasonality = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Forecaster) {
		if l != nil {
			f.log = l
		}
	}
}
