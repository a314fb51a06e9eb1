// Package config defines service configuration and its loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and PITCHIQ_* env vars.
// - Errors returned to callers wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatasetPath optionally points to a cohort JSON document loaded at startup.
	DatasetPath string `koanf:"dataset_path"`

	// Clusters is the K-Means cluster count.
	Clusters int `koanf:"clusters"`

	// Components caps the number of principal components.
	Components int `koanf:"components"`

	// SimilarTopN is the default length of a similarity list.
	SimilarTopN int `koanf:"similar_top_n"`

	// ForecastHorizon is the number of future monthly periods forecast.
	ForecastHorizon int `koanf:"forecast_horizon"`

	// ForecastIntervalWidth is the coverage of the forecast bounds, in (0,1).
	ForecastIntervalWidth float64 `koanf:"forecast_interval_width"`

	// MonthlySeasonality toggles the monthly Fourier component of the forecaster.
	MonthlySeasonality bool `koanf:"monthly_seasonality"`

	// WorkerCount sets the number of forecast workers.
	WorkerCount int `koanf:"worker_count"`

	// RateLimitRPS and RateLimitBurst throttle the HTTP API. RPS <= 0 disables it.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// MaxScoresLimit caps GET /scores?limit.
	MaxScoresLimit int `koanf:"max_scores_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		Clusters:              5,
		Components:            5,
		SimilarTopN:           5,
		ForecastHorizon:       3,
		ForecastIntervalWidth: 0.8,
		MonthlySeasonality:    true,
		WorkerCount:           runtime.NumCPU(),
		RateLimitRPS:          200,
		RateLimitBurst:        400,
		MaxScoresLimit:        1000,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.Clusters < 1:
		return invalid("clusters must be >= 1")
	case c.Components < 1:
		return invalid("components must be >= 1")
	case c.SimilarTopN < 1:
		return invalid("similar_top_n must be >= 1")
	case c.ForecastHorizon < 1:
		return invalid("forecast_horizon must be >= 1")
	case c.ForecastIntervalWidth <= 0 || c.ForecastIntervalWidth >= 1:
		return invalid("forecast_interval_width must be in (0,1)")
	case c.WorkerCount < 1:
		return invalid("worker_count must be >= 1")
	case c.MaxScoresLimit < 1:
		return invalid("max_scores_limit must be >= 1")
	}
	return nil
}
