package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/pitchiq/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Clusters, convey.ShouldEqual, 5)
				convey.So(cfg.Components, convey.ShouldEqual, 5)
				convey.So(cfg.SimilarTopN, convey.ShouldEqual, 5)
				convey.So(cfg.ForecastHorizon, convey.ShouldEqual, 3)
				convey.So(cfg.MonthlySeasonality, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PITCHIQ_ADDR", ":8080")
			_ = os.Setenv("PITCHIQ_CLUSTERS", "7")
			_ = os.Setenv("PITCHIQ_FORECAST_HORIZON", "6")
			_ = os.Setenv("PITCHIQ_MONTHLY_SEASONALITY", "false")
			_ = os.Setenv("PITCHIQ_FORECAST_INTERVAL_WIDTH", "0.95")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Clusters, convey.ShouldEqual, 7)
				convey.So(cfg.ForecastHorizon, convey.ShouldEqual, 6)
				convey.So(cfg.MonthlySeasonality, convey.ShouldBeFalse)
				convey.So(cfg.ForecastIntervalWidth, convey.ShouldEqual, 0.95)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
clusters: 4
components: 3
worker_count: 12
log_format: json
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PITCHIQ_CONFIG", tmpFile)
			_ = os.Setenv("PITCHIQ_WORKER_COUNT", "2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Clusters, convey.ShouldEqual, 4)
				convey.So(cfg.Components, convey.ShouldEqual, 3)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.SimilarTopN, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PITCHIQ_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PITCHIQ_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("PITCHIQ_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When loading config with zero clusters", func() {
			_ = os.Setenv("PITCHIQ_CLUSTERS", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PITCHIQ_CONFIG",
		"PITCHIQ_ADDR",
		"PITCHIQ_CLUSTERS",
		"PITCHIQ_COMPONENTS",
		"PITCHIQ_WORKER_COUNT",
		"PITCHIQ_FORECAST_HORIZON",
		"PITCHIQ_FORECAST_INTERVAL_WIDTH",
		"PITCHIQ_MONTHLY_SEASONALITY",
		"PITCHIQ_LOG_FORMAT",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "pitchiq-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
