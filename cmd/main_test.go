package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	app "github.com/okian/pitchiq/internal/app"
	"github.com/okian/pitchiq/internal/config"
	"github.com/okian/pitchiq/internal/sampledata"
	"github.com/okian/pitchiq/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("PITCHIQ_ADDR", ":8080")
			_ = os.Setenv("PITCHIQ_WORKER_COUNT", "4")
			_ = os.Setenv("PITCHIQ_CLUSTERS", "3")
			defer func() {
				_ = os.Unsetenv("PITCHIQ_ADDR")
				_ = os.Unsetenv("PITCHIQ_WORKER_COUNT")
				_ = os.Unsetenv("PITCHIQ_CLUSTERS")
			}()

			convey.Convey("Then configuration should flow into the service", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")

				svc := newService(cfg, logger.Get())
				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 4)
				convey.So(stats["clusters"], convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("PITCHIQ_ADDR", "")
			defer func() { _ = os.Unsetenv("PITCHIQ_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a started service and its handler", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.RateLimitRPS = 0
		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		h := newHandler(svc, cfg, logger.Get())

		convey.Convey("When a dataset file is loaded at startup", func() {
			cohort, err := sampledata.Generate(ctx, &sampledata.Config{Players: 25, Teams: 2, Months: 12, Seed: 3})
			convey.So(err, convey.ShouldBeNil)
			path := filepath.Join(t.TempDir(), "cohort.json")
			convey.So(sampledata.Save(path, cohort), convey.ShouldBeNil)
			convey.So(loadDataset(ctx, svc, path), convey.ShouldBeNil)

			convey.Convey("Then the API serves its results", func() {
				for _, target := range []string{"/healthz", "/stats", "/scores?limit=5", "/clusters", "/metrics", "/openapi.yaml", "/api-docs"} {
					w := httptest.NewRecorder()
					h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/similar/"+cohort.Players[0].ID, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When no dataset is configured", func() {
			convey.Convey("Then startup loading is a no-op", func() {
				convey.So(loadDataset(ctx, svc, ""), convey.ShouldBeNil)
				_, err := svc.CurrentRun(ctx)
				convey.So(err, convey.ShouldEqual, app.ErrNoData)
			})
		})

		convey.Convey("When the dataset file is missing", func() {
			err := loadDataset(ctx, svc, filepath.Join(t.TempDir(), "missing.json"))

			convey.Convey("Then the error is reported", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
