package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/okian/pitchiq/internal/adapters/http/api"
	"github.com/okian/pitchiq/internal/adapters/http/swagger"
	app "github.com/okian/pitchiq/internal/app"
	"github.com/okian/pitchiq/internal/config"
	"github.com/okian/pitchiq/internal/sampledata"
	"github.com/okian/pitchiq/pkg/logger"
)

// HTTP server timeout constants. Writes allow for a synchronous cohort load.
const (
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("invalid log_format; keeping text: " + err.Error() + "\n")
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	if err := loadDataset(ctx, svc, cfg.DatasetPath); err != nil {
		// The API still serves; a cohort can be uploaded later.
		loggerInstance.Error(ctx, "failed to load dataset", logger.String("path", cfg.DatasetPath), logger.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(svc, cfg, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService maps configuration onto service options.
func newService(cfg *config.Config, l logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(l),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithClusters(cfg.Clusters),
		app.WithComponents(cfg.Components),
		app.WithSimilarTopN(cfg.SimilarTopN),
		app.WithForecastHorizon(cfg.ForecastHorizon),
		app.WithForecastIntervalWidth(cfg.ForecastIntervalWidth),
		app.WithMonthlySeasonality(cfg.MonthlySeasonality),
	)
}

// newHandler registers the API and docs routes.
func newHandler(svc *app.Service, cfg *config.Config, l logger.Logger) http.Handler {
	r := mux.NewRouter()
	swagger.Register(r)
	api.NewServer(svc,
		api.WithMaxLimit(cfg.MaxScoresLimit),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithLogger(l.Named("api")),
	).Register(r)
	return r
}

// loadDataset runs the pipeline over the cohort file at path. An empty path
// is a no-op.
func loadDataset(ctx context.Context, svc *app.Service, path string) error {
	if path == "" {
		return nil
	}
	cohort, err := sampledata.Load(path)
	if err != nil {
		return err
	}
	summary, err := svc.Load(ctx, cohort)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "dataset loaded",
		logger.String("path", path),
		logger.String("runId", summary.RunID),
		logger.Int("players", summary.Players))
	return nil
}
