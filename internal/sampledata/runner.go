package sampledata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/pitchiq/internal/domain/model"
	"github.com/okian/pitchiq/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run generates a cohort, optionally saves it and optionally uploads it.
func Run(ctx context.Context, cfg *Config) (Stats, error) {
	stats := Stats{StartTime: time.Now()}
	log := logger.Get().Named("sample-cohort")

	cohort, err := Generate(ctx, cfg)
	if err != nil {
		return stats, fmt.Errorf("cohort generation failed: %w", err)
	}
	stats.Players = len(cohort.Players)
	stats.Observations = len(cohort.Goals)

	if cfg.OutputFile != "" {
		if err := Save(cfg.OutputFile, cohort); err != nil {
			return stats, err
		}
		log.Info(ctx, "cohort saved", logger.String("file", cfg.OutputFile))
	}

	if cfg.BaseURL != "" {
		client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
		if err := client.Health(ctx); err != nil {
			return stats, fmt.Errorf("service health check failed: %w", err)
		}
		// The seed names the cohort, so re-running the same seed is a no-op.
		summary, err := client.Upload(ctx, cohort, "sample-"+strconv.FormatInt(cfg.Seed, 10))
		if err != nil {
			return stats, fmt.Errorf("cohort upload failed: %w", err)
		}
		stats.RunID = summary.RunID
		stats.Duplicate = summary.Duplicate
		log.Info(ctx, "cohort uploaded",
			logger.String("runId", summary.RunID),
			logger.Int("clusters", summary.Clusters),
			logger.Int("forecasts", summary.Forecasts),
			logger.Int("skipped", summary.Skipped),
			logger.Bool("duplicate", summary.Duplicate))

		if cfg.TopN > 0 {
			top, err := client.TopScores(ctx, cfg.TopN)
			if err != nil {
				return stats, fmt.Errorf("score retrieval failed: %w", err)
			}
			for _, e := range top {
				log.Info(ctx, "top score",
					logger.Int("rank", e.Rank),
					logger.String("player", e.Name),
					logger.Float64("score", e.Score))
			}
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	return stats, nil
}

// Save writes cohort as indented JSON, creating parent directories.
func Save(path string, cohort model.Cohort) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cohort, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cohort: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("failed to write cohort: %w", err)
	}
	return nil
}

// Load reads a cohort JSON document.
func Load(path string) (model.Cohort, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return model.Cohort{}, fmt.Errorf("failed to read cohort: %w", err)
	}
	var cohort model.Cohort
	if err := json.Unmarshal(data, &cohort); err != nil {
		return model.Cohort{}, fmt.Errorf("failed to decode cohort %s: %w", path, err)
	}
	return cohort, nil
}
