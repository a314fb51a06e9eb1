package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/pitchiq/internal/sampledata"
	"github.com/okian/pitchiq/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers    = 200
	defaultTeams      = 10
	defaultMonths     = 24
	defaultSeed       = 42
	defaultTopN       = 10
	defaultTimeout    = 2 * time.Minute
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		players    = flag.Int("players", defaultPlayers, "Number of players")
		teams      = flag.Int("teams", defaultTeams, "Number of teams")
		months     = flag.Int("months", defaultMonths, "Longest goal history in months")
		seed       = flag.Int64("seed", defaultSeed, "Generator seed")
		outputFile = flag.String("output", "cohort.json", "Output file for the cohort JSON")
		baseURL    = flag.String("url", "", "Base URL of the service; empty skips the upload")
		topN       = flag.Int("top", defaultTopN, "Number of top scores printed after upload")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sampledata.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &sampledata.Config{
		Players:    *players,
		Teams:      *teams,
		Months:     *months,
		Seed:       *seed,
		OutputFile: *outputFile,
		BaseURL:    *baseURL,
		TopN:       *topN,
		Timeout:    *timeout,
	}

	stats, err := sampledata.Run(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		return
	}
	logger.Get().Info(ctx, "done",
		logger.Int("players", stats.Players),
		logger.Int("observations", stats.Observations),
		logger.Duration("duration", stats.Duration))
}
