package sampledata

import "os"

// ShowHelp prints usage information for the sample cohort tool.
func ShowHelp() {
	os.Stdout.WriteString(`pitchiq sample cohort tool
==========================

Generates a reproducible synthetic cohort of players and monthly goal
history, writes it as JSON and optionally loads it into a running service.

Usage:
  go run ./cmd/sample-cohort [options]

Options:
  -players int
        Number of players (default 200)
  -teams int
        Number of teams (default 10)
  -months int
        Longest goal history in months (default 24)
  -seed int
        Generator seed (default 42)
  -output string
        Output file for the cohort JSON (default "cohort.json")
  -url string
        Base URL of the service; empty skips the upload
  -top int
        Number of top scores printed after upload (default 10)
  -timeout duration
        HTTP request timeout (default 2m)
  -help
        Show this help message

Examples:
  # Write cohort.json only
  go run ./cmd/sample-cohort

  # Generate and load into a local service
  go run ./cmd/sample-cohort -players 500 -url http://localhost:9080
`)
}
