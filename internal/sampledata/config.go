// Package sampledata generates deterministic synthetic cohorts and submits
// them to a running service.
package sampledata

import "time"

// Config holds configuration for a generation run.
type Config struct {
	Players    int           // Number of players to generate
	Teams      int           // Number of teams players are spread over
	Months     int           // Longest goal history in months
	Seed       int64         // Seed of the generator; equal seeds give equal cohorts
	Start      time.Time     // First month of goal history
	OutputFile string        // JSON output path; empty writes no file
	BaseURL    string        // Service to upload to; empty skips the upload
	TopN       int           // Number of top scores fetched after upload
	Timeout    time.Duration // HTTP request timeout
}

// Stats holds run statistics.
type Stats struct {
	Players      int
	Observations int
	RunID        string
	Duplicate    bool
	StartTime    time.Time
	Duration     time.Duration
}
