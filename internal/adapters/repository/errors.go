package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("player not found")
	ErrNoSnapshot   = errors.New("no analytics snapshot published")
	ErrInvalidLimit = errors.New("invalid ranking limit")
)
