package service

import (
	"errors"

	"github.com/okian/pitchiq/internal/adapters/repository"
	"github.com/okian/pitchiq/internal/domain/lineup"
	"github.com/okian/pitchiq/internal/domain/model"
	"github.com/okian/pitchiq/internal/domain/similarity"
)

// Sentinel kinds for service errors. Lookups wrap the domain sentinels so
// callers can match either.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrNoData          = repository.ErrNoSnapshot
	ErrPlayerNotFound  = similarity.ErrPlayerNotFound
	ErrTeamNotFound    = lineup.ErrTeamNotFound
	ErrClusterNotFound = errors.New("cluster not found")
	ErrInvalidCohort   = model.ErrInvalidRecord
)
