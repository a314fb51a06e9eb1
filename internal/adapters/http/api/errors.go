package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/pitchiq/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrRateLimited   = errors.New("rate limited")
)

// OpError records the handler operation an error surfaced from.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Wrap annotates err with the operation name. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// WrapKind annotates cause with op and a sentinel kind matchable by errors.Is.
func WrapKind(op string, kind, cause error) error {
	return &OpError{Op: op, Err: fmt.Errorf("%w: %w", kind, cause)}
}

// classify maps service sentinels to HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrPlayerNotFound),
		errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, service.ErrClusterNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNoData):
		return http.StatusNotFound, "no_data"
	case errors.Is(err, service.ErrInvalidCohort), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
