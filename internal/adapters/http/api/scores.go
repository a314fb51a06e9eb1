package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/okian/pitchiq/internal/domain/types"
)

const defaultScoresLimit = 10

// ScoreDependencies defines the interface for score operations.
type ScoreDependencies interface {
	TopScores(ctx context.Context, n int) ([]types.Entry, error)
	Score(ctx context.Context, playerID string) (types.PlayerScore, error)
}

// ScoresHandler handles score ranking requests.
type ScoresHandler struct {
	deps     ScoreDependencies
	maxLimit int
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies, maxLimit int) *ScoresHandler {
	return &ScoresHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetScores handles GET /scores?limit=N requests.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scores"
	n := defaultScoresLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", Wrap(op, ErrLimitExceeded))
		return
	}
	entries, err := h.deps.TopScores(r.Context(), n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetScore handles GET /scores/{id} requests.
func (h *ScoresHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_score"
	score, err := h.deps.Score(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}
