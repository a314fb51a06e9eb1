package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/okian/pitchiq/internal/domain/types"
)

// SimilarDependencies defines the interface for similarity lookups.
type SimilarDependencies interface {
	Similar(ctx context.Context, playerID string, n int) (types.SimilarPlayers, error)
}

// SimilarHandler handles similar-player requests.
type SimilarHandler struct {
	deps SimilarDependencies
}

// NewSimilarHandler creates a new similarity handler.
func NewSimilarHandler(deps SimilarDependencies) *SimilarHandler {
	return &SimilarHandler{deps: deps}
}

// HandleGetSimilar handles GET /similar/{id}?n=N requests. A missing n uses
// the service default.
func (h *SimilarHandler) HandleGetSimilar(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_similar"
	n := 0
	if s := r.URL.Query().Get("n"); s != "" {
		var err error
		n, err = strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, ErrBadRequest))
			return
		}
	}
	res, err := h.deps.Similar(r.Context(), mux.Vars(r)["id"], n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
