package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/pitchiq/internal/domain/model"
	"github.com/okian/pitchiq/internal/domain/types"
	"github.com/okian/pitchiq/pkg/logger"
)

// IdempotencyHeader carries the client key that deduplicates cohort loads.
const IdempotencyHeader = "Idempotency-Key"

const maxCohortBytes = 64 << 20

// CohortDependencies defines the interface for cohort loading.
type CohortDependencies interface {
	LoadOnce(ctx context.Context, key string, cohort model.Cohort) (types.RunSummary, error)
}

// CohortHandler handles cohort uploads.
type CohortHandler struct {
	deps   CohortDependencies
	logger logger.Logger
}

// NewCohortHandler creates a new cohort handler.
func NewCohortHandler(deps CohortDependencies, l logger.Logger) *CohortHandler {
	return &CohortHandler{deps: deps, logger: l}
}

// HandlePutCohort handles PUT /cohort requests. The pipeline runs
// synchronously; the response is the run summary.
func (h *CohortHandler) HandlePutCohort(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_cohort"
	var cohort model.Cohort
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCohortBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cohort); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	summary, err := h.deps.LoadOnce(r.Context(), key, cohort)
	if err != nil {
		status, _ := classify(err)
		if status >= statusInternalError {
			h.logger.Error(r.Context(), "cohort load failed", logger.Error(err))
		}
		writeServiceError(w, op, err)
		return
	}
	status := http.StatusCreated
	if summary.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, summary)
}
