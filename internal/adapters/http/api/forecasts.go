package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/okian/pitchiq/internal/domain/types"
)

// ForecastDependencies defines the interface for player forecasts.
type ForecastDependencies interface {
	Forecast(ctx context.Context, playerID string) (types.Forecast, error)
}

// ForecastHandler handles player forecast requests.
type ForecastHandler struct {
	deps ForecastDependencies
}

// NewForecastHandler creates a new forecast handler.
func NewForecastHandler(deps ForecastDependencies) *ForecastHandler {
	return &ForecastHandler{deps: deps}
}

// HandleGetForecast handles GET /forecasts/{id} requests. A skipped
// forecast is still 200 with its status and reason.
func (h *ForecastHandler) HandleGetForecast(w http.ResponseWriter, r *http.Request) {
	fc, err := h.deps.Forecast(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "api.get_forecast", err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}
