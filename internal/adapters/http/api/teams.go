package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/okian/pitchiq/internal/domain/lineup"
	"github.com/okian/pitchiq/internal/domain/types"
)

// TeamDependencies defines the interface for team-level reads.
type TeamDependencies interface {
	Lineup(ctx context.Context, team string) (lineup.Lineup, error)
	TeamForecast(ctx context.Context, team string) (types.Forecast, error)
}

// TeamsHandler handles team requests.
type TeamsHandler struct {
	deps TeamDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// HandleGetLineup handles GET /teams/{team}/lineup requests.
func (h *TeamsHandler) HandleGetLineup(w http.ResponseWriter, r *http.Request) {
	l, err := h.deps.Lineup(r.Context(), mux.Vars(r)["team"])
	if err != nil {
		writeServiceError(w, "api.get_lineup", err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// HandleGetTeamForecast handles GET /teams/{team}/forecast requests.
func (h *TeamsHandler) HandleGetTeamForecast(w http.ResponseWriter, r *http.Request) {
	fc, err := h.deps.TeamForecast(r.Context(), mux.Vars(r)["team"])
	if err != nil {
		writeServiceError(w, "api.get_team_forecast", err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}
