// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/okian/pitchiq/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CohortDependencies
	ScoreDependencies
	ClusterDependencies
	SimilarDependencies
	ForecastDependencies
	TeamDependencies
	StatsProvider
}

// Server wires HTTP routes for the analytics API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	cohortHandler   *CohortHandler
	scoresHandler   *ScoresHandler
	clustersHandler *ClustersHandler
	similarHandler  *SimilarHandler
	forecastHandler *ForecastHandler
	teamsHandler    *TeamsHandler

	maxLimit       int
	rateLimitRPS   float64
	rateLimitBurst int
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.cohortHandler = NewCohortHandler(deps, s.logger)
	s.scoresHandler = NewScoresHandler(deps, s.maxLimit)
	s.clustersHandler = NewClustersHandler(deps)
	s.similarHandler = NewSimilarHandler(deps)
	s.forecastHandler = NewForecastHandler(deps)
	s.teamsHandler = NewTeamsHandler(deps)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Use(RateLimitMiddleware(s.rateLimitRPS, s.rateLimitBurst))

	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.Handle("/metrics", MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	r.HandleFunc("/cohort", MetricsMiddleware(s.cohortHandler.HandlePutCohort, "cohort")).Methods(http.MethodPut)
	r.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandleGetScores, "scores")).Methods(http.MethodGet)
	r.HandleFunc("/scores/{id}", MetricsMiddleware(s.scoresHandler.HandleGetScore, "score")).Methods(http.MethodGet)
	r.HandleFunc("/clusters", MetricsMiddleware(s.clustersHandler.HandleGetClusters, "clusters")).Methods(http.MethodGet)
	r.HandleFunc("/clusters/{label}", MetricsMiddleware(s.clustersHandler.HandleGetCluster, "cluster")).Methods(http.MethodGet)
	r.HandleFunc("/similar/{id}", MetricsMiddleware(s.similarHandler.HandleGetSimilar, "similar")).Methods(http.MethodGet)
	r.HandleFunc("/forecasts/{id}", MetricsMiddleware(s.forecastHandler.HandleGetForecast, "forecast")).Methods(http.MethodGet)
	r.HandleFunc("/teams/{team}/lineup", MetricsMiddleware(s.teamsHandler.HandleGetLineup, "lineup")).Methods(http.MethodGet)
	r.HandleFunc("/teams/{team}/forecast", MetricsMiddleware(s.teamsHandler.HandleGetTeamForecast, "team_forecast")).Methods(http.MethodGet)
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service error to its HTTP status.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}
