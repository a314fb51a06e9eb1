package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/okian/pitchiq/internal/domain/types"
)

// ClusterDependencies defines the interface for cluster reads.
type ClusterDependencies interface {
	Clusters(ctx context.Context) (types.ClusterSummary, error)
	Cluster(ctx context.Context, label int) (types.Cluster, error)
}

// ClustersHandler handles profile cluster requests.
type ClustersHandler struct {
	deps ClusterDependencies
}

// NewClustersHandler creates a new clusters handler.
func NewClustersHandler(deps ClusterDependencies) *ClustersHandler {
	return &ClustersHandler{deps: deps}
}

// HandleGetClusters handles GET /clusters requests.
func (h *ClustersHandler) HandleGetClusters(w http.ResponseWriter, r *http.Request) {
	summary, err := h.deps.Clusters(r.Context())
	if err != nil {
		writeServiceError(w, "api.get_clusters", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleGetCluster handles GET /clusters/{label} requests.
func (h *ClustersHandler) HandleGetCluster(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_cluster"
	label, err := strconv.Atoi(mux.Vars(r)["label"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	cluster, err := h.deps.Cluster(r.Context(), label)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, cluster)
}
