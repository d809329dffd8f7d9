package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tonide/internal/gateway/handler/rpc"
	"tonide/internal/gateway/middleware"
	"tonide/internal/metrics"
)

type Routes struct {
	Project  *rpc.ProjectHandler
	BuildLog *rpc.BuildLogHandler
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

func NewMux(r Routes) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(rpc.NewProjectServiceHandler(r.Project))

	// Streaming
	mux.HandleFunc("/ws/build-log", r.BuildLog.HandleBuildLogWS)

	// Operations
	if r.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Middleware
	logged := middleware.AccessLog(r.Logger, r.Metrics, routeLabel)(mux)
	return middleware.CORS(logged)
}

func routeLabel(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/"+rpc.ProjectServiceName+"/"):
		return path
	case path == "/ws/build-log", path == "/metrics", path == "/healthz":
		return path
	}
	return "other"
}
