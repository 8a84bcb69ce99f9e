package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskdeck/internal/platform/metrics"
	"taskdeck/internal/platform/middleware"
	taskhandler "taskdeck/internal/tasks/handler"
	"taskdeck/internal/transport/http/shared"
)

// RouterConfig collects everything the composed router needs. The task
// handler carries its own auth gate; the middleware here applies to every
// route, including the unauthenticated operational ones.
type RouterConfig struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	TaskHandler   *taskhandler.Handler
	AllowedOrigin string
}

// NewRouter assembles the full HTTP surface: the task API, health checking,
// and the Prometheus scrape endpoint.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Latency(cfg.Metrics))
	if cfg.AllowedOrigin != "" {
		r.Use(middleware.CORS(cfg.AllowedOrigin))
	}

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	cfg.TaskHandler.Register(r)

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
