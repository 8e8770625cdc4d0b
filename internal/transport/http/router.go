package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lexchain/pkg/platform/circuit"
	"lexchain/pkg/platform/middleware/auth"
	"lexchain/pkg/platform/middleware/request"
)

// Registrar mounts a group of routes. The health, integrity and risk handlers
// all implement it.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Logger  *slog.Logger
	Mode    *circuit.Controller
	Latency request.LatencyObserver
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer          prometheus.Gatherer
	MaxBodyBytes      int64
	AllowModeOverride bool
	Handlers          []Registrar
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Latency(cfg.Latency))
	if cfg.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(cfg.MaxBodyBytes))
	}
	r.Use(auth.BearerPassthrough)

	for _, h := range cfg.Handlers {
		h.Register(r)
	}

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	mode := &modeHandler{mode: cfg.Mode, logger: cfg.Logger}
	r.Get("/mode", mode.HandleGet)
	if cfg.AllowModeOverride {
		r.Put("/mode", mode.HandlePut)
	}

	return r
}
