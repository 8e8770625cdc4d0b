// Package backend is a mock of the two services the verdict pipeline depends
// on: the integrity ledger and the rule engine. It is used for local
// development and by the end-to-end suite, which can take it offline to
// exercise demo mode.
package backend

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server routes ledger and rule-engine endpoints. Both live on one listener.
type Server struct {
	Ledger *Ledger

	down    atomic.Bool
	latency atomic.Int64
	logger  *slog.Logger
}

func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Ledger: NewLedger(), logger: logger}
}

// SetDown makes every endpoint, /health included, answer 503.
func (s *Server) SetDown(down bool) {
	s.down.Store(down)
}

// SetLatency delays every answer by d.
func (s *Server) SetLatency(d time.Duration) {
	s.latency.Store(int64(d))
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.simulate)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "lexchain-mock-backend",
		})
	})
	r.Post("/proof", s.Ledger.handleStore)
	r.Post("/proof:verify", s.Ledger.handleVerify)
	r.Get("/proof/history", s.Ledger.handleHistory)
	r.Post("/evaluate", handleEvaluate)
	return r
}

func (s *Server) simulate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d := time.Duration(s.latency.Load()); d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		if s.down.Load() {
			sendError(w, http.StatusServiceUnavailable, "backend offline")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("mock backend request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func sendError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Error: http.StatusText(code), Message: message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
