package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	integrityhandler "lexchain/internal/integrity/handler"
	"lexchain/internal/pipeline"
	"lexchain/internal/platform/config"
	"lexchain/internal/platform/health"
	"lexchain/internal/platform/logger"
	riskhandler "lexchain/internal/risk/handler"
	"lexchain/internal/tracer"
	httptransport "lexchain/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	log.Info("initializing lexchain",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"ledger_url", cfg.Ledger.URL,
		"rule_engine_url", cfg.RuleEngine.URL,
		"start_in_demo", cfg.Server.StartInDemo,
	)

	p, err := pipeline.New(ctx, cfg, pipeline.Options{
		Logger:     log,
		Registerer: prometheus.DefaultRegisterer,
		Tracer:     tracer.NewOTel(otel.Tracer("lexchain")),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn("failed to close pipeline", "error", err)
		}
	}()

	healthHandler := health.NewHandler(cfg.Server.Environment, p.Mode)
	for name, check := range p.Checks() {
		healthHandler.RegisterCheck(name, check)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:            log,
		Mode:              p.Mode,
		Latency:           p.Metrics,
		Gatherer:          prometheus.DefaultGatherer,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		AllowModeOverride: cfg.Server.AllowModeOverride,
		Handlers: []httptransport.Registrar{
			healthHandler,
			integrityhandler.New(p.Integrity, log),
			riskhandler.New(p.Risk, log),
		},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	p.Start(gctx, g)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
