// Package pipeline assembles the verdict pipeline from configuration: one
// mode controller shared by the health monitor, the integrity proof client
// and the risk service. Both the server and the lexctl CLI build it here.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"lexchain/internal/integrity/extract"
	"lexchain/internal/integrity/ledger"
	integrityservice "lexchain/internal/integrity/service"
	"lexchain/internal/integrity/store"
	"lexchain/internal/platform/config"
	"lexchain/internal/platform/health"
	"lexchain/internal/platform/metrics"
	redisclient "lexchain/internal/platform/redis"
	"lexchain/internal/risk/engine"
	riskservice "lexchain/internal/risk/service"
	"lexchain/internal/tracer"
	"lexchain/internal/upstream"
	"lexchain/pkg/platform/circuit"
	"lexchain/pkg/platform/middleware/auth"
)

const poolStatsInterval = 15 * time.Second

// Options carries the collaborators that differ between the server and the CLI.
type Options struct {
	Logger *slog.Logger
	// Registerer receives every metric. A private registry is used when nil.
	Registerer prometheus.Registerer
	Tracer     tracer.Tracer
	// Tokens supplies the bearer forwarded to the backends.
	Tokens auth.TokenSource
}

type Pipeline struct {
	Config    config.Config
	Mode      *circuit.Controller
	Metrics   *metrics.Metrics
	Ledger    *upstream.Client
	Integrity *integrityservice.Service
	Risk      *riskservice.Service
	Monitor   *health.Monitor

	logger   *slog.Logger
	memCache *store.InMemoryCache
	redis    *redisclient.Client
}

// New wires the pipeline. It only fails when a configured Redis cannot be
// reached. With ProofCacheTTL <= 0 no cache is built and Redis is not dialed.
func New(ctx context.Context, cfg config.Config, opts Options) (*Pipeline, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracer.NewNoop()
	}
	if opts.Tokens == nil {
		opts.Tokens = auth.ContextTokenSource{Fallback: cfg.ServiceToken}
	}

	m := metrics.New(opts.Registerer)
	initial := circuit.Live
	if cfg.Server.StartInDemo {
		initial = circuit.Demo
	}
	mode := circuit.NewController(
		circuit.WithInitialMode(initial),
		circuit.WithObserver(logTransitions(opts.Logger)),
		circuit.WithObserver(m.ModeObserver()),
	)
	m.SetMode(initial)

	p := &Pipeline{Config: cfg, Mode: mode, Metrics: m, logger: opts.Logger}

	// A non-positive TTL disables the proof cache in both backends.
	var cache store.ProofCache
	if cfg.ProofCacheTTL > 0 {
		rc, err := redisclient.New(ctx, cfg.Redis, opts.Registerer)
		if err != nil {
			return nil, err
		}
		if rc != nil {
			p.redis = rc
			cache = store.NewRedisCache(rc, cfg.ProofCacheTTL, m)
		} else {
			p.memCache = store.NewInMemoryCache(cfg.ProofCacheTTL, m)
			cache = p.memCache
		}
	}

	p.Ledger = upstream.New(upstream.Config{
		Name:    "ledger",
		BaseURL: cfg.Ledger.URL,
		Timeout: cfg.Ledger.Timeout,
		Tokens:  opts.Tokens,
		Tracer:  opts.Tracer,
	})
	ruleEngine := upstream.New(upstream.Config{
		Name:    "rule-engine",
		BaseURL: cfg.RuleEngine.URL,
		Timeout: cfg.RuleEngine.Timeout,
		Tokens:  opts.Tokens,
		Tracer:  opts.Tracer,
	})

	p.Integrity = integrityservice.New(ledger.New(p.Ledger), mode,
		integrityservice.WithCache(cache),
		integrityservice.WithExtractor(extract.PlainText{MaxBytes: cfg.Server.MaxBodyBytes}),
		integrityservice.WithLogger(opts.Logger),
		integrityservice.WithTracer(opts.Tracer),
		integrityservice.WithRecorder(m),
	)
	p.Risk = riskservice.New(engine.New(ruleEngine), mode,
		riskservice.WithLogger(opts.Logger),
		riskservice.WithTracer(opts.Tracer),
		riskservice.WithRecorder(m),
	)
	p.Monitor = health.NewMonitor(p.Ledger, mode,
		health.WithProbeTimeout(cfg.Health.ProbeTimeout),
		health.WithLogger(opts.Logger),
		health.WithTracer(opts.Tracer),
		health.WithRecorder(m),
	)
	return p, nil
}

// Checks returns the local readiness checks to register on the health handler.
func (p *Pipeline) Checks() map[string]health.CheckFunc {
	checks := map[string]health.CheckFunc{}
	if p.redis != nil {
		checks["redis"] = p.redis.Health
	}
	return checks
}

// Start launches the background loops on g: the health monitor, and either
// the in-memory cache sweeper or the Redis pool statistics.
func (p *Pipeline) Start(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		return p.Monitor.Run(ctx, p.Config.Health.ProbeInterval)
	})
	if p.memCache != nil {
		g.Go(func() error {
			return p.memCache.RunSweeper(ctx, p.Config.ProofCacheTTL)
		})
	}
	if p.redis != nil {
		g.Go(func() error {
			return p.redis.RunPoolStats(ctx, poolStatsInterval)
		})
	}
}

// Close releases the Redis connection, if any.
func (p *Pipeline) Close() error {
	if p.redis != nil {
		return p.redis.Close()
	}
	return nil
}

func logTransitions(logger *slog.Logger) circuit.Observer {
	return func(t circuit.Transition) {
		attrs := []any{
			"from", t.From.String(),
			"to", t.To.String(),
			"reason", t.Reason,
		}
		if t.To == circuit.Demo {
			logger.Warn("operating mode changed", attrs...)
			return
		}
		logger.Info("operating mode changed", attrs...)
	}
}
