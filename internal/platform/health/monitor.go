package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lexchain/internal/tracer"
	"lexchain/pkg/platform/circuit"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 2 * time.Second

// Prober checks whether the ledger answers. upstream.Client satisfies it.
type Prober interface {
	Health(ctx context.Context) error
}

// ProbeRecorder receives probe outcomes; *metrics.Metrics satisfies it.
type ProbeRecorder interface {
	RecordProbe(reachable bool, seconds float64)
}

// ProbeResult is the outcome of one probe.
type ProbeResult struct {
	Reachable bool
	Latency   time.Duration
}

// Monitor probes the ledger and flips the controller back to Live when it
// answers. It never sets Demo itself; consumers do that on failed calls.
type Monitor struct {
	prober   Prober
	ctrl     *circuit.Controller
	timeout  time.Duration
	logger   *slog.Logger
	tracer   tracer.Tracer
	recorder ProbeRecorder
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

func WithProbeTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithTracer(t tracer.Tracer) MonitorOption {
	return func(m *Monitor) {
		if t != nil {
			m.tracer = t
		}
	}
}

func WithRecorder(r ProbeRecorder) MonitorOption {
	return func(m *Monitor) { m.recorder = r }
}

// NewMonitor builds a monitor for prober that reports into ctrl.
func NewMonitor(prober Prober, ctrl *circuit.Controller, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		prober:  prober,
		ctrl:    ctrl,
		timeout: DefaultProbeTimeout,
		logger:  slog.Default(),
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Probe performs one bounded health check. Any failure, including a panic in
// the prober, is reported as unreachable; Probe itself never fails.
func (m *Monitor) Probe(ctx context.Context) (result ProbeResult) {
	ctx, span := m.tracer.Start(ctx, tracer.SpanHealthProbe)
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	var probeErr error
	defer func() {
		if rec := recover(); rec != nil {
			probeErr = fmt.Errorf("probe panicked: %v", rec)
			result = ProbeResult{Reachable: false, Latency: time.Since(start)}
		}
		span.SetAttributes(tracer.Bool(tracer.AttrReachable, result.Reachable))
		span.End(probeErr)
		if m.recorder != nil {
			m.recorder.RecordProbe(result.Reachable, result.Latency.Seconds())
		}
	}()

	probeErr = m.prober.Health(ctx)
	result = ProbeResult{Reachable: probeErr == nil, Latency: time.Since(start)}
	if result.Reachable {
		m.ctrl.Recover()
		return result
	}
	m.logger.DebugContext(ctx, "ledger health probe failed",
		"error", probeErr,
		"latency_ms", result.Latency.Milliseconds(),
		"mode", m.ctrl.Mode().String(),
	)
	return result
}

// Run probes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("health monitor interval must be positive, got %s", interval)
	}
	m.Probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}
