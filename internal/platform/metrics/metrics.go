package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lexchain/pkg/platform/circuit"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	EndpointLatency *prometheus.HistogramVec

	// Mode and health
	HealthProbes    *prometheus.CounterVec
	ProbeLatency    prometheus.Histogram
	ModeTransitions *prometheus.CounterVec
	OperatingMode   prometheus.Gauge

	// Integrity proofs
	ProofOperations   *prometheus.CounterVec
	ProofCacheLookups *prometheus.CounterVec

	// Risk
	Verdicts *prometheus.CounterVec
}

// New registers every metric with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lexchain_endpoint_latency_seconds",
			Help:    "Latency of HTTP endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		HealthProbes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexchain_health_probes_total",
			Help: "Ledger health probes by result (reachable, unreachable)",
		}, []string{"result"}),
		ProbeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexchain_health_probe_latency_seconds",
			Help:    "Round-trip time of ledger health probes",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		ModeTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexchain_mode_transitions_total",
			Help: "Operating mode transitions by target mode",
		}, []string{"to"}),
		OperatingMode: f.NewGauge(prometheus.GaugeOpts{
			Name: "lexchain_operating_mode",
			Help: "Current operating mode (0 = live, 1 = demo)",
		}),
		ProofOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexchain_proof_operations_total",
			Help: "Integrity proof operations by operation and outcome",
		}, []string{"op", "outcome"}),
		ProofCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexchain_proof_cache_lookups_total",
			Help: "Proof cache lookups by result (hit, miss)",
		}, []string{"result"}),
		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexchain_risk_verdicts_total",
			Help: "Risk verdicts produced, by verdict and whether the report was synthetic",
		}, []string{"verdict", "synthetic"}),
	}
}

func (m *Metrics) ObserveEndpointLatency(route, method string, status int, seconds float64) {
	m.EndpointLatency.WithLabelValues(route, method, strconv.Itoa(status)).Observe(seconds)
}

func (m *Metrics) RecordProbe(reachable bool, seconds float64) {
	result := "unreachable"
	if reachable {
		result = "reachable"
	}
	m.HealthProbes.WithLabelValues(result).Inc()
	m.ProbeLatency.Observe(seconds)
}

// ModeObserver keeps the mode metrics in step with the controller.
func (m *Metrics) ModeObserver() circuit.Observer {
	return func(t circuit.Transition) {
		m.ModeTransitions.WithLabelValues(t.To.String()).Inc()
		m.SetMode(t.To)
	}
}

func (m *Metrics) SetMode(mode circuit.Mode) {
	if mode == circuit.Demo {
		m.OperatingMode.Set(1)
		return
	}
	m.OperatingMode.Set(0)
}

func (m *Metrics) RecordProofOperation(op, outcome string) {
	m.ProofOperations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.ProofCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.ProofCacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) RecordVerdict(verdict string, synthetic bool) {
	m.Verdicts.WithLabelValues(verdict, strconv.FormatBool(synthetic)).Inc()
}
