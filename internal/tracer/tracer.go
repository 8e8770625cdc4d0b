// Package tracer is the tracing seam used by the integrity and risk packages.
// Callers depend on the small Tracer interface; production wires the
// OpenTelemetry adapter and tests use NoopTracer.
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to a span.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

func Int(key string, value int) Attribute { return Attribute{Key: key, Value: int64(value)} }

func Float64(key string, value float64) Attribute { return Attribute{Key: key, Value: value} }

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// ShortFingerprint trims a fingerprint to a prefix that is enough to
// correlate spans and log lines without bloating them.
func ShortFingerprint(fp string) string {
	const n = 2 + 12 // "0x" + 6 bytes
	if len(fp) <= n {
		return fp
	}
	return fp[:n]
}

// Span names.
const (
	SpanProofStore   = "integrity.proof.store"
	SpanProofVerify  = "integrity.proof.verify"
	SpanProofHistory = "integrity.proof.history"
	SpanUpstreamCall = "upstream.call"
	SpanHealthProbe  = "health.probe"
	SpanRiskEvaluate = "risk.evaluate"
)

// Attribute keys.
const (
	AttrFingerprint = "proof.fingerprint"
	AttrMode        = "pipeline.mode"
	AttrCacheHit    = "cache.hit"
	AttrDegraded    = "result.degraded"
	AttrBackend     = "upstream.backend"
	AttrPath        = "upstream.path"
	AttrStatus      = "upstream.status"
	AttrCategory    = "upstream.error_category"
	AttrReachable   = "health.reachable"
	AttrSynthetic   = "risk.synthetic"
	AttrVerdict     = "risk.verdict"
)
