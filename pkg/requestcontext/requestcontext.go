// Package requestcontext carries per-request values (request id, caller bearer
// credential) through context.Context so upstream clients can forward them.
package requestcontext

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	bearerKey
)

// WithRequestID returns a copy of ctx carrying the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id stored in ctx, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithBearer stores the caller's opaque bearer credential.
// The value is forwarded upstream as-is and never inspected here.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// Bearer returns the caller's bearer credential, or "" when absent.
func Bearer(ctx context.Context) string {
	v, _ := ctx.Value(bearerKey).(string)
	return v
}
