package circuit

import (
	"context"
	"errors"
	"fmt"
	"net"

	dErrors "lexchain/pkg/domain-errors"
)

// transportFailure is implemented by upstream errors that know whether they
// represent a connectivity or credential failure.
type transportFailure interface {
	TransportFailure() bool
}

// IsTransportFailure reports whether err means the backend could not be
// reached or refused the credential: timeouts, connection errors and
// authentication failures. Caller cancellation is not a transport failure.
func IsTransportFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var tf transportFailure
	if errors.As(err, &tf) {
		return tf.TransportFailure()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return dErrors.HasCode(err, dErrors.CodeTransport) || dErrors.HasCode(err, dErrors.CodeTimeout)
}

// Read runs a read-side backend call under the operating mode.
//
// In Demo the call is skipped and fallback is returned. In Live a transport
// failure degrades the controller and also yields fallback; any other error
// is returned to the caller unchanged.
func Read[T any](ctx context.Context, c *Controller, op string, call func(context.Context) (T, error), fallback func() T) (T, error) {
	if c.IsDemo() {
		return fallback(), nil
	}
	v, err := call(ctx)
	if err == nil {
		return v, nil
	}
	if IsTransportFailure(err) {
		c.Degrade(fmt.Sprintf("%s: %v", op, err))
		return fallback(), nil
	}
	var zero T
	return zero, err
}

// Write runs a write-side backend call under the operating mode.
//
// In Demo the call is refused with CodeUnavailable and nothing is sent. In
// Live a transport failure degrades the controller and is returned as
// CodeTransport. Writes are never retried.
func Write[T any](ctx context.Context, c *Controller, op string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	if c.IsDemo() {
		return zero, dErrors.New(dErrors.CodeUnavailable, op+" is unavailable in demo mode")
	}
	v, err := call(ctx)
	if err == nil {
		return v, nil
	}
	if IsTransportFailure(err) {
		c.Degrade(fmt.Sprintf("%s: %v", op, err))
		return zero, &dErrors.Error{Code: dErrors.CodeTransport, Message: op + " failed: backend unreachable", Err: err}
	}
	return zero, err
}
