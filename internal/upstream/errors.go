package upstream

import (
	"errors"
	"fmt"
)

// Category normalizes backend failures so callers can decide between
// degrading, rejecting and surfacing an error without parsing messages.
type Category string

const (
	// CategoryTimeout means the call exceeded its deadline.
	CategoryTimeout Category = "timeout"
	// CategoryOutage means the backend could not be reached or answered 502/503/504.
	CategoryOutage Category = "outage"
	// CategoryAuthentication means the backend refused the forwarded credential.
	CategoryAuthentication Category = "authentication"
	// CategoryRejected means the backend answered with a structured business error.
	CategoryRejected Category = "rejected"
	// CategoryNotFound means the backend has no such record.
	CategoryNotFound Category = "not_found"
	// CategoryRateLimited means the backend throttled the caller.
	CategoryRateLimited Category = "rate_limited"
	// CategoryBadData means the backend answered with a body we could not decode.
	CategoryBadData Category = "bad_data"
	// CategoryCanceled means the caller gave up before the backend answered.
	CategoryCanceled Category = "canceled"
	// CategoryInternal covers everything else, including backend 500s.
	CategoryInternal Category = "internal"
)

// Error is a classified backend failure.
type Error struct {
	Category Category
	Backend  string
	Message  string
	// Status is the HTTP status when the backend answered, zero otherwise.
	Status int
	// Reason is the backend-provided explanation for rejections.
	Reason     string
	Underlying error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s [%s]: %s", e.Backend, e.Category, e.Message)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Underlying }

// TransportFailure reports whether this failure should switch the pipeline
// to demo mode: the backend was unreachable, too slow, or refused our credential.
func (e *Error) TransportFailure() bool {
	switch e.Category {
	case CategoryTimeout, CategoryOutage, CategoryAuthentication:
		return true
	default:
		return false
	}
}

// Timeout reports whether the deadline expired.
func (e *Error) Timeout() bool { return e.Category == CategoryTimeout }

// NewError builds a classified error.
func NewError(category Category, backend, message string, underlying error) *Error {
	return &Error{Category: category, Backend: backend, Message: message, Underlying: underlying}
}

// CategoryOf extracts the category, or CategoryInternal for unclassified errors.
func CategoryOf(err error) Category {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return CategoryInternal
}

// ReasonOf returns the backend-provided reason of a rejection, if any.
func ReasonOf(err error) string {
	var ue *Error
	if errors.As(err, &ue) {
		if ue.Reason != "" {
			return ue.Reason
		}
		return ue.Message
	}
	return ""
}
