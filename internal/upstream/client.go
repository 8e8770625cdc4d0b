// Package upstream is the JSON-over-HTTP transport shared by the ledger and
// rule-engine clients. It attaches the forwarded bearer credential, bounds
// every call with a timeout and classifies failures into Category values.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"lexchain/internal/tracer"
	"lexchain/pkg/platform/middleware/auth"
	"lexchain/pkg/requestcontext"
)

// DefaultTimeout bounds a backend call when none is configured.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a backend response is read.
const maxResponseBytes = 4 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	// Name identifies the backend in errors, logs and spans ("ledger", "rule-engine").
	Name       string
	BaseURL    string
	Timeout    time.Duration
	Tokens     auth.TokenSource
	HTTPClient HTTPDoer
	Tracer     tracer.Tracer
}

// Client calls one backend.
type Client struct {
	name    string
	baseURL string
	timeout time.Duration
	tokens  auth.TokenSource
	http    HTTPDoer
	tracer  tracer.Tracer
}

// New builds a client, filling defaults for the timeout, HTTP client and tracer.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracer.NewNoop()
	}
	return &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		tokens:  cfg.Tokens,
		http:    cfg.HTTPClient,
		tracer:  cfg.Tracer,
	}
}

// Name returns the backend name.
func (c *Client) Name() string { return c.name }

// errorBody is the business error shape both backends answer with.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Do sends in as a JSON body (nil for none) and decodes a 2xx answer into out
// (nil to discard). Backend failures are returned as *Error; when no
// credential is available the token source's error is returned unchanged.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanUpstreamCall,
		tracer.String(tracer.AttrBackend, c.name),
		tracer.String(tracer.AttrPath, path),
	)
	defer func() {
		if err != nil {
			span.SetAttributes(tracer.String(tracer.AttrCategory, string(CategoryOf(err))))
		}
		span.End(err)
	}()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		payload, mErr := json.Marshal(in)
		if mErr != nil {
			return NewError(CategoryInternal, c.name, "failed to marshal request", mErr)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, body)
	if err != nil {
		return NewError(CategoryInternal, c.name, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if c.tokens != nil {
		token, tErr := c.tokens.Token(ctx)
		if tErr != nil {
			// A missing local credential says nothing about the backend.
			return tErr
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.classifyTransport(ctx, callCtx, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(tracer.Int(tracer.AttrStatus, resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.classifyTransport(ctx, callCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classifyStatus(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Category: CategoryBadData, Backend: c.name, Message: "failed to decode response", Status: resp.StatusCode, Underlying: err}
	}
	return nil
}

// Health calls GET /health and returns nil on any 2xx answer.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return NewError(CategoryInternal, c.name, "failed to create request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.classifyTransport(ctx, ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Category: CategoryOutage, Backend: c.name, Message: fmt.Sprintf("unhealthy status: %d", resp.StatusCode), Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) classifyTransport(parent, callCtx context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return NewError(CategoryCanceled, c.name, "request canceled by caller", err)
	}
	var netErr net.Error
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return NewError(CategoryTimeout, c.name, "request timed out", err)
	}
	return NewError(CategoryOutage, c.name, "backend unreachable", err)
}

func (c *Client) classifyStatus(status int, raw []byte) error {
	e := &Error{Backend: c.name, Status: status}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		e.Reason = firstNonEmpty(eb.Message, eb.Error)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Category, e.Message = CategoryAuthentication, fmt.Sprintf("credential refused: %d", status)
	case status == http.StatusNotFound:
		e.Category, e.Message = CategoryNotFound, "record not found"
	case status == http.StatusTooManyRequests:
		e.Category, e.Message = CategoryRateLimited, "rate limit exceeded"
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		e.Category, e.Message = CategoryOutage, fmt.Sprintf("backend unavailable: %d", status)
	case status >= 400 && status < 500:
		e.Category, e.Message = CategoryRejected, "request rejected"
	default:
		e.Category, e.Message = CategoryInternal, fmt.Sprintf("unexpected status: %d", status)
	}
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
