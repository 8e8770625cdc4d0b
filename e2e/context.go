package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"

	integrityhandler "lexchain/internal/integrity/handler"
	"lexchain/internal/pipeline"
	"lexchain/internal/platform/config"
	"lexchain/internal/platform/health"
	riskhandler "lexchain/internal/risk/handler"
	httptransport "lexchain/internal/transport/http"
	"lexchain/mocks/backend"
)

// TestContext holds state between test steps. Every scenario gets its own
// mock backend and pipeline, served in-process.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte
	Bearer           string

	Backend  *backend.Server
	Pipeline *pipeline.Pipeline

	backendServer *httptest.Server
	appServer     *httptest.Server
}

// NewTestContext starts the mock backend and the pipeline's HTTP surface.
func NewTestContext() (*TestContext, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tc := &TestContext{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Backend:    backend.NewServer(logger),
	}
	tc.backendServer = httptest.NewServer(tc.Backend.Handler())

	cfg := config.Default()
	cfg.Server.Environment = "e2e"
	cfg.Server.AllowModeOverride = true
	cfg.Ledger = config.Backend{URL: tc.backendServer.URL, Timeout: 2 * time.Second}
	cfg.RuleEngine = config.Backend{URL: tc.backendServer.URL, Timeout: 2 * time.Second}

	registry := prometheus.NewRegistry()
	p, err := pipeline.New(context.Background(), cfg, pipeline.Options{
		Logger:     logger,
		Registerer: registry,
	})
	if err != nil {
		tc.backendServer.Close()
		return nil, err
	}
	tc.Pipeline = p

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:            logger,
		Mode:              p.Mode,
		Latency:           p.Metrics,
		Gatherer:          registry,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		AllowModeOverride: cfg.Server.AllowModeOverride,
		Handlers: []httptransport.Registrar{
			health.NewHandler(cfg.Server.Environment, p.Mode),
			integrityhandler.New(p.Integrity, logger),
			riskhandler.New(p.Risk, logger),
		},
	})
	tc.appServer = httptest.NewServer(router)
	tc.BaseURL = tc.appServer.URL
	return tc, nil
}

// Close stops both servers.
func (tc *TestContext) Close() {
	tc.appServer.Close()
	tc.backendServer.Close()
	_ = tc.Pipeline.Close()
}

// SignIn sets the bearer sent on every request to a JWT whose subject names
// the principal. The pipeline forwards it without verifying it.
func (tc *TestContext) SignIn(subject string) error {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("e2e-auth-provider"))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	tc.Bearer = token
	return nil
}

// SignOut drops the bearer.
func (tc *TestContext) SignOut() {
	tc.Bearer = ""
}

// SetBackendDown takes the mock ledger and rule engine offline or back online.
func (tc *TestContext) SetBackendDown(down bool) {
	tc.Backend.SetDown(down)
}

// ProbeLedger runs one health probe, as the background monitor would.
func (tc *TestContext) ProbeLedger() bool {
	return tc.Pipeline.Monitor.Probe(context.Background()).Reachable
}

// LedgerProofs reports how many proofs the mock ledger holds.
func (tc *TestContext) LedgerProofs() int {
	return tc.Backend.Ledger.Len()
}

// POST makes a JSON POST request and stores the response
func (tc *TestContext) POST(path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return tc.do(http.MethodPost, path, "application/json", bytes.NewReader(data))
}

// POSTRaw sends body as-is with the given content type.
func (tc *TestContext) POSTRaw(path, contentType, body string) error {
	return tc.do(http.MethodPost, path, contentType, strings.NewReader(body))
}

// PUT makes a JSON PUT request and stores the response
func (tc *TestContext) PUT(path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return tc.do(http.MethodPut, path, "application/json", bytes.NewReader(data))
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, "", nil)
}

func (tc *TestContext) do(method, path, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tc.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+tc.Bearer)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField extracts a field from the JSON response. Dots descend
// into nested objects ("verdict.verdict").
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var data interface{}
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for _, part := range strings.Split(field, ".") {
		obj, ok := data.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %s: %q is not an object", field, part)
		}
		data, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
	}
	return data, nil
}

// ResponseContains checks if the response body contains a field or text
func (tc *TestContext) ResponseContains(text string) bool {
	if strings.Contains(string(tc.LastResponseBody), text) {
		return true
	}
	_, err := tc.GetResponseField(text)
	return err == nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}
