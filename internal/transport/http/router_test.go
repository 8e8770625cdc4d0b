package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	integrityhandler "lexchain/internal/integrity/handler"
	integritymocks "lexchain/internal/integrity/handler/mocks"
	"lexchain/internal/integrity/models"
	"lexchain/internal/platform/health"
	"lexchain/internal/platform/metrics"
	riskhandler "lexchain/internal/risk/handler"
	riskmocks "lexchain/internal/risk/handler/mocks"
	"lexchain/pkg/platform/circuit"
	"lexchain/pkg/requestcontext"
)

type RouterSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	integrity *integritymocks.MockIntegrityService
	risk      *riskmocks.MockRiskService
	mode      *circuit.Controller
	registry  *prometheus.Registry
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.integrity = integritymocks.NewMockIntegrityService(s.ctrl)
	s.risk = riskmocks.NewMockRiskService(s.ctrl)
	s.mode = circuit.NewController()
	s.registry = prometheus.NewRegistry()
}

func (s *RouterSuite) router(allowOverride bool) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(s.registry)
	s.mode.Observe(m.ModeObserver())
	return NewRouter(RouterConfig{
		Logger:            logger,
		Mode:              s.mode,
		Latency:           m,
		Gatherer:          s.registry,
		MaxBodyBytes:      1 << 10,
		AllowModeOverride: allowOverride,
		Handlers: []Registrar{
			health.NewHandler("test", s.mode),
			integrityhandler.New(s.integrity, logger),
			riskhandler.New(s.risk, logger),
		},
	})
}

func (s *RouterSuite) serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) TestBearerAndRequestIDReachTheService() {
	s.integrity.EXPECT().VerifyProof(gomock.Any(), "t").
		DoAndReturn(func(ctx context.Context, _ string) (*models.VerificationResult, error) {
			s.Equal("user-token", requestcontext.Bearer(ctx))
			s.Equal("req-123", requestcontext.RequestID(ctx))
			return &models.VerificationResult{}, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/integrity/proofs/verify", strings.NewReader(`{"text":"t"}`))
	req.Header.Set("Authorization", "Bearer user-token")
	req.Header.Set("X-Request-ID", "req-123")
	rec := s.serve(s.router(false), req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("req-123", rec.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestBodyLimit() {
	body := `{"text":"` + strings.Repeat("a", 2<<10) + `"}`
	rec := s.serve(s.router(false), httptest.NewRequest(http.MethodPost, "/risk/evaluate", strings.NewReader(body)))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "too large")
}

func (s *RouterSuite) TestReadinessReportsMode() {
	s.mode.Degrade("ledger unreachable")

	rec := s.serve(s.router(false), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"mode":"demo"`)
}

func (s *RouterSuite) TestGetMode() {
	rec := s.serve(s.router(false), httptest.NewRequest(http.MethodGet, "/mode", nil))

	s.Equal(http.StatusOK, rec.Code)
	var got ModeResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal("live", got.Mode)
	s.False(got.Demo)
}

func (s *RouterSuite) TestPutModeDisabledByDefault() {
	req := httptest.NewRequest(http.MethodPut, "/mode", strings.NewReader(`{"mode":"demo"}`))
	rec := s.serve(s.router(false), req)

	s.Equal(http.StatusMethodNotAllowed, rec.Code)
	s.False(s.mode.IsDemo())
}

func (s *RouterSuite) TestPutModeForcesDemo() {
	req := httptest.NewRequest(http.MethodPut, "/mode", strings.NewReader(`{"mode":"Demo","reason":"offline presentation"}`))
	rec := s.serve(s.router(true), req)

	s.Equal(http.StatusOK, rec.Code)
	s.True(s.mode.IsDemo())
	_, reason, _ := s.mode.Status()
	s.Equal("offline presentation", reason)
}

func (s *RouterSuite) TestPutModeRejectsUnknownMode() {
	req := httptest.NewRequest(http.MethodPut, "/mode", strings.NewReader(`{"mode":"half-open"}`))
	rec := s.serve(s.router(true), req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(s.mode.IsDemo())
}

func (s *RouterSuite) TestMetricsEndpoint() {
	h := s.router(false)
	s.serve(h, httptest.NewRequest(http.MethodGet, "/mode", nil))

	rec := s.serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "lexchain_endpoint_latency_seconds")
}
