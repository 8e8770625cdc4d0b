package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks RiskService

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lexchain/internal/risk/handler/mocks"
	"lexchain/internal/risk/models"
	dErrors "lexchain/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockRiskService
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockRiskService(s.ctrl)
	h := New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestClassifyDecodesRuleEngineShape() {
	s.mockService.EXPECT().Classify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, report models.RuleEngineReport) models.RiskVerdict {
			s.InDelta(90, report.OverallScore, 1e-9)
			s.Require().NotNil(report.Recommendation)
			s.Equal("PROCEED WITH CAUTION", report.Recommendation.Verdict)
			s.Require().Len(report.Layers, 1)
			s.Equal("Medium", report.Layers[0].Flags[0].Severity)
			return models.RiskVerdict{
				Score:     90,
				RiskLevel: models.RiskSafe,
				Verdict:   models.VerdictProceedWithCaution,
				Clauses:   []models.NormalizedClause{},
			}
		})

	rec := s.post("/risk/classify", `{
		"score": 90,
		"recommendation": {"verdict": "PROCEED WITH CAUTION"},
		"layer_results": [{"layer_name": "Termination", "flags": [{"clause_id": "2", "title": "Short Notice Period", "risk": "Medium"}]}]
	}`)

	s.Equal(http.StatusOK, rec.Code)
	var got models.RiskVerdict
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(models.VerdictProceedWithCaution, got.Verdict)
	s.Equal(models.RiskSafe, got.RiskLevel)
}

func (s *HandlerSuite) TestClassifyMalformedJSON() {
	rec := s.post("/risk/classify", `{"score":`)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestEvaluate() {
	s.mockService.EXPECT().Evaluate(gomock.Any(), "contract text").
		Return(&models.Evaluation{
			Verdict:   models.RiskVerdict{Score: 72, Verdict: models.VerdictSafeToProceed, Clauses: []models.NormalizedClause{}},
			Synthetic: true,
		}, nil)

	rec := s.post("/risk/evaluate", `{"text":"contract text"}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"synthetic":true`)
}

func (s *HandlerSuite) TestEvaluateEmptyTextNeverReachesService() {
	rec := s.post("/risk/evaluate", `{"text":"   "}`)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestEvaluateRejectedIs422() {
	s.mockService.EXPECT().Evaluate(gomock.Any(), "x").
		Return(nil, dErrors.New(dErrors.CodeRejected, "rule engine rejected the contract: unsupported language"))

	rec := s.post("/risk/evaluate", `{"text":"x"}`)

	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(rec.Body.String(), "unsupported language")
}
