package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"lexchain/internal/risk/models"
	"lexchain/internal/upstream"
	dErrors "lexchain/pkg/domain-errors"
	"lexchain/pkg/platform/circuit"
)

type stubEngine struct {
	mu     sync.Mutex
	calls  int
	report *models.RuleEngineReport
	err    error
}

func (e *stubEngine) Evaluate(context.Context, string) (*models.RuleEngineReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.report, nil
}

func (e *stubEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type verdictCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *verdictCounter) RecordVerdict(verdict string, synthetic bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := verdict
	if synthetic {
		key += ":synthetic"
	}
	c.counts[key]++
}

type ServiceSuite struct {
	suite.Suite
	engine   *stubEngine
	mode     *circuit.Controller
	recorder *verdictCounter
	svc      *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.engine = &stubEngine{report: &models.RuleEngineReport{
		OverallScore: 35,
		Layers: []models.Layer{{Name: "Employment", Flags: []models.Flag{
			{ID: "4", Title: "Post-Employment Non-Compete", Severity: "High"},
		}}},
		Recommendation: &models.Recommendation{Verdict: "DO_NOT_SIGN", Reason: "Void under Section 27 (Non-Compete/Bond detected)."},
	}}
	s.mode = circuit.NewController()
	s.recorder = &verdictCounter{counts: map[string]int{}}
	s.svc = New(s.engine, s.mode,
		WithRecorder(s.recorder),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *ServiceSuite) TestEvaluateLive() {
	eval, err := s.svc.Evaluate(context.Background(), "The employee shall not compete after termination.")

	s.Require().NoError(err)
	s.False(eval.Synthetic)
	s.Equal(models.VerdictDoNotSign, eval.Verdict.Verdict)
	s.Equal(models.RiskHigh, eval.Verdict.RiskLevel)
	s.Equal("Void under Section 27 (Non-Compete/Bond detected).", eval.Verdict.Reason)
	s.Require().Len(eval.Verdict.Clauses, 1)
	s.Equal("(Clause ID: 4) - Text unavailable.", eval.Verdict.Clauses[0].OriginalText)
	s.Equal(1, s.recorder.counts["DO_NOT_SIGN"])
}

func (s *ServiceSuite) TestEvaluateEmptyText() {
	_, err := s.svc.Evaluate(context.Background(), "  \n")

	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Zero(s.engine.callCount())
}

func (s *ServiceSuite) TestEvaluateInDemoUsesSampleWithoutCalling() {
	s.mode.ForceMode(circuit.Demo, "test")

	eval, err := s.svc.Evaluate(context.Background(), "anything")

	s.Require().NoError(err)
	s.Zero(s.engine.callCount())
	s.True(eval.Synthetic)
	s.Equal(72, eval.Verdict.Score)
	s.Equal(models.RiskSafe, eval.Verdict.RiskLevel)
	s.Equal(models.VerdictSafeToProceed, eval.Verdict.Verdict)
	s.Equal("India", eval.Verdict.Jurisdiction)
	s.Require().Len(eval.Verdict.Clauses, 2)
	s.Equal("c1", eval.Verdict.Clauses[0].ID)
	s.Equal(models.TierHigh, eval.Verdict.Clauses[0].SeverityTier)
	s.Equal(1, s.recorder.counts["SAFE_TO_PROCEED:synthetic"])
}

func (s *ServiceSuite) TestEvaluateTransportFailureDegrades() {
	s.engine.err = upstream.NewError(upstream.CategoryTimeout, "rule-engine", "request timed out", context.DeadlineExceeded)

	eval, err := s.svc.Evaluate(context.Background(), "anything")

	s.Require().NoError(err)
	s.True(eval.Synthetic)
	s.True(s.mode.IsDemo())

	_, err = s.svc.Evaluate(context.Background(), "again")
	s.Require().NoError(err)
	s.Equal(1, s.engine.callCount(), "demo mode short-circuits the second call")
}

func (s *ServiceSuite) TestEvaluateRejected() {
	s.engine.err = &upstream.Error{
		Category: upstream.CategoryRejected,
		Backend:  "rule-engine",
		Message:  "request rejected",
		Status:   400,
		Reason:   "Contract text cannot be empty",
	}

	_, err := s.svc.Evaluate(context.Background(), "x")

	s.True(dErrors.HasCode(err, dErrors.CodeRejected))
	s.Contains(err.Error(), "Contract text cannot be empty")
	s.False(s.mode.IsDemo())
}

func (s *ServiceSuite) TestEvaluateBadDataIsInternal() {
	s.engine.err = upstream.NewError(upstream.CategoryBadData, "rule-engine", "failed to decode response", errors.New("eof"))

	_, err := s.svc.Evaluate(context.Background(), "x")

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.False(s.mode.IsDemo())
}

func (s *ServiceSuite) TestEvaluateCanceledPassesThrough() {
	s.engine.err = upstream.NewError(upstream.CategoryCanceled, "rule-engine", "request canceled by caller", context.Canceled)

	_, err := s.svc.Evaluate(context.Background(), "x")

	s.ErrorIs(err, context.Canceled)
	s.False(s.mode.IsDemo())
}

func (s *ServiceSuite) TestClassifyWorksInDemo() {
	s.mode.ForceMode(circuit.Demo, "test")

	got := s.svc.Classify(context.Background(), models.RuleEngineReport{OverallScore: 85})

	s.Equal(models.VerdictSafeToProceed, got.Verdict)
	s.Zero(s.engine.callCount())
	s.Equal(1, s.recorder.counts["SAFE_TO_PROCEED"])
}

func (s *ServiceSuite) TestSampleReportIsFresh() {
	a := SampleReport()
	a.Layers[0].Flags[0].Title = "changed"
	*a.Layers[1].Flags[0].OriginalText = "changed"

	b := SampleReport()
	s.Equal("Unlimited Liability", b.Layers[0].Flags[0].Title)
	s.Equal("Client may terminate this agreement...", *b.Layers[1].Flags[0].OriginalText)
}
