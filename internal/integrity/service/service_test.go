package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lexchain/internal/integrity/fingerprint"
	"lexchain/internal/integrity/models"
	"lexchain/internal/integrity/store"
	"lexchain/internal/upstream"
	dErrors "lexchain/pkg/domain-errors"
	"lexchain/pkg/platform/circuit"
	"lexchain/pkg/requestcontext"
)

// stubLedger counts calls so tests can assert that Demo mode performs no I/O.
type stubLedger struct {
	mu       sync.Mutex
	calls    int
	proofs   map[fingerprint.Fingerprint]*models.IntegrityProof
	history  []models.ProofHistoryEntry
	storeErr error
	readErr  error
}

func newStubLedger() *stubLedger {
	return &stubLedger{proofs: make(map[fingerprint.Fingerprint]*models.IntegrityProof)}
}

func (l *stubLedger) Store(_ context.Context, fp fingerprint.Fingerprint, filename string) (*models.IntegrityProof, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.storeErr != nil {
		return nil, l.storeErr
	}
	p := &models.IntegrityProof{
		Fingerprint:    fp,
		TransactionRef: "0xtx" + string(fp[2:8]),
		SubmittedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Network:        "Polygon Amoy",
		Filename:       filename,
	}
	l.proofs[fp] = p
	return p, nil
}

func (l *stubLedger) Verify(_ context.Context, fp fingerprint.Fingerprint) (*models.IntegrityProof, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.readErr != nil {
		return nil, l.readErr
	}
	return l.proofs[fp], nil
}

func (l *stubLedger) History(context.Context) ([]models.ProofHistoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.readErr != nil {
		return nil, l.readErr
	}
	return append([]models.ProofHistoryEntry(nil), l.history...), nil
}

func (l *stubLedger) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type opCounter struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (c *opCounter) RecordProofOperation(op, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[op+":"+outcome]++
}

type ServiceSuite struct {
	suite.Suite
	ledger   *stubLedger
	mode     *circuit.Controller
	cache    *store.InMemoryCache
	recorder *opCounter
	svc      *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ledger = newStubLedger()
	s.mode = circuit.NewController()
	s.cache = store.NewInMemoryCache(time.Minute, nil)
	s.recorder = &opCounter{outcomes: map[string]int{}}
	s.svc = New(s.ledger, s.mode,
		WithCache(s.cache),
		WithRecorder(s.recorder),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.ctx = requestcontext.WithBearer(context.Background(), "user-1")
}

func transportErr() error {
	return upstream.NewError(upstream.CategoryTimeout, "ledger", "request timed out", context.DeadlineExceeded)
}

func (s *ServiceSuite) TestStoreThenVerifyRoundTrip() {
	proof, err := s.svc.StoreProof(s.ctx, "Clause 1. Payment within 30 days.", "msa.txt")
	s.Require().NoError(err)
	s.Equal(fingerprint.Of("Clause 1. Payment within 30 days."), proof.Fingerprint)

	result, err := s.svc.VerifyProof(s.ctx, "Clause 1. Payment within 30 days.")
	s.Require().NoError(err)
	s.True(result.Exists)
	s.False(result.Degraded)
	s.Equal(proof.TransactionRef, result.MatchedProof.TransactionRef)
	s.Equal(1, s.ledger.callCount(), "verify after store is served from cache")
}

func (s *ServiceSuite) TestVerifyUnknownDocumentIsNegativeValue() {
	result, err := s.svc.VerifyProof(s.ctx, "never stored")

	s.Require().NoError(err)
	s.False(result.Exists)
	s.False(result.Degraded)
	s.Equal(models.MessageNoMatch, result.Message)
	s.Equal(fingerprint.Of("never stored"), result.Fingerprint)
}

func (s *ServiceSuite) TestEmptyTextIsInvalidInput() {
	_, err := s.svc.StoreProof(s.ctx, "", "x.txt")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.svc.VerifyProof(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Zero(s.ledger.callCount())
}

func (s *ServiceSuite) TestDemoModePerformsNoNetworkIO() {
	s.mode.ForceMode(circuit.Demo, "test")

	_, err := s.svc.StoreProof(s.ctx, "text", "a.txt")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	result, err := s.svc.VerifyProof(s.ctx, "text")
	s.Require().NoError(err)
	s.False(result.Exists)
	s.True(result.Degraded)

	history, err := s.svc.ListHistory(s.ctx)
	s.Require().NoError(err)
	s.Empty(history)
	s.NotNil(history)

	s.Zero(s.ledger.callCount())
	s.Equal(1, s.recorder.outcomes["store:unavailable"])
}

func (s *ServiceSuite) TestDemoModeSkipsCache() {
	_, err := s.svc.StoreProof(s.ctx, "cached", "")
	s.Require().NoError(err)
	s.mode.ForceMode(circuit.Demo, "test")

	result, err := s.svc.VerifyProof(s.ctx, "cached")

	s.Require().NoError(err)
	s.False(result.Exists)
	s.True(result.Degraded)
}

func (s *ServiceSuite) TestVerifyTransportFailureDegrades() {
	s.ledger.readErr = transportErr()

	result, err := s.svc.VerifyProof(s.ctx, "text")

	s.Require().NoError(err)
	s.False(result.Exists)
	s.True(result.Degraded)
	s.True(s.mode.IsDemo())
}

func (s *ServiceSuite) TestVerifyUnexpectedFailureIsVerificationError() {
	s.ledger.readErr = upstream.NewError(upstream.CategoryBadData, "ledger", "failed to decode response", errors.New("eof"))

	_, err := s.svc.VerifyProof(s.ctx, "text")

	s.True(dErrors.HasCode(err, dErrors.CodeVerification))
	s.False(s.mode.IsDemo())
}

func (s *ServiceSuite) TestVerifyWithoutCredentialIsUnauthorized() {
	s.ledger.readErr = dErrors.New(dErrors.CodeUnauthorized, "no bearer token available")

	_, err := s.svc.VerifyProof(s.ctx, "text")

	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.False(s.mode.IsDemo())
}

func (s *ServiceSuite) TestStoreTransportFailurePropagatesAndDegrades() {
	s.ledger.storeErr = transportErr()

	_, err := s.svc.StoreProof(s.ctx, "text", "a.txt")

	s.True(dErrors.HasCode(err, dErrors.CodeTransport))
	s.True(s.mode.IsDemo())
	s.Equal(1, s.ledger.callCount(), "writes are not retried")
}

func (s *ServiceSuite) TestStoreRejectedCarriesReason() {
	s.ledger.storeErr = &upstream.Error{
		Category: upstream.CategoryRejected, Backend: "ledger", Message: "request rejected",
		Status: 422, Reason: "Daily quota exceeded",
	}

	_, err := s.svc.StoreProof(s.ctx, "text", "a.txt")

	s.True(dErrors.HasCode(err, dErrors.CodeRejected))
	s.Contains(err.Error(), "Daily quota exceeded")
	s.False(s.mode.IsDemo())
}

func (s *ServiceSuite) TestHistorySortedNewestFirstWithStableTies() {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.ledger.history = []models.ProofHistoryEntry{
		{Fingerprint: "0xbb", SubmittedAt: t0},
		{Fingerprint: "0xcc", SubmittedAt: t0.Add(2 * time.Hour)},
		{Fingerprint: "0xaa", SubmittedAt: t0},
		{Fingerprint: "0xdd", SubmittedAt: t0.Add(time.Hour)},
	}

	history, err := s.svc.ListHistory(s.ctx)

	s.Require().NoError(err)
	var got []fingerprint.Fingerprint
	for _, h := range history {
		got = append(got, h.Fingerprint)
	}
	s.Equal([]fingerprint.Fingerprint{"0xcc", "0xdd", "0xaa", "0xbb"}, got)
}

func (s *ServiceSuite) TestHistoryNeverFails() {
	s.ledger.readErr = upstream.NewError(upstream.CategoryInternal, "ledger", "unexpected status: 500", nil)

	history, err := s.svc.ListHistory(s.ctx)

	s.Require().NoError(err)
	s.Empty(history)
	s.False(s.mode.IsDemo(), "a 500 is not a connectivity failure")
}

func (s *ServiceSuite) TestHistoryTransportFailureDegrades() {
	s.ledger.readErr = transportErr()

	history, err := s.svc.ListHistory(s.ctx)

	s.Require().NoError(err)
	s.Empty(history)
	s.True(s.mode.IsDemo())
}

func (s *ServiceSuite) TestVerifyFileMatchesStoredText() {
	_, err := s.svc.StoreProof(s.ctx, "Clause 1.\nClause 2.", "nda.txt")
	s.Require().NoError(err)

	result, err := s.svc.VerifyFile(s.ctx, strings.NewReader("\uFEFFClause 1.\r\nClause 2.\r\n"), "nda-resaved.txt")

	s.Require().NoError(err)
	s.True(result.Exists)
	s.Equal("nda-resaved.txt", result.Filename)
}

func (s *ServiceSuite) TestVerifyFileRejectsBinary() {
	_, err := s.svc.VerifyFile(s.ctx, strings.NewReader("%PDF-1.4"), "scan.pdf")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestConcurrentVerificationsAreIndependent() {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.svc.VerifyProof(s.ctx, "same document")
		}()
	}
	wg.Wait()
	s.Equal(20, s.ledger.callCount(), "identical fingerprints are not deduplicated")
}
