// Package service is the integrity proof client: it fingerprints documents,
// submits and verifies proofs against the ledger, and applies the operating
// mode so that reads degrade to safe defaults while writes fail loudly.
package service

import (
	"cmp"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"lexchain/internal/integrity/extract"
	"lexchain/internal/integrity/fingerprint"
	"lexchain/internal/integrity/models"
	"lexchain/internal/integrity/store"
	"lexchain/internal/tracer"
	"lexchain/internal/upstream"
	dErrors "lexchain/pkg/domain-errors"
	"lexchain/pkg/platform/circuit"
	"lexchain/pkg/requestcontext"
)

// Ledger is the append-only proof store. *ledger.Client satisfies it.
type Ledger interface {
	Store(ctx context.Context, fp fingerprint.Fingerprint, filename string) (*models.IntegrityProof, error)
	// Verify returns (nil, nil) when no proof exists.
	Verify(ctx context.Context, fp fingerprint.Fingerprint) (*models.IntegrityProof, error)
	History(ctx context.Context) ([]models.ProofHistoryEntry, error)
}

// OperationRecorder counts operation outcomes; *metrics.Metrics satisfies it.
type OperationRecorder interface {
	RecordProofOperation(op, outcome string)
}

// Service coordinates fingerprinting, the proof cache and the ledger.
type Service struct {
	ledger    Ledger
	mode      *circuit.Controller
	cache     store.ProofCache
	extractor extract.Extractor
	logger    *slog.Logger
	tracer    tracer.Tracer
	recorder  OperationRecorder
}

// Option configures the Service.
type Option func(*Service)

func WithCache(c store.ProofCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithExtractor(e extract.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithRecorder(r OperationRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// New creates the integrity service. mode is shared with every other consumer.
func New(ledger Ledger, mode *circuit.Controller, opts ...Option) *Service {
	s := &Service{
		ledger:    ledger,
		mode:      mode,
		extractor: extract.PlainText{},
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreProof submits the fingerprint of text to the ledger. It is refused in
// Demo mode and never retried; every failure reaches the caller.
func (s *Service) StoreProof(ctx context.Context, text, filename string) (proof *models.IntegrityProof, err error) {
	if text == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "text cannot be empty")
	}
	fp := fingerprint.Of(text)
	ctx, span := s.tracer.Start(ctx, tracer.SpanProofStore,
		tracer.String(tracer.AttrFingerprint, fp.Short()),
		tracer.String(tracer.AttrMode, s.mode.Mode().String()),
	)
	defer func() {
		s.record("store", err)
		span.End(err)
	}()

	proof, err = circuit.Write(ctx, s.mode, "store proof", func(ctx context.Context) (*models.IntegrityProof, error) {
		return s.ledger.Store(ctx, fp, filename)
	})
	if err != nil {
		err = translateWriteError(err)
		s.logger.WarnContext(ctx, "store proof failed",
			"fingerprint", fp.Short(),
			"error", err,
			"mode", s.mode.Mode().String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	s.saveCache(ctx, fp, proof)
	s.logger.InfoContext(ctx, "proof stored",
		"fingerprint", fp.Short(),
		"transaction_ref", proof.TransactionRef,
		"request_id", requestcontext.RequestID(ctx),
	)
	return proof, nil
}

// VerifyProof reports whether a proof exists for text. Absence is a value.
// In Demo mode, or when the ledger is unreachable, it returns a degraded
// negative result instead of failing.
func (s *Service) VerifyProof(ctx context.Context, text string) (result *models.VerificationResult, err error) {
	if text == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "text cannot be empty")
	}
	fp := fingerprint.Of(text)
	ctx, span := s.tracer.Start(ctx, tracer.SpanProofVerify,
		tracer.String(tracer.AttrFingerprint, fp.Short()),
	)
	defer func() {
		if result != nil {
			span.SetAttributes(tracer.Bool(tracer.AttrDegraded, result.Degraded))
		}
		s.record("verify", err)
		span.End(err)
	}()

	if !s.mode.IsDemo() {
		if cached := s.findCache(ctx, fp); cached != nil {
			span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
			return matched(fp, cached), nil
		}
	}

	result, err = circuit.Read(ctx, s.mode, "verify proof",
		func(ctx context.Context) (*models.VerificationResult, error) {
			proof, err := s.ledger.Verify(ctx, fp)
			if err != nil {
				return nil, err
			}
			if proof == nil {
				return &models.VerificationResult{Fingerprint: fp, Message: models.MessageNoMatch}, nil
			}
			s.saveCache(ctx, fp, proof)
			return matched(fp, proof), nil
		},
		func() *models.VerificationResult {
			return &models.VerificationResult{Fingerprint: fp, Message: models.MessageVerifyOffline, Degraded: true}
		},
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "verify proof failed",
			"fingerprint", fp.Short(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		var de *dErrors.Error
		if errors.As(err, &de) || errors.Is(err, context.Canceled) || upstream.CategoryOf(err) == upstream.CategoryCanceled {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeVerification, "verification failed: "+upstream.ReasonOf(err))
	}
	return result, nil
}

// VerifyFile extracts the document's text and verifies it like VerifyProof,
// so a re-saved copy of the same text still matches.
func (s *Service) VerifyFile(ctx context.Context, r io.Reader, filename string) (*models.VerificationResult, error) {
	text, err := s.extractor.Extract(ctx, r, filename)
	if err != nil {
		return nil, err
	}
	result, err := s.VerifyProof(ctx, text)
	if err != nil {
		return nil, err
	}
	result.Filename = filename
	return result, nil
}

// ListHistory returns the caller's proofs, newest first. It never fails
// because of the ledger: Demo mode and ledger errors yield an empty list.
func (s *Service) ListHistory(ctx context.Context) ([]models.ProofHistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanProofHistory)
	defer span.End(nil)

	empty := func() []models.ProofHistoryEntry { return []models.ProofHistoryEntry{} }
	entries, err := circuit.Read(ctx, s.mode, "list history", s.ledger.History, empty)
	if err != nil {
		s.logger.WarnContext(ctx, "history unavailable, returning empty list",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.record("history", err)
		return empty(), nil
	}
	s.record("history", nil)
	SortHistory(entries)
	return entries, nil
}

// SortHistory orders entries by submission time, newest first. Entries with
// equal times are ordered by fingerprint so the output is deterministic.
func SortHistory(entries []models.ProofHistoryEntry) {
	slices.SortStableFunc(entries, func(a, b models.ProofHistoryEntry) int {
		if c := b.SubmittedAt.Compare(a.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Fingerprint, b.Fingerprint)
	})
}

func matched(fp fingerprint.Fingerprint, proof *models.IntegrityProof) *models.VerificationResult {
	return &models.VerificationResult{
		Exists:       true,
		Fingerprint:  fp,
		MatchedProof: proof,
		Message:      models.MessageVerified,
	}
}

// translateWriteError maps classified ledger failures to domain codes.
// Domain errors from the gate (unavailable, transport) pass through.
func translateWriteError(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch upstream.CategoryOf(err) {
	case upstream.CategoryRejected, upstream.CategoryRateLimited, upstream.CategoryNotFound:
		return dErrors.Wrap(err, dErrors.CodeRejected, "ledger rejected the proof: "+upstream.ReasonOf(err))
	case upstream.CategoryCanceled:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger returned an unexpected response")
	}
}

func (s *Service) findCache(ctx context.Context, fp fingerprint.Fingerprint) *models.IntegrityProof {
	if s.cache == nil {
		return nil
	}
	proof, err := s.cache.Find(ctx, store.NewKey(requestcontext.Bearer(ctx), fp))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.WarnContext(ctx, "proof cache lookup failed", "error", err)
		}
		return nil
	}
	return proof
}

func (s *Service) saveCache(ctx context.Context, fp fingerprint.Fingerprint, proof *models.IntegrityProof) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, store.NewKey(requestcontext.Bearer(ctx), fp), proof); err != nil {
		s.logger.WarnContext(ctx, "proof cache save failed", "error", err)
	}
}

func (s *Service) record(op string, err error) {
	if s.recorder == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	s.recorder.RecordProofOperation(op, outcome)
}
