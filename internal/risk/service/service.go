// Package service evaluates contract text against the rule engine and
// classifies the resulting report. When the rule engine cannot be reached the
// built-in sample report is classified instead and marked synthetic.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"lexchain/internal/risk/classifier"
	"lexchain/internal/risk/models"
	"lexchain/internal/tracer"
	"lexchain/internal/upstream"
	dErrors "lexchain/pkg/domain-errors"
	"lexchain/pkg/platform/circuit"
	"lexchain/pkg/requestcontext"
)

// RuleEngine scores contract text. *engine.Client satisfies it.
type RuleEngine interface {
	Evaluate(ctx context.Context, text string) (*models.RuleEngineReport, error)
}

// VerdictRecorder counts verdicts; *metrics.Metrics satisfies it.
type VerdictRecorder interface {
	RecordVerdict(verdict string, synthetic bool)
}

type Service struct {
	engine   RuleEngine
	mode     *circuit.Controller
	logger   *slog.Logger
	tracer   tracer.Tracer
	recorder VerdictRecorder
}

type Option func(*Service)

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

func WithRecorder(r VerdictRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

func New(engine RuleEngine, mode *circuit.Controller, opts ...Option) *Service {
	s := &Service{
		engine: engine,
		mode:   mode,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sourcedReport struct {
	report    models.RuleEngineReport
	synthetic bool
}

// Evaluate sends text to the rule engine and classifies the answer.
func (s *Service) Evaluate(ctx context.Context, text string) (eval *models.Evaluation, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "text cannot be empty")
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanRiskEvaluate,
		tracer.String(tracer.AttrMode, s.mode.Mode().String()),
	)
	defer func() {
		if eval != nil {
			span.SetAttributes(
				tracer.Bool(tracer.AttrSynthetic, eval.Synthetic),
				tracer.String(tracer.AttrVerdict, string(eval.Verdict.Verdict)),
			)
		}
		span.End(err)
	}()

	src, err := circuit.Read(ctx, s.mode, "evaluate contract",
		func(ctx context.Context) (sourcedReport, error) {
			report, err := s.engine.Evaluate(ctx, text)
			if err != nil {
				return sourcedReport{}, err
			}
			return sourcedReport{report: *report}, nil
		},
		func() sourcedReport {
			return sourcedReport{report: SampleReport(), synthetic: true}
		},
	)
	if err != nil {
		err = translateEngineError(err)
		s.logger.WarnContext(ctx, "evaluate contract failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	verdict := classifier.Classify(src.report)
	s.record(verdict, src.synthetic)
	if src.synthetic {
		s.logger.InfoContext(ctx, "rule engine unavailable, classified sample report",
			"mode", s.mode.Mode().String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return &models.Evaluation{Verdict: verdict, Report: src.report, Synthetic: src.synthetic}, nil
}

// Classify classifies a report supplied by the caller. It never touches the
// network and works in either mode.
func (s *Service) Classify(ctx context.Context, report models.RuleEngineReport) models.RiskVerdict {
	verdict := classifier.Classify(report)
	s.record(verdict, false)
	s.logger.DebugContext(ctx, "report classified",
		"score", verdict.Score,
		"verdict", string(verdict.Verdict),
		"clauses", len(verdict.Clauses),
	)
	return verdict
}

func (s *Service) record(v models.RiskVerdict, synthetic bool) {
	if s.recorder != nil {
		s.recorder.RecordVerdict(string(v.Verdict), synthetic)
	}
}

func translateEngineError(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch upstream.CategoryOf(err) {
	case upstream.CategoryRejected, upstream.CategoryRateLimited, upstream.CategoryNotFound:
		return dErrors.Wrap(err, dErrors.CodeRejected, "rule engine rejected the contract: "+upstream.ReasonOf(err))
	case upstream.CategoryCanceled:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "rule engine returned an unexpected response")
	}
}
