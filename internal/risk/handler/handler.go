package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexchain/internal/risk/models"
	dErrors "lexchain/pkg/domain-errors"
	"lexchain/pkg/platform/httputil"
	"lexchain/pkg/requestcontext"
)

// RiskService is what the handlers need from the risk evaluation service.
type RiskService interface {
	Evaluate(ctx context.Context, text string) (*models.Evaluation, error)
	Classify(ctx context.Context, report models.RuleEngineReport) models.RiskVerdict
}

type Handler struct {
	service RiskService
	logger  *slog.Logger
}

func New(service RiskService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/classify", h.HandleClassify)
		r.Post("/evaluate", h.HandleEvaluate)
	})
}

// HandleClassify classifies a rule-engine report posted by the caller.
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	report, ok := httputil.DecodeAndPrepare[models.RuleEngineReport](w, r, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.Classify(r.Context(), *report))
}

// HandleEvaluate scores contract text. The response is marked synthetic when
// the rule engine could not be reached.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[models.EvaluateRequest](w, r, h.logger)
	if !ok {
		return
	}
	eval, err := h.service.Evaluate(r.Context(), req.Text)
	if err != nil {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "evaluate contract failed",
			"error", err,
			"code", string(dErrors.CodeOf(err)),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, eval)
}
