package httptransport

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	dErrors "lexchain/pkg/domain-errors"
	"lexchain/pkg/platform/circuit"
	"lexchain/pkg/platform/httputil"
	"lexchain/pkg/requestcontext"
)

type modeHandler struct {
	mode   *circuit.Controller
	logger *slog.Logger
}

type ModeResponse struct {
	Mode   string `json:"mode"`
	Demo   bool   `json:"demo"`
	Reason string `json:"reason,omitempty"`
	Since  string `json:"since"`
}

// ModeRequest forces the operating mode. Only mounted when overrides are allowed.
type ModeRequest struct {
	Mode   string `json:"mode"`
	Reason string `json:"reason"`

	parsed circuit.Mode
}

func (r *ModeRequest) Normalize() {
	r.Mode = strings.TrimSpace(r.Mode)
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		r.Reason = "forced via API"
	}
}

func (r *ModeRequest) Validate() error {
	m, err := circuit.ParseMode(r.Mode)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	r.parsed = m
	return nil
}

func (h *modeHandler) HandleGet(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.status())
}

func (h *modeHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ModeRequest](w, r, h.logger)
	if !ok {
		return
	}
	h.mode.ForceMode(req.parsed, req.Reason)
	h.logger.InfoContext(r.Context(), "operating mode forced",
		"mode", req.parsed.String(),
		"reason", req.Reason,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	httputil.WriteJSON(w, http.StatusOK, h.status())
}

func (h *modeHandler) status() ModeResponse {
	mode, reason, since := h.mode.Status()
	return ModeResponse{
		Mode:   mode.String(),
		Demo:   mode == circuit.Demo,
		Reason: reason,
		Since:  since.UTC().Format(time.RFC3339),
	}
}
