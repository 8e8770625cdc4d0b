package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lexchain/internal/integrity/models"
	dErrors "lexchain/pkg/domain-errors"
	"lexchain/pkg/platform/httputil"
	"lexchain/pkg/requestcontext"
)

// IntegrityService is what the handlers need from the integrity proof client.
type IntegrityService interface {
	StoreProof(ctx context.Context, text, filename string) (*models.IntegrityProof, error)
	VerifyProof(ctx context.Context, text string) (*models.VerificationResult, error)
	VerifyFile(ctx context.Context, r io.Reader, filename string) (*models.VerificationResult, error)
	ListHistory(ctx context.Context) ([]models.ProofHistoryEntry, error)
}

// maxUploadBytes bounds multipart parsing held in memory.
const maxUploadBytes = 10 << 20

// Handler serves the integrity proof endpoints.
type Handler struct {
	service IntegrityService
	logger  *slog.Logger
}

func New(service IntegrityService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/integrity/proofs", func(r chi.Router) {
		r.Post("/", h.HandleStore)
		r.Post("/verify", h.HandleVerify)
		r.Post("/verify-file", h.HandleVerifyFile)
		r.Get("/history", h.HandleHistory)
	})
}

// HandleStore submits a proof. 503 in Demo mode, 422 when the ledger refuses.
func (h *Handler) HandleStore(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[models.StoreProofRequest](w, r, h.logger)
	if !ok {
		return
	}
	proof, err := h.service.StoreProof(r.Context(), req.Text, strings.TrimSpace(req.Filename))
	if err != nil {
		h.writeError(w, r, "store proof", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, proof)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[models.VerifyProofRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.service.VerifyProof(r.Context(), req.Text)
	if err != nil {
		h.writeError(w, r, "verify proof", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleVerifyFile accepts either a multipart form with a "file" part or a
// raw text body, in which case the filename comes from ?filename=.
func (h *Handler) HandleVerifyFile(w http.ResponseWriter, r *http.Request) {
	body, filename, closeFn, err := uploadedFile(r)
	if err != nil {
		h.writeError(w, r, "verify file", err)
		return
	}
	defer closeFn()

	result, err := h.service.VerifyFile(r.Context(), body, filename)
	if err != nil {
		h.writeError(w, r, "verify file", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListHistory(r.Context())
	if err != nil {
		h.writeError(w, r, "list history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func uploadedFile(r *http.Request) (io.Reader, string, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		filename := strings.TrimSpace(r.URL.Query().Get("filename"))
		if filename == "" {
			filename = "document.txt"
		}
		return r.Body, filename, func() {}, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", nil, dErrors.New(dErrors.CodeBadRequest, "invalid multipart upload")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", nil, dErrors.New(dErrors.CodeBadRequest, "missing file part")
		}
		return nil, "", nil, dErrors.New(dErrors.CodeBadRequest, "invalid file part")
	}
	return file, header.Filename, func() { _ = file.Close() }, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, op+" failed",
		"error", err,
		"code", string(dErrors.CodeOf(err)),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
