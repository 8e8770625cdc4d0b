// Package ledger is the HTTP client for the append-only integrity ledger.
package ledger

import (
	"context"
	"net/http"
	"time"

	"lexchain/internal/integrity/fingerprint"
	"lexchain/internal/integrity/models"
	"lexchain/internal/upstream"
)

// Ledger endpoints.
const (
	PathStore   = "/proof"
	PathVerify  = "/proof:verify"
	PathHistory = "/proof/history"
)

// Client talks to the ledger through the shared upstream transport.
type Client struct {
	http *upstream.Client
}

func New(c *upstream.Client) *Client {
	return &Client{http: c}
}

type storeRequest struct {
	Fingerprint fingerprint.Fingerprint `json:"document_hash"`
	Filename    string                  `json:"filename,omitempty"`
}

type verifyRequest struct {
	Fingerprint fingerprint.Fingerprint `json:"document_hash"`
}

// proofDTO is the ledger's wire shape for a stored proof.
type proofDTO struct {
	DocumentHash string `json:"document_hash"`
	TxHash       string `json:"tx_hash"`
	Timestamp    int64  `json:"timestamp"`
	BlockNumber  uint64 `json:"block_number"`
	Network      string `json:"network"`
	SubmittedBy  string `json:"submitted_by"`
	Filename     string `json:"filename,omitempty"`
	Message      string `json:"message,omitempty"`
}

type verifyDTO struct {
	Exists bool      `json:"exists"`
	Proof  *proofDTO `json:"proof,omitempty"`
}

type historyDTO struct {
	DocumentHash string    `json:"document_hash"`
	TxHash       string    `json:"blockchain_tx_hash"`
	CreatedAt    time.Time `json:"created_at"`
	Network      string    `json:"network"`
	Filename     string    `json:"filename,omitempty"`
}

// Store submits a fingerprint. The ledger is idempotent per principal and
// answers with the existing proof when the fingerprint is already recorded.
func (c *Client) Store(ctx context.Context, fp fingerprint.Fingerprint, filename string) (*models.IntegrityProof, error) {
	var out proofDTO
	if err := c.http.Do(ctx, http.MethodPost, PathStore, storeRequest{Fingerprint: fp, Filename: filename}, &out); err != nil {
		return nil, err
	}
	proof, err := c.toProof(out, fp)
	if err != nil {
		return nil, err
	}
	if proof.Filename == "" {
		proof.Filename = filename
	}
	return proof, nil
}

// Verify looks a fingerprint up. A missing proof is (nil, nil); a 404 from the
// ledger is treated the same way.
func (c *Client) Verify(ctx context.Context, fp fingerprint.Fingerprint) (*models.IntegrityProof, error) {
	var out verifyDTO
	err := c.http.Do(ctx, http.MethodPost, PathVerify, verifyRequest{Fingerprint: fp}, &out)
	if upstream.CategoryOf(err) == upstream.CategoryNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !out.Exists {
		return nil, nil
	}
	if out.Proof == nil {
		return nil, upstream.NewError(upstream.CategoryBadData, c.http.Name(), "verify answer has exists=true but no proof", nil)
	}
	return c.toProof(*out.Proof, fp)
}

// History returns the caller's submissions in ledger order.
func (c *Client) History(ctx context.Context) ([]models.ProofHistoryEntry, error) {
	var out []historyDTO
	if err := c.http.Do(ctx, http.MethodGet, PathHistory, nil, &out); err != nil {
		return nil, err
	}
	entries := make([]models.ProofHistoryEntry, 0, len(out))
	for _, h := range out {
		fp, err := fingerprint.Parse(h.DocumentHash)
		if err != nil {
			return nil, upstream.NewError(upstream.CategoryBadData, c.http.Name(), "history entry has invalid fingerprint", err)
		}
		entries = append(entries, models.ProofHistoryEntry{
			Fingerprint:    fp,
			TransactionRef: h.TxHash,
			SubmittedAt:    h.CreatedAt.UTC(),
			Network:        h.Network,
			Filename:       h.Filename,
		})
	}
	return entries, nil
}

// Health satisfies health.Prober.
func (c *Client) Health(ctx context.Context) error {
	return c.http.Health(ctx)
}

// toProof checks the ledger answered for the fingerprint we asked about.
func (c *Client) toProof(d proofDTO, want fingerprint.Fingerprint) (*models.IntegrityProof, error) {
	if d.TxHash == "" {
		return nil, upstream.NewError(upstream.CategoryBadData, c.http.Name(), "proof without transaction reference", nil)
	}
	fp := want
	if d.DocumentHash != "" {
		parsed, err := fingerprint.Parse(d.DocumentHash)
		if err != nil {
			return nil, upstream.NewError(upstream.CategoryBadData, c.http.Name(), "proof has invalid fingerprint", err)
		}
		if parsed != want {
			return nil, upstream.NewError(upstream.CategoryBadData, c.http.Name(), "proof fingerprint does not match request", nil)
		}
		fp = parsed
	}
	return &models.IntegrityProof{
		Fingerprint:    fp,
		TransactionRef: d.TxHash,
		SubmittedAt:    time.Unix(d.Timestamp, 0).UTC(),
		Network:        d.Network,
		SubmitterID:    d.SubmittedBy,
		Filename:       d.Filename,
		BlockNumber:    d.BlockNumber,
		Message:        d.Message,
	}, nil
}
