// Package models holds the integrity proof types shared by the ledger client,
// the proof cache, the service and the HTTP handlers.
package models

import (
	"time"

	"lexchain/internal/integrity/fingerprint"
	dErrors "lexchain/pkg/domain-errors"
)

// IntegrityProof is the ledger's record that a fingerprint was submitted.
// It is owned by the ledger; the pipeline only caches read copies.
type IntegrityProof struct {
	Fingerprint    fingerprint.Fingerprint `json:"fingerprint"`
	TransactionRef string                  `json:"transaction_ref"`
	SubmittedAt    time.Time               `json:"submitted_at"`
	Network        string                  `json:"network"`
	SubmitterID    string                  `json:"submitter_id,omitempty"`
	Filename       string                  `json:"filename,omitempty"`
	BlockNumber    uint64                  `json:"block_number,omitempty"`
	// Message is the ledger's note, e.g. that the proof already existed.
	Message string `json:"message,omitempty"`
}

// VerificationResult is derived per request and never persisted.
type VerificationResult struct {
	Exists       bool                    `json:"exists"`
	Fingerprint  fingerprint.Fingerprint `json:"fingerprint"`
	MatchedProof *IntegrityProof         `json:"matched_proof,omitempty"`
	Message      string                  `json:"message"`
	// Degraded marks the safe negative answer given while the ledger is
	// unreachable; it says nothing about whether a proof exists.
	Degraded bool   `json:"degraded"`
	Filename string `json:"filename,omitempty"`
}

// ProofHistoryEntry is one row of the caller's submission history.
type ProofHistoryEntry struct {
	Fingerprint    fingerprint.Fingerprint `json:"fingerprint"`
	TransactionRef string                  `json:"transaction_ref"`
	SubmittedAt    time.Time               `json:"submitted_at"`
	Network        string                  `json:"network"`
	Filename       string                  `json:"filename,omitempty"`
}

// Messages surfaced to the presentation layer.
const (
	MessageVerified      = "Document verified against the integrity ledger."
	MessageNoMatch       = "No matching integrity proof found for this account."
	MessageVerifyOffline = "Ledger unreachable; integrity could not be confirmed."
)

// StoreProofRequest is the body of POST /integrity/proofs.
type StoreProofRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// Validate rejects empty text. The text is fingerprinted verbatim, so it is
// deliberately not normalized.
func (r *StoreProofRequest) Validate() error {
	if r.Text == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "text cannot be empty")
	}
	if len(r.Filename) > 255 {
		return dErrors.New(dErrors.CodeInvalidInput, "filename too long")
	}
	return nil
}

// VerifyProofRequest is the body of POST /integrity/proofs/verify.
type VerifyProofRequest struct {
	Text string `json:"text"`
}

func (r *VerifyProofRequest) Validate() error {
	if r.Text == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "text cannot be empty")
	}
	return nil
}
