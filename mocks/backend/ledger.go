package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Network is reported on every proof the mock ledger anchors.
const Network = "lexchain-mock"

// AlreadyAnchored is the message returned when a fingerprint is stored twice.
const AlreadyAnchored = "Proof already exists for this document."

type proof struct {
	DocumentHash string `json:"document_hash"`
	TxHash       string `json:"tx_hash"`
	Timestamp    int64  `json:"timestamp"`
	BlockNumber  uint64 `json:"block_number"`
	Network      string `json:"network"`
	SubmittedBy  string `json:"submitted_by"`
	Filename     string `json:"filename,omitempty"`
	Message      string `json:"message,omitempty"`
}

type historyEntry struct {
	DocumentHash string    `json:"document_hash"`
	TxHash       string    `json:"blockchain_tx_hash"`
	CreatedAt    time.Time `json:"created_at"`
	Network      string    `json:"network"`
	Filename     string    `json:"filename,omitempty"`
}

// Ledger is an append-only in-memory proof registry scoped per principal. A
// principal anchors a fingerprint at most once; later submissions get the
// original proof back.
type Ledger struct {
	mu      sync.Mutex
	proofs  map[string]map[string]proof
	history map[string][]historyEntry
	block   uint64
	now     func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{
		proofs:  map[string]map[string]proof{},
		history: map[string][]historyEntry{},
		block:   1000,
		now:     time.Now,
	}
}

type hashRequest struct {
	DocumentHash string `json:"document_hash"`
	Filename     string `json:"filename"`
}

func (l *Ledger) handleStore(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOf(r)
	if !ok {
		sendError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	req, ok := decodeHash(w, r)
	if !ok {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	owned := l.proofs[principal]
	if owned == nil {
		owned = map[string]proof{}
		l.proofs[principal] = owned
	}
	if existing, found := owned[req.DocumentHash]; found {
		existing.Message = AlreadyAnchored
		writeJSON(w, http.StatusOK, existing)
		return
	}

	l.block++
	now := l.now().UTC()
	p := proof{
		DocumentHash: req.DocumentHash,
		TxHash:       txHash(),
		Timestamp:    now.Unix(),
		BlockNumber:  l.block,
		Network:      Network,
		SubmittedBy:  principal,
		Filename:     req.Filename,
	}
	owned[req.DocumentHash] = p
	l.history[principal] = append(l.history[principal], historyEntry{
		DocumentHash: p.DocumentHash,
		TxHash:       p.TxHash,
		CreatedAt:    time.Unix(p.Timestamp, 0).UTC(),
		Network:      p.Network,
		Filename:     p.Filename,
	})
	writeJSON(w, http.StatusCreated, p)
}

func (l *Ledger) handleVerify(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOf(r)
	if !ok {
		sendError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	req, ok := decodeHash(w, r)
	if !ok {
		return
	}

	l.mu.Lock()
	p, found := l.proofs[principal][req.DocumentHash]
	l.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": true, "proof": p})
}

// handleHistory answers the caller's submissions, newest first.
func (l *Ledger) handleHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOf(r)
	if !ok {
		sendError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	l.mu.Lock()
	entries := slices.Clone(l.history[principal])
	l.mu.Unlock()

	slices.Reverse(entries)
	if entries == nil {
		entries = []historyEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Len returns the number of anchored proofs across all principals.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, owned := range l.proofs {
		n += len(owned)
	}
	return n
}

func decodeHash(w http.ResponseWriter, r *http.Request) (hashRequest, bool) {
	var req hashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	req.DocumentHash = strings.ToLower(strings.TrimSpace(req.DocumentHash))
	if !validHash(req.DocumentHash) {
		sendError(w, http.StatusBadRequest, "document_hash must be 0x followed by 64 hex characters")
		return req, false
	}
	return req, true
}

func validHash(h string) bool {
	if !strings.HasPrefix(h, "0x") || len(h) != 66 {
		return false
	}
	_, err := hex.DecodeString(h[2:])
	return err == nil
}

// principalOf identifies the caller from the bearer token. JWTs are read
// without verification and contribute their subject; opaque tokens are hashed.
func principalOf(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			return sub, true
		}
	}
	sum := sha256.Sum256([]byte(token))
	return "anon-" + hex.EncodeToString(sum[:8]), true
}

func txHash() string {
	id := uuid.New()
	sum := sha256.Sum256(id[:])
	return "0x" + hex.EncodeToString(sum[:])
}
