// Package store caches read copies of integrity proofs so repeated
// verifications of the same document skip the ledger round trip.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"lexchain/internal/integrity/fingerprint"
	"lexchain/internal/integrity/models"
)

// ErrNotFound is returned on a cache miss.
var ErrNotFound = errors.New("proof not cached")

// ProofCache holds proofs keyed by principal and fingerprint.
// Proofs are immutable, so entries never need invalidation, only expiry.
type ProofCache interface {
	Find(ctx context.Context, key Key) (*models.IntegrityProof, error)
	Save(ctx context.Context, key Key, proof *models.IntegrityProof) error
}

// Key scopes a cached proof to the principal that can see it. The bearer is
// hashed so credentials never appear in cache keys.
type Key struct {
	Principal   string
	Fingerprint fingerprint.Fingerprint
}

// NewKey derives a cache key from the caller's bearer credential.
func NewKey(bearer string, fp fingerprint.Fingerprint) Key {
	sum := sha256.Sum256([]byte(bearer))
	return Key{Principal: hex.EncodeToString(sum[:8]), Fingerprint: fp}
}

func (k Key) String() string {
	return k.Principal + ":" + string(k.Fingerprint)
}

// LookupRecorder receives hit/miss outcomes; *metrics.Metrics satisfies it.
type LookupRecorder interface {
	RecordCacheLookup(hit bool)
}

func record(r LookupRecorder, hit bool) {
	if r != nil {
		r.RecordCacheLookup(hit)
	}
}
