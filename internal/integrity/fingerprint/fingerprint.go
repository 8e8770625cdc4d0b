// Package fingerprint derives the content-addressed identity of a document.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Prefix marks a fingerprint as a bytes32 hex value.
const Prefix = "0x"

// Fingerprint is "0x" followed by the lowercase hex SHA-256 of the document's
// UTF-8 text. Identical text always yields the identical fingerprint.
type Fingerprint string

// Of fingerprints text exactly as given; no trimming or normalization.
func Of(text string) Fingerprint {
	sum := sha256.Sum256([]byte(text))
	return Fingerprint(Prefix + hex.EncodeToString(sum[:]))
}

// Parse validates s as a fingerprint, accepting upper-case hex and a missing prefix.
func Parse(s string) (Fingerprint, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, Prefix)
	if len(s) != sha256.Size*2 {
		return "", fmt.Errorf("fingerprint must be %d hex characters, got %d", sha256.Size*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("fingerprint is not hex: %w", err)
	}
	return Fingerprint(Prefix + s), nil
}

func (f Fingerprint) String() string { return string(f) }

// Short is a log-friendly prefix of the fingerprint.
func (f Fingerprint) Short() string {
	if len(f) <= 14 {
		return string(f)
	}
	return string(f[:14])
}
