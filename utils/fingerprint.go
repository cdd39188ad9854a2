package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FingerprintVersion is bumped whenever NormalizeText changes, so
// fingerprints from different normalization rules never compare equal.
const FingerprintVersion = "v1"

// NormalizeText collapses runs of whitespace to a single space and trims
// the result. Normalization is whitespace-only: case and punctuation are
// preserved so that distinct passages keep distinct fingerprints.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fingerprint returns a versioned content hash of the normalized text.
// Two documents with the same fingerprint are treated as the same content
// by the deduplicating ingestor, regardless of how the store serializes
// the stored text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return FingerprintVersion + ":" + hex.EncodeToString(sum[:])
}
