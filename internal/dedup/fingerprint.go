// Package dedup computes content fingerprints and guards uploads against
// byte-identical re-submissions using a persisted fingerprint ledger.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 hex digest of data. Byte-identical inputs
// always produce the same digest.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
