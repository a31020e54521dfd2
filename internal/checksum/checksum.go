// Package checksum computes the content fingerprints used for change detection
// and If-Match preconditions.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Match reports whether want is empty or equals the checksum of data.
// Surrounding quotes (ETag form) are ignored.
func Match(data []byte, want string) bool {
	if len(want) >= 2 && want[0] == '"' && want[len(want)-1] == '"' {
		want = want[1 : len(want)-1]
	}
	return want == "" || want == Sum(data)
}
