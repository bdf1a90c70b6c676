package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken hashes an access token for session lookup. Only hashes are
// stored or logged.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// MaskToken shortens a pairing token for log output.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
