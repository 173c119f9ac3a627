package utils

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding of the random bytes
)

// RandomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  Session identifiers are built
// from 32 bytes (64 hex characters).
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
