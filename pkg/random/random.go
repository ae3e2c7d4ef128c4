// Package random provides short identifiers drawn from a cryptographically
// strong source.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewRandomString returns a random lowercase hex string of the given length.
// Collision probability over a short alphabet is non-zero; callers that need
// uniqueness must check the store and retry.
func NewRandomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length %d", length)
	}

	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return hex.EncodeToString(buf)[:length], nil
}
