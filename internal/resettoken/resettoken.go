// Package resettoken generates single-use password reset tokens.
//
// The raw token is emailed to the user; only its SHA-256 digest is stored, so
// a leaked database row cannot be used to reset a password.
package resettoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	tokenBytes = 32 // 32 bytes = 64 hex chars

	// Expiry is how long a reset token stays valid after generation.
	Expiry = 10 * time.Minute
)

// Generate creates a random raw token and the digest to persist
func Generate() (raw, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	raw = hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}

// Hash computes the lookup digest of a raw token
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
