package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TokenLength is the length of an encoded session token.
const TokenLength = 64

// GenerateSessionToken returns an opaque, unguessable session token.
// 32 bytes from the system CSPRNG, hashed to a fixed-length hex string
// so the stored value never exposes raw generator output.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}
