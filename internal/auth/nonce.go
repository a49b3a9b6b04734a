package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const nonceBytes = 16

// NewNonce returns 16 CSPRNG bytes as 32 lowercase hex characters.
func NewNonce() (string, error) {
	return randomHex(nonceBytes)
}

func randomHex(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
