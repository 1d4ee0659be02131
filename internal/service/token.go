package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// newToken mints an opaque URL-safe token with 256 bits of entropy.
// Tokens are bearer capabilities, so guessability is the whole threat
// model.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
