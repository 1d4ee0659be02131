package identity

import (
	"context"
	"crypto/rand"
	"math/big"
)

// Provider is the outbound boundary to the auth provider's admin API.
type Provider interface {
	// SignUp creates a confirmed user and returns the provider-side
	// user id. Signing up an email that already has a user is an
	// error.
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (string, error)
}

// No HTML-significant characters: the password is delivered verbatim
// inside the welcome email.
const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^*"

// RandomPassword generates the temporary credential for provisioned
// accounts. It reaches the customer once, in the welcome email, and is
// meant to be changed at first sign-in.
func RandomPassword(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
