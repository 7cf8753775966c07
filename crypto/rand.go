// Package crypto mints the cryptographically secure random values this
// system needs outside the model/parameter domain: the shared
// request_secret bearer tokens config falls back to generating when an
// operator hasn't provisioned one, and the character-constrained
// VisibleID each task is given for user-facing references.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// AlphanumericAlphabet is the default character set for RandomString: safe
// to embed in URLs, emails and log lines without escaping.
const AlphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecureToken returns a random hex-encoded token of length bytes.
// config.Load uses it to provision an ephemeral shared request_secret when
// an operator hasn't set one.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto: generating secure token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// RandomString returns a random string of n characters drawn from
// alphabet. task.NewVisibleID uses it to mint each task's user-facing
// reference. Panics on an empty alphabet: that can only happen from a
// programming error, never from request input, so there is nothing a
// caller could usefully recover from.
func RandomString(n int, alphabet string) string {
	if alphabet == "" {
		panic("crypto: RandomString requires a non-empty alphabet")
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		panic("crypto: system CSPRNG unavailable: " + err.Error())
	}
	out := make([]byte, n)
	for i, c := range raw {
		out[i] = alphabet[int(c)%len(alphabet)]
	}
	return string(out)
}
