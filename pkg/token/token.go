package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// DefaultBytes is the entropy of a capability token before encoding.
	DefaultBytes = 32

	minBytes = 16
)

// New mints an opaque capability token with n bytes of entropy, encoded
// URL-safe without padding so it can ride in a query string unescaped.
func New(n int) (string, error) {
	if n < minBytes {
		n = DefaultBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
