package utils // package utils provides helpers for password and session token handling

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for session tokens
	"encoding/hex"  // hex encoding of random bytes and digests
)

// NewSessionToken returns a cryptographically secure random token to be set
// as the session cookie value. The raw token is handed to the client only;
// the store keeps just its SHA-256 digest, so a leaked session database
// cannot be replayed against the service.
func NewSessionToken() (string, error) {
	return randomHex(32) // 32 bytes -> 64 hex chars
}

// HashSessionToken returns the SHA-256 hash of a raw session token as a hex
// string. All session store lookups go through this digest.
func HashSessionToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
