package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256 MAC, hex encoded.
type HMACSHA256 struct {
	key []byte
}

// NewHMACSHA256 builds a hasher keyed with the given secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

// Hash returns the hex-encoded HMAC-SHA256 of the plaintext.
func (h *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	return h.sum(plaintext), nil
}

// Verify compares in constant time.
func (h *HMACSHA256) Verify(stored, plaintext string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), h.sum(plaintext)) == 1
}

func (h *HMACSHA256) sum(plaintext string) []byte {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(plaintext))
	digest := mac.Sum(nil)

	out := make([]byte, hex.EncodedLen(len(digest)))
	hex.Encode(out, digest)
	return out
}
