// Package hash provides keyed digesting for secrets kept at rest.
//
// Verification codes are never stored in plaintext; only their keyed digest
// is persisted, and submissions are checked by constant-time comparison.
package hash

// Hash digests a plaintext and verifies submissions against stored digests.
type Hash interface {
	// Hash returns the digest of the plaintext.
	Hash(plaintext string) ([]byte, error)
	// Verify reports whether plaintext digests to the stored value.
	Verify(stored, plaintext string) bool
}
