package hash

import "testing"

func TestHMACSHA256(t *testing.T) {

	t.Run("HashAndVerify", func(t *testing.T) {
		h := NewHMACSHA256("secret-key")

		digest, err := h.Hash("428619")
		if err != nil {
			t.Fatalf("hash failed: %v", err)
		}
		if string(digest) == "428619" {
			t.Fatalf("digest must not equal plaintext")
		}
		if len(digest) != 64 {
			t.Fatalf("digest length = %d, want 64 hex chars", len(digest))
		}

		if !h.Verify(string(digest), "428619") {
			t.Fatalf("verify must accept the original plaintext")
		}
		if h.Verify(string(digest), "428610") {
			t.Fatalf("verify must reject a different plaintext")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		h := NewHMACSHA256("secret-key")

		a, _ := h.Hash("428619")
		b, _ := h.Hash("428619")
		if string(a) != string(b) {
			t.Fatalf("same input must hash identically")
		}
	})

	t.Run("KeyedDigest", func(t *testing.T) {
		a, _ := NewHMACSHA256("key-one").Hash("428619")
		b, _ := NewHMACSHA256("key-two").Hash("428619")
		if string(a) == string(b) {
			t.Fatalf("different keys must produce different digests")
		}
	})
}
