package otpcode

import (
	"regexp"
	"testing"
)

func TestNumericGenerate(t *testing.T) {

	t.Run("FixedLengthDigits", func(t *testing.T) {
		gen := NewNumeric(6)
		re := regexp.MustCompile(`^[0-9]{6}$`)

		seen := map[string]struct{}{}
		for i := 0; i < 100; i++ {
			code, err := gen.Generate()
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			if !re.MatchString(code) {
				t.Fatalf("code %q is not 6 digits", code)
			}
			seen[code] = struct{}{}
		}

		if len(seen) < 2 {
			t.Fatalf("100 draws produced %d distinct codes", len(seen))
		}
	})

	t.Run("ClampsOutOfRangeDigits", func(t *testing.T) {
		for _, digits := range []int{0, 3, 11, -5} {
			gen := NewNumeric(digits)
			code, err := gen.Generate()
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			if len(code) != 6 {
				t.Fatalf("NewNumeric(%d) produced %d-digit code, want 6", digits, len(code))
			}
		}
	})

	t.Run("SupportedLengths", func(t *testing.T) {
		for _, digits := range []int{4, 8, 10} {
			gen := NewNumeric(digits)
			code, err := gen.Generate()
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			if len(code) != digits {
				t.Fatalf("code %q has %d digits, want %d", code, len(code), digits)
			}
		}
	})
}
