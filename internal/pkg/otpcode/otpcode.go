// Package otpcode generates numeric one-time codes.
//
// Codes are drawn from crypto/rand with rejection sampling, so every value in
// the range is equally likely. Digit count is fixed per generator; leading
// zeros are preserved.
package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric generates fixed-length decimal codes.
type Numeric struct {
	digits int
	max    *big.Int
}

// NewNumeric builds a generator for codes of the given digit count.
// Counts outside 4-10 are clamped to 6.
func NewNumeric(digits int) *Numeric {
	if digits < 4 || digits > 10 {
		digits = 6
	}

	max := big.NewInt(10)
	max.Exp(max, big.NewInt(int64(digits)), nil)

	return &Numeric{digits: digits, max: max}
}

// Generate returns a uniformly random code, zero padded to the digit count.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(rand.Reader, n.max)
	if err != nil {
		return "", fmt.Errorf("otpcode: read random: %w", err)
	}

	return fmt.Sprintf("%0*d", n.digits, v), nil
}
