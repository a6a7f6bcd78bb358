package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewOTPCode returns a uniformly random 6-digit numeric code, zero padded.
// crypto/rand keeps the draw uniform over [0, 1e6) so every code is equally
// likely.
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
