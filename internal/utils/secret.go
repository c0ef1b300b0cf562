package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// NewOtpCode returns a 6-digit numeric one-time code drawn from a secure
// random source.  Leading zeros are allowed, so the keyspace is the full
// 000000-999999 range.
func NewOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NewResetToken returns an opaque random token for the password reset link.
func NewResetToken() string {
	return uuid.NewString()
}
