package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
)

// NumericCode generates a verification code of the given number of ASCII
// digits using crypto/rand. Leading zeros are allowed.
func NumericCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("code digits out of range")
	}

	out := make([]byte, digits)
	ten := big.NewInt(10)
	for i := range out {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + n.Int64())
	}
	return string(out), nil
}

// HashSecret returns the SHA-256 digest of a secret string. Verification
// codes and bearer tokens are persisted only in this form.
func HashSecret(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}
