package utils

import (
	"crypto/rand"
	"math/big"
)

const checkinAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCheckinCode returns a 6-character uppercase alphanumeric code. It is
// a convenience handle for staff lookups, not a security credential; codes are
// always resolved jointly with booking status, so historical collisions are
// harmless.
func GenerateCheckinCode() string {
	return randomFrom(checkinAlphabet, 6)
}

// GenerateVerificationCode returns the 6-digit code emailed during
// registration. Expires 10 minutes after VerificationCodeSentAt.
func GenerateVerificationCode() string {
	return randomFrom("0123456789", 6)
}

func randomFrom(alphabet string, n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// fall back to the first symbol rather than panic.
			out[i] = alphabet[0]
			continue
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out)
}
