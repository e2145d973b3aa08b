package utils

import (
	"crypto/rand"
	"io"
	"strings"
)

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const ShuffleSecretLength = 64

// GenerateShuffleSecret returns a random alphanumeric secret for seeding the
// multiple choice shuffle in mastering.
func GenerateShuffleSecret() (string, error) {
	buf := make([]byte, ShuffleSecretLength)
	var builder strings.Builder
	builder.Grow(ShuffleSecretLength)

	for builder.Len() < ShuffleSecretLength {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// Skip bytes past the last full cycle of the alphabet.
			if int(b) >= 256-256%len(secretAlphabet) {
				continue
			}
			builder.WriteByte(secretAlphabet[int(b)%len(secretAlphabet)])
			if builder.Len() == ShuffleSecretLength {
				break
			}
		}
	}
	return builder.String(), nil
}
