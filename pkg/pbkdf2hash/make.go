package pbkdf2hash

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// DefaultIterations matches the Werkzeug default for pbkdf2:sha256.
	DefaultIterations = 600_000

	// DefaultSaltLength matches the Werkzeug default salt length.
	DefaultSaltLength = 16

	saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrInvalidSaltLength is returned by GenerateSalt for non-positive lengths.
var ErrInvalidSaltLength = errors.New("pbkdf2hash: salt length must be positive")

// Make derives a descriptor for password. The salt token must not contain
// the ':' or '$' separators.
func Make(password, salt string, iterations uint32) (Descriptor, error) {
	if iterations == 0 {
		return Descriptor{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidIterations)
	}

	if salt == "" {
		return Descriptor{}, ErrEmptySalt
	}

	if strings.ContainsAny(salt, headerSeparator+fieldSeparator) {
		return Descriptor{}, fmt.Errorf("%w: salt contains a separator", ErrMalformed)
	}

	d := Descriptor{
		Iterations: iterations,
		Salt:       []byte(salt),
	}
	d.Digest = d.Derive([]byte(password))

	return d, nil
}

// GenerateSalt returns a random alphanumeric salt token of length n.
func GenerateSalt(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidSaltLength
	}

	limit := big.NewInt(int64(len(saltAlphabet)))
	out := make([]byte, n)

	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}

		out[i] = saltAlphabet[idx.Int64()]
	}

	return string(out), nil
}
