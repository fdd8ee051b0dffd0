// Package pbkdf2hash parses and produces Werkzeug-style PBKDF2-HMAC-SHA256
// password hashes of the form pbkdf2:sha256:<iterations>$<salt>$<hex digest>.
package pbkdf2hash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/safeconv"
)

const (
	// Method is the only supported key derivation method token.
	Method = "pbkdf2"

	// Algorithm is the only supported HMAC digest token.
	Algorithm = "sha256"

	// DigestSize is the length in bytes of a SHA-256 derived key.
	DigestSize = sha256.Size

	headerSeparator = ":"
	fieldSeparator  = "$"
	headerParts     = 3
	fieldParts      = 3
)

// Sentinel errors returned (wrapped) by Parse.
var (
	ErrMalformed            = errors.New("pbkdf2hash: malformed hash")
	ErrUnsupportedMethod    = errors.New("pbkdf2hash: unsupported method")
	ErrUnsupportedAlgorithm = errors.New("pbkdf2hash: unsupported algorithm")
	ErrInvalidIterations    = errors.New("pbkdf2hash: invalid iterations")
	ErrEmptySalt            = errors.New("pbkdf2hash: empty salt")
	ErrInvalidDigest        = errors.New("pbkdf2hash: invalid digest")
)

// Descriptor is the parsed form of a hash string. It is never modified
// after construction and may be shared between goroutines.
type Descriptor struct {
	// Salt holds the literal bytes of the salt token. Werkzeug feeds the
	// token itself to PBKDF2, so it is never base64-decoded.
	Salt []byte

	// Digest is the expected 32-byte derived key.
	Digest []byte

	// Iterations is the PBKDF2 round count, always positive.
	Iterations uint32
}

// Parse decodes s into a Descriptor.
func Parse(s string) (Descriptor, error) {
	header := strings.Split(s, headerSeparator)
	if len(header) != headerParts {
		return Descriptor{}, fmt.Errorf("%w: expected pbkdf2:sha256:<iterations>$<salt>$<digest>", ErrMalformed)
	}

	if header[0] != Method {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, header[0])
	}

	if header[1] != Algorithm {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, header[1])
	}

	fields := strings.Split(header[2], fieldSeparator)
	if len(fields) != fieldParts {
		return Descriptor{}, fmt.Errorf("%w: expected <iterations>$<salt>$<digest>", ErrMalformed)
	}

	iterations, err := parseIterations(fields[0])
	if err != nil {
		return Descriptor{}, err
	}

	if fields[1] == "" {
		return Descriptor{}, ErrEmptySalt
	}

	digest, err := hex.DecodeString(fields[2])
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrInvalidDigest, err)
	}

	if len(digest) != DigestSize {
		return Descriptor{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDigest, DigestSize, len(digest))
	}

	return Descriptor{
		Iterations: iterations,
		Salt:       []byte(fields[1]),
		Digest:     digest,
	}, nil
}

func parseIterations(token string) (uint32, error) {
	n, err := strconv.ParseUint(token, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIterations, token)
	}

	if n == 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidIterations)
	}

	return uint32(n), nil
}

// String renders the descriptor in canonical hash form with a lower-case digest.
func (d Descriptor) String() string {
	var sb strings.Builder

	sb.WriteString(Method)
	sb.WriteString(headerSeparator)
	sb.WriteString(Algorithm)
	sb.WriteString(headerSeparator)
	sb.WriteString(strconv.FormatUint(uint64(d.Iterations), 10))
	sb.WriteString(fieldSeparator)
	sb.Write(d.Salt)
	sb.WriteString(fieldSeparator)
	sb.WriteString(hex.EncodeToString(d.Digest))

	return sb.String()
}

// Equal reports whether two descriptors carry the same parameters and digest.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.Iterations == other.Iterations &&
		bytes.Equal(d.Salt, other.Salt) &&
		bytes.Equal(d.Digest, other.Digest)
}

// Derive runs PBKDF2-HMAC-SHA256 over password with the descriptor's salt
// and iteration count.
func (d Descriptor) Derive(password []byte) []byte {
	return pbkdf2.Key(password, d.Salt, safeconv.MustUint32ToInt(d.Iterations), DigestSize, sha256.New)
}
