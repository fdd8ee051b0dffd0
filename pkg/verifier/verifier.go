// Package verifier tests candidate passwords against a parsed PBKDF2 hash.
package verifier

import (
	"crypto/subtle"
	"fmt"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/pbkdf2hash"
)

// Verifier derives a key for each candidate and compares it to the target
// digest. It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	desc pbkdf2hash.Descriptor
}

// New creates a verifier bound to desc.
func New(desc pbkdf2hash.Descriptor) *Verifier {
	return &Verifier{desc: desc}
}

// Test reports whether candidate derives to the target digest.
func (v *Verifier) Test(candidate string) bool {
	derived := v.desc.Derive([]byte(candidate))

	return ConstantTimeEqual(derived, v.desc.Digest)
}

// Iterations returns the PBKDF2 round count of the target.
func (v *Verifier) Iterations() uint32 {
	return v.desc.Iterations
}

// SaltLen returns the salt length in bytes.
func (v *Verifier) SaltLen() int {
	return len(v.desc.Salt)
}

// ConstantTimeEqual compares a and b without an early exit on the first
// differing byte. Only a length mismatch returns early.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// VerifyString parses hash and tests password against it.
func VerifyString(hash, password string) (bool, error) {
	desc, err := pbkdf2hash.Parse(hash)
	if err != nil {
		return false, fmt.Errorf("parse hash: %w", err)
	}

	return New(desc).Test(password), nil
}
