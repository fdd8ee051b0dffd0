package persist

import (
	"fmt"
	"os"
)

// Validator inspects the raw bytes of a file before they are decoded.
type Validator func(data []byte) error

// Persister handles I/O for a specific state type using a Codec.
type Persister[T any] struct {
	codec    Codec
	validate Validator
}

// NewPersister creates a persister with the given codec.
func NewPersister[T any](codec Codec) *Persister[T] {
	return &Persister[T]{codec: codec}
}

// WithValidator returns a copy of p that runs v on every Load before decoding.
func (p *Persister[T]) WithValidator(v Validator) *Persister[T] {
	return &Persister[T]{codec: p.codec, validate: v}
}

// Save atomically writes state to path.
func (p *Persister[T]) Save(path string, state *T) error {
	return WriteFile(path, p.codec, state)
}

// Load reads and decodes the state stored at path. Errors from the file
// system are returned wrapped so errors.Is(err, fs.ErrNotExist) works.
func (p *Persister[T]) Load(path string) (*T, error) {
	var validators []Validator
	if p.validate != nil {
		validators = append(validators, p.validate)
	}

	var state T

	err := ReadFile(path, p.codec, &state, validators...)
	if err != nil {
		return nil, err
	}

	return &state, nil
}

// Remove deletes the state file at path. A missing file is not an error.
func (p *Persister[T]) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}

	return nil
}
