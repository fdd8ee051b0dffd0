// Package checkpoint persists search progress so an interrupted run can
// resume from the last recorded word offset.
package checkpoint

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/persist"
)

// FormatVersion is the current checkpoint record version.
const FormatVersion = 1

// DefaultPath is the checkpoint file used when none is configured.
const DefaultPath = "checkpoint.json"

// Sentinel errors.
var (
	ErrNotFound = errors.New("checkpoint: not found")
	ErrParse    = errors.New("checkpoint: cannot parse")
	ErrWrite    = errors.New("checkpoint: cannot write")
)

//go:embed checkpoint.schema.json
var schemaJSON string

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// Checkpoint is the on-disk progress record. Unknown fields written by
// newer versions are ignored on load.
type Checkpoint struct {
	Timestamp      string `json:"timestamp"`
	RunID          string `json:"run_id,omitempty"`
	WordlistOffset uint64 `json:"wordlist_offset"`
	TotalAttempts  uint64 `json:"total_attempts"`
	// RuleIndex is reserved. It is always written as 0 and ignored on resume.
	RuleIndex uint `json:"rule_index"`
	Version   int  `json:"version,omitempty"`
}

// New builds a checkpoint stamped with the current UTC time.
func New(offset uint64, ruleIndex uint, attempts uint64) Checkpoint {
	return Checkpoint{
		WordlistOffset: offset,
		RuleIndex:      ruleIndex,
		TotalAttempts:  attempts,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Version:        FormatVersion,
	}
}

// CreatedAt parses the timestamp. It returns the zero time when the field
// is empty or unparseable.
func (c Checkpoint) CreatedAt() time.Time {
	ts, err := time.Parse(time.RFC3339, c.Timestamp)
	if err != nil {
		return time.Time{}
	}

	return ts
}

func persister() *persist.Persister[Checkpoint] {
	return persist.NewPersister[Checkpoint](persist.NewJSONCodec()).WithValidator(validate)
}

// Save atomically replaces the checkpoint file at path.
func Save(path string, cp Checkpoint) error {
	err := persister().Save(path, &cp)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}

	return nil
}

// Load reads the checkpoint at path. It returns an error wrapping
// ErrNotFound when the file does not exist and ErrParse when its content
// is not a valid checkpoint record.
func Load(path string) (Checkpoint, error) {
	cp, err := persister().Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Checkpoint{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return Checkpoint{}, fmt.Errorf("%w %s: %w", ErrParse, path, err)
	}

	return *cp, nil
}

// Delete removes the checkpoint at path. A missing file is not an error.
func Delete(path string) error {
	err := persister().Remove(path)
	if err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}

	return nil
}

func validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile checkpoint schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, verr.String())
	}

	return fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
}
