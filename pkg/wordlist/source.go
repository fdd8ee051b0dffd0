// Package wordlist streams dictionary words from newline-delimited files
// with support for resuming at a word offset.
package wordlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/pierrec/lz4/v4"
)

// lz4Extension marks word lists stored as LZ4 frames.
const lz4Extension = ".lz4"

// MaxLineLength bounds a single word list line.
const MaxLineLength = humanize.MiByte

const initialBufferSize = 64 * humanize.KiByte

// Sentinel errors.
var (
	ErrOpen        = errors.New("wordlist: cannot open")
	ErrRead        = errors.New("wordlist: read failed")
	ErrInvalidText = errors.New("wordlist: line is not valid UTF-8")
)

// Record is one word and its zero-based ordinal among the non-blank lines
// of the file, counted from the true start of the file.
type Record struct {
	Offset uint64
	Text   string
}

// Source is a word list on disk. Every Stream re-reads the file from the
// beginning.
type Source struct {
	path       string
	compressed bool
	size       int64
}

// Open verifies that path can be opened and returns a Source for it.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%w %s: is a directory", ErrOpen, path)
	}

	return &Source{
		path:       path,
		compressed: strings.HasSuffix(strings.ToLower(path), lz4Extension),
		size:       info.Size(),
	}, nil
}

// Path returns the file path.
func (s *Source) Path() string { return s.path }

// Size returns the on-disk size in bytes as observed by Open.
func (s *Source) Size() int64 { return s.size }

// Compressed reports whether the file is read through the LZ4 decoder.
func (s *Source) Compressed() bool { return s.compressed }

// Stream opens a fresh pass over the file that skips the first start
// words. The caller must Close the returned stream.
func (s *Source) Stream(start uint64) (*Stream, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, s.path, err)
	}

	var r io.Reader = f
	if s.compressed {
		r = lz4.NewReader(f)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialBufferSize), MaxLineLength)

	st := &Stream{
		file:    f,
		scanner: scanner,
		skip:    start,
	}

	return st, nil
}

// Count scans the whole file once and returns the number of words.
func (s *Source) Count() (uint64, error) {
	st, err := s.Stream(0)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	var n uint64
	for st.Next() {
		n++
	}

	return n, st.Err()
}

// Stream is a single forward pass over a word list. It is not safe for
// concurrent use and cannot be rewound.
type Stream struct {
	file    *os.File
	scanner *bufio.Scanner
	err     error
	record  Record
	line    uint64
	next    uint64
	skip    uint64
}

// Next advances to the next word. It returns false at end of input or on
// the first error; check Err afterwards.
func (st *Stream) Next() bool {
	if st.err != nil {
		return false
	}

	for st.scanner.Scan() {
		st.line++

		raw := st.scanner.Bytes()
		if !utf8.Valid(raw) {
			st.err = fmt.Errorf("%w: line %d", ErrInvalidText, st.line)

			return false
		}

		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}

		offset := st.next
		st.next++

		if offset < st.skip {
			continue
		}

		st.record = Record{Offset: offset, Text: text}

		return true
	}

	err := st.scanner.Err()
	if err != nil {
		st.err = fmt.Errorf("%w: line %d: %w", ErrRead, st.line+1, err)
	}

	return false
}

// Record returns the word produced by the last successful Next.
func (st *Stream) Record() Record {
	return st.record
}

// Err returns the error that stopped the stream, if any.
func (st *Stream) Err() error {
	return st.err
}

// Consumed returns how many words have been read from the start of the
// file, including skipped ones.
func (st *Stream) Consumed() uint64 {
	return st.next
}

// All adapts the stream to a range-over-func iterator. Iteration stops
// after yielding a non-nil error.
func (st *Stream) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for st.Next() {
			if !yield(st.record, nil) {
				return
			}
		}

		if st.err != nil {
			yield(Record{}, st.err)
		}
	}
}

// Close releases the underlying file.
func (st *Stream) Close() error {
	err := st.file.Close()
	if err != nil {
		return fmt.Errorf("close word list: %w", err)
	}

	return nil
}
