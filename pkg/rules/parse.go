package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	commentPrefix  = "#"
	paramSeparator = ":"
)

// ErrRulesFile wraps open and read failures of a rules file.
var ErrRulesFile = errors.New("rules: cannot read rules file")

// LoadStats describes the outcome of loading a rules file.
type LoadStats struct {
	// Loaded is the number of rules parsed from the input.
	Loaded int
	// Dropped counts non-blank, non-comment lines that did not parse.
	Dropped int
	// Skipped counts blank and comment lines.
	Skipped int
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = Kind(k)
	}

	return m
}()

// ParseLine parses one rules-file line. It returns false for blank lines,
// comments, unknown operators and malformed parameters.
func ParseLine(line string) (Rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, commentPrefix) {
		return Rule{}, false
	}

	parts := strings.Split(line, paramSeparator)

	kind, ok := kindByName[parts[0]]
	if !ok {
		return Rule{}, false
	}

	switch kind {
	case AppendDigit, PrependDigit, AppendYear:
		if len(parts) != 2 {
			return Rule{}, false
		}

		n, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return Rule{}, false
		}

		return Rule{Kind: kind, Number: uint32(n)}, true
	case AppendSpecial, PrependSpecial:
		if len(parts) != 2 || utf8.RuneCountInString(parts[1]) != 1 {
			return Rule{}, false
		}

		c, _ := utf8.DecodeRuneInString(parts[1])
		if c == utf8.RuneError {
			return Rule{}, false
		}

		return Rule{Kind: kind, Char: c}, true
	case None, UppercaseFirst, Lowercase, Uppercase, Reverse, Duplicate:
		return Rule{Kind: kind}, true
	default:
		return Rule{}, false
	}
}

// Load reads rules from r, one per line. Unparseable lines are dropped and
// counted. An input with no usable rule yields the identity set.
func Load(r io.Reader) (*Set, LoadStats, error) {
	var (
		parsed []Rule
		stats  LoadStats
	)

	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++

		text := scanner.Text()

		rule, ok := ParseLine(text)
		if ok {
			parsed = append(parsed, rule)

			continue
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, commentPrefix) {
			stats.Skipped++
		} else {
			stats.Dropped++
		}
	}

	err := scanner.Err()
	if err != nil {
		return nil, stats, fmt.Errorf("%w: line %d: %w", ErrRulesFile, lineNum+1, err)
	}

	stats.Loaded = len(parsed)

	return NewSet(parsed...), stats, nil
}

// LoadFile opens path and loads its rules.
func LoadFile(path string) (*Set, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("%w: %w", ErrRulesFile, err)
	}
	defer f.Close()

	return Load(f)
}
