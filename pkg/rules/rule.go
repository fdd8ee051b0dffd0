// Package rules implements the deterministic word mutation rules used to
// expand each dictionary word into password candidates.
package rules

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind identifies a mutation operator.
type Kind uint8

// Supported operators. The set is closed: Apply and String switch over all of them.
const (
	None Kind = iota
	AppendDigit
	PrependDigit
	UppercaseFirst
	Lowercase
	Uppercase
	Reverse
	AppendSpecial
	PrependSpecial
	Duplicate
	AppendYear
)

var kindNames = [...]string{
	None:           "none",
	AppendDigit:    "append_digit",
	PrependDigit:   "prepend_digit",
	UppercaseFirst: "uppercase_first",
	Lowercase:      "lowercase",
	Uppercase:      "uppercase",
	Reverse:        "reverse",
	AppendSpecial:  "append_special",
	PrependSpecial: "prepend_special",
	Duplicate:      "duplicate",
	AppendYear:     "append_year",
}

// String returns the operator name used in rules files.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Rule is a single mutation. Number is used by the digit and year
// operators, Char by the special-character operators.
type Rule struct {
	Kind   Kind
	Number uint32
	Char   rune
}

// NewAppendDigit returns an append_digit rule.
func NewAppendDigit(n uint32) Rule { return Rule{Kind: AppendDigit, Number: n} }

// NewPrependDigit returns a prepend_digit rule.
func NewPrependDigit(n uint32) Rule { return Rule{Kind: PrependDigit, Number: n} }

// NewAppendYear returns an append_year rule.
func NewAppendYear(y uint32) Rule { return Rule{Kind: AppendYear, Number: y} }

// NewAppendSpecial returns an append_special rule.
func NewAppendSpecial(c rune) Rule { return Rule{Kind: AppendSpecial, Char: c} }

// NewPrependSpecial returns a prepend_special rule.
func NewPrependSpecial(c rune) Rule { return Rule{Kind: PrependSpecial, Char: c} }

// Simple returns a parameterless rule of kind k.
func Simple(k Kind) Rule { return Rule{Kind: k} }

// Apply returns the candidate produced by applying r to word.
// It is pure: the same rule and word always give the same result.
func (r Rule) Apply(word string) string {
	switch r.Kind {
	case None:
		return word
	case AppendDigit, AppendYear:
		return word + strconv.FormatUint(uint64(r.Number), 10)
	case PrependDigit:
		return strconv.FormatUint(uint64(r.Number), 10) + word
	case UppercaseFirst:
		return upperFirst(word)
	case Lowercase:
		return strings.ToLower(word)
	case Uppercase:
		return strings.ToUpper(word)
	case Reverse:
		return reverse(word)
	case AppendSpecial:
		return word + string(r.Char)
	case PrependSpecial:
		return string(r.Char) + word
	case Duplicate:
		return word + word
	default:
		return word
	}
}

// String renders r in rules-file syntax.
func (r Rule) String() string {
	switch r.Kind {
	case AppendDigit, PrependDigit, AppendYear:
		return r.Kind.String() + paramSeparator + strconv.FormatUint(uint64(r.Number), 10)
	case AppendSpecial, PrependSpecial:
		return r.Kind.String() + paramSeparator + string(r.Char)
	case None, UppercaseFirst, Lowercase, Uppercase, Reverse, Duplicate:
		return r.Kind.String()
	default:
		return r.Kind.String()
	}
}

func upperFirst(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if size == 0 {
		return word
	}

	return string(unicode.ToUpper(first)) + word[size:]
}

func reverse(word string) string {
	runes := []rune(word)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}

	return string(runes)
}
