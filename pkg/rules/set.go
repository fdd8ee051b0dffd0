package rules

const (
	defaultDigitMax  = 999
	defaultYearFirst = 2000
	defaultYearLast  = 2030
	defaultSpecials  = "!@#$%&*"
)

// Set is an ordered, never-empty sequence of rules. It is read-only after
// construction and safe to share between goroutines.
type Set struct {
	rules []Rule
}

// NewSet builds a set from rules. An empty argument list yields the
// identity set.
func NewSet(rules ...Rule) *Set {
	if len(rules) == 0 {
		return Identity()
	}

	cp := make([]Rule, len(rules))
	copy(cp, rules)

	return &Set{rules: cp}
}

// Identity returns the set holding only the no-op rule.
func Identity() *Set {
	return &Set{rules: []Rule{Simple(None)}}
}

// Default returns the built-in preset: none, append_digit 0..999, the
// common specials, case and reverse transforms, then years 2000..2030.
func Default() *Set {
	rules := make([]Rule, 0, DefaultLen)
	rules = append(rules, Simple(None))

	for n := range uint32(defaultDigitMax + 1) {
		rules = append(rules, NewAppendDigit(n))
	}

	for _, c := range defaultSpecials {
		rules = append(rules, NewAppendSpecial(c))
	}

	rules = append(rules,
		Simple(UppercaseFirst),
		Simple(Lowercase),
		Simple(Uppercase),
		Simple(Reverse),
	)

	for y := uint32(defaultYearFirst); y <= defaultYearLast; y++ {
		rules = append(rules, NewAppendYear(y))
	}

	return &Set{rules: rules}
}

// DefaultLen is the number of rules in the Default preset.
const DefaultLen = 1 + (defaultDigitMax + 1) + len(defaultSpecials) + 4 + (defaultYearLast - defaultYearFirst + 1)

// Len returns the number of rules, always at least one.
func (s *Set) Len() int {
	return len(s.rules)
}

// Rules returns a copy of the rules in order.
func (s *Set) Rules() []Rule {
	cp := make([]Rule, len(s.rules))
	copy(cp, s.rules)

	return cp
}

// Expand returns one candidate per rule, in rule order.
func (s *Set) Expand(word string) []string {
	return s.AppendTo(make([]string, 0, len(s.rules)), word)
}

// AppendTo appends the candidates for word to dst and returns the extended slice.
func (s *Set) AppendTo(dst []string, word string) []string {
	for _, r := range s.rules {
		dst = append(dst, r.Apply(word))
	}

	return dst
}
