package rules_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/rules"
)

func TestRule_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rule rules.Rule
		in   string
		want string
	}{
		{rules.Simple(rules.None), "password", "password"},
		{rules.NewAppendDigit(123), "password", "password123"},
		{rules.NewPrependDigit(99), "password", "99password"},
		{rules.Simple(rules.UppercaseFirst), "password", "Password"},
		{rules.Simple(rules.UppercaseFirst), "élan", "Élan"},
		{rules.Simple(rules.UppercaseFirst), "", ""},
		{rules.Simple(rules.Lowercase), "PassWORD", "password"},
		{rules.Simple(rules.Uppercase), "password", "PASSWORD"},
		{rules.Simple(rules.Reverse), "password", "drowssap"},
		{rules.Simple(rules.Reverse), "añb", "bña"},
		{rules.NewAppendSpecial('!'), "password", "password!"},
		{rules.NewPrependSpecial('@'), "password", "@password"},
		{rules.Simple(rules.Duplicate), "abc", "abcabc"},
		{rules.NewAppendYear(2024), "summer", "summer2024"},
	}

	for _, tt := range tests {
		t.Run(tt.rule.String()+"/"+tt.in, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.rule.Apply(tt.in))
			assert.Equal(t, tt.want, tt.rule.Apply(tt.in), "apply must be deterministic")
		})
	}
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want rules.Rule
		ok   bool
	}{
		{"none", rules.Simple(rules.None), true},
		{"append_digit:123", rules.NewAppendDigit(123), true},
		{"  prepend_digit:5  ", rules.NewPrependDigit(5), true},
		{"uppercase_first", rules.Simple(rules.UppercaseFirst), true},
		{"lowercase", rules.Simple(rules.Lowercase), true},
		{"uppercase", rules.Simple(rules.Uppercase), true},
		{"reverse", rules.Simple(rules.Reverse), true},
		{"append_special:!", rules.NewAppendSpecial('!'), true},
		{"prepend_special:€", rules.NewPrependSpecial('€'), true},
		{"duplicate", rules.Simple(rules.Duplicate), true},
		{"append_year:2024", rules.NewAppendYear(2024), true},
		{"", rules.Rule{}, false},
		{"   ", rules.Rule{}, false},
		{"# comment", rules.Rule{}, false},
		{"  # indented comment", rules.Rule{}, false},
		{"invalid_rule", rules.Rule{}, false},
		{"append_digit", rules.Rule{}, false},
		{"append_digit:", rules.Rule{}, false},
		{"append_digit:abc", rules.Rule{}, false},
		{"append_digit:-1", rules.Rule{}, false},
		{"append_digit:1:2", rules.Rule{}, false},
		{"append_year:99999999999", rules.Rule{}, false},
		{"append_special:", rules.Rule{}, false},
		{"append_special:!!", rules.Rule{}, false},
		{"append_special::", rules.Rule{}, false},
		{"Lowercase", rules.Rule{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()

			got, ok := rules.ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLine_AppliesAsDocumented(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"append_digit:123": "password123",
		"reverse":          "drowssap",
		"uppercase_first":  "Password",
	}

	for line, want := range cases {
		r, ok := rules.ParseLine(line)
		require.True(t, ok, line)
		assert.Equal(t, want, r.Apply("password"), line)
	}
}

func TestRule_StringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, r := range rules.Default().Rules() {
		parsed, ok := rules.ParseLine(r.String())
		require.True(t, ok, r.String())
		assert.Equal(t, r, parsed)
	}
}

func TestLoad_DropsMalformedLines(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"# common suffixes",
		"append_digit:1",
		"",
		"bogus",
		"append_special:!!",
		"uppercase_first",
		"   ",
		"reverse",
	}, "\n")

	set, stats, err := rules.Load(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, rules.LoadStats{Loaded: 3, Dropped: 2, Skipped: 3}, stats)
	assert.Equal(t, []string{"password1", "Password", "drowssap"}, set.Expand("password"))
}

func TestLoad_EmptyFallsBackToIdentity(t *testing.T) {
	t.Parallel()

	set, stats, err := rules.Load(strings.NewReader("# nothing here\nnot_a_rule\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, set.Len())
	assert.Equal(t, []string{"word"}, set.Expand("word"))
	assert.Equal(t, 0, stats.Loaded)
	assert.Equal(t, 1, stats.Dropped)
}

func TestLoad_ReadErrorIsFatal(t *testing.T) {
	t.Parallel()

	_, _, err := rules.Load(iotest.ErrReader(errors.New("disk gone")))
	require.ErrorIs(t, err, rules.ErrRulesFile)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.txt")
	require.NoError(t, os.WriteFile(path, []byte("lowercase\nappend_year:2024\n"), 0o600))

	set, stats, err := rules.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, []string{"summer", "SUMMER2024"}, set.Expand("SUMMER"))

	_, _, err = rules.LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, rules.ErrRulesFile)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	set := rules.Default()
	all := set.Rules()

	require.Len(t, all, rules.DefaultLen)
	assert.Equal(t, 1043, rules.DefaultLen)

	assert.Equal(t, rules.Simple(rules.None), all[0])
	assert.Equal(t, rules.NewAppendDigit(0), all[1])
	assert.Equal(t, rules.NewAppendDigit(999), all[1000])
	assert.Equal(t, rules.NewAppendSpecial('!'), all[1001])
	assert.Equal(t, rules.NewAppendSpecial('*'), all[1007])
	assert.Equal(t, rules.Simple(rules.UppercaseFirst), all[1008])
	assert.Equal(t, rules.Simple(rules.Reverse), all[1011])
	assert.Equal(t, rules.NewAppendYear(2000), all[1012])
	assert.Equal(t, rules.NewAppendYear(2030), all[len(all)-1])
}

func TestSet_Expand(t *testing.T) {
	t.Parallel()

	set := rules.NewSet(rules.Simple(rules.None), rules.NewAppendDigit(1), rules.Simple(rules.Duplicate))

	assert.Equal(t, []string{"ab", "ab1", "abab"}, set.Expand("ab"))
	assert.Equal(t, set.Expand("ab"), set.Expand("ab"))

	dst := set.AppendTo([]string{"keep"}, "x")
	assert.Equal(t, []string{"keep", "x", "x1", "xx"}, dst)
}

func TestNewSet_EmptyIsIdentity(t *testing.T) {
	t.Parallel()

	set := rules.NewSet()
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, []rules.Rule{rules.Simple(rules.None)}, set.Rules())
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "append_year", rules.AppendYear.String())
	assert.Equal(t, "kind(200)", rules.Kind(200).String())
}

func BenchmarkSet_AppendTo_Default(b *testing.B) {
	set := rules.Default()
	dst := make([]string, 0, set.Len())

	for b.Loop() {
		dst = set.AppendTo(dst[:0], "password")
	}
}
