package verifier_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/pbkdf2hash"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/verifier"
)

// PBKDF2-HMAC-SHA256("password123", "AMtzteQIG7yAbZIa", 1000, 32).
const fixtureHash = "pbkdf2:sha256:1000$AMtzteQIG7yAbZIa$cdc6199eb535eb032e44d08a32ffe102f529b9f494c37f2c9fd1f472cbb55e33"

func newFixture(t *testing.T) *verifier.Verifier {
	t.Helper()

	desc, err := pbkdf2hash.Parse(fixtureHash)
	require.NoError(t, err)

	return verifier.New(desc)
}

func TestVerifier_Test(t *testing.T) {
	t.Parallel()

	v := newFixture(t)

	assert.True(t, v.Test("password123"))
	assert.False(t, v.Test("password124"))
	assert.False(t, v.Test("Password123"))
	assert.False(t, v.Test(""))
	assert.Equal(t, uint32(1000), v.Iterations())
	assert.Equal(t, 16, v.SaltLen())
}

func TestVerifier_ConcurrentUse(t *testing.T) {
	t.Parallel()

	v := newFixture(t)

	const goroutines = 8

	results := make([]bool, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if i%2 == 0 {
				results[i] = v.Test("password123")
			} else {
				results[i] = !v.Test("wrong")
			}
		}()
	}

	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "goroutine %d", i)
	}
}

func TestConstantTimeEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []byte
		want bool
	}{
		{"equal", []byte{1, 2, 3}, []byte{1, 2, 3}, true},
		{"both empty", nil, []byte{}, true},
		{"first byte differs", []byte{0, 2, 3}, []byte{1, 2, 3}, false},
		{"last byte differs", []byte{1, 2, 3}, []byte{1, 2, 4}, false},
		{"length mismatch", []byte{1, 2}, []byte{1, 2, 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, verifier.ConstantTimeEqual(tt.a, tt.b))
		})
	}
}

func TestVerifyString(t *testing.T) {
	t.Parallel()

	ok, err := verifier.VerifyString(fixtureHash, "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifier.VerifyString(fixtureHash, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = verifier.VerifyString("pbkdf2:sha256:0$salt$00", "x")
	require.ErrorIs(t, err, pbkdf2hash.ErrInvalidIterations)
}

func BenchmarkVerifier_Test(b *testing.B) {
	desc, err := pbkdf2hash.Make("password", "salt", pbkdf2hash.DefaultIterations)
	require.NoError(b, err)

	v := verifier.New(desc)

	b.ResetTimer()

	for b.Loop() {
		v.Test("candidate")
	}
}

// benchmarkConstantTimeEqual compares digests that differ in every byte from
// index from onwards. FirstDiff and LastDiff report comparable ns/op when
// comparison time does not depend on where the mismatch falls.
func benchmarkConstantTimeEqual(b *testing.B, from int) {
	b.Helper()

	want := bytes.Repeat([]byte{0xA5}, pbkdf2hash.DigestSize)
	got := bytes.Clone(want)

	for i := from; i < len(got); i++ {
		got[i] ^= 0xFF
	}

	for b.Loop() {
		verifier.ConstantTimeEqual(want, got)
	}
}

func BenchmarkConstantTimeEqual_FirstDiff(b *testing.B) {
	benchmarkConstantTimeEqual(b, 0)
}

func BenchmarkConstantTimeEqual_LastDiff(b *testing.B) {
	benchmarkConstantTimeEqual(b, pbkdf2hash.DigestSize-1)
}
