package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturatingInt64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   uint64
		want int64
	}{
		{"zero", 0, 0},
		{"small", 42, 42},
		{"max_int64", math.MaxInt64, math.MaxInt64},
		{"above_max", math.MaxInt64 + 1, math.MaxInt64},
		{"max_uint64", math.MaxUint64, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, SaturatingInt64(tt.in))
		})
	}
}

func TestMustIntToUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(7), MustIntToUint64(7))
	assert.Equal(t, uint64(MaxInt), MustIntToUint64(MaxInt))

	assert.PanicsWithValue(t, "safeconv: negative int to uint64 conversion", func() {
		MustIntToUint64(-1)
	})
}

func TestMustUint32ToInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 600000, MustUint32ToInt(600000))
}
