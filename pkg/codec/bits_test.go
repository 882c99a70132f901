package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToI32(t *testing.T) {
	tests := []struct {
		in   float32
		want int32
	}{
		{0, 0},
		{1.9, 1},
		{-1.9, -1},
		{-100, -100},
		{1e10, math.MaxInt32},
		{-1e10, math.MinInt32},
		{float32(math.Inf(1)), math.MaxInt32},
		{float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toI32(tt.in), "toI32(%v)", tt.in)
	}
}

func TestToU32(t *testing.T) {
	tests := []struct {
		in   float32
		want uint32
	}{
		{0, 0},
		{3.99, 3},
		{-5, 0},
		{-0.5, 0},
		{65536, 65536},
		{5e9, math.MaxUint32},
		{float32(math.Inf(-1)), 0},
		{float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toU32(tt.in), "toU32(%v)", tt.in)
	}
}

func TestU8TruncatesSaturated(t *testing.T) {
	assert.Equal(t, byte(200), u8(200.7))
	assert.Equal(t, byte(0x2C), u8(300))
	assert.Equal(t, byte(0xFF), u8(1e12))
	assert.Equal(t, byte(0), u8(-3))
}
