package jpegls

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTraits(t *testing.T) {
	tests := []struct {
		name                  string
		maxVal, near          int
		rng, qbpp, bpp, limit int
	}{
		{"8-bit lossless", 255, 0, 256, 8, 8, 32},
		{"16-bit lossless", 65535, 0, 65536, 16, 16, 64},
		{"12-bit near 3", 4095, 3, 586, 10, 12, 48},
		{"2-bit lossless", 3, 0, 4, 2, 2, 20},
		{"maxval 1000", 1000, 0, 1001, 10, 10, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTraits(tt.maxVal, tt.near, 64)
			require.NoError(t, err)
			assert.Equal(t, tt.rng, tr.Range)
			assert.Equal(t, tt.qbpp, tr.QuantizedBitsPerSample)
			assert.Equal(t, tt.bpp, tr.BitsPerSample)
			assert.Equal(t, tt.limit, tr.Limit)
		})
	}
}

func TestNewTraits_Invalid(t *testing.T) {
	_, err := NewTraits(0, 0, 64)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewTraits(255, 128, 64)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewTraits(255, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestMapErrorValue_Inverse(t *testing.T) {
	for e := -70000; e <= 70000; e++ {
		m := MapErrorValue(e)
		require.GreaterOrEqual(t, m, 0, "MapErrorValue(%d)", e)
		require.Equal(t, e, UnmapErrorValue(m), "UnmapErrorValue(MapErrorValue(%d))", e)
	}
	assert.Equal(t, 0, MapErrorValue(0))
	assert.Equal(t, 1, MapErrorValue(-1))
	assert.Equal(t, 2, MapErrorValue(1))
}

func TestModuloRange_Bounded(t *testing.T) {
	for _, rng := range []int{4, 5, 86, 256, 257, 586, 65536} {
		tr := Traits{Range: rng}
		lo, hi := -(rng / 2), (rng+1)/2-1
		for i := -(rng - 1); i < rng; i++ {
			v := tr.ModuloRange(i)
			require.True(t, v >= lo && v <= hi, "range %d: ModuloRange(%d) = %d", rng, i, v)
			require.Zero(t, (v-i)%rng, "range %d: ModuloRange(%d) = %d not congruent", rng, i, v)
		}
	}
}

func TestLog2Ceiling(t *testing.T) {
	for n := 1; n <= 70000; n++ {
		require.Equal(t, int(math.Ceil(math.Log2(float64(n)))), Log2Ceiling(n), "n=%d", n)
	}
}

func TestInitializationValueForA(t *testing.T) {
	assert.Equal(t, 4, InitializationValueForA(256))
	assert.Equal(t, 2, InitializationValueForA(4))
	assert.Equal(t, 1024, InitializationValueForA(65536))
}

func TestReconstruction_NearLosslessBound(t *testing.T) {
	for _, near := range []int{0, 1, 3, 7} {
		tr, err := NewTraits(255, near, 64)
		require.NoError(t, err)
		for _, p := range []int{0, 17, 128, 250, 255} {
			for x := 0; x <= 255; x++ {
				e := tr.ComputeErrorValue(x - p)
				got := tr.ComputeReconstructedSample(p, e)
				require.LessOrEqual(t, abs(got-x), near, "near %d predicted %d sample %d", near, p, x)
			}
		}
	}
}

func TestSignHelpers(t *testing.T) {
	assert.Equal(t, 0, bitWiseSign(5))
	assert.Equal(t, -1, bitWiseSign(-5))
	assert.Equal(t, 5, applySign(5, 0))
	assert.Equal(t, -5, applySign(5, -1))
	assert.Equal(t, 1, sign(0))
	assert.Equal(t, -1, sign(-3))
}
