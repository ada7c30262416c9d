package jpegls

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictMED(t *testing.T) {
	tests := []struct {
		ra, rb, rc int
		want       int
	}{
		{10, 10, 10, 10},
		{100, 200, 300, 100}, // rc above both: min
		{200, 100, 50, 200},  // rc below both: max
		{10, 30, 20, 20},     // planar
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PredictMED(tt.ra, tt.rb, tt.rc), "PredictMED(%d, %d, %d)", tt.ra, tt.rb, tt.rc)
	}
}

func TestQuantizer_ContextID(t *testing.T) {
	q := quantizer{t1: 3, t2: 7, t3: 21}
	assert.Equal(t, 0, q.contextID(0, 0, 0, 0))

	// rd-rb = 5 lands in region 2
	assert.Equal(t, 162, q.contextID(5, 0, 0, 0))
	assert.Equal(t, -162, q.contextID(-5, 0, 0, 0))

	qs := q.contextID(-5, 0, 0, 0)
	sign := bitWiseSign(qs)
	assert.Equal(t, -1, sign)
	assert.Equal(t, 162, applySign(qs, sign))

	for d, want := range map[int]int{-21: -4, -20: -3, -7: -3, -6: -2, -3: -2, -2: -1, 0: 0, 1: 1, 2: 1, 3: 2, 7: 3, 20: 3, 21: 4} {
		assert.Equal(t, want, q.quantizeGradient(d), "d=%d", d)
	}
}

func TestRegularContext_GolombCodingParameter(t *testing.T) {
	ctx := newRegularContext(256)
	k, err := ctx.golombCodingParameter()
	require.NoError(t, err)
	assert.Equal(t, 2, k)

	ctx = regularContext{a: 1 << 20, n: 1}
	_, err = ctx.golombCodingParameter()
	assert.ErrorIs(t, err, ErrInvalidEncodedData)
}

func TestRegularContext_ResetStability(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	const reset = 64
	ctx := newRegularContext(256)
	for i := 0; i < 100000; i++ {
		e := r.Intn(256) - 128
		if i%3 == 0 {
			e = r.Intn(8) // drift the bias
		}
		require.NoError(t, ctx.update(e, 0, reset))
		require.True(t, ctx.n >= 1 && ctx.n <= reset, "N=%d", ctx.n)
		require.GreaterOrEqual(t, ctx.a, 0)
		require.True(t, ctx.b > -ctx.n && ctx.b <= 0, "B=%d N=%d", ctx.b, ctx.n)
		require.True(t, ctx.c >= minC && ctx.c <= maxC, "C=%d", ctx.c)
		_, err := ctx.golombCodingParameter()
		require.NoError(t, err)
	}
}

func TestRegularContext_BiasSaturates(t *testing.T) {
	ctx := newRegularContext(256)
	for i := 0; i < 1000; i++ {
		require.NoError(t, ctx.update(5, 0, 64))
	}
	assert.Equal(t, maxC, ctx.c)
	for i := 0; i < 2000; i++ {
		require.NoError(t, ctx.update(-5, 0, 64))
	}
	assert.Equal(t, minC, ctx.c)
}

func TestRegularContext_Overflow(t *testing.T) {
	ctx := regularContext{a: contextLimitA - 1, n: 2}
	assert.ErrorIs(t, ctx.update(10, 0, 64), ErrInvalidEncodedData)
}

func TestRunContext_ErrorValueInverse(t *testing.T) {
	for _, typ := range []int{0, 1} {
		for n := 1; n < 10; n++ {
			for nn := 0; nn <= n; nn++ {
				ctx := runContext{a: 4, n: n, nn: nn, interruptionType: typ}
				for k := 0; k < 5; k++ {
					for e := -60; e <= 60; e++ {
						if typ == 1 && e == 0 {
							continue
						}
						mapBit := 0
						if ctx.computeMap(e, k) {
							mapBit = 1
						}
						mapped := 2*abs(e) - typ - mapBit
						require.GreaterOrEqual(t, mapped, 0)
						require.Equal(t, e, ctx.computeErrorValue(mapped+typ, k), "type %d n %d nn %d k %d", typ, n, nn, k)
					}
				}
			}
		}
	}
}

func TestRunContext_UpdateHalves(t *testing.T) {
	ctx := newRunContext(0, 256)
	for i := 0; i < 1000; i++ {
		ctx.update(-3, 5, 64)
		require.True(t, ctx.n >= 1 && ctx.n <= 64)
		require.LessOrEqual(t, ctx.nn, ctx.n)
	}
	k, err := ctx.golombCode()
	require.NoError(t, err)
	assert.LessOrEqual(t, k, maxKValue)
}
