package jpegls

import (
	"fmt"
	"math/bits"
)

// Traits holds the integer arithmetic derived from MAXVAL and NEAR.
type Traits struct {
	MaximumSampleValue     int
	NearLossless           int
	Range                  int
	QuantizedBitsPerSample int
	BitsPerSample          int
	Limit                  int
	ResetThreshold         int
}

// NewTraits derives RANGE, qbpp, bpp and LIMIT (ISO/IEC 14495-1 A.2.1).
func NewTraits(maximumSampleValue, nearLossless, resetThreshold int) (Traits, error) {
	if maximumSampleValue < 1 || maximumSampleValue > 1<<maximumBitsPerSample-1 {
		return Traits{}, fmt.Errorf("%w: maximum sample value %d", ErrInvalidParameter, maximumSampleValue)
	}
	if nearLossless < 0 || nearLossless > min(maximumNearLossless, maximumSampleValue/2) {
		return Traits{}, fmt.Errorf("%w: near lossless %d", ErrInvalidParameter, nearLossless)
	}
	if resetThreshold < 3 {
		return Traits{}, fmt.Errorf("%w: reset %d", ErrInvalidParameter, resetThreshold)
	}
	t := Traits{
		MaximumSampleValue: maximumSampleValue,
		NearLossless:       nearLossless,
		Range:              (maximumSampleValue+2*nearLossless)/(2*nearLossless+1) + 1,
		ResetThreshold:     resetThreshold,
	}
	t.QuantizedBitsPerSample = Log2Ceiling(t.Range)
	t.BitsPerSample = max(2, Log2Ceiling(maximumSampleValue+1))
	t.Limit = 2 * (t.BitsPerSample + max(8, t.BitsPerSample))
	return t, nil
}

// ModuloRange folds errorValue into [-RANGE/2, (RANGE+1)/2 - 1].
func (t *Traits) ModuloRange(errorValue int) int {
	if errorValue < 0 {
		errorValue += t.Range
	}
	if errorValue >= (t.Range+1)/2 {
		errorValue -= t.Range
	}
	return errorValue
}

// ComputeErrorValue quantizes a prediction residual and reduces it modulo RANGE.
func (t *Traits) ComputeErrorValue(e int) int {
	return t.ModuloRange(t.quantize(e))
}

// ComputeReconstructedSample returns the sample the decoder will see for predicted + errorValue.
func (t *Traits) ComputeReconstructedSample(predictedValue, errorValue int) int {
	return t.fixReconstructedValue(predictedValue + errorValue*(2*t.NearLossless+1))
}

// IsNear reports whether two samples are equal within the near-lossless tolerance.
func (t *Traits) IsNear(lhs, rhs int) bool {
	return abs(lhs-rhs) <= t.NearLossless
}

// CorrectPrediction clamps a bias corrected prediction to [0, MAXVAL].
func (t *Traits) CorrectPrediction(predicted int) int {
	return clamp(predicted, 0, t.MaximumSampleValue)
}

func (t *Traits) quantize(e int) int {
	switch {
	case e > t.NearLossless:
		return (e + t.NearLossless) / (2*t.NearLossless + 1)
	case e < -t.NearLossless:
		return (e - t.NearLossless) / (2*t.NearLossless + 1)
	}
	return 0
}

func (t *Traits) fixReconstructedValue(value int) int {
	if value < -t.NearLossless {
		value += t.Range * (2*t.NearLossless + 1)
	} else if value > t.MaximumSampleValue+t.NearLossless {
		value -= t.Range * (2*t.NearLossless + 1)
	}
	return t.CorrectPrediction(value)
}

// MapErrorValue maps a signed residual onto the non-negative integers (2e, -2e-1).
func MapErrorValue(errorValue int) int {
	if errorValue >= 0 {
		return 2 * errorValue
	}
	return -2*errorValue - 1
}

// UnmapErrorValue is the inverse of MapErrorValue.
func UnmapErrorValue(mappedErrorValue int) int {
	if mappedErrorValue&1 == 0 {
		return mappedErrorValue >> 1
	}
	return -((mappedErrorValue + 1) >> 1)
}

// Log2Ceiling returns ceil(log2(n)) for n >= 1.
func Log2Ceiling(n int) int {
	return bits.Len(uint(n - 1))
}

// InitializationValueForA is the starting A of every context (A.2.1).
func InitializationValueForA(rng int) int {
	return max(2, (rng+32)/64)
}

func bitWiseSign(i int) int {
	return i >> (bits.UintSize - 1)
}

func applySign(i, sign int) int {
	return (sign ^ i) - sign
}

// sign returns 1 for n >= 0 and -1 otherwise.
func sign(n int) int {
	return (n>>(bits.UintSize-1))|1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
