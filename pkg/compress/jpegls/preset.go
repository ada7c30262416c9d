package jpegls

import "fmt"

// PresetCodingParameters mirror the LSE type 1 segment. Zero fields select defaults.
type PresetCodingParameters struct {
	MaximumSampleValue int
	Threshold1         int
	Threshold2         int
	Threshold3         int
	ResetValue         int
}

// IsDefault reports whether every field is zero.
func (p PresetCodingParameters) IsDefault() bool {
	return p == PresetCodingParameters{}
}

// DefaultPresetCodingParameters computes the thresholds of ISO/IEC 14495-1 C.2.4.1.1.
func DefaultPresetCodingParameters(maximumSampleValue, nearLossless int) PresetCodingParameters {
	const (
		basicT1 = 3
		basicT2 = 7
		basicT3 = 21
	)
	p := PresetCodingParameters{MaximumSampleValue: maximumSampleValue, ResetValue: defaultResetValue}
	if maximumSampleValue >= 128 {
		factor := (min(maximumSampleValue, 4095) + 128) / 256
		p.Threshold1 = clampThreshold(factor*(basicT1-2)+2+3*nearLossless, nearLossless+1, maximumSampleValue)
		p.Threshold2 = clampThreshold(factor*(basicT2-3)+3+5*nearLossless, p.Threshold1, maximumSampleValue)
		p.Threshold3 = clampThreshold(factor*(basicT3-4)+4+7*nearLossless, p.Threshold2, maximumSampleValue)
		return p
	}
	factor := 256 / (maximumSampleValue + 1)
	p.Threshold1 = clampThreshold(max(2, basicT1/factor+3*nearLossless), nearLossless+1, maximumSampleValue)
	p.Threshold2 = clampThreshold(max(3, basicT2/factor+5*nearLossless), p.Threshold1, maximumSampleValue)
	p.Threshold3 = clampThreshold(max(4, basicT3/factor+7*nearLossless), p.Threshold2, maximumSampleValue)
	return p
}

func clampThreshold(i, j, maximumSampleValue int) int {
	if i > maximumSampleValue || i < j {
		return j
	}
	return i
}

// Resolve fills zero fields with defaults and validates the result.
func (p PresetCodingParameters) Resolve(bitsPerSample, nearLossless int) (PresetCodingParameters, error) {
	maximumSampleValue := 1<<bitsPerSample - 1
	if p.MaximumSampleValue != 0 {
		if p.MaximumSampleValue < 1 || p.MaximumSampleValue > maximumSampleValue {
			return p, fmt.Errorf("%w: preset MAXVAL %d", ErrInvalidParameter, p.MaximumSampleValue)
		}
		maximumSampleValue = p.MaximumSampleValue
	}
	if nearLossless < 0 || nearLossless > min(maximumNearLossless, maximumSampleValue/2) {
		return p, fmt.Errorf("%w: near lossless %d", ErrInvalidParameter, nearLossless)
	}
	d := DefaultPresetCodingParameters(maximumSampleValue, nearLossless)
	r := PresetCodingParameters{
		MaximumSampleValue: maximumSampleValue,
		Threshold1:         orDefault(p.Threshold1, d.Threshold1),
		Threshold2:         orDefault(p.Threshold2, d.Threshold2),
		Threshold3:         orDefault(p.Threshold3, d.Threshold3),
		ResetValue:         orDefault(p.ResetValue, d.ResetValue),
	}
	switch {
	case r.Threshold1 < nearLossless+1 || r.Threshold1 > maximumSampleValue:
		return r, fmt.Errorf("%w: T1 %d", ErrInvalidParameter, r.Threshold1)
	case r.Threshold2 < r.Threshold1 || r.Threshold2 > maximumSampleValue:
		return r, fmt.Errorf("%w: T2 %d", ErrInvalidParameter, r.Threshold2)
	case r.Threshold3 < r.Threshold2 || r.Threshold3 > maximumSampleValue:
		return r, fmt.Errorf("%w: T3 %d", ErrInvalidParameter, r.Threshold3)
	case r.ResetValue < 3 || r.ResetValue > max(255, maximumSampleValue):
		return r, fmt.Errorf("%w: RESET %d", ErrInvalidParameter, r.ResetValue)
	}
	return r, nil
}

func orDefault(v, d int) int {
	if v == 0 {
		return d
	}
	return v
}
