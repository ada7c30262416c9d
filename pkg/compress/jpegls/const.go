package jpegls

import "fmt"

// JPEG / JPEG-LS markers (second byte, first is always 0xFF).
const (
	markerStartByte = 0xFF

	MarkerSOI   = 0xD8 // start of image
	MarkerEOI   = 0xD9 // end of image
	MarkerSOS   = 0xDA // start of scan
	MarkerDNL   = 0xDC // define number of lines
	MarkerDRI   = 0xDD // define restart interval
	MarkerRST0  = 0xD0 // restart marker 0, RST1..RST7 follow
	MarkerSOF55 = 0xF7 // start of frame, JPEG-LS
	MarkerLSE   = 0xF8 // JPEG-LS preset parameters
	MarkerAPP0  = 0xE0
	MarkerAPP8  = 0xE8 // colour transform segment ("mrfx")
	MarkerCOM   = 0xFE
)

const (
	minimumBitsPerSample = 2
	maximumBitsPerSample = 16
	maximumComponents    = 255
	maximumInterleaved   = 4
	maximumDimension     = 65535
	maximumNearLossless  = 255
	defaultResetValue    = 64
	restartMarkerCount   = 8
)

// FrameInfo describes the geometry of an image.
type FrameInfo struct {
	Width          int
	Height         int
	BitsPerSample  int
	ComponentCount int
}

// Validate checks the frame geometry.
func (f FrameInfo) Validate() error {
	switch {
	case f.Width < 1 || f.Width > maximumDimension:
		return fmt.Errorf("%w: width %d", ErrInvalidParameter, f.Width)
	case f.Height < 1 || f.Height > maximumDimension:
		return fmt.Errorf("%w: height %d", ErrInvalidParameter, f.Height)
	case f.BitsPerSample < minimumBitsPerSample || f.BitsPerSample > maximumBitsPerSample:
		return fmt.Errorf("%w: bits per sample %d", ErrInvalidParameter, f.BitsPerSample)
	case f.ComponentCount < 1 || f.ComponentCount > maximumComponents:
		return fmt.Errorf("%w: component count %d", ErrInvalidParameter, f.ComponentCount)
	}
	return nil
}

// BytesPerSample is the external storage size of one sample.
func (f FrameInfo) BytesPerSample() int {
	if f.BitsPerSample <= 8 {
		return 1
	}
	return 2
}

// InterleaveMode selects how components are ordered inside a scan.
type InterleaveMode int

const (
	InterleaveNone   InterleaveMode = 0
	InterleaveLine   InterleaveMode = 1
	InterleaveSample InterleaveMode = 2
)

func (m InterleaveMode) String() string {
	switch m {
	case InterleaveNone:
		return "none"
	case InterleaveLine:
		return "line"
	case InterleaveSample:
		return "sample"
	}
	return fmt.Sprintf("InterleaveMode(%d)", int(m))
}

// ParseInterleaveMode accepts the names produced by String.
func ParseInterleaveMode(s string) (InterleaveMode, error) {
	switch s {
	case "none", "":
		return InterleaveNone, nil
	case "line":
		return InterleaveLine, nil
	case "sample":
		return InterleaveSample, nil
	}
	return InterleaveNone, fmt.Errorf("%w: interleave mode %q", ErrInvalidParameter, s)
}

// ColorTransform selects the reversible HP colour transform applied before coding.
type ColorTransform int

const (
	ColorTransformNone ColorTransform = 0
	ColorTransformHP1  ColorTransform = 1
	ColorTransformHP2  ColorTransform = 2
	ColorTransformHP3  ColorTransform = 3
)

func (c ColorTransform) String() string {
	switch c {
	case ColorTransformNone:
		return "none"
	case ColorTransformHP1:
		return "hp1"
	case ColorTransformHP2:
		return "hp2"
	case ColorTransformHP3:
		return "hp3"
	}
	return fmt.Sprintf("ColorTransform(%d)", int(c))
}

// ParseColorTransform accepts the names produced by String.
func ParseColorTransform(s string) (ColorTransform, error) {
	switch s {
	case "none", "":
		return ColorTransformNone, nil
	case "hp1":
		return ColorTransformHP1, nil
	case "hp2":
		return ColorTransformHP2, nil
	case "hp3":
		return ColorTransformHP3, nil
	}
	return ColorTransformNone, fmt.Errorf("%w: color transform %q", ErrInvalidParameter, s)
}

// CodingParameters are the per-scan options chosen by the framing layer.
type CodingParameters struct {
	NearLossless    int
	InterleaveMode  InterleaveMode
	RestartInterval int // in lines, 0 disables restart markers
	ColorTransform  ColorTransform
}
