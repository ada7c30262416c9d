package jpegls

import (
	"encoding/binary"
	"fmt"
)

// J is the run length order table of A.7.1.2.
var J = [32]int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 9, 10, 11, 12, 13, 14, 15}

type scanState int

const (
	scanNotStarted scanState = iota
	scanInProgress
	scanEnded
)

// scanKind is the strategy key chosen once per scan.
type scanKind struct {
	bytesPerSample int
	interleave     InterleaveMode
	transform      ColorTransform
	components     int
}

// scanCodec is the state shared by ScanEncoder and ScanDecoder.
type scanCodec struct {
	frame  FrameInfo
	params CodingParameters
	preset PresetCodingParameters
	traits Traits
	quantizer
	kind     scanKind
	color    colorTransformer
	model    contextModel
	runIndex []int
	state    scanState

	width   int
	rowLen  int // samples per internal row, all components of the scan
	lines   [2][]int
	prev    []int
	curr    []int
	restart int // restart marker counter

	// current position, for diagnostics
	row, column, component int
}

func newScanCodec(frame FrameInfo, preset PresetCodingParameters, params CodingParameters) (scanCodec, error) {
	if err := frame.Validate(); err != nil {
		return scanCodec{}, err
	}
	resolved, err := preset.Resolve(frame.BitsPerSample, params.NearLossless)
	if err != nil {
		return scanCodec{}, err
	}
	if params.RestartInterval < 0 || params.RestartInterval > maximumDimension {
		return scanCodec{}, fmt.Errorf("%w: restart interval %d", ErrInvalidParameter, params.RestartInterval)
	}
	components := 1
	switch params.InterleaveMode {
	case InterleaveNone:
	case InterleaveLine, InterleaveSample:
		components = frame.ComponentCount
		if components < 2 || components > maximumInterleaved {
			return scanCodec{}, fmt.Errorf("%w: %d components in a %s interleaved scan", ErrInvalidParameter, components, params.InterleaveMode)
		}
	default:
		return scanCodec{}, fmt.Errorf("%w: interleave mode %d", ErrInvalidParameter, params.InterleaveMode)
	}
	if params.ColorTransform != ColorTransformNone {
		switch {
		case params.ColorTransform > ColorTransformHP3 || params.ColorTransform < 0:
			return scanCodec{}, fmt.Errorf("%w: color transform %d", ErrInvalidParameter, params.ColorTransform)
		case components != 3:
			return scanCodec{}, fmt.Errorf("%w: color transform needs 3 interleaved components", ErrInvalidParameter)
		case frame.BitsPerSample != 8 && frame.BitsPerSample != 16:
			return scanCodec{}, fmt.Errorf("%w: color transform needs 8 or 16 bits per sample", ErrInvalidParameter)
		case params.NearLossless != 0:
			return scanCodec{}, fmt.Errorf("%w: color transform is lossless only", ErrInvalidParameter)
		}
	}
	traits, err := NewTraits(resolved.MaximumSampleValue, params.NearLossless, resolved.ResetValue)
	if err != nil {
		return scanCodec{}, err
	}
	s := scanCodec{
		frame:  frame,
		params: params,
		preset: resolved,
		traits: traits,
		quantizer: quantizer{
			t1:   resolved.Threshold1,
			t2:   resolved.Threshold2,
			t3:   resolved.Threshold3,
			near: params.NearLossless,
		},
		kind: scanKind{
			bytesPerSample: frame.BytesPerSample(),
			interleave:     params.InterleaveMode,
			transform:      params.ColorTransform,
			components:     components,
		},
		color:    newColorTransformer(params.ColorTransform, frame.BitsPerSample),
		runIndex: make([]int, components),
		width:    frame.Width,
		rowLen:   components * (frame.Width + 2),
	}
	s.lines[0] = make([]int, s.rowLen)
	s.lines[1] = make([]int, s.rowLen)
	return s, nil
}

// externalRowLen is the minimum stride of the caller's buffer.
func (s *scanCodec) externalRowLen() int {
	return s.width * s.kind.components * s.kind.bytesPerSample
}

func (s *scanCodec) checkStride(stride, size int) (int, error) {
	rowLen := s.externalRowLen()
	if stride == 0 {
		stride = rowLen
	}
	if stride < rowLen {
		return 0, fmt.Errorf("%w: stride %d < %d", ErrInvalidParameter, stride, rowLen)
	}
	if size < stride*(s.frame.Height-1)+rowLen {
		return 0, fmt.Errorf("%w: %d bytes for %d rows of stride %d", ErrInvalidParameter, size, s.frame.Height, stride)
	}
	return stride, nil
}

// resetState starts a scan or restart interval with fresh statistics and zero neighbours.
func (s *scanCodec) resetState() {
	s.model.reset(s.traits.Range)
	for i := range s.runIndex {
		s.runIndex[i] = 0
	}
	clear(s.lines[0])
	clear(s.lines[1])
}

// advanceLine swaps the row buffers for line and seeds the edge samples of A.2.1.
func (s *scanCodec) advanceLine(line int) {
	s.prev, s.curr = s.lines[line&1^1], s.lines[line&1]
	n := s.kind.components
	if s.kind.interleave == InterleaveSample {
		for c := 0; c < n; c++ {
			s.prev[(s.width+1)*n+c] = s.prev[s.width*n+c]
			s.curr[c] = s.prev[n+c]
		}
		return
	}
	stride := s.width + 2
	for c := 0; c < n; c++ {
		prev := s.prev[c*stride : (c+1)*stride]
		prev[s.width+1] = prev[s.width]
		s.curr[c*stride] = prev[1]
	}
}

func (s *scanCodec) incrementRunIndex(c int) {
	if s.runIndex[c] < 31 {
		s.runIndex[c]++
	}
}

func (s *scanCodec) decrementRunIndex(c int) {
	if s.runIndex[c] > 0 {
		s.runIndex[c]--
	}
}

func (s *scanCodec) nextRestartMarker() byte {
	m := byte(MarkerRST0 + s.restart)
	s.restart = (s.restart + 1) % restartMarkerCount
	return m
}

func readSample(src []byte, i, bytesPerSample int) int {
	if bytesPerSample == 1 {
		return int(src[i])
	}
	return int(binary.LittleEndian.Uint16(src[2*i:]))
}

func writeSample(dst []byte, i, bytesPerSample, v int) {
	if bytesPerSample == 1 {
		dst[i] = byte(v)
		return
	}
	binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
}

// copyIn loads one external row into the current internal row.
func (s *scanCodec) copyIn(src []byte) {
	n, bps := s.kind.components, s.kind.bytesPerSample
	switch {
	case n == 1:
		for x := 0; x < s.width; x++ {
			s.curr[x+1] = readSample(src, x, bps)
		}
	case s.kind.transform != ColorTransformNone:
		for x := 0; x < s.width; x++ {
			v1, v2, v3 := s.color.forward(readSample(src, 3*x, bps), readSample(src, 3*x+1, bps), readSample(src, 3*x+2, bps))
			s.setPixel(x, v1, v2, v3)
		}
	case s.kind.interleave == InterleaveSample:
		for x := 0; x < s.width; x++ {
			for c := 0; c < n; c++ {
				s.curr[(x+1)*n+c] = readSample(src, x*n+c, bps)
			}
		}
	default:
		stride := s.width + 2
		for x := 0; x < s.width; x++ {
			for c := 0; c < n; c++ {
				s.curr[c*stride+x+1] = readSample(src, x*n+c, bps)
			}
		}
	}
}

func (s *scanCodec) setPixel(x, v1, v2, v3 int) {
	if s.kind.interleave == InterleaveSample {
		i := (x + 1) * 3
		s.curr[i], s.curr[i+1], s.curr[i+2] = v1, v2, v3
		return
	}
	stride := s.width + 2
	s.curr[x+1], s.curr[stride+x+1], s.curr[2*stride+x+1] = v1, v2, v3
}

func (s *scanCodec) pixel(x int) (int, int, int) {
	if s.kind.interleave == InterleaveSample {
		i := (x + 1) * 3
		return s.curr[i], s.curr[i+1], s.curr[i+2]
	}
	stride := s.width + 2
	return s.curr[x+1], s.curr[stride+x+1], s.curr[2*stride+x+1]
}

// copyOut stores the current internal row into one external row.
func (s *scanCodec) copyOut(dst []byte) {
	n, bps := s.kind.components, s.kind.bytesPerSample
	switch {
	case n == 1:
		for x := 0; x < s.width; x++ {
			writeSample(dst, x, bps, s.curr[x+1])
		}
	case s.kind.transform != ColorTransformNone:
		for x := 0; x < s.width; x++ {
			r, g, b := s.color.inverse(s.pixel(x))
			writeSample(dst, 3*x, bps, r)
			writeSample(dst, 3*x+1, bps, g)
			writeSample(dst, 3*x+2, bps, b)
		}
	case s.kind.interleave == InterleaveSample:
		for x := 0; x < s.width; x++ {
			for c := 0; c < n; c++ {
				writeSample(dst, x*n+c, bps, s.curr[(x+1)*n+c])
			}
		}
	default:
		stride := s.width + 2
		for x := 0; x < s.width; x++ {
			for c := 0; c < n; c++ {
				writeSample(dst, x*n+c, bps, s.curr[c*stride+x+1])
			}
		}
	}
}
