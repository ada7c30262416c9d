package jpegls

import (
	"encoding/binary"
	"fmt"
	"log/slog"
)

const colorTransformTag = "mrfx"

// Header is the frame level information of a JPEG-LS stream.
type Header struct {
	Frame           FrameInfo
	ComponentIDs    []int
	Preset          PresetCodingParameters // as signalled, zero fields mean default
	RestartInterval int
	ColorTransform  ColorTransform
	Scans           []ScanHeader
}

// ScanHeader describes one SOS segment and where its entropy coded data starts.
type ScanHeader struct {
	ComponentIDs   []int
	NearLossless   int
	InterleaveMode InterleaveMode
	Offset         int
}

// Params returns the coding parameters of the scan.
func (h *Header) Params(s ScanHeader) CodingParameters {
	return CodingParameters{
		NearLossless:    s.NearLossless,
		InterleaveMode:  s.InterleaveMode,
		RestartInterval: h.RestartInterval,
		ColorTransform:  h.ColorTransform,
	}
}

func appendMarker(b []byte, marker byte) []byte {
	return append(b, markerStartByte, marker)
}

func appendSegment(b []byte, marker byte, payload ...byte) []byte {
	b = appendMarker(b, marker)
	b = binary.BigEndian.AppendUint16(b, uint16(len(payload)+2))
	return append(b, payload...)
}

func appendStartOfFrame(b []byte, f FrameInfo) []byte {
	p := []byte{byte(f.BitsPerSample)}
	p = binary.BigEndian.AppendUint16(p, uint16(f.Height))
	p = binary.BigEndian.AppendUint16(p, uint16(f.Width))
	p = append(p, byte(f.ComponentCount))
	for i := 0; i < f.ComponentCount; i++ {
		p = append(p, byte(i+1), 0x11, 0)
	}
	return appendSegment(b, MarkerSOF55, p...)
}

func appendPresetParameters(b []byte, p PresetCodingParameters) []byte {
	payload := []byte{1}
	for _, v := range []int{p.MaximumSampleValue, p.Threshold1, p.Threshold2, p.Threshold3, p.ResetValue} {
		payload = binary.BigEndian.AppendUint16(payload, uint16(v))
	}
	return appendSegment(b, MarkerLSE, payload...)
}

func appendRestartInterval(b []byte, interval int) []byte {
	return appendSegment(b, MarkerDRI, binary.BigEndian.AppendUint16(nil, uint16(interval))...)
}

func appendColorTransform(b []byte, t ColorTransform) []byte {
	return appendSegment(b, MarkerAPP8, append([]byte(colorTransformTag), byte(t))...)
}

func appendStartOfScan(b []byte, componentIDs []int, near int, ilv InterleaveMode) []byte {
	p := []byte{byte(len(componentIDs))}
	for _, id := range componentIDs {
		p = append(p, byte(id), 0)
	}
	p = append(p, byte(near), byte(ilv), 0)
	return appendSegment(b, MarkerSOS, p...)
}

// headerReader walks the marker segments of a stream.
type headerReader struct {
	data []byte
	pos  int
}

func (r *headerReader) readMarker() (byte, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("%w: missing marker at %d", ErrSourceTooSmall, r.pos)
	}
	if r.data[r.pos] != markerStartByte {
		return 0, fmt.Errorf("%w: %#x at %d", ErrInvalidMarker, r.data[r.pos], r.pos)
	}
	for r.pos < len(r.data) && r.data[r.pos] == markerStartByte {
		r.pos++
	}
	if r.pos >= len(r.data) {
		return 0, ErrSourceTooSmall
	}
	m := r.data[r.pos]
	r.pos++
	return m, nil
}

// readSegment returns the payload of the segment at the current position.
func (r *headerReader) readSegment() ([]byte, error) {
	if r.pos+2 > len(r.data) {
		return nil, ErrSourceTooSmall
	}
	n := int(binary.BigEndian.Uint16(r.data[r.pos:]))
	if n < 2 {
		return nil, fmt.Errorf("%w: segment length %d", ErrInvalidEncodedData, n)
	}
	if r.pos+n > len(r.data) {
		return nil, ErrSourceTooSmall
	}
	p := r.data[r.pos+2 : r.pos+n]
	r.pos += n
	return p, nil
}

// readHeader parses from SOI up to and including the first SOS.
func readHeader(data []byte) (*Header, *headerReader, error) {
	r := &headerReader{data: data}
	m, err := r.readMarker()
	if err != nil {
		return nil, nil, err
	}
	if m != MarkerSOI {
		return nil, nil, fmt.Errorf("%w: expected SOI, got %#x", ErrInvalidMarker, m)
	}
	h := &Header{}
	for {
		m, err := r.readMarker()
		if err != nil {
			return nil, nil, err
		}
		done, err := h.readSegment(r, m)
		if err != nil {
			return nil, nil, err
		}
		if done {
			return h, r, nil
		}
	}
}

// readSegment handles one marker, reporting true once a SOS has been read.
func (h *Header) readSegment(r *headerReader, m byte) (bool, error) {
	switch {
	case m == MarkerSOF55:
		p, err := r.readSegment()
		if err != nil {
			return false, err
		}
		return false, h.parseStartOfFrame(p)
	case m >= 0xC0 && m <= 0xCF && m != 0xC4 && m != 0xC8 && m != 0xCC:
		return false, fmt.Errorf("%w: SOF marker %#x", ErrUnsupportedEncoding, m)
	case m == MarkerLSE:
		p, err := r.readSegment()
		if err != nil {
			return false, err
		}
		return false, h.parsePresetParameters(p)
	case m == MarkerDRI:
		p, err := r.readSegment()
		if err != nil {
			return false, err
		}
		if len(p) != 2 {
			return false, fmt.Errorf("%w: DRI length", ErrInvalidEncodedData)
		}
		h.RestartInterval = int(binary.BigEndian.Uint16(p))
		return false, nil
	case m == MarkerAPP8:
		p, err := r.readSegment()
		if err != nil {
			return false, err
		}
		if len(p) == 5 && string(p[:4]) == colorTransformTag {
			if p[4] > byte(ColorTransformHP3) {
				return false, fmt.Errorf("%w: color transform %d", ErrUnsupportedEncoding, p[4])
			}
			h.ColorTransform = ColorTransform(p[4])
		}
		return false, nil
	case m == MarkerSOS:
		if h.Frame.ComponentCount == 0 {
			return false, fmt.Errorf("%w: SOS before SOF", ErrInvalidMarker)
		}
		p, err := r.readSegment()
		if err != nil {
			return false, err
		}
		s, err := h.parseStartOfScan(p)
		if err != nil {
			return false, err
		}
		s.Offset = r.pos
		h.Scans = append(h.Scans, s)
		return true, nil
	case m >= MarkerAPP0 && m <= 0xEF, m == MarkerCOM, m == MarkerDNL:
		_, err := r.readSegment()
		return false, err
	case m == MarkerEOI:
		return false, fmt.Errorf("%w: EOI before scan", ErrInvalidMarker)
	}
	return false, fmt.Errorf("%w: %#x", ErrInvalidMarker, m)
}

func (h *Header) parseStartOfFrame(p []byte) error {
	if len(p) < 6 {
		return fmt.Errorf("%w: SOF length", ErrInvalidEncodedData)
	}
	f := FrameInfo{
		BitsPerSample:  int(p[0]),
		Height:         int(binary.BigEndian.Uint16(p[1:])),
		Width:          int(binary.BigEndian.Uint16(p[3:])),
		ComponentCount: int(p[5]),
	}
	if len(p) != 6+3*f.ComponentCount {
		return fmt.Errorf("%w: SOF length %d for %d components", ErrInvalidEncodedData, len(p), f.ComponentCount)
	}
	if f.Height == 0 {
		return fmt.Errorf("%w: DNL defined height", ErrUnsupportedEncoding)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	h.Frame = f
	h.ComponentIDs = make([]int, f.ComponentCount)
	for i := range h.ComponentIDs {
		h.ComponentIDs[i] = int(p[6+3*i])
	}
	return nil
}

func (h *Header) parsePresetParameters(p []byte) error {
	if len(p) < 1 {
		return fmt.Errorf("%w: LSE length", ErrInvalidEncodedData)
	}
	if p[0] != 1 {
		return fmt.Errorf("%w: LSE type %d", ErrUnsupportedEncoding, p[0])
	}
	if len(p) != 11 {
		return fmt.Errorf("%w: LSE length %d", ErrInvalidEncodedData, len(p))
	}
	h.Preset = PresetCodingParameters{
		MaximumSampleValue: int(binary.BigEndian.Uint16(p[1:])),
		Threshold1:         int(binary.BigEndian.Uint16(p[3:])),
		Threshold2:         int(binary.BigEndian.Uint16(p[5:])),
		Threshold3:         int(binary.BigEndian.Uint16(p[7:])),
		ResetValue:         int(binary.BigEndian.Uint16(p[9:])),
	}
	slog.Debug("jpegls: preset coding parameters",
		slog.Int("maxval", h.Preset.MaximumSampleValue),
		slog.Int("t1", h.Preset.Threshold1),
		slog.Int("t2", h.Preset.Threshold2),
		slog.Int("t3", h.Preset.Threshold3),
		slog.Int("reset", h.Preset.ResetValue))
	return nil
}

func (h *Header) parseStartOfScan(p []byte) (ScanHeader, error) {
	if len(p) < 1 {
		return ScanHeader{}, fmt.Errorf("%w: SOS length", ErrInvalidEncodedData)
	}
	ns := int(p[0])
	if ns < 1 || ns > h.Frame.ComponentCount || len(p) != 4+2*ns {
		return ScanHeader{}, fmt.Errorf("%w: SOS with %d components", ErrInvalidEncodedData, ns)
	}
	s := ScanHeader{ComponentIDs: make([]int, ns)}
	for i := 0; i < ns; i++ {
		s.ComponentIDs[i] = int(p[1+2*i])
		if p[2+2*i] != 0 {
			return s, fmt.Errorf("%w: mapping table %d", ErrUnsupportedEncoding, p[2+2*i])
		}
	}
	tail := p[1+2*ns:]
	s.NearLossless = int(tail[0])
	s.InterleaveMode = InterleaveMode(tail[1])
	if s.InterleaveMode > InterleaveSample {
		return s, fmt.Errorf("%w: interleave mode %d", ErrInvalidEncodedData, tail[1])
	}
	if tail[2] != 0 {
		return s, fmt.Errorf("%w: point transform %d", ErrUnsupportedEncoding, tail[2])
	}
	if ns == 1 {
		s.InterleaveMode = InterleaveNone
	}
	return s, nil
}

func (h *Header) componentIndex(id int) int {
	for i, v := range h.ComponentIDs {
		if v == id {
			return i
		}
	}
	return -1
}
