package jpegls

import (
	"fmt"
	"log/slog"
)

// ScanDecoder reconstructs the samples of one scan from entropy coded bytes.
type ScanDecoder struct {
	scanCodec
	reader BitReader
}

// NewScanDecoder prepares a decoder for one scan, see NewScanEncoder.
func NewScanDecoder(frame FrameInfo, preset PresetCodingParameters, params CodingParameters) (*ScanDecoder, error) {
	s, err := newScanCodec(frame, preset, params)
	if err != nil {
		return nil, err
	}
	return &ScanDecoder{scanCodec: s}, nil
}

// DecodeScan decodes the scan that starts at source[0] into destination, rows
// stride bytes apart. It returns the number of bytes consumed, which leaves
// source positioned on the marker that follows the scan.
func (d *ScanDecoder) DecodeScan(source []byte, destination []byte, stride int) (int, error) {
	if d.state != scanNotStarted {
		return 0, ErrInvalidOperation
	}
	d.state = scanInProgress
	stride, err := d.checkStride(stride, len(destination))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDestinationTooSmall, err)
	}
	slog.Debug("jpegls: decode scan",
		slog.Int("width", d.frame.Width),
		slog.Int("height", d.frame.Height),
		slog.Int("components", d.kind.components),
		slog.Int("near", d.traits.NearLossless),
		slog.String("interleave", d.kind.interleave.String()))

	d.reader.reset(source, 0)
	d.resetState()
	interval := d.params.RestartInterval
	for line := 0; line < d.frame.Height; line++ {
		d.row = line
		if interval > 0 && line > 0 && line%interval == 0 {
			if err := d.readRestartMarker(); err != nil {
				return 0, d.scanError(err)
			}
		}
		d.advanceLine(line)
		if err := d.decodeLine(); err != nil {
			return 0, d.scanError(err)
		}
		d.copyOut(destination[line*stride:])
	}
	n, err := d.reader.EndScan()
	if err != nil {
		return 0, d.scanError(err)
	}
	d.state = scanEnded
	return n, nil
}

func (d *ScanDecoder) readRestartMarker() error {
	pos, err := d.reader.EndScan()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRestartMarkerNotFound, err)
	}
	want := d.nextRestartMarker()
	m, err := d.reader.readMarker()
	if err != nil || m != want {
		return fmt.Errorf("%w: want %#x at offset %d", ErrRestartMarkerNotFound, want, pos)
	}
	slog.Debug("jpegls: restart marker", slog.Int("line", d.row), slog.Int("marker", int(m)))
	d.reader.reset(d.reader.src, d.reader.pos)
	d.resetState()
	return nil
}

func (d *ScanDecoder) scanError(err error) error {
	return &ScanError{Op: "decode", Offset: d.reader.pos, Component: d.component, Row: d.row, Column: d.column, Err: err}
}

func (d *ScanDecoder) decodeLine() error {
	if d.kind.interleave == InterleaveSample {
		return d.decodeTupleLine()
	}
	stride := d.width + 2
	for c := 0; c < d.kind.components; c++ {
		d.component = c
		if err := d.decodeComponentLine(c, d.prev[c*stride:(c+1)*stride], d.curr[c*stride:(c+1)*stride]); err != nil {
			return err
		}
	}
	return nil
}

func (d *ScanDecoder) decodeComponentLine(c int, prev, curr []int) error {
	rb, rd := prev[0], prev[1]
	for x := 0; x < d.width; {
		d.column = x
		ra, rc := curr[x], rb
		rb, rd = rd, prev[x+2]
		qs := d.contextID(rd, rb, rc, ra)
		if qs != 0 {
			v, err := d.decodeRegular(qs, PredictMED(ra, rb, rc))
			if err != nil {
				return err
			}
			curr[x+1] = v
			x++
			continue
		}
		n, err := d.decodeRunMode(c, x, prev, curr)
		if err != nil {
			return err
		}
		x += n
		rb, rd = prev[x], prev[x+1]
	}
	return nil
}

func (d *ScanDecoder) decodeTupleLine() error {
	n := d.kind.components
	var qs [maximumInterleaved]int
	for x := 0; x < d.width; {
		d.column = x
		regular := false
		for c := 0; c < n; c++ {
			ra, rb, rc, rd := d.curr[x*n+c], d.prev[(x+1)*n+c], d.prev[x*n+c], d.prev[(x+2)*n+c]
			qs[c] = d.contextID(rd, rb, rc, ra)
			regular = regular || qs[c] != 0
		}
		if !regular {
			count, err := d.decodeTupleRunMode(x)
			if err != nil {
				return err
			}
			x += count
			continue
		}
		for c := 0; c < n; c++ {
			d.component = c
			ra, rb, rc := d.curr[x*n+c], d.prev[(x+1)*n+c], d.prev[x*n+c]
			v, err := d.decodeRegular(qs[c], PredictMED(ra, rb, rc))
			if err != nil {
				return err
			}
			d.curr[(x+1)*n+c] = v
		}
		x++
	}
	return nil
}

// decodeRegular resolves short codes through the Golomb table and falls back to
// bit by bit decoding for longer ones.
func (d *ScanDecoder) decodeRegular(qs, predicted int) (int, error) {
	sign := bitWiseSign(qs)
	ctx := &d.model.regular[applySign(qs, sign)]
	k, err := ctx.golombCodingParameter()
	if err != nil {
		return 0, err
	}
	px := d.traits.CorrectPrediction(predicted + applySign(ctx.c, sign))

	var errorValue int
	b, valid := d.reader.PeekByte()
	if code := GolombTable(k).Get(b); code.Length != 0 && code.Length <= valid {
		if err := d.reader.Skip(code.Length); err != nil {
			return 0, err
		}
		errorValue = code.ErrorValue
	} else {
		mapped, err := decodeValue(&d.reader, k, d.traits.Limit, d.traits.QuantizedBitsPerSample)
		if err != nil {
			return 0, err
		}
		errorValue = UnmapErrorValue(mapped)
		if abs(errorValue) > 65535 {
			return 0, ErrInvalidEncodedData
		}
	}
	if k == 0 {
		errorValue ^= ctx.errorCorrection(d.traits.NearLossless)
	}
	if err := ctx.update(errorValue, d.traits.NearLossless, d.traits.ResetThreshold); err != nil {
		return 0, err
	}
	return d.traits.ComputeReconstructedSample(px, applySign(errorValue, sign)), nil
}
