package jpegls

import "log/slog"

// ScanEncoder codes the samples of one scan into entropy coded bytes.
type ScanEncoder struct {
	scanCodec
	writer BitWriter
}

// NewScanEncoder prepares an encoder for one scan. With InterleaveNone the scan
// holds a single component, otherwise all components of the frame.
func NewScanEncoder(frame FrameInfo, preset PresetCodingParameters, params CodingParameters) (*ScanEncoder, error) {
	s, err := newScanCodec(frame, preset, params)
	if err != nil {
		return nil, err
	}
	return &ScanEncoder{scanCodec: s}, nil
}

// EncodeScan encodes source, rows stride bytes apart, into destination and
// returns the number of bytes written. Restart markers are written inline.
func (e *ScanEncoder) EncodeScan(source []byte, stride int, destination []byte) (int, error) {
	if e.state != scanNotStarted {
		return 0, ErrInvalidOperation
	}
	e.state = scanInProgress
	stride, err := e.checkStride(stride, len(source))
	if err != nil {
		return 0, err
	}
	slog.Debug("jpegls: encode scan",
		slog.Int("width", e.frame.Width),
		slog.Int("height", e.frame.Height),
		slog.Int("components", e.kind.components),
		slog.Int("near", e.traits.NearLossless),
		slog.String("interleave", e.kind.interleave.String()))

	e.writer.reset(destination, 0)
	e.resetState()
	interval := e.params.RestartInterval
	for line := 0; line < e.frame.Height; line++ {
		e.row = line
		if interval > 0 && line > 0 && line%interval == 0 {
			if err := e.writeRestartMarker(); err != nil {
				return 0, e.scanError(err)
			}
		}
		e.advanceLine(line)
		e.copyIn(source[line*stride:])
		if err := e.encodeLine(); err != nil {
			return 0, e.scanError(err)
		}
	}
	if err := e.writer.EndScan(); err != nil {
		return 0, e.scanError(err)
	}
	e.state = scanEnded
	return e.writer.Len(), nil
}

func (e *ScanEncoder) writeRestartMarker() error {
	if err := e.writer.EndScan(); err != nil {
		return err
	}
	m := e.nextRestartMarker()
	if err := e.writer.WriteMarker(m); err != nil {
		return err
	}
	slog.Debug("jpegls: restart marker", slog.Int("line", e.row), slog.Int("marker", int(m)))
	e.resetState()
	return nil
}

func (e *ScanEncoder) scanError(err error) error {
	return &ScanError{Op: "encode", Offset: e.writer.Len(), Component: e.component, Row: e.row, Column: e.column, Err: err}
}

func (e *ScanEncoder) encodeLine() error {
	if e.kind.interleave == InterleaveSample {
		return e.encodeTupleLine()
	}
	stride := e.width + 2
	for c := 0; c < e.kind.components; c++ {
		e.component = c
		if err := e.encodeComponentLine(c, e.prev[c*stride:(c+1)*stride], e.curr[c*stride:(c+1)*stride]); err != nil {
			return err
		}
	}
	return nil
}

// encodeComponentLine walks one row of one component; sample x lives at index x+1.
func (e *ScanEncoder) encodeComponentLine(c int, prev, curr []int) error {
	rb, rd := prev[0], prev[1]
	for x := 0; x < e.width; {
		e.column = x
		ra, rc := curr[x], rb
		rb, rd = rd, prev[x+2]
		qs := e.contextID(rd, rb, rc, ra)
		if qs != 0 {
			v, err := e.encodeRegular(qs, curr[x+1], PredictMED(ra, rb, rc))
			if err != nil {
				return err
			}
			curr[x+1] = v
			x++
			continue
		}
		n, err := e.encodeRunMode(c, x, prev, curr)
		if err != nil {
			return err
		}
		x += n
		rb, rd = prev[x], prev[x+1]
	}
	return nil
}

func (e *ScanEncoder) encodeTupleLine() error {
	n := e.kind.components
	var qs [maximumInterleaved]int
	for x := 0; x < e.width; {
		e.column = x
		regular := false
		for c := 0; c < n; c++ {
			ra, rb, rc, rd := e.curr[x*n+c], e.prev[(x+1)*n+c], e.prev[x*n+c], e.prev[(x+2)*n+c]
			qs[c] = e.contextID(rd, rb, rc, ra)
			regular = regular || qs[c] != 0
		}
		if !regular {
			count, err := e.encodeTupleRunMode(x)
			if err != nil {
				return err
			}
			x += count
			continue
		}
		for c := 0; c < n; c++ {
			e.component = c
			ra, rb, rc := e.curr[x*n+c], e.prev[(x+1)*n+c], e.prev[x*n+c]
			v, err := e.encodeRegular(qs[c], e.curr[(x+1)*n+c], PredictMED(ra, rb, rc))
			if err != nil {
				return err
			}
			e.curr[(x+1)*n+c] = v
		}
		x++
	}
	return nil
}

// encodeRegular codes one sample in regular mode and returns its reconstruction.
func (e *ScanEncoder) encodeRegular(qs, x, predicted int) (int, error) {
	sign := bitWiseSign(qs)
	ctx := &e.model.regular[applySign(qs, sign)]
	k, err := ctx.golombCodingParameter()
	if err != nil {
		return 0, err
	}
	px := e.traits.CorrectPrediction(predicted + applySign(ctx.c, sign))
	errorValue := e.traits.ComputeErrorValue(applySign(x-px, sign))
	mapped := MapErrorValue(ctx.errorCorrection(k|e.traits.NearLossless) ^ errorValue)
	if err := encodeMappedValue(&e.writer, k, mapped, e.traits.Limit, e.traits.QuantizedBitsPerSample); err != nil {
		return 0, err
	}
	if err := ctx.update(errorValue, e.traits.NearLossless, e.traits.ResetThreshold); err != nil {
		return 0, err
	}
	return e.traits.ComputeReconstructedSample(px, applySign(errorValue, sign)), nil
}
