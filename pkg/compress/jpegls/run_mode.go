package jpegls

// encodeRunMode codes the run starting at sample x of component c and the
// sample that interrupts it. It returns the number of samples consumed.
func (e *ScanEncoder) encodeRunMode(c, x int, prev, curr []int) (int, error) {
	remaining := e.width - x
	ra := curr[x]
	runLength := 0
	for e.traits.IsNear(curr[x+1+runLength], ra) {
		curr[x+1+runLength] = ra
		runLength++
		if runLength == remaining {
			break
		}
	}
	endOfLine := runLength == remaining
	if err := e.encodeRunPixels(c, runLength, endOfLine); err != nil {
		return 0, err
	}
	if endOfLine {
		return runLength, nil
	}
	i := x + 1 + runLength
	e.column = x + runLength
	v, err := e.encodeRunInterruptionPixel(c, curr[i], ra, prev[i])
	if err != nil {
		return 0, err
	}
	curr[i] = v
	e.decrementRunIndex(c)
	return runLength + 1, nil
}

func (e *ScanEncoder) encodeTupleRunMode(x int) (int, error) {
	n := e.kind.components
	remaining := e.width - x
	ra := e.curr[x*n : (x+1)*n]
	runLength := 0
	for e.tupleIsNear(e.curr[(x+1+runLength)*n:], ra) {
		copy(e.curr[(x+1+runLength)*n:(x+2+runLength)*n], ra)
		runLength++
		if runLength == remaining {
			break
		}
	}
	endOfLine := runLength == remaining
	if err := e.encodeRunPixels(0, runLength, endOfLine); err != nil {
		return 0, err
	}
	if endOfLine {
		return runLength, nil
	}
	i := (x + 1 + runLength) * n
	e.column = x + runLength
	for c := 0; c < n; c++ {
		e.component = c
		v, err := e.encodeTupleInterruptionSample(e.curr[i+c], ra[c], e.prev[i+c])
		if err != nil {
			return 0, err
		}
		e.curr[i+c] = v
	}
	e.decrementRunIndex(0)
	return runLength + 1, nil
}

func (s *scanCodec) tupleIsNear(x, ra []int) bool {
	for c := range ra {
		if !s.traits.IsNear(x[c], ra[c]) {
			return false
		}
	}
	return true
}

// encodeRunPixels writes the run length with the adaptive J table (A.7.1.2).
func (e *ScanEncoder) encodeRunPixels(c, runLength int, endOfLine bool) error {
	for runLength >= 1<<J[e.runIndex[c]] {
		if err := e.writer.appendOnes(1); err != nil {
			return err
		}
		runLength -= 1 << J[e.runIndex[c]]
		e.incrementRunIndex(c)
	}
	if endOfLine {
		if runLength != 0 {
			return e.writer.appendOnes(1)
		}
		return nil
	}
	// leading zero bit followed by the remainder
	return e.writer.AppendToBitStream(uint32(runLength), J[e.runIndex[c]]+1)
}

func (e *ScanEncoder) encodeRunInterruptionPixel(c, x, ra, rb int) (int, error) {
	if abs(ra-rb) <= e.traits.NearLossless {
		errorValue := e.traits.ComputeErrorValue(x - ra)
		if err := e.encodeRunInterruptionError(c, &e.model.run[1], errorValue); err != nil {
			return 0, err
		}
		return e.traits.ComputeReconstructedSample(ra, errorValue), nil
	}
	errorValue := e.traits.ComputeErrorValue((x - rb) * sign(rb-ra))
	if err := e.encodeRunInterruptionError(c, &e.model.run[0], errorValue); err != nil {
		return 0, err
	}
	return e.traits.ComputeReconstructedSample(rb, errorValue*sign(rb-ra)), nil
}

func (e *ScanEncoder) encodeTupleInterruptionSample(x, ra, rb int) (int, error) {
	errorValue := e.traits.ComputeErrorValue(sign(rb-ra) * (x - rb))
	if err := e.encodeRunInterruptionError(0, &e.model.run[0], errorValue); err != nil {
		return 0, err
	}
	return e.traits.ComputeReconstructedSample(rb, errorValue*sign(rb-ra)), nil
}

func (e *ScanEncoder) encodeRunInterruptionError(c int, ctx *runContext, errorValue int) error {
	k, err := ctx.golombCode()
	if err != nil {
		return err
	}
	mapBit := 0
	if ctx.computeMap(errorValue, k) {
		mapBit = 1
	}
	mapped := 2*abs(errorValue) - ctx.interruptionType - mapBit
	if err := encodeMappedValue(&e.writer, k, mapped, e.traits.Limit-J[e.runIndex[c]]-1, e.traits.QuantizedBitsPerSample); err != nil {
		return err
	}
	ctx.update(errorValue, mapped, e.traits.ResetThreshold)
	return nil
}

// decodeRunMode mirrors encodeRunMode.
func (d *ScanDecoder) decodeRunMode(c, x int, prev, curr []int) (int, error) {
	ra := curr[x]
	runLength, err := d.decodeRunPixels(c, d.width-x)
	if err != nil {
		return 0, err
	}
	for i := 0; i < runLength; i++ {
		curr[x+1+i] = ra
	}
	end := x + runLength
	if end == d.width {
		return runLength, nil
	}
	d.column = end
	v, err := d.decodeRunInterruptionPixel(c, ra, prev[end+1])
	if err != nil {
		return 0, err
	}
	curr[end+1] = v
	d.decrementRunIndex(c)
	return runLength + 1, nil
}

func (d *ScanDecoder) decodeTupleRunMode(x int) (int, error) {
	n := d.kind.components
	ra := d.curr[x*n : (x+1)*n]
	runLength, err := d.decodeRunPixels(0, d.width-x)
	if err != nil {
		return 0, err
	}
	for i := 0; i < runLength; i++ {
		copy(d.curr[(x+1+i)*n:(x+2+i)*n], ra)
	}
	end := x + runLength
	if end == d.width {
		return runLength, nil
	}
	d.column = end
	i := (end + 1) * n
	for c := 0; c < n; c++ {
		d.component = c
		errorValue, err := d.decodeRunInterruptionError(0, &d.model.run[0])
		if err != nil {
			return 0, err
		}
		rb := d.prev[i+c]
		d.curr[i+c] = d.traits.ComputeReconstructedSample(rb, errorValue*sign(rb-ra[c]))
	}
	d.decrementRunIndex(0)
	return runLength + 1, nil
}

func (d *ScanDecoder) decodeRunPixels(c, pixelCount int) (int, error) {
	index := 0
	for {
		bit, err := d.reader.ReadBit()
		if err != nil {
			return 0, err
		}
		if !bit {
			break
		}
		count := min(1<<J[d.runIndex[c]], pixelCount-index)
		index += count
		if count == 1<<J[d.runIndex[c]] {
			d.incrementRunIndex(c)
		}
		if index == pixelCount {
			break
		}
	}
	if index != pixelCount {
		v, err := d.reader.ReadBits(J[d.runIndex[c]])
		if err != nil {
			return 0, err
		}
		index += v
	}
	if index > pixelCount {
		return 0, ErrInvalidEncodedData
	}
	return index, nil
}

func (d *ScanDecoder) decodeRunInterruptionPixel(c, ra, rb int) (int, error) {
	if abs(ra-rb) <= d.traits.NearLossless {
		errorValue, err := d.decodeRunInterruptionError(c, &d.model.run[1])
		if err != nil {
			return 0, err
		}
		return d.traits.ComputeReconstructedSample(ra, errorValue), nil
	}
	errorValue, err := d.decodeRunInterruptionError(c, &d.model.run[0])
	if err != nil {
		return 0, err
	}
	return d.traits.ComputeReconstructedSample(rb, errorValue*sign(rb-ra)), nil
}

func (d *ScanDecoder) decodeRunInterruptionError(c int, ctx *runContext) (int, error) {
	k, err := ctx.golombCode()
	if err != nil {
		return 0, err
	}
	mapped, err := decodeValue(&d.reader, k, d.traits.Limit-J[d.runIndex[c]]-1, d.traits.QuantizedBitsPerSample)
	if err != nil {
		return 0, err
	}
	errorValue := ctx.computeErrorValue(mapped+ctx.interruptionType, k)
	ctx.update(errorValue, mapped, d.traits.ResetThreshold)
	return errorValue, nil
}
