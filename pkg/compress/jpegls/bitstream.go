package jpegls

import "math/bits"

// BitWriter appends entropy coded bits to a fixed destination. After every 0xFF
// byte the next byte carries only 7 bits so its MSB is zero (A.1).
type BitWriter struct {
	dst       []byte
	pos       int
	acc       uint64 // pending bits, right aligned
	n         int    // number of pending bits
	ffWritten bool
}

// NewBitWriter writes into dst starting at offset 0.
func NewBitWriter(dst []byte) *BitWriter {
	return &BitWriter{dst: dst}
}

func (w *BitWriter) reset(dst []byte, pos int) {
	*w = BitWriter{dst: dst, pos: pos}
}

// Len is the number of bytes written so far.
func (w *BitWriter) Len() int { return w.pos }

// AppendToBitStream appends the low count bits of value, count <= 32.
func (w *BitWriter) AppendToBitStream(value uint32, count int) error {
	w.acc = w.acc<<count | uint64(value)&(1<<count-1)
	w.n += count
	for {
		width := 8
		if w.ffWritten {
			width = 7
		}
		if w.n < width {
			return nil
		}
		w.n -= width
		if err := w.putByte(byte(w.acc >> w.n)); err != nil {
			return err
		}
		w.acc &= 1<<w.n - 1
	}
}

func (w *BitWriter) appendOnes(count int) error {
	return w.AppendToBitStream(1<<count-1, count)
}

func (w *BitWriter) putByte(b byte) error {
	if w.pos >= len(w.dst) {
		return ErrDestinationTooSmall
	}
	if w.ffWritten {
		b &= 0x7F
	}
	w.dst[w.pos] = b
	w.pos++
	w.ffWritten = b == 0xFF
	return nil
}

// EndScan pads the last byte with zero bits. A trailing 0xFF gets a zero byte so
// a following marker is not mistaken for entropy data.
func (w *BitWriter) EndScan() error {
	if w.n > 0 {
		width := 8
		if w.ffWritten {
			width = 7
		}
		if err := w.AppendToBitStream(0, width-w.n); err != nil {
			return err
		}
	}
	if w.ffWritten {
		if err := w.putByte(0); err != nil {
			return err
		}
	}
	w.acc, w.n, w.ffWritten = 0, 0, false
	return nil
}

// WriteMarker writes a two byte marker. Only valid on a byte boundary after EndScan.
func (w *BitWriter) WriteMarker(marker byte) error {
	if w.n != 0 || w.ffWritten {
		return ErrInvalidOperation
	}
	if w.pos+2 > len(w.dst) {
		return ErrDestinationTooSmall
	}
	w.dst[w.pos] = markerStartByte
	w.dst[w.pos+1] = marker
	w.pos += 2
	return nil
}

// BitReader consumes entropy coded bits and stops in front of any marker.
type BitReader struct {
	src    []byte
	pos    int    // next byte to load
	acc    uint64 // valid bits, left aligned
	n      int    // number of valid bits
	prevFF bool
	read   int // bits consumed since reset
}

// NewBitReader reads entropy coded data from src.
func NewBitReader(src []byte) *BitReader {
	return &BitReader{src: src}
}

func (r *BitReader) reset(src []byte, pos int) {
	*r = BitReader{src: src, pos: pos}
}

// BitsRead is the number of bits consumed since the reader was created.
func (r *BitReader) BitsRead() int { return r.read }

// fill loads whole bytes until at least need bits are valid or a marker is reached.
func (r *BitReader) fill(need int) error {
	for r.n < need {
		if r.pos >= len(r.src) {
			return ErrSourceTooSmall
		}
		b := r.src[r.pos]
		if b == markerStartByte && (r.pos+1 >= len(r.src) || r.src[r.pos+1]&0x80 != 0) {
			if r.pos+1 >= len(r.src) {
				return ErrSourceTooSmall
			}
			return ErrInvalidEncodedData
		}
		if r.prevFF {
			r.acc |= uint64(b&0x7F) << (64 - 7 - r.n)
			r.n += 7
		} else {
			r.acc |= uint64(b) << (64 - 8 - r.n)
			r.n += 8
		}
		r.prevFF = b == markerStartByte
		r.pos++
	}
	return nil
}

// ReadBit consumes one bit.
func (r *BitReader) ReadBit() (bool, error) {
	if r.n < 1 {
		if err := r.fill(1); err != nil {
			return false, err
		}
	}
	bit := r.acc&(1<<63) != 0
	r.acc <<= 1
	r.n--
	r.read++
	return bit, nil
}

// ReadBits consumes count bits, count <= 32, MSB first.
func (r *BitReader) ReadBits(count int) (int, error) {
	if count == 0 {
		return 0, nil
	}
	if r.n < count {
		if err := r.fill(count); err != nil {
			return 0, err
		}
	}
	v := int(r.acc >> (64 - count))
	r.acc <<= count
	r.n -= count
	r.read += count
	return v, nil
}

// PeekByte returns the next 8 bits without consuming them and the number of
// those bits that are backed by data. Missing bits read as zero.
func (r *BitReader) PeekByte() (byte, int) {
	if r.n < 8 {
		_ = r.fill(8)
	}
	return byte(r.acc >> 56), min(r.n, 8)
}

// Skip consumes count bits that were made valid by PeekByte.
func (r *BitReader) Skip(count int) error {
	if count > r.n {
		return ErrInvalidEncodedData
	}
	r.acc <<= count
	r.n -= count
	r.read += count
	return nil
}

// readHighBits counts zero bits up to the next one bit, failing past maxCount.
func (r *BitReader) readHighBits(maxCount int) (int, error) {
	count := 0
	for {
		if r.n == 0 {
			if err := r.fill(1); err != nil {
				return 0, err
			}
		}
		lz := bits.LeadingZeros64(r.acc)
		if lz < r.n {
			count += lz
			if count > maxCount {
				return 0, ErrInvalidEncodedData
			}
			r.acc <<= lz + 1
			r.n -= lz + 1
			r.read += lz + 1
			return count, nil
		}
		count += r.n
		r.read += r.n
		r.acc, r.n = 0, 0
		if count > maxCount {
			return 0, ErrInvalidEncodedData
		}
	}
}

// EndScan returns unread whole bytes, checks the padding bits of the last
// partial byte and positions the reader on the following marker.
func (r *BitReader) EndScan() (int, error) {
	rem := r.n
	for rem > 0 {
		width := r.widthOf(r.pos - 1)
		if rem < width {
			break
		}
		rem -= width
		r.pos--
	}
	if rem > 0 && r.acc>>(64-rem) != 0 {
		return r.pos, ErrTooMuchEncodedData
	}
	r.acc, r.n = 0, 0
	if r.pos > 0 && r.src[r.pos-1] == markerStartByte && r.pos < len(r.src) && r.src[r.pos]&0x80 == 0 {
		r.pos++
	}
	if r.pos < len(r.src) && r.src[r.pos] != markerStartByte {
		return r.pos, ErrTooMuchEncodedData
	}
	r.prevFF = false
	return r.pos, nil
}

func (r *BitReader) widthOf(i int) int {
	if i > 0 && r.src[i-1] == markerStartByte {
		return 7
	}
	return 8
}

// readMarker reads a marker at the current byte position, skipping 0xFF fill bytes.
func (r *BitReader) readMarker() (byte, error) {
	if r.pos >= len(r.src) {
		return 0, ErrSourceTooSmall
	}
	if r.src[r.pos] != markerStartByte {
		return 0, ErrInvalidMarker
	}
	for r.pos < len(r.src) && r.src[r.pos] == markerStartByte {
		r.pos++
	}
	if r.pos >= len(r.src) {
		return 0, ErrSourceTooSmall
	}
	m := r.src[r.pos]
	r.pos++
	return m, nil
}
