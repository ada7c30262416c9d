package jpegls

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
)

func init() {
	image.RegisterFormat("jpeg-ls", "\xff\xd8\xff\xf7", Decode, DecodeConfig)
}

// ReadHeader parses the frame header and the first scan header of data.
func ReadHeader(data []byte) (*Header, error) {
	h, _, err := readHeader(data)
	return h, err
}

// DecodeBuffer decodes a JPEG-LS stream into raw samples laid out as EncodeBuffer
// expects them: planar when the scans are not interleaved, pixel interleaved otherwise.
func DecodeBuffer(data []byte) ([]byte, *Header, error) {
	h, r, err := readHeader(data)
	if err != nil {
		return nil, nil, err
	}
	f := h.Frame
	bps := f.BytesPerSample()
	plane := f.Width * f.Height * bps
	dst := make([]byte, plane*f.ComponentCount)
	decoded := make([]bool, f.ComponentCount)

	for {
		s := h.Scans[len(h.Scans)-1]
		n, err := h.decodeScan(data[s.Offset:], dst, plane, s, decoded)
		if err != nil {
			return nil, h, err
		}
		r.pos = s.Offset + n
		done, err := h.nextScan(r)
		if err != nil {
			return nil, h, err
		}
		if done {
			break
		}
	}
	for i, ok := range decoded {
		if !ok {
			return nil, h, fmt.Errorf("%w: component %d has no scan", ErrInvalidEncodedData, h.ComponentIDs[i])
		}
	}
	return dst, h, nil
}

func (h *Header) decodeScan(src, dst []byte, plane int, s ScanHeader, decoded []bool) (int, error) {
	params := h.Params(s)
	info := h.Frame
	var out []byte
	if s.InterleaveMode == InterleaveNone {
		if len(s.ComponentIDs) != 1 {
			return 0, fmt.Errorf("%w: %d components in a non interleaved scan", ErrInvalidEncodedData, len(s.ComponentIDs))
		}
		c := h.componentIndex(s.ComponentIDs[0])
		if c < 0 || decoded[c] {
			return 0, fmt.Errorf("%w: scan component %d", ErrInvalidEncodedData, s.ComponentIDs[0])
		}
		decoded[c] = true
		info.ComponentCount = 1
		out = dst[c*plane : (c+1)*plane]
	} else {
		if len(s.ComponentIDs) != info.ComponentCount {
			return 0, fmt.Errorf("%w: interleaved scan with %d of %d components", ErrUnsupportedEncoding, len(s.ComponentIDs), info.ComponentCount)
		}
		for i, id := range s.ComponentIDs {
			if h.componentIndex(id) != i || decoded[i] {
				return 0, fmt.Errorf("%w: scan component %d", ErrInvalidEncodedData, id)
			}
			decoded[i] = true
		}
		out = dst
	}
	dec, err := NewScanDecoder(info, h.Preset, params)
	if err != nil {
		return 0, err
	}
	slog.Debug("jpegls: scan", slog.Int("offset", s.Offset), slog.Int("components", len(s.ComponentIDs)))
	return dec.DecodeScan(src, out, 0)
}

// nextScan reads segments after a scan until the next SOS (false) or EOI (true).
func (h *Header) nextScan(r *headerReader) (bool, error) {
	for {
		m, err := r.readMarker()
		if err != nil {
			return false, err
		}
		if m == MarkerEOI {
			return true, nil
		}
		if m == MarkerSOF55 {
			return false, fmt.Errorf("%w: second SOF", ErrInvalidMarker)
		}
		found, err := h.readSegment(r, m)
		if err != nil {
			return false, err
		}
		if found {
			return false, nil
		}
	}
}

// Decode reads a JPEG-LS image. One component decodes to Gray or Gray16,
// three to NRGBA or NRGBA64 and four to NRGBA or NRGBA64 with alpha.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	pixels, h, err := DecodeBuffer(data)
	if err != nil {
		return nil, err
	}
	f := h.Frame
	if f.ComponentCount > 1 && h.Scans[0].InterleaveMode == InterleaveNone {
		pixels = interleaved(pixels, f)
	}
	return toImage(pixels, f)
}

// DecodeConfig returns the colour model and dimensions without decoding the scans.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return image.Config{}, err
	}
	h, err := ReadHeader(buf.Bytes())
	if err != nil {
		return image.Config{}, err
	}
	cfg := image.Config{Width: h.Frame.Width, Height: h.Frame.Height}
	wide := h.Frame.BitsPerSample > 8
	switch h.Frame.ComponentCount {
	case 1:
		cfg.ColorModel = color.GrayModel
		if wide {
			cfg.ColorModel = color.Gray16Model
		}
	case 3, 4:
		cfg.ColorModel = color.NRGBAModel
		if wide {
			cfg.ColorModel = color.NRGBA64Model
		}
	default:
		return cfg, fmt.Errorf("%w: %d components", ErrUnsupportedImage, h.Frame.ComponentCount)
	}
	return cfg, nil
}

func toImage(pixels []byte, f FrameInfo) (image.Image, error) {
	rect := image.Rect(0, 0, f.Width, f.Height)
	bps := f.BytesPerSample()
	n := f.ComponentCount
	switch {
	case n == 1 && bps == 1:
		img := image.NewGray(rect)
		copy(img.Pix, pixels)
		return img, nil
	case n == 1:
		img := image.NewGray16(rect)
		for i := 0; i < f.Width*f.Height; i++ {
			img.Pix[2*i], img.Pix[2*i+1] = pixels[2*i+1], pixels[2*i]
		}
		return img, nil
	case (n == 3 || n == 4) && bps == 1:
		img := image.NewNRGBA(rect)
		for i := 0; i < f.Width*f.Height; i++ {
			copy(img.Pix[4*i:4*i+n], pixels[n*i:n*i+n])
			if n == 3 {
				img.Pix[4*i+3] = 0xFF
			}
		}
		return img, nil
	case n == 3 || n == 4:
		img := image.NewNRGBA64(rect)
		for i := 0; i < f.Width*f.Height; i++ {
			for c := 0; c < n; c++ {
				img.Pix[8*i+2*c], img.Pix[8*i+2*c+1] = pixels[2*(n*i+c)+1], pixels[2*(n*i+c)]
			}
			if n == 3 {
				img.Pix[8*i+6], img.Pix[8*i+7] = 0xFF, 0xFF
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %d components", ErrUnsupportedImage, n)
}
