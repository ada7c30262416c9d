package jpegls

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
)

// Options for encoding.
type Options struct {
	Near            int // near-lossless tolerance, 0 is lossless
	Interleave      InterleaveMode
	ColorTransform  ColorTransform
	RestartInterval int                     // lines per restart interval, 0 disables
	Preset          *PresetCodingParameters // nil selects the default thresholds
	BitsPerSample   int                     // 0 keeps the image's native depth
}

func (o *Options) orDefault() *Options {
	if o == nil {
		return &Options{}
	}
	return o
}

// Encode writes img to w as a JPEG-LS stream.
func Encode(w io.Writer, img image.Image, opts *Options) error {
	opts = opts.orDefault()
	info, pixels, err := imageSamples(img, opts.BitsPerSample)
	if err != nil {
		return err
	}
	interleave := opts.Interleave
	if info.ComponentCount == 1 {
		interleave = InterleaveNone
	}
	if interleave == InterleaveNone && info.ComponentCount > 1 {
		pixels = planar(pixels, info)
	}
	o := *opts
	o.Interleave = interleave
	data, err := EncodeBuffer(pixels, info, &o)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// EncodeBuffer encodes raw samples. Samples of up to 8 bits take one byte, wider
// samples two bytes little endian. InterleaveNone expects one plane per
// component, Line and Sample expect pixel interleaved components.
func EncodeBuffer(src []byte, info FrameInfo, opts *Options) ([]byte, error) {
	opts = opts.orDefault()
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if want := info.Width * info.Height * info.ComponentCount * info.BytesPerSample(); len(src) < want {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrSourceTooSmall, len(src), want)
	}
	interleave := opts.Interleave
	if info.ComponentCount == 1 {
		interleave = InterleaveNone
	}
	var preset PresetCodingParameters
	if opts.Preset != nil {
		preset = *opts.Preset
	}
	resolved, err := preset.Resolve(info.BitsPerSample, opts.Near)
	if err != nil {
		return nil, err
	}
	params := CodingParameters{
		NearLossless:    opts.Near,
		InterleaveMode:  interleave,
		RestartInterval: opts.RestartInterval,
		ColorTransform:  opts.ColorTransform,
	}

	size := estimateSize(info)
	for {
		out, err := encodeFrame(make([]byte, 0, size), src, info, resolved, params)
		if !errors.Is(err, ErrDestinationTooSmall) {
			return out, err
		}
		slog.Debug("jpegls: growing destination", slog.Int("size", size))
		size *= 2
	}
}

func estimateSize(info FrameInfo) int {
	return info.Width*info.Height*info.ComponentCount*info.BytesPerSample() + 1024
}

func encodeFrame(out, src []byte, info FrameInfo, preset PresetCodingParameters, params CodingParameters) ([]byte, error) {
	out = appendMarker(out, MarkerSOI)
	out = appendStartOfFrame(out, info)
	if params.ColorTransform != ColorTransformNone {
		out = appendColorTransform(out, params.ColorTransform)
	}
	if preset != DefaultPresetCodingParameters(1<<info.BitsPerSample-1, params.NearLossless) {
		out = appendPresetParameters(out, preset)
	}
	if params.RestartInterval > 0 {
		out = appendRestartInterval(out, params.RestartInterval)
	}

	if params.InterleaveMode == InterleaveNone {
		plane := info.Width * info.Height * info.BytesPerSample()
		scanInfo := info
		scanInfo.ComponentCount = 1
		for c := 0; c < info.ComponentCount; c++ {
			out = appendStartOfScan(out, []int{c + 1}, params.NearLossless, InterleaveNone)
			var err error
			if out, err = encodeScan(out, src[c*plane:(c+1)*plane], scanInfo, preset, params); err != nil {
				return nil, err
			}
		}
	} else {
		ids := make([]int, info.ComponentCount)
		for i := range ids {
			ids[i] = i + 1
		}
		out = appendStartOfScan(out, ids, params.NearLossless, params.InterleaveMode)
		var err error
		if out, err = encodeScan(out, src, info, preset, params); err != nil {
			return nil, err
		}
	}
	if len(out)+2 > cap(out) {
		return nil, ErrDestinationTooSmall
	}
	return appendMarker(out, MarkerEOI), nil
}

func encodeScan(out, src []byte, info FrameInfo, preset PresetCodingParameters, params CodingParameters) ([]byte, error) {
	enc, err := NewScanEncoder(info, preset, params)
	if err != nil {
		return nil, err
	}
	n, err := enc.EncodeScan(src, 0, out[len(out):cap(out)])
	if err != nil {
		return nil, err
	}
	return out[:len(out)+n], nil
}

// planar converts pixel interleaved samples into one plane per component.
func planar(src []byte, info FrameInfo) []byte {
	bps := info.BytesPerSample()
	n := info.ComponentCount
	pixels := info.Width * info.Height
	dst := make([]byte, len(src))
	for i := 0; i < pixels; i++ {
		for c := 0; c < n; c++ {
			copy(dst[(c*pixels+i)*bps:(c*pixels+i+1)*bps], src[(i*n+c)*bps:(i*n+c+1)*bps])
		}
	}
	return dst
}

// interleaved is the inverse of planar.
func interleaved(src []byte, info FrameInfo) []byte {
	bps := info.BytesPerSample()
	n := info.ComponentCount
	pixels := info.Width * info.Height
	dst := make([]byte, len(src))
	for i := 0; i < pixels; i++ {
		for c := 0; c < n; c++ {
			copy(dst[(i*n+c)*bps:(i*n+c+1)*bps], src[(c*pixels+i)*bps:(c*pixels+i+1)*bps])
		}
	}
	return dst
}

// imageSamples flattens img into pixel interleaved little endian samples.
func imageSamples(img image.Image, bitsPerSample int) (FrameInfo, []byte, error) {
	b := img.Bounds()
	info := FrameInfo{Width: b.Dx(), Height: b.Dy()}
	if info.Width <= 0 || info.Height <= 0 {
		return info, nil, fmt.Errorf("%w: empty image", ErrInvalidParameter)
	}
	var pixels []byte
	switch m := img.(type) {
	case *image.Gray:
		info.BitsPerSample, info.ComponentCount = 8, 1
		pixels = make([]byte, 0, info.Width*info.Height)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := m.PixOffset(b.Min.X, y)
			pixels = append(pixels, m.Pix[i:i+info.Width]...)
		}
	case *image.Gray16:
		info.BitsPerSample, info.ComponentCount = 16, 1
		pixels = make([]byte, 0, 2*info.Width*info.Height)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				v := m.Gray16At(x, y).Y
				pixels = append(pixels, byte(v), byte(v>>8))
			}
		}
	case *image.RGBA64:
		info.BitsPerSample, info.ComponentCount = 16, 3
		pixels = rgb16(b, func(x, y int) (uint16, uint16, uint16) {
			c := m.RGBA64At(x, y)
			return c.R, c.G, c.B
		})
	case *image.NRGBA64:
		info.BitsPerSample, info.ComponentCount = 16, 3
		pixels = rgb16(b, func(x, y int) (uint16, uint16, uint16) {
			i := m.PixOffset(x, y)
			p := m.Pix[i : i+6]
			return uint16(p[0])<<8 | uint16(p[1]), uint16(p[2])<<8 | uint16(p[3]), uint16(p[4])<<8 | uint16(p[5])
		})
	default:
		nrgba, ok := img.(*image.NRGBA)
		if !ok {
			if _, isRGBA := img.(*image.RGBA); !isRGBA && !isColor(img) {
				return info, nil, fmt.Errorf("%w: %T", ErrUnsupportedImage, img)
			}
			nrgba = image.NewNRGBA(b)
			draw.Draw(nrgba, b, img, b.Min, draw.Src)
		}
		info.BitsPerSample, info.ComponentCount = 8, 3
		pixels = make([]byte, 0, 3*info.Width*info.Height)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i := nrgba.PixOffset(x, y)
				pixels = append(pixels, nrgba.Pix[i:i+3]...)
			}
		}
	}
	if bitsPerSample != 0 {
		if err := reduceDepth(&info, pixels, bitsPerSample); err != nil {
			return info, nil, err
		}
	}
	return info, pixels, nil
}

func isColor(img image.Image) bool {
	switch img.(type) {
	case *image.YCbCr, *image.Paletted, *image.CMYK, *image.NYCbCrA:
		return true
	}
	return false
}

func rgb16(b image.Rectangle, at func(x, y int) (uint16, uint16, uint16)) []byte {
	pixels := make([]byte, 0, 6*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := at(x, y)
			pixels = append(pixels, byte(r), byte(r>>8), byte(g), byte(g>>8), byte(bl), byte(bl>>8))
		}
	}
	return pixels
}

// reduceDepth declares a narrower sample depth, every sample must already fit.
func reduceDepth(info *FrameInfo, pixels []byte, bitsPerSample int) error {
	if bitsPerSample < minimumBitsPerSample || bitsPerSample > info.BitsPerSample {
		return fmt.Errorf("%w: %d bits per sample for a %d bit image", ErrInvalidParameter, bitsPerSample, info.BitsPerSample)
	}
	if (bitsPerSample <= 8) != (info.BitsPerSample <= 8) {
		return fmt.Errorf("%w: %d bits per sample changes the sample size", ErrInvalidParameter, bitsPerSample)
	}
	maxVal := 1<<bitsPerSample - 1
	bps := info.BytesPerSample()
	for i := 0; i < len(pixels)/bps; i++ {
		if readSample(pixels, i, bps) > maxVal {
			return fmt.Errorf("%w: sample %d exceeds %d bits", ErrInvalidParameter, i, bitsPerSample)
		}
	}
	info.BitsPerSample = bitsPerSample
	return nil
}
