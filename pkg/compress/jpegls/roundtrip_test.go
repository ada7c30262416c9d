package jpegls_test

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jpegls "github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
)

// TestRoundTrip16 encodes a 16-bit image with flat corners and a gradient.
func TestRoundTrip16(t *testing.T) {
	width, height := 312, 312
	original := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var val uint16
			switch {
			case x < 100 && y < 100:
				val = 0
			case x > 200 && y < 100:
				val = 65535
			default:
				val = uint16((x + y*width) % 65536)
			}
			original.SetGray16(x, y, color.Gray16{Y: val})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, original, nil))
	t.Logf("Encoded %dx%d to %d bytes", width, height, buf.Len())

	decoded, err := jpegls.Decode(&buf)
	require.NoError(t, err)
	res, ok := decoded.(*image.Gray16)
	require.True(t, ok, "expected *image.Gray16, got %T", decoded)
	assert.Equal(t, original.Pix, res.Pix)
}

// TestRoundTripRowOrder catches row/column transposition.
func TestRoundTripRowOrder(t *testing.T) {
	width, height := 100, 50
	original := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			original.SetGray16(x, y, color.Gray16{Y: uint16(y*1000 + x)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, original, nil))
	decoded, err := jpegls.Decode(&buf)
	require.NoError(t, err)

	testCases := []struct {
		x, y    int
		wantVal uint16
	}{
		{0, 0, 0},
		{99, 0, 99},
		{0, 49, 49000},
		{50, 25, 25050},
	}
	for _, tc := range testCases {
		r, _, _, _ := decoded.At(tc.x, tc.y).RGBA()
		assert.Equal(t, tc.wantVal, uint16(r), "at (%d, %d)", tc.x, tc.y)
	}
}

func synthetic(info jpegls.FrameInfo, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	maxVal := 1<<info.BitsPerSample - 1
	bps := info.BytesPerSample()
	n := info.Width * info.Height * info.ComponentCount
	out := make([]byte, n*bps)
	for i := 0; i < n; i++ {
		pixel := i / info.ComponentCount
		x, y := pixel%info.Width, pixel/info.Width
		v := (x*maxVal/info.Width + y*maxVal/info.Height) / 2
		switch {
		case x < info.Width/4:
			v = maxVal / 3 // flat band for run mode
		case (x/8+y/8)%3 == 0:
			v += r.Intn(maxVal/16+2) - maxVal/32
		}
		v = min(max(v, 0), maxVal)
		if bps == 1 {
			out[i] = byte(v)
		} else {
			out[2*i], out[2*i+1] = byte(v), byte(v>>8)
		}
	}
	return out
}

func sampleAt(b []byte, i, bps int) int {
	if bps == 1 {
		return int(b[i])
	}
	return int(b[2*i]) | int(b[2*i+1])<<8
}

func TestEncodeBuffer_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		info jpegls.FrameInfo
		opts jpegls.Options
	}{
		{"2-bit", jpegls.FrameInfo{Width: 40, Height: 30, BitsPerSample: 2, ComponentCount: 1}, jpegls.Options{}},
		{"5-bit", jpegls.FrameInfo{Width: 40, Height: 30, BitsPerSample: 5, ComponentCount: 1}, jpegls.Options{}},
		{"8-bit", jpegls.FrameInfo{Width: 128, Height: 96, BitsPerSample: 8, ComponentCount: 1}, jpegls.Options{}},
		{"8-bit near 3", jpegls.FrameInfo{Width: 128, Height: 96, BitsPerSample: 8, ComponentCount: 1}, jpegls.Options{Near: 3}},
		{"12-bit", jpegls.FrameInfo{Width: 77, Height: 41, BitsPerSample: 12, ComponentCount: 1}, jpegls.Options{}},
		{"12-bit near 5 restart", jpegls.FrameInfo{Width: 77, Height: 41, BitsPerSample: 12, ComponentCount: 1}, jpegls.Options{Near: 5, RestartInterval: 8}},
		{"16-bit", jpegls.FrameInfo{Width: 64, Height: 64, BitsPerSample: 16, ComponentCount: 1}, jpegls.Options{}},
		{"rgb planar", jpegls.FrameInfo{Width: 50, Height: 20, BitsPerSample: 8, ComponentCount: 3}, jpegls.Options{}},
		{"rgb line", jpegls.FrameInfo{Width: 50, Height: 20, BitsPerSample: 8, ComponentCount: 3}, jpegls.Options{Interleave: jpegls.InterleaveLine}},
		{"rgb sample", jpegls.FrameInfo{Width: 50, Height: 20, BitsPerSample: 8, ComponentCount: 3}, jpegls.Options{Interleave: jpegls.InterleaveSample}},
		{"rgb sample hp1", jpegls.FrameInfo{Width: 50, Height: 20, BitsPerSample: 8, ComponentCount: 3}, jpegls.Options{Interleave: jpegls.InterleaveSample, ColorTransform: jpegls.ColorTransformHP1}},
		{"rgb line hp2 16-bit", jpegls.FrameInfo{Width: 50, Height: 20, BitsPerSample: 16, ComponentCount: 3}, jpegls.Options{Interleave: jpegls.InterleaveLine, ColorTransform: jpegls.ColorTransformHP2}},
		{"rgb sample hp3", jpegls.FrameInfo{Width: 50, Height: 20, BitsPerSample: 8, ComponentCount: 3}, jpegls.Options{Interleave: jpegls.InterleaveSample, ColorTransform: jpegls.ColorTransformHP3}},
		{"rgba line near 2", jpegls.FrameInfo{Width: 33, Height: 17, BitsPerSample: 8, ComponentCount: 4}, jpegls.Options{Interleave: jpegls.InterleaveLine, Near: 2}},
		{"five planes", jpegls.FrameInfo{Width: 20, Height: 10, BitsPerSample: 10, ComponentCount: 5}, jpegls.Options{}},
		{"custom preset", jpegls.FrameInfo{Width: 64, Height: 32, BitsPerSample: 8, ComponentCount: 1}, jpegls.Options{Preset: &jpegls.PresetCodingParameters{Threshold1: 5, Threshold2: 11, Threshold3: 30, ResetValue: 32}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := synthetic(tt.info, 11)
			encoded, err := jpegls.EncodeBuffer(src, tt.info, &tt.opts)
			require.NoError(t, err)

			decoded, h, err := jpegls.DecodeBuffer(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.info, h.Frame)
			assert.Equal(t, tt.opts.ColorTransform, h.ColorTransform)
			assert.Equal(t, tt.opts.RestartInterval, h.RestartInterval)
			require.Len(t, decoded, len(src))

			bps := tt.info.BytesPerSample()
			for i := 0; i < len(src)/bps; i++ {
				diff := sampleAt(decoded, i, bps) - sampleAt(src, i, bps)
				require.LessOrEqual(t, max(diff, -diff), tt.opts.Near, "sample %d", i)
			}
		})
	}
}

func TestEncodeBuffer_Headers(t *testing.T) {
	info := jpegls.FrameInfo{Width: 1, Height: 1, BitsPerSample: 8, ComponentCount: 1}
	encoded, err := jpegls.EncodeBuffer([]byte{128}, info, nil)
	require.NoError(t, err)
	want := []byte{
		0xFF, 0xD8,
		0xFF, 0xF7, 0x00, 0x0B, 0x08, 0x00, 0x01, 0x00, 0x01, 0x01, 0x01, 0x11, 0x00,
		0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x01, 0xFD,
		0xFF, 0xD9,
	}
	assert.Equal(t, want, encoded)

	h, err := jpegls.ReadHeader(encoded)
	require.NoError(t, err)
	assert.Equal(t, info, h.Frame)
	require.Len(t, h.Scans, 1)
	assert.Equal(t, 25, h.Scans[0].Offset)
}

func TestEncodeBuffer_PresetSegment(t *testing.T) {
	info := jpegls.FrameInfo{Width: 16, Height: 16, BitsPerSample: 8, ComponentCount: 1}
	preset := &jpegls.PresetCodingParameters{ResetValue: 32}
	encoded, err := jpegls.EncodeBuffer(synthetic(info, 1), info, &jpegls.Options{Preset: preset})
	require.NoError(t, err)
	h, err := jpegls.ReadHeader(encoded)
	require.NoError(t, err)
	assert.Equal(t, jpegls.PresetCodingParameters{MaximumSampleValue: 255, Threshold1: 3, Threshold2: 7, Threshold3: 21, ResetValue: 32}, h.Preset)
}

func TestDecodeBuffer_Errors(t *testing.T) {
	info := jpegls.FrameInfo{Width: 32, Height: 32, BitsPerSample: 8, ComponentCount: 1}
	encoded, err := jpegls.EncodeBuffer(synthetic(info, 2), info, nil)
	require.NoError(t, err)

	_, _, err = jpegls.DecodeBuffer(encoded[:len(encoded)/2])
	assert.ErrorIs(t, err, jpegls.ErrSourceTooSmall)

	_, _, err = jpegls.DecodeBuffer([]byte{0xFF, 0xD8, 0xFF, 0xC0, 0x00, 0x02})
	assert.ErrorIs(t, err, jpegls.ErrUnsupportedEncoding)

	_, _, err = jpegls.DecodeBuffer([]byte{0x00, 0xD8})
	assert.ErrorIs(t, err, jpegls.ErrInvalidMarker)
}

func TestEncode_ImageTypes(t *testing.T) {
	rect := image.Rect(0, 0, 37, 23)
	gray := image.NewGray(rect)
	nrgba := image.NewNRGBA(rect)
	rgba64 := image.NewNRGBA64(rect)
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			gray.SetGray(x, y, color.Gray{Y: uint8(x * y)})
			nrgba.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x + y), A: 0xFF})
			rgba64.SetNRGBA64(x, y, color.NRGBA64{R: uint16(x * 1000), G: uint16(y * 900), B: uint16(x * y), A: 0xFFFF})
		}
	}
	tests := []struct {
		name string
		img  image.Image
		opts *jpegls.Options
	}{
		{"gray", gray, nil},
		{"nrgba planar", nrgba, nil},
		{"nrgba sample hp1", nrgba, &jpegls.Options{Interleave: jpegls.InterleaveSample, ColorTransform: jpegls.ColorTransformHP1}},
		{"nrgba64 line", rgba64, &jpegls.Options{Interleave: jpegls.InterleaveLine}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, jpegls.Encode(&buf, tt.img, tt.opts))

			cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, "jpeg-ls", format)
			assert.Equal(t, rect.Dx(), cfg.Width)
			assert.Equal(t, rect.Dy(), cfg.Height)

			decoded, err := jpegls.Decode(&buf)
			require.NoError(t, err)
			for y := 0; y < rect.Dy(); y++ {
				for x := 0; x < rect.Dx(); x++ {
					require.Equal(t, color.NRGBA64Model.Convert(tt.img.At(x, y)), color.NRGBA64Model.Convert(decoded.At(x, y)), "at (%d, %d)", x, y)
				}
			}
		})
	}
}

func TestEncode_BitsPerSample(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 16, 16))
	for i := 0; i < 256; i++ {
		img.SetGray16(i%16, i/16, color.Gray16{Y: uint16(i * 16)})
	}
	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, img, &jpegls.Options{BitsPerSample: 12}))
	h, err := jpegls.ReadHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 12, h.Frame.BitsPerSample)

	decoded, err := jpegls.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, decoded.(*image.Gray16).Pix)

	err = jpegls.Encode(&bytes.Buffer{}, img, &jpegls.Options{BitsPerSample: 10})
	assert.ErrorIs(t, err, jpegls.ErrInvalidParameter)
}

func TestEncode_UnsupportedImage(t *testing.T) {
	err := jpegls.Encode(&bytes.Buffer{}, image.NewAlpha(image.Rect(0, 0, 4, 4)), nil)
	assert.ErrorIs(t, err, jpegls.ErrUnsupportedImage)
}
