package dicom

import (
	"context"
	"testing"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func mustElement(t *testing.T, tg tag.Tag, v any) *dicom.Element {
	t.Helper()
	e, err := dicom.NewElement(tg, v)
	require.NoError(t, err)
	return e
}

func gradient(w, h int) []byte {
	px := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px[y*w+x] = byte(x*3 + y)
		}
	}
	return px
}

func dataset(t *testing.T, syntax Syntax, w, h int, frames ...[]byte) dicom.Dataset {
	pd := dicom.PixelDataInfo{IsEncapsulated: true}
	for _, f := range frames {
		pd.Frames = append(pd.Frames, &frame.Frame{
			Encapsulated:     true,
			EncapsulatedData: frame.EncapsulatedFrame{Data: f},
		})
	}
	return dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.TransferSyntaxUID, []string{string(syntax)}),
		mustElement(t, tag.Rows, []int{h}),
		mustElement(t, tag.Columns, []int{w}),
		mustElement(t, tag.SamplesPerPixel, []int{1}),
		mustElement(t, tag.BitsStored, []int{8}),
		mustElement(t, tag.PixelData, pd),
	}}
}

func TestFromDataset(t *testing.T) {
	px := gradient(16, 8)
	info := jpegls.FrameInfo{Width: 16, Height: 8, BitsPerSample: 8, ComponentCount: 1}
	enc, err := jpegls.EncodeBuffer(px, info, nil)
	require.NoError(t, err)

	fs, err := FromDataset(dataset(t, JPEGLSLossless, 16, 8, enc, enc))
	require.NoError(t, err)
	assert.Equal(t, JPEGLSLossless, fs.Syntax)
	assert.Equal(t, 8, fs.Rows)
	assert.Equal(t, 16, fs.Columns)
	assert.Equal(t, 8, fs.BitsStored)
	require.Len(t, fs.Frames, 2)

	got, h, err := fs.Decode(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, px, got)
	assert.Equal(t, info, h.Frame)

	_, _, err = fs.Decode(context.Background(), 2)
	assert.Error(t, err)
}

func TestNearLosslessUnderLosslessSyntax(t *testing.T) {
	px := gradient(16, 8)
	info := jpegls.FrameInfo{Width: 16, Height: 8, BitsPerSample: 8, ComponentCount: 1}
	enc, err := jpegls.EncodeBuffer(px, info, &jpegls.Options{Near: 2})
	require.NoError(t, err)

	fs, err := FromDataset(dataset(t, JPEGLSLossless, 16, 8, enc))
	require.NoError(t, err)
	_, _, err = fs.Decode(context.Background(), 0)
	assert.ErrorIs(t, err, jpegls.ErrInvalidEncodedData)

	fs, err = FromDataset(dataset(t, ForNear(2), 16, 8, enc))
	require.NoError(t, err)
	got, _, err := fs.Decode(context.Background(), 0)
	require.NoError(t, err)
	for i := range px {
		assert.InDelta(t, int(px[i]), int(got[i]), 2)
	}
}

func TestNotJPEGLS(t *testing.T) {
	_, err := FromDataset(dataset(t, ExplicitVRLittleEndian, 1, 1))
	assert.ErrorIs(t, err, ErrNotJPEGLS)
}

func TestSyntax(t *testing.T) {
	assert.True(t, JPEGLSLossless.IsJPEGLS())
	assert.True(t, JPEGLSNearLossless.AllowsNearLossless())
	assert.False(t, JPEGLSLossless.AllowsNearLossless())
	assert.False(t, ImplicitVRLittleEndian.IsJPEGLS())
	assert.Equal(t, "JPEG-LS Lossless", JPEGLSLossless.Name())
	assert.Equal(t, "1.2.3", Syntax("1.2.3").Name())
	assert.Equal(t, JPEGLSLossless, ForNear(0))
	assert.Equal(t, "1.2.840.10008.1.2.4.80", trimUID("1.2.840.10008.1.2.4.80\x00"))
}

func TestEncapsulate(t *testing.T) {
	frames := [][]byte{{1, 2, 3}, {4, 5, 6, 7}, {8}}
	data := Encapsulate(frames)
	// bot: 8 + 12, items: 8+4, 8+4, 8+2, delimiter 8
	assert.Len(t, data, 20+12+12+10+8)
	assert.Equal(t, []byte{0xFE, 0xFF, 0x00, 0xE0, 12, 0, 0, 0}, data[:8])
	assert.Equal(t, []byte{0, 0, 0, 0, 12, 0, 0, 0, 24, 0, 0, 0}, data[8:20])
	assert.Equal(t, []byte{0xFE, 0xFF, 0xDD, 0xE0, 0, 0, 0, 0}, data[len(data)-8:])

	got, err := Fragments(data)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte{1, 2, 3, 0}, got[0])
	assert.Equal(t, []byte{4, 5, 6, 7}, got[1])
	assert.Equal(t, []byte{8, 0}, got[2])

	single := Encapsulate([][]byte{{9, 9}})
	assert.Equal(t, []byte{0xFE, 0xFF, 0x00, 0xE0, 0, 0, 0, 0}, single[:8])
	got, err = Fragments(single)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{9, 9}}, got)
}

func TestFragmentsErrors(t *testing.T) {
	data := Encapsulate([][]byte{{1, 2}})
	_, err := Fragments(data[:len(data)-8])
	assert.ErrorIs(t, err, ErrBadEncapsulation)

	bad := append([]byte{}, data...)
	bad[8] = 0x01
	_, err = Fragments(bad)
	assert.ErrorIs(t, err, ErrBadEncapsulation)

	long := append([]byte{}, data...)
	long[12] = 0xF0
	_, err = Fragments(long)
	assert.ErrorIs(t, err, ErrBadEncapsulation)
}
