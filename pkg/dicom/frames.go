package dicom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrNotJPEGLS is returned for datasets whose pixel data is not JPEG-LS.
var ErrNotJPEGLS = errors.New("dicom: transfer syntax is not JPEG-LS")

// FrameSet holds the compressed frames of one dataset with the image
// attributes needed to check them.
type FrameSet struct {
	Syntax          Syntax
	Rows            int
	Columns         int
	SamplesPerPixel int
	BitsStored      int
	Frames          [][]byte
}

// ReadFile opens path and collects its JPEG-LS frames.
func ReadFile(path string) (*FrameSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat file: %w", err)
	}
	return ReadFrames(f, info.Size())
}

// ReadFrames parses size bytes of DICOM from r.
func ReadFrames(r io.Reader, size int64) (*FrameSet, error) {
	ds, err := dicom.Parse(r, size, nil)
	if err != nil {
		return nil, fmt.Errorf("could not parse DICOM: %w", err)
	}
	return FromDataset(ds)
}

// FromDataset extracts the encapsulated frames of ds.
func FromDataset(ds dicom.Dataset) (*FrameSet, error) {
	fs := &FrameSet{
		Syntax:          Syntax(stringValue(ds, tag.TransferSyntaxUID)),
		Rows:            intValue(ds, tag.Rows),
		Columns:         intValue(ds, tag.Columns),
		SamplesPerPixel: intValue(ds, tag.SamplesPerPixel),
		BitsStored:      intValue(ds, tag.BitsStored),
	}
	if !fs.Syntax.IsJPEGLS() {
		return nil, fmt.Errorf("%w: %s", ErrNotJPEGLS, fs.Syntax.Name())
	}
	if fs.SamplesPerPixel == 0 {
		fs.SamplesPerPixel = 1
	}
	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("no pixel data found: %w", err)
	}
	switch v := elem.Value.GetValue().(type) {
	case dicom.PixelDataInfo:
		if !v.IsEncapsulated {
			return nil, fmt.Errorf("%w: pixel data is native", ErrNotJPEGLS)
		}
		for _, fr := range v.Frames {
			if fr.Encapsulated {
				fs.Frames = append(fs.Frames, fr.EncapsulatedData.Data)
			}
		}
	case []byte:
		frames, err := Fragments(v)
		if err != nil {
			return nil, err
		}
		fs.Frames = frames
	default:
		return nil, fmt.Errorf("unsupported pixel data type: %T", v)
	}
	return fs, nil
}

// Decode decodes frame i and checks its header against the dataset
// attributes.
func (fs *FrameSet) Decode(ctx context.Context, i int) ([]byte, *jpegls.Header, error) {
	if i < 0 || i >= len(fs.Frames) {
		return nil, nil, fmt.Errorf("frame index %d out of bounds (0-%d)", i, len(fs.Frames)-1)
	}
	samples, h, err := jpegls.DecodeBuffer(fs.Frames[i])
	if err != nil {
		return nil, nil, fmt.Errorf("frame %d: %w", i, err)
	}
	if h.Frame.Width != fs.Columns || h.Frame.Height != fs.Rows || h.Frame.ComponentCount != fs.SamplesPerPixel {
		slog.WarnContext(ctx, "frame header disagrees with dataset",
			slog.Int("frame", i),
			slog.Int("width", h.Frame.Width), slog.Int("columns", fs.Columns),
			slog.Int("height", h.Frame.Height), slog.Int("rows", fs.Rows),
			slog.Int("components", h.Frame.ComponentCount))
	}
	if !fs.Syntax.AllowsNearLossless() {
		for _, s := range h.Scans {
			if s.NearLossless != 0 {
				return nil, nil, fmt.Errorf("frame %d: near %d under %s: %w", i, s.NearLossless, fs.Syntax.Name(), jpegls.ErrInvalidEncodedData)
			}
		}
	}
	return samples, h, nil
}

func stringValue(ds dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem.Value == nil {
		return ""
	}
	switch v := elem.Value.GetValue().(type) {
	case []string:
		if len(v) > 0 {
			return trimUID(v[0])
		}
	case string:
		return trimUID(v)
	}
	return ""
}

// UIDs are padded to even length with a NUL.
func trimUID(s string) string {
	for len(s) > 0 && (s[len(s)-1] == 0 || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}

func intValue(ds dicom.Dataset, t tag.Tag) int {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem.Value == nil {
		return 0
	}
	switch v := elem.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0]
		}
	case int:
		return v
	case []uint16:
		if len(v) > 0 {
			return int(v[0])
		}
	}
	return 0
}
