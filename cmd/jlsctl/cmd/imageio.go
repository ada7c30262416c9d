package cmd

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// openInput treats "-" as stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// readImage decodes any registered format: png, tiff, bmp or jpeg-ls.
func readImage(path string) (image.Image, string, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, "", err
	}
	defer in.Close()
	img, format, err := image.Decode(in)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, format, nil
}

// writeImage picks the encoder from the extension of path.
func writeImage(path string, img image.Image, opts *jpegls.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := encodeImage(f, strings.ToLower(filepath.Ext(path)), img, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeImage(w io.Writer, ext string, img image.Image, opts *jpegls.Options) error {
	switch ext {
	case ".png":
		return png.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		return bmp.Encode(w, img)
	case ".jls":
		return jpegls.Encode(w, img, opts)
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}
}
