package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/jpfielding/jpegls.go/pkg/dicom"
	"github.com/spf13/cobra"
)

// NewEncodeCmd compresses a png, tiff or bmp image to JPEG-LS
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode an image as JPEG-LS",
		Long:  "Reads a png, tiff or bmp image and writes a JPEG-LS stream, optionally wrapped as DICOM encapsulated pixel data.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			opts, err := encodeOptions(cmd)
			if err != nil {
				return err
			}
			encapsulated, _ := cmd.Flags().GetBool("encapsulated")

			img, format, err := readImage(in)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := jpegls.Encode(&buf, img, opts); err != nil {
				return fmt.Errorf("encode %s: %w", in, err)
			}
			data := buf.Bytes()
			if encapsulated {
				data = dicom.Encapsulate([][]byte{data})
			}
			slog.InfoContext(ctx, "encoded",
				slog.String("in", in),
				slog.String("format", format),
				slog.Int("width", img.Bounds().Dx()),
				slog.Int("height", img.Bounds().Dy()),
				slog.Int("bytes", len(data)),
				slog.String("syntax", string(dicom.ForNear(opts.Near))))
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0644)
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "input image (png, tiff, bmp), - for stdin")
	pf.StringP("out", "o", "-", "output path, - for stdout")
	pf.Int("near", 0, "near-lossless tolerance, 0 is lossless")
	pf.String("interleave", "line", "interleave mode for colour images (none, line, sample)")
	pf.String("color-transform", "none", "colour transform (none, hp1, hp2, hp3)")
	pf.Int("restart", 0, "restart interval in lines, 0 disables")
	pf.Int("bits", 0, "bits per sample, 0 keeps the image depth")
	pf.Bool("encapsulated", false, "wrap the stream as DICOM encapsulated pixel data")
	cmd.MarkFlagRequired("in")
	return cmd
}

func encodeOptions(cmd *cobra.Command) (*jpegls.Options, error) {
	opts := &jpegls.Options{}
	opts.Near, _ = cmd.Flags().GetInt("near")
	opts.RestartInterval, _ = cmd.Flags().GetInt("restart")
	opts.BitsPerSample, _ = cmd.Flags().GetInt("bits")
	ilv, _ := cmd.Flags().GetString("interleave")
	mode, err := jpegls.ParseInterleaveMode(ilv)
	if err != nil {
		return nil, err
	}
	opts.Interleave = mode
	ct, _ := cmd.Flags().GetString("color-transform")
	transform, err := jpegls.ParseColorTransform(ct)
	if err != nil {
		return nil, err
	}
	opts.ColorTransform = transform
	return opts, nil
}
