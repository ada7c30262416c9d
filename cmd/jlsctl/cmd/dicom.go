package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/jpfielding/jpegls.go/pkg/dicom"
	"github.com/jpfielding/jpegls.go/pkg/util"
	"github.com/spf13/cobra"
)

// NewDicomCmd lists and extracts the JPEG-LS frames of a DICOM file
func NewDicomCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dicom",
		Short: "inspect JPEG-LS frames in a DICOM file",
		Long:  "Lists the JPEG-LS compressed frames of a DICOM file, decodes each one and optionally writes them as png and jls files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			outDir, _ := cmd.Flags().GetString("out-dir")
			if in == "" && len(args) > 0 {
				in = args[0]
			}
			if in == "" {
				return fmt.Errorf("file path is required. Use --in flag or provide as argument")
			}
			fs, err := dicom.ReadFile(in)
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return err
				}
			}
			return runDicom(ctx, cmd, fs, outDir)
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "DICOM file path")
	pf.String("out-dir", "", "directory receiving frame_N.jls and frame_N.png")
	return cmd
}

func runDicom(ctx context.Context, cmd *cobra.Command, fs *dicom.FrameSet, outDir string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "transfer syntax: %s (%s)\n", fs.Syntax, fs.Syntax.Name())
	fmt.Fprintf(w, "rows: %d columns: %d samples: %d bits stored: %d\n", fs.Rows, fs.Columns, fs.SamplesPerPixel, fs.BitsStored)
	fmt.Fprintf(w, "frames: %d\n", len(fs.Frames))
	for i, data := range fs.Frames {
		samples, h, err := fs.Decode(ctx, i)
		if err != nil {
			slog.ErrorContext(ctx, "frame decode failed", slog.Int("frame", i), slog.Any("error", err))
			fmt.Fprintf(w, "frame %d: %d bytes, error: %v\n", i, len(data), err)
			continue
		}
		fmt.Fprintf(w, "frame %d: %d bytes, %dx%dx%d, %d bits, md5 %s\n",
			i, len(data), h.Frame.Width, h.Frame.Height, h.Frame.ComponentCount, h.Frame.BitsPerSample, util.Md5ThenHex(samples))
		if outDir == "" {
			continue
		}
		base := filepath.Join(outDir, fmt.Sprintf("frame_%d", i))
		if err := os.WriteFile(base+".jls", data, 0644); err != nil {
			return err
		}
		img, err := jpegls.Decode(bytes.NewReader(data))
		if err != nil {
			// decodes fine as samples but has no image model, e.g. 2 components
			slog.WarnContext(ctx, "frame kept as jls only", slog.Int("frame", i), slog.Any("error", err))
			continue
		}
		if err := writeImage(base+".png", img, nil); err != nil {
			return err
		}
	}
	return nil
}
