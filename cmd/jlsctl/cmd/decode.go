package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/spf13/cobra"
)

// NewDecodeCmd expands a JPEG-LS stream to png, tiff, bmp or raw samples
func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode a JPEG-LS stream",
		Long:  "Decodes a JPEG-LS stream to png, tiff or bmp. A .raw output receives the samples exactly as decoded, planar for non-interleaved scans.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			r, err := openInput(in)
			if err != nil {
				return err
			}
			data, err := io.ReadAll(r)
			r.Close()
			if err != nil {
				return err
			}
			ext := strings.ToLower(filepath.Ext(out))
			if ext == ".raw" {
				samples, h, err := jpegls.DecodeBuffer(data)
				if err != nil {
					return fmt.Errorf("decode %s: %w", in, err)
				}
				slog.InfoContext(ctx, "decoded", slog.String("in", in), slog.Any("frame", h.Frame))
				return os.WriteFile(out, samples, 0644)
			}
			img, err := jpegls.Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("decode %s: %w", in, err)
			}
			slog.InfoContext(ctx, "decoded", slog.String("in", in), slog.String("out", out))
			return writeImage(out, img, nil)
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "JPEG-LS input, - for stdin")
	pf.StringP("out", "o", "", "output path (.png, .tif, .bmp, .raw)")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}
