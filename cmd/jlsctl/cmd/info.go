package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/jpfielding/jpegls.go/pkg/util"
	"github.com/spf13/cobra"
)

// NewInfoCmd prints frame and scan parameters of a JPEG-LS stream
func NewInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "show JPEG-LS header information",
		Long:  "Prints frame, preset and scan parameters. With --digest the scans are decoded and an md5 of the samples plus a content id are printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			digest, _ := cmd.Flags().GetBool("digest")
			r, err := openInput(in)
			if err != nil {
				return err
			}
			data, err := io.ReadAll(r)
			r.Close()
			if err != nil {
				return err
			}
			h, err := jpegls.ReadHeader(data)
			if err != nil {
				return fmt.Errorf("read header %s: %w", in, err)
			}
			w := cmd.OutOrStdout()
			printHeader(w, h)
			if !digest {
				return nil
			}
			samples, _, err := jpegls.DecodeBuffer(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", in, err)
			}
			sum := util.Md5ThenHex(samples)
			id, err := util.ContentID(struct {
				Frame  jpegls.FrameInfo
				Digest string
			}{h.Frame, sum})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "md5: %s\n", sum)
			fmt.Fprintf(w, "content id: %s\n", id)
			return nil
		},
	}
	pf := cmd.Flags()
	pf.StringP("in", "i", "", "JPEG-LS input, - for stdin")
	pf.Bool("digest", false, "decode and print a digest of the samples")
	cmd.MarkFlagRequired("in")
	return cmd
}

func printHeader(w io.Writer, h *jpegls.Header) {
	f := h.Frame
	fmt.Fprintf(w, "size: %dx%d\n", f.Width, f.Height)
	fmt.Fprintf(w, "bits per sample: %d\n", f.BitsPerSample)
	fmt.Fprintf(w, "components: %d %v\n", f.ComponentCount, h.ComponentIDs)
	if !h.Preset.IsDefault() {
		p := h.Preset
		fmt.Fprintf(w, "preset: maxval=%d t1=%d t2=%d t3=%d reset=%d\n",
			p.MaximumSampleValue, p.Threshold1, p.Threshold2, p.Threshold3, p.ResetValue)
	}
	if h.RestartInterval > 0 {
		fmt.Fprintf(w, "restart interval: %d\n", h.RestartInterval)
	}
	if h.ColorTransform != jpegls.ColorTransformNone {
		fmt.Fprintf(w, "color transform: %s\n", h.ColorTransform)
	}
	for i, s := range h.Scans {
		fmt.Fprintf(w, "scan %d: components=%v near=%d interleave=%s offset=%d\n",
			i, s.ComponentIDs, s.NearLossless, s.InterleaveMode, s.Offset)
	}
}
