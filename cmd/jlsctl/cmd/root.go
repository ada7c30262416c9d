package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/jpegls.go/pkg/logging"
	"github.com/spf13/cobra"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	var logFile io.WriteCloser
	cmd := &cobra.Command{
		Use:          "jlsctl",
		Short:        "a CLI to encode, decode and inspect JPEG-LS images",
		Long:         "jlsctl converts between JPEG-LS and common image formats and pulls JPEG-LS frames out of DICOM files",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logPath, _ := cmd.Flags().GetString("log-file")
			asJSON, _ := cmd.Flags().GetBool("log-json")

			level, err := logging.ParseLevel(strings.ToUpper(logLevel))
			var out io.Writer = os.Stderr
			if logPath != "" {
				logFile = logging.RotatingFile(logPath, 10, 3)
				out = io.MultiWriter(os.Stderr, logFile)
			}
			slog.SetDefault(logging.Logger(out, asJSON, level))
			if err != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", err)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				logFile.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewEncodeCmd(ctx),
		NewDecodeCmd(ctx),
		NewInfoCmd(ctx),
		NewDicomCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "also write logs to this file, rotated at 10MB")
	pf.Bool("log-json", false, "log records as json")
	return cmd
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(w, subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}
