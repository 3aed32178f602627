package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpfielding/cpi.go/pkg/cpi"
	"github.com/jpfielding/cpi.go/pkg/imaging"
	"github.com/jpfielding/cpi.go/pkg/util"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze cobra command
func NewAnalyzeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze CPI file structure",
		Long:  "Parses and displays the header and payload statistics of a CPI file, then decodes it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			return runAnalyze(ctx, cmd.OutOrStdout(), filePath)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "CPI file path to analyze")
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, filePath string) error {
	st, err := cpi.InspectFile(filePath)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	fmt.Fprintln(out, "=== Header ===")
	fmt.Fprintf(out, "Width: %d\n", st.Header.Width)
	fmt.Fprintf(out, "Height: %d\n", st.Header.Height)
	fmt.Fprintf(out, "BlockLength: %d\n", st.Header.BlockLength)
	fmt.Fprintf(out, "ByteOrder: %s\n", st.ByteOrder)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "=== Payload ===")
	fmt.Fprintf(out, "Bytes: %d\n", st.PayloadBytes)
	fmt.Fprintf(out, "Runs: %d\n", st.Runs)
	fmt.Fprintf(out, "Expanded samples: %d (expected %d)\n", st.Samples, st.Header.Samples())
	if st.Runs > 0 {
		fmt.Fprintf(out, "Mean run: %.2f\n", float64(st.Samples)/float64(st.Runs))
	}
	fmt.Fprintf(out, "Compression ratio: %.3f\n", st.Ratio())
	if st.OddTrailing {
		fmt.Fprintln(out, "Warning: unpaired trailing byte")
	}

	img, err := cpi.NewReader(cpi.WithReaderLogger(slog.Default())).ReadFile(filePath)
	if err != nil {
		slog.WarnContext(ctx, "decode failed", "file", filePath, "error", err)
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Channels ===")
	for _, ch := range imaging.Channels {
		plane := img.Plane(ch)
		minVal, maxVal := plane[0], plane[0]
		for _, v := range plane {
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
		fmt.Fprintf(out, "%s: min=%d max=%d md5=%s\n", ch, minVal, maxVal, util.Md5ThenHex(plane))
	}
	return nil
}
