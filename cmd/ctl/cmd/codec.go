package cmd

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpfielding/cpi.go/pkg/cpi"
	"github.com/jpfielding/cpi.go/pkg/imaging"
	"github.com/spf13/cobra"
)

// NewEncodeCmd converts a standard image into CPI
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode a PNG/JPEG/GIF image as CPI",
		Long:  "encode a PNG/JPEG/GIF image as CPI; an output ending in .zst is wrapped in zstd",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			block, _ := cmd.Flags().GetInt("block")
			threshold, _ := cmd.Flags().GetUint8("threshold")
			bigEndian, _ := cmd.Flags().GetBool("big-endian")
			if in == "" && len(args) > 0 {
				in = args[0]
			}
			if in == "" {
				return fmt.Errorf("input path is required. Use --in flag or provide as argument")
			}

			var order binary.ByteOrder = binary.LittleEndian
			if bigEndian {
				order = binary.BigEndian
			}
			w := cpi.NewWriter(
				cpi.WithBlockDimension(block),
				cpi.WithThreshold(threshold),
				cpi.WithByteOrder(order),
				cpi.WithLogger(slog.Default()),
			)
			if out == "" {
				out = swapExt(in, w.Extension())
			}

			src, err := loadImage(in)
			if err != nil {
				return err
			}
			img, err := imaging.FromImage(src)
			if err != nil {
				return fmt.Errorf("convert %s: %w", in, err)
			}
			slog.InfoContext(ctx, "encoding", "in", in, "out", out,
				"block", w.BlockDimension(), "threshold", w.Threshold())
			return w.WriteFile(out, img)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "source image (png, jpeg, gif)")
	pf.StringP("out", "o", "", "destination CPI file (default: input with the writer extension)")
	pf.IntP("block", "b", cpi.DefaultBlockLength, "row block length, minimum 2")
	pf.Uint8P("threshold", "t", 0, "run tolerance, 0 is lossless")
	pf.Bool("big-endian", false, "write header fields big-endian")
	return cmd
}

// NewDecodeCmd converts a CPI file back into a standard image
func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode a CPI image to PNG/JPEG/GIF",
		Long:  "decode a CPI image to PNG/JPEG/GIF, picked by the output extension (default png)",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			if in == "" && len(args) > 0 {
				in = args[0]
			}
			if in == "" {
				return fmt.Errorf("input path is required. Use --in flag or provide as argument")
			}
			if out == "" {
				out = swapExt(strings.TrimSuffix(in, cpi.ZstdSuffix), "png")
			}

			r := cpi.NewReader(cpi.WithReaderLogger(slog.Default()))
			img, err := r.ReadFile(in)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "decoded", "in", in, "out", out,
				"width", img.Width(), "height", img.Height())
			return saveImage(out, img.ToRGBA())
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "source CPI file")
	pf.StringP("out", "o", "", "destination image (.png, .jpg, .gif)")
	return cmd
}

func swapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	slog.Debug("loaded source image", "path", path, "format", format)
	return img, nil
}

func saveImage(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case ".gif":
		return gif.Encode(f, img, nil)
	default:
		return png.Encode(f, img)
	}
}
