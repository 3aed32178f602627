package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 20; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x / 5 * 50), G: uint8(y * 30), B: 90, A: 0xFF})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return img
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot(context.Background(), "test-sha")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-file", filepath.Join(t.TempDir(), "ctl.log")))
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, name := range []string{"img.rle", "img.rle.zst"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			src := writePNG(t, filepath.Join(dir, "in.png"))
			cpiPath := filepath.Join(dir, name)
			outPath := filepath.Join(dir, "out.png")

			run(t, "encode", "-i", filepath.Join(dir, "in.png"), "-o", cpiPath, "--block", "7")
			run(t, "decode", "-i", cpiPath, "-o", outPath)

			f, err := os.Open(outPath)
			require.NoError(t, err)
			defer f.Close()
			got, err := png.Decode(f)
			require.NoError(t, err)
			for y := 0; y < 6; y++ {
				for x := 0; x < 20; x++ {
					assert.Equal(t, color.RGBAModel.Convert(src.At(x, y)), color.RGBAModel.Convert(got.At(x, y)))
				}
			}

			report := run(t, "analyze", cpiPath)
			assert.Contains(t, report, "Width: 20")
			assert.Contains(t, report, "BlockLength: 7")
			assert.Contains(t, report, "Expanded samples: 360 (expected 360)")
		})
	}
}

func TestEncode_DefaultOutput(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "pic.png"))
	run(t, "encode", filepath.Join(dir, "pic.png"), "--big-endian")

	report := run(t, "analyze", "-f", filepath.Join(dir, "pic.rle"))
	assert.Contains(t, report, "ByteOrder: BigEndian")
}

func TestVersion(t *testing.T) {
	assert.Contains(t, run(t, "version"), "test-sha")
}
