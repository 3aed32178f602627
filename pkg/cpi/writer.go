package cpi

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/jpfielding/cpi.go/pkg/compress/rle"
	"github.com/jpfielding/cpi.go/pkg/imaging"
	"github.com/jpfielding/cpi.go/pkg/util"
)

// Writer encodes images as CPI files. Each row of each channel is cut into
// blocks of at most BlockLength samples, and every block is run-length coded
// on its own with the configured threshold.
type Writer struct {
	blockLength uint16
	threshold   uint8
	order       binary.ByteOrder
	logger      *slog.Logger
	extension   string
}

// Option configures a Writer
type Option func(*Writer)

func WithBlockDimension(n int) Option { return func(w *Writer) { w.SetBlockDimension(n) } }
func WithThreshold(t uint8) Option    { return func(w *Writer) { w.SetThreshold(t) } }

// WithByteOrder selects the order of the 16-bit header fields
func WithByteOrder(o binary.ByteOrder) Option {
	return func(w *Writer) {
		if o != nil {
			w.order = o
		}
	}
}

// WithLogger sets the sink for diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithExtension(ext string) Option { return func(w *Writer) { w.extension = ext } }

// NewWriter returns a writer with a block length of 32 and a lossless threshold
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		blockLength: DefaultBlockLength,
		order:       binary.LittleEndian,
		logger:      slog.Default(),
		extension:   DefaultExtension,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetBlockDimension sets the block length, clamped to [2, 65535]
func (w *Writer) SetBlockDimension(n int) {
	w.blockLength = uint16(min(max(n, MinBlockLength), MaxDimension))
}

func (w *Writer) BlockDimension() int { return int(w.blockLength) }

// SetThreshold sets the run tolerance; 0 is lossless
func (w *Writer) SetThreshold(t uint8) { w.threshold = t }

func (w *Writer) Threshold() uint8 { return w.threshold }

func (w *Writer) Extension() string { return w.extension }

// Encode writes the header and payload for img to out and returns the byte count
func (w *Writer) Encode(out io.Writer, img *imaging.Image) (int64, error) {
	if img.Width() > MaxDimension || img.Height() > MaxDimension {
		return 0, fmt.Errorf("%w: %dx%d", ErrTooLarge, img.Width(), img.Height())
	}
	bw := bufio.NewWriter(out)
	cw := &countingWriter{w: bw}
	h := Header{
		Width:       uint16(img.Width()),
		Height:      uint16(img.Height()),
		BlockLength: w.blockLength,
	}
	if _, err := h.WriteTo(cw, w.order); err != nil {
		return cw.n.Load(), fmt.Errorf("cpi: write header: %w", err)
	}

	width, bl := img.Width(), int(w.blockLength)
	nBlocks := (width + bl - 1) / bl
	last := width - (nBlocks-1)*bl
	buf := make([]byte, 0, 2*bl)
	for _, ch := range imaging.Channels {
		for y := 0; y < img.Height(); y++ {
			for i := 0; i < nBlocks; i++ {
				size := bl
				if i == nBlocks-1 {
					size = last
				}
				b, err := imaging.ExtractBlock(img, ch, image.Pt(i*bl, y), size)
				if err != nil {
					return cw.n.Load(), fmt.Errorf("cpi: block %d of row %d (%s): %w", i, y, ch, err)
				}
				buf = rle.Compress(b, w.threshold).AppendBinary(buf[:0])
				if _, err := cw.Write(buf); err != nil {
					return cw.n.Load(), fmt.Errorf("cpi: write payload: %w", err)
				}
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return cw.n.Load(), fmt.Errorf("cpi: flush: %w", err)
	}
	w.logger.Debug("encoded CPI image",
		slog.Int("width", width),
		slog.Int("height", img.Height()),
		slog.Int("blockLength", bl),
		slog.Int("threshold", int(w.threshold)),
		slog.Int64("bytes", cw.n.Load()))
	return cw.n.Load(), nil
}

// WriteFile encodes img into path. The data goes to a temporary sibling first
// and is renamed into place only once complete, so a failed write never
// leaves a partial file at path. A ".zst" suffix adds a zstd container.
func (w *Writer) WriteFile(path string, img *imaging.Image) (err error) {
	tmp := util.TempPath(path)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		w.logger.Error("cannot open file", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
			w.logger.Error("CPI write failed", slog.String("path", path), slog.Any("error", err))
		}
	}()

	out, closeOut, err := wrapWriter(f, path)
	if err != nil {
		return err
	}
	if _, err = w.Encode(out, img); err != nil {
		return err
	}
	if err = closeOut(); err != nil {
		return fmt.Errorf("cpi: close container: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("cpi: close %s: %w", filepath.Base(tmp), err)
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cpi: rename into %s: %w", path, err)
	}
	w.logger.Info("wrote CPI image", slog.String("path", path),
		slog.Int("width", img.Width()), slog.Int("height", img.Height()))
	return nil
}

type countingWriter struct {
	n atomic.Int64
	w io.Writer
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n.Add(int64(n))
	return n, err
}
