package cpi

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpfielding/cpi.go/pkg/compress/rle"
	"github.com/jpfielding/cpi.go/pkg/imaging"
)

// DefaultMaxSamples caps the decoded size a Reader will allocate (1 GiB)
const DefaultMaxSamples = 1 << 30

// Reader decodes CPI files. The payload is expanded as one flat run sequence
// into width*height*3 planar samples; block boundaries are not needed.
type Reader struct {
	logger     *slog.Logger
	extension  string
	maxSamples int
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

func WithReaderLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithReaderExtension(ext string) ReaderOption {
	return func(r *Reader) { r.extension = ext }
}

// WithMaxSamples bounds width*height*3 for decoded images; n <= 0 keeps the default
func WithMaxSamples(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxSamples = n
		}
	}
}

func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{logger: slog.Default(), extension: DefaultExtension, maxSamples: DefaultMaxSamples}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) Extension() string { return r.extension }

// Decode reads a complete CPI stream. A header that fails validation yields
// ErrFormat and no image. Headers announcing more samples than the reader
// allows (ErrTooLarge) or than the payload could ever expand to (ErrFormat)
// are rejected before the image is allocated. A payload that runs out early
// is otherwise zero filled.
func (r *Reader) Decode(in io.Reader) (*imaging.Image, error) {
	h, order, err := ReadHeader(in)
	if err != nil {
		r.logger.Error("false CPI image", slog.Any("error", err))
		return nil, err
	}
	if h.Width == 0 || h.Height == 0 {
		r.logger.Error("false CPI image", slog.Int("width", int(h.Width)), slog.Int("height", int(h.Height)))
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrFormat, h.Width, h.Height)
	}
	if h.Samples() > r.maxSamples {
		r.logger.Error("CPI image too large", slog.Int("samples", h.Samples()), slog.Int("maxSamples", r.maxSamples))
		return nil, fmt.Errorf("%w: %dx%d exceeds %d samples", ErrTooLarge, h.Width, h.Height, r.maxSamples)
	}
	payload, err := io.ReadAll(in)
	if err != nil {
		r.logger.Error("cannot read CPI payload", slog.Any("error", err))
		return nil, fmt.Errorf("cpi: read payload: %w", err)
	}
	if capacity := rle.MaxRunLength * (len(payload) / 2); h.Samples() > capacity {
		r.logger.Error("false CPI image", slog.Int("samples", h.Samples()), slog.Int("payloadBytes", len(payload)))
		return nil, fmt.Errorf("%w: %dx%d cannot come from %d payload bytes", ErrFormat, h.Width, h.Height, len(payload))
	}
	if len(payload)%2 != 0 {
		r.logger.Warn("ignoring unpaired trailing payload byte", slog.Int("payloadBytes", len(payload)))
	}
	img, err := imaging.NewImage(int(h.Width), int(h.Height), nil)
	if err != nil {
		return nil, err
	}
	if n := rle.Decompress(payload, img.Data()); n < h.Samples() {
		r.logger.Warn("CPI payload truncated, zero filling", slog.Int("decoded", n), slog.Int("expected", h.Samples()))
	}
	r.logger.Debug("decoded CPI image",
		slog.Int("width", int(h.Width)),
		slog.Int("height", int(h.Height)),
		slog.Int("blockLength", int(h.BlockLength)),
		slog.String("byteOrder", order.String()),
		slog.Int("payloadBytes", len(payload)))
	return img, nil
}

// ReadFile opens path and decodes it; ".zst" files are unwrapped first
func (r *Reader) ReadFile(path string) (*imaging.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Error("cannot open CPI image file", slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()
	in, done, err := wrapReader(f, path)
	if err != nil {
		return nil, err
	}
	defer done()
	img, err := r.Decode(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Stats summarizes a CPI stream without building the image
type Stats struct {
	Header       Header
	ByteOrder    binary.ByteOrder
	PayloadBytes int
	Runs         int
	Samples      int // samples the payload expands to, uncapped
	OddTrailing  bool
}

// Ratio is raw sample bytes over file bytes
func (s Stats) Ratio() float64 {
	total := s.PayloadBytes + HeaderSize
	return float64(s.Header.Samples()) / float64(total)
}

// Inspect reads a CPI stream and reports its header and payload statistics
func Inspect(in io.Reader) (Stats, error) {
	h, order, err := ReadHeader(in)
	if err != nil {
		return Stats{}, err
	}
	payload, err := io.ReadAll(in)
	if err != nil {
		return Stats{}, fmt.Errorf("cpi: read payload: %w", err)
	}
	st := Stats{
		Header:       h,
		ByteOrder:    order,
		PayloadBytes: len(payload),
		Runs:         len(payload) / 2,
		OddTrailing:  len(payload)%2 != 0,
	}
	for i := 1; i < len(payload); i += 2 {
		st.Samples += int(payload[i])
	}
	return st, nil
}

// InspectFile is Inspect for a path, honoring the ".zst" suffix
func InspectFile(path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()
	in, done, err := wrapReader(f, path)
	if err != nil {
		return Stats{}, err
	}
	defer done()
	return Inspect(in)
}
