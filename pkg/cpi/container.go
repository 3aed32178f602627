package cpi

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ZstdSuffix marks CPI files stored inside a zstd frame
const ZstdSuffix = ".zst"

func isZstd(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ZstdSuffix)
}

// wrapWriter returns the writer the CPI stream should go to for path, plus a
// func finishing the container (a no-op for plain files).
func wrapWriter(w io.Writer, path string) (io.Writer, func() error, error) {
	if !isZstd(path) {
		return w, func() error { return nil }, nil
	}
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, nil, fmt.Errorf("cpi: zstd writer: %w", err)
	}
	return enc, enc.Close, nil
}

// wrapReader is the read side of wrapWriter
func wrapReader(r io.Reader, path string) (io.Reader, func(), error) {
	if !isZstd(path) {
		return r, func() {}, nil
	}
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("cpi: zstd reader: %w", err)
	}
	return dec, dec.Close, nil
}
