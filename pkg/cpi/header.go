package cpi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// CPI file layout, all 16-bit fields in the byte order announced by the tag:
//
//	0  3  magic "CPI"
//	3  1  version (2)
//	4  2  endian tag (258)
//	6  2  width
//	8  2  height
//	10 2  block length
//	12 .. (value, count) run pairs, R then G then B, rows top to bottom
const (
	Magic      = "CPI"
	Version    = 2
	EndianTag  = 258
	HeaderSize = 12

	DefaultBlockLength = 32
	MinBlockLength     = 2
	MaxDimension       = math.MaxUint16
	DefaultExtension   = "rle"
)

var (
	ErrFormat   = errors.New("cpi: not a CPI image")
	ErrOpen     = errors.New("cpi: cannot open file")
	ErrTooLarge = errors.New("cpi: image dimensions exceed format limits")
)

// Header is the fixed metadata preceding the payload
type Header struct {
	Width       uint16
	Height      uint16
	BlockLength uint16
}

// Samples is the number of decoded samples across all three channels
func (h Header) Samples() int {
	return int(h.Width) * int(h.Height) * 3
}

// AppendBinary appends the encoded header in the given byte order
func (h Header) AppendBinary(dst []byte, order binary.ByteOrder) []byte {
	var raw [HeaderSize]byte
	copy(raw[0:3], Magic)
	raw[3] = Version
	order.PutUint16(raw[4:6], EndianTag)
	order.PutUint16(raw[6:8], h.Width)
	order.PutUint16(raw[8:10], h.Height)
	order.PutUint16(raw[10:12], h.BlockLength)
	return append(dst, raw[:]...)
}

// WriteTo writes the header in the given byte order
func (h Header) WriteTo(w io.Writer, order binary.ByteOrder) (int64, error) {
	n, err := w.Write(h.AppendBinary(make([]byte, 0, HeaderSize), order))
	return int64(n), err
}

// ReadHeader reads and validates a header. The byte order is taken from the
// endian tag: 258 as written little-endian or big-endian is accepted and the
// matching order returned for the caller's information.
func ReadHeader(r io.Reader) (Header, binary.ByteOrder, error) {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Header{}, nil, fmt.Errorf("%w: short header: %w", ErrFormat, err)
	}
	if string(raw[0:3]) != Magic {
		return Header{}, nil, fmt.Errorf("%w: bad magic % X", ErrFormat, raw[0:3])
	}
	if raw[3] != Version {
		return Header{}, nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, raw[3])
	}
	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint16(raw[4:6]) == EndianTag:
		order = binary.LittleEndian
	case binary.BigEndian.Uint16(raw[4:6]) == EndianTag:
		order = binary.BigEndian
	default:
		return Header{}, nil, fmt.Errorf("%w: bad endian tag % X", ErrFormat, raw[4:6])
	}
	h := Header{
		Width:       order.Uint16(raw[6:8]),
		Height:      order.Uint16(raw[8:10]),
		BlockLength: order.Uint16(raw[10:12]),
	}
	return h, order, nil
}
