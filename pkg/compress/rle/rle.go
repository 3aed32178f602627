package rle

import (
	"errors"
	"fmt"

	"github.com/jpfielding/cpi.go/pkg/imaging"
)

// Tolerance run-length coding for CPI payloads.
// A run is a (value, count) byte pair; runs are anchored to the first sample
// they cover, so every sample in a run is within the tolerance of Value.

// MaxRunLength is the largest count a single serialized run can carry
const MaxRunLength = 255

var ErrShortPayload = errors.New("rle: payload expands to fewer samples than expected")

// Run is one (representative value, repeat count) pair
type Run struct {
	Value uint8
	Count uint8
}

// Runs is an ordered run sequence
type Runs []Run

// Len returns the number of samples the runs expand to
func (rs Runs) Len() int {
	n := 0
	for _, r := range rs {
		n += int(r.Count)
	}
	return n
}

// AppendBinary appends the wire form (value byte then count byte per run)
func (rs Runs) AppendBinary(dst []byte) []byte {
	for _, r := range rs {
		dst = append(dst, r.Value, r.Count)
	}
	return dst
}

// Compress run-length codes a block. A sample extends the current run when
// |sample - representative| <= tolerance; otherwise the run is emitted and a
// new one starts at that sample. Runs reaching MaxRunLength are emitted and
// continued with the same representative.
func Compress(b *imaging.Block, tolerance uint8) Runs {
	if b == nil || b.Size() == 0 {
		return nil
	}
	runs := make(Runs, 0, 4)
	current := b.At(0)
	count := 0
	tol := int(tolerance)
	for _, v := range b.All() {
		d := int(*v) - int(current)
		if d < -tol || d > tol {
			runs = append(runs, Run{Value: current, Count: uint8(count)})
			current = *v
			count = 1
			continue
		}
		if count == MaxRunLength {
			runs = append(runs, Run{Value: current, Count: MaxRunLength})
			count = 0
		}
		count++
	}
	return append(runs, Run{Value: current, Count: uint8(count)})
}

// Encode compresses a block straight to its wire form
func Encode(b *imaging.Block, tolerance uint8) []byte {
	runs := Compress(b, tolerance)
	return runs.AppendBinary(make([]byte, 0, len(runs)*2))
}

// Decompress expands (value, count) pairs from payload into out until out is
// full or the payload runs dry. A trailing unpaired byte is ignored. It
// returns the number of samples written.
func Decompress(payload, out []byte) int {
	j := 0
	for i := 1; i < len(payload) && j < len(out); i += 2 {
		val := payload[i-1]
		for k := 0; k < int(payload[i]) && j < len(out); k++ {
			out[j] = val
			j++
		}
	}
	return j
}

// Decode expands payload into a new buffer of expectedLen samples. When the
// payload is too short the zero padded buffer is still returned alongside
// ErrShortPayload.
func Decode(payload []byte, expectedLen int) ([]byte, error) {
	if expectedLen < 0 {
		return nil, fmt.Errorf("rle: invalid expected length %d", expectedLen)
	}
	out := make([]byte, expectedLen)
	if n := Decompress(payload, out); n < expectedLen {
		return out, fmt.Errorf("%w: got %d, want %d", ErrShortPayload, n, expectedLen)
	}
	return out, nil
}
