package imaging

import (
	"errors"
	"fmt"
	"image"
	"iter"
)

// MaxBlockSize bounds block allocation so an absurd size surfaces as
// ErrBlockAlloc rather than an allocation panic.
const MaxBlockSize = 1 << 24

var (
	ErrBlockAlloc       = errors.New("imaging: cannot allocate block")
	ErrDegenerateRegion = errors.New("imaging: degenerate block region")
)

// Block is a fixed-length run of 8-bit samples copied out of one row of one
// image channel. Blocks own their buffer; copies are deep.
type Block struct {
	data        []uint8
	errorMargin uint8
}

// NewBlock allocates a zeroed block of size samples
func NewBlock(size int) (*Block, error) {
	if size < 0 || size > MaxBlockSize {
		return nil, fmt.Errorf("%w: size %d", ErrBlockAlloc, size)
	}
	return &Block{data: make([]uint8, size)}, nil
}

// ExtractBlock copies up to size samples of channel ch starting at pos. The
// request is clamped at the right edge of the row and never wraps. A zero
// size or a position outside the image yields ErrDegenerateRegion.
func ExtractBlock(img *Image, ch Channel, pos image.Point, size int) (*Block, error) {
	if img == nil || size <= 0 || !ch.valid() ||
		pos.X < 0 || pos.Y < 0 || pos.X >= img.width || pos.Y >= img.height {
		return nil, fmt.Errorf("%w: %s at %v size %d", ErrDegenerateRegion, ch, pos, size)
	}
	size = min(size, img.width-pos.X)
	b, err := NewBlock(size)
	if err != nil {
		return nil, err
	}
	off := img.offset(ch, pos.X, pos.Y)
	copy(b.data, img.data[off:off+size])
	return b, nil
}

// Clone returns an independent deep copy
func (b *Block) Clone() *Block {
	c := &Block{data: make([]uint8, len(b.data)), errorMargin: b.errorMargin}
	copy(c.data, b.data)
	return c
}

func (b *Block) Size() int { return len(b.data) }

// Data exposes the owned buffer for bulk copies in and out of the block
func (b *Block) Data() []uint8 { return b.data }

// SetData overwrites every sample from src, which must hold at least Size samples
func (b *Block) SetData(src []uint8) error {
	if len(src) < len(b.data) {
		return fmt.Errorf("%w: have %d, need %d", ErrShortData, len(src), len(b.data))
	}
	copy(b.data, src)
	return nil
}

// Reverse returns a copy with the samples in reverse order
func (b *Block) Reverse() *Block {
	n := len(b.data)
	r := &Block{data: make([]uint8, n), errorMargin: b.errorMargin}
	for i := 0; i < n; i++ {
		r.data[i] = b.data[n-1-i]
	}
	return r
}

// SetErrorMargin sets the per-sample tolerance used by Equal
func (b *Block) SetErrorMargin(err uint8) { b.errorMargin = err }

func (b *Block) ErrorMargin() uint8 { return b.errorMargin }

// At returns sample i without any clamping; out of range indices panic.
func (b *Block) At(i int) uint8 { return b.data[i] }

// Ref returns a pointer to sample i; out of range indices panic.
func (b *Block) Ref(i int) *uint8 { return &b.data[i] }

// Clamped returns a pointer to sample i, substituting the nearest valid index
// when i is out of range. It returns nil only for an empty block.
func (b *Block) Clamped(i int) *uint8 {
	if len(b.data) == 0 {
		return nil
	}
	if i >= len(b.data) {
		i = len(b.data) - 1
	}
	if i < 0 {
		i = 0
	}
	return &b.data[i]
}

// Equal reports whether both blocks have the same size and every pair of
// samples differs by at most the receiver's error margin. rhs's margin is not
// consulted, so a.Equal(b) and b.Equal(a) can differ when the margins differ.
func (b *Block) Equal(rhs *Block) bool {
	if rhs == nil || len(b.data) != len(rhs.data) {
		return false
	}
	if b.errorMargin == 0 {
		for i, v := range b.data {
			if v != rhs.data[i] {
				return false
			}
		}
		return true
	}
	margin := int(b.errorMargin)
	for i, v := range b.data {
		d := int(v) - int(rhs.data[i])
		if d < -margin || d > margin {
			return false
		}
	}
	return true
}

func (b *Block) NotEqual(rhs *Block) bool { return !b.Equal(rhs) }

// Assign replaces the contents of b with a deep copy of src's samples,
// reallocating when the sizes differ.
func (b *Block) Assign(src *Block) {
	if len(b.data) != len(src.data) {
		b.data = make([]uint8, len(src.data))
	}
	copy(b.data, src.data)
}

// All yields every sample left to right as an index and a writable pointer
func (b *Block) All() iter.Seq2[int, *uint8] {
	return func(yield func(int, *uint8) bool) {
		for i := range b.data {
			if !yield(i, &b.data[i]) {
				return
			}
		}
	}
}
