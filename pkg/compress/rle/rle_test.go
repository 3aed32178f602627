package rle

import (
	"testing"

	"github.com/jpfielding/cpi.go/pkg/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(t *testing.T, vals ...uint8) *imaging.Block {
	t.Helper()
	b, err := imaging.NewBlock(len(vals))
	require.NoError(t, err)
	require.NoError(t, b.SetData(vals))
	return b
}

func TestCompress(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		tolerance uint8
		want      Runs
	}{
		{"Single", []byte{0xAA}, 0, Runs{{0xAA, 1}}},
		{"TwoRuns", []byte{10, 10, 200, 200}, 0, Runs{{10, 2}, {200, 2}}},
		{"AnchoredTolerance", []byte{5, 6, 7}, 2, Runs{{5, 3}}},
		{"AnchorNotRolling", []byte{5, 6, 7, 8}, 2, Runs{{5, 3}, {8, 1}}},
		{"Literal", []byte{1, 2, 3}, 0, Runs{{1, 1}, {2, 1}, {3, 1}}},
		{"BelowAnchor", []byte{100, 98, 102, 97}, 2, Runs{{100, 3}, {97, 1}}},
		{"Extremes", []byte{0, 255, 0}, 254, Runs{{0, 1}, {255, 1}, {0, 1}}},
		{"FullRange", []byte{0, 255, 0}, 255, Runs{{0, 3}}},
		{"MaxRun", makeBytes(0xCC, 255), 0, Runs{{0xCC, 255}}},
		{"MaxRunPlus1", makeBytes(0xCC, 256), 0, Runs{{0xCC, 255}, {0xCC, 1}}},
		{"LongRun", makeBytes(0x11, 600), 0, Runs{{0x11, 255}, {0x11, 255}, {0x11, 90}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := block(t, tt.data...)
			got := Compress(b, tt.tolerance)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.data), got.Len())
		})
	}
}

func TestCompress_Empty(t *testing.T) {
	assert.Empty(t, Compress(nil, 0))
	assert.Empty(t, Compress(block(t), 0))
	assert.Empty(t, Encode(block(t), 0))
}

func TestEncode_WireForm(t *testing.T) {
	got := Encode(block(t, 10, 10, 200, 200), 0)
	assert.Equal(t, []byte{10, 2, 200, 2}, got)
}

func TestRoundTrip_Lossless(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Single", []byte{0xAA}},
		{"Run2", []byte{0xAA, 0xAA}},
		{"Mixed", []byte{0xAA, 0xAA, 0xAA, 0x01, 0x02, 0xBB, 0xBB}},
		{"LongRun", makeBytes(0xCC, 700)},
		{"Sequence", makeSequence(0, 300)},
		{"Alternating", []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := Encode(block(t, tt.data...), 0)
			out, err := Decode(payload, len(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.data, out)
		})
	}
}

func TestRoundTrip_WithinTolerance(t *testing.T) {
	data := []byte{50, 52, 49, 48, 60, 61, 59, 200, 198, 255, 253}
	const tol = 3
	out, err := Decode(Encode(block(t, data...), tol), len(data))
	require.NoError(t, err)
	for i := range data {
		assert.InDelta(t, data[i], out[i], tol, "sample %d", i)
	}
}

func TestDecompress(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		outLen  int
		want    []byte
		n       int
	}{
		{"Exact", []byte{10, 2, 200, 2}, 4, []byte{10, 10, 200, 200}, 4},
		{"OutFullFirst", []byte{7, 5, 8, 5}, 3, []byte{7, 7, 7}, 3},
		{"StopsMidRun", []byte{7, 2, 8, 5}, 4, []byte{7, 7, 8, 8}, 4},
		{"PayloadShort", []byte{3, 2}, 4, []byte{3, 3, 0, 0}, 2},
		{"ZeroCount", []byte{9, 0, 4, 1}, 1, []byte{4}, 1},
		{"OddTrailing", []byte{1, 1, 2}, 2, []byte{1, 0}, 1},
		{"Empty", nil, 2, []byte{0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]byte, tt.outLen)
			n := Decompress(tt.payload, out)
			assert.Equal(t, tt.n, n)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestDecode_Short(t *testing.T) {
	out, err := Decode([]byte{3, 2}, 5)
	require.ErrorIs(t, err, ErrShortPayload)
	assert.Equal(t, []byte{3, 3, 0, 0, 0}, out)

	_, err = Decode(nil, -1)
	assert.Error(t, err)
}

func TestDecode_FlatAcrossBlocks(t *testing.T) {
	// two independently coded blocks decode as one flat sequence
	var payload []byte
	payload = append(payload, Encode(block(t, 1, 1, 2), 0)...)
	payload = append(payload, Encode(block(t, 2, 3), 0)...)
	out, err := Decode(payload, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 2, 2, 3}, out)
}

func makeBytes(val byte, n int) []byte {
	res := make([]byte, n)
	for i := range res {
		res[i] = val
	}
	return res
}

func makeSequence(start byte, n int) []byte {
	res := make([]byte, n)
	val := start
	for i := range res {
		res[i] = val
		val++
	}
	return res
}
