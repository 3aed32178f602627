package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImage(t *testing.T) {
	_, err := NewImage(0, 3, nil)
	assert.ErrorIs(t, err, ErrDimensions)

	_, err = NewImage(2, 2, make([]uint8, 11))
	assert.ErrorIs(t, err, ErrShortData)

	src := make([]uint8, 12)
	img, err := NewImage(2, 2, src)
	require.NoError(t, err)
	src[0] = 9
	assert.Equal(t, uint8(0), img.At(Red, 0, 0), "data is copied")

	blank, err := NewImage(3, 1, nil)
	require.NoError(t, err)
	assert.Len(t, blank.Data(), 9)
}

func TestImage_PlanarLayout(t *testing.T) {
	img := newTestImage(t, 3, 2)
	assert.Equal(t, 3, img.Width())
	assert.Equal(t, 2, img.Height())

	// channel*w*h + y*w + x
	img.Set(Green, 2, 1, 200)
	assert.Equal(t, uint8(200), img.Data()[1*6+1*3+2])
	assert.Equal(t, uint8(200), img.Plane(Green)[5])
	assert.Len(t, img.Plane(Blue), 6)
	assert.Equal(t, "blue", Blue.String())
}

func TestImage_RGBARoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 5, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 60), B: uint8(x + y), A: 0xFF})
		}
	}
	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, uint8(160), img.At(Red, 4, 2))
	assert.Equal(t, uint8(120), img.At(Green, 4, 2))
	assert.Equal(t, uint8(6), img.At(Blue, 4, 2))
	assert.Equal(t, src.Pix, img.ToRGBA().Pix)
}

func TestFromImage_Gray(t *testing.T) {
	src := image.NewGray(image.Rect(2, 2, 4, 3))
	src.SetGray(2, 2, color.Gray{Y: 7})
	src.SetGray(3, 2, color.Gray{Y: 250})

	img, err := FromImage(src)
	require.NoError(t, err)
	require.Equal(t, 2, img.Width())
	for _, ch := range Channels {
		assert.Equal(t, uint8(7), img.At(ch, 0, 0))
		assert.Equal(t, uint8(250), img.At(ch, 1, 0))
	}
}
