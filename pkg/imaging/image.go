package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Channel identifies one plane of a planar RGB image
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists the planes in storage order
var Channels = []Channel{Red, Green, Blue}

// NumChannels is the number of planes held by an Image
const NumChannels = 3

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

func (c Channel) valid() bool {
	return c >= Red && c <= Blue
}

var (
	ErrDimensions = errors.New("imaging: invalid image dimensions")
	ErrShortData  = errors.New("imaging: source data shorter than destination")
)

// Image holds 8-bit RGB samples in planar (non-interlaced) order: all red
// samples, then all green, then all blue. Each plane is row-major.
type Image struct {
	width  int
	height int
	data   []uint8
}

// NewImage creates an image of the given size. data is copied and must hold at
// least width*height*3 samples; nil allocates a zeroed image.
func NewImage(width, height int, data []uint8) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	n := width * height * NumChannels
	img := &Image{width: width, height: height, data: make([]uint8, n)}
	if data == nil {
		return img, nil
	}
	if len(data) < n {
		return nil, fmt.Errorf("%w: have %d samples, need %d", ErrShortData, len(data), n)
	}
	copy(img.data, data[:n])
	return img, nil
}

func (img *Image) Width() int  { return img.width }
func (img *Image) Height() int { return img.height }

// Data returns the planar sample buffer. Writes through it modify the image.
func (img *Image) Data() []uint8 { return img.data }

// Plane returns the samples of a single channel
func (img *Image) Plane(ch Channel) []uint8 {
	n := img.width * img.height
	off := int(ch) * n
	return img.data[off : off+n]
}

func (img *Image) offset(ch Channel, x, y int) int {
	return int(ch)*img.width*img.height + y*img.width + x
}

// At returns the sample of channel ch at (x, y)
func (img *Image) At(ch Channel, x, y int) uint8 {
	return img.data[img.offset(ch, x, y)]
}

// Set stores v as the sample of channel ch at (x, y)
func (img *Image) Set(ch Channel, x, y int, v uint8) {
	img.data[img.offset(ch, x, y)] = v
}

// FromImage deinterleaves any image.Image into planar storage, keeping the
// high byte of each channel. Alpha is dropped.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	img, err := NewImage(b.Dx(), b.Dy(), nil)
	if err != nil {
		return nil, err
	}
	if rgba, ok := src.(*image.RGBA); ok {
		for y := 0; y < img.height; y++ {
			row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+img.width*4]
			for x := 0; x < img.width; x++ {
				img.Set(Red, x, y, row[x*4])
				img.Set(Green, x, y, row[x*4+1])
				img.Set(Blue, x, y, row[x*4+2])
			}
		}
		return img, nil
	}
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			img.Set(Red, x, y, uint8(r>>8))
			img.Set(Green, x, y, uint8(g>>8))
			img.Set(Blue, x, y, uint8(bl>>8))
		}
	}
	return img, nil
}

// ToRGBA reinterleaves the planes into an opaque *image.RGBA
func (img *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.width, img.height))
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			out.SetRGBA(x, y, color.RGBA{
				R: img.At(Red, x, y),
				G: img.At(Green, x, y),
				B: img.At(Blue, x, y),
				A: 0xFF,
			})
		}
	}
	return out
}

// ImageWriter persists an Image to a file in some format
type ImageWriter interface {
	// Extension is the file suffix (without dot) produced by the writer
	Extension() string
	WriteFile(path string, img *Image) error
}

// ImageReader loads an Image from a file in some format
type ImageReader interface {
	Extension() string
	ReadFile(path string) (*Image, error)
}
