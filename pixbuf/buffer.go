package pixbuf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
)

var (
	ErrOutOfBounds  = errors.New("out of bounds")
	ErrSizeMismatch = errors.New("size mismatch")
)

// BytesPerPixel is the size of one packed pixel in a raw region.
const BytesPerPixel = 4

// MaxPixels bounds the area of a buffer, 8192x8192 or equivalent.
const MaxPixels = 1 << 26

type Buffer struct {
	// Pix holds the packed pixels. The pixel at (x, y) is Pix[y*width+x].
	// Byte 0 of the little-endian value is red, byte 3 is alpha.
	Pix []uint32

	width  int
	height int
}

func New(width, height int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrOutOfBounds, width, height)
	}
	if height != 0 && width > MaxPixels/height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrOutOfBounds, width, height, MaxPixels)
	}

	return &Buffer{
		Pix:    make([]uint32, width*height),
		width:  width,
		height: height,
	}, nil
}

func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return b.height }

func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// Get returns the pixel at (x, y). Callers are expected to have checked the
// coordinates; a violation panics.
func (b *Buffer) Get(x, y int) uint32 {
	if !b.InBounds(x, y) {
		panic(b.outOfBounds(x, y))
	}
	return b.Pix[y*b.width+x]
}

// Put overwrites the pixel at (x, y) with the same contract as Get.
func (b *Buffer) Put(x, y int, c uint32) {
	if !b.InBounds(x, y) {
		panic(b.outOfBounds(x, y))
	}
	b.Pix[y*b.width+x] = c
}

func (b *Buffer) Lookup(x, y int) (uint32, error) {
	if !b.InBounds(x, y) {
		return 0, b.outOfBounds(x, y)
	}
	return b.Pix[y*b.width+x], nil
}

func (b *Buffer) Store(x, y int, c uint32) error {
	if !b.InBounds(x, y) {
		return b.outOfBounds(x, y)
	}
	b.Pix[y*b.width+x] = c
	return nil
}

func (b *Buffer) outOfBounds(x, y int) error {
	return fmt.Errorf("%w: pixel (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, b.width, b.height)
}

// ExtractRegion copies r row-major into a new slice of r.Dx()*r.Dy()*4 raw
// RGBA bytes. The rectangle is not clamped.
func (b *Buffer) ExtractRegion(r image.Rectangle) ([]byte, error) {
	if err := b.checkRegion(r); err != nil {
		return nil, err
	}

	w := r.Dx()
	out := make([]byte, w*r.Dy()*BytesPerPixel)
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := b.Pix[y*b.width+r.Min.X : y*b.width+r.Max.X]
		for _, c := range row {
			binary.LittleEndian.PutUint32(out[i:], c)
			i += BytesPerPixel
		}
	}

	return out, nil
}

// InsertRegion is the inverse of ExtractRegion.
func (b *Buffer) InsertRegion(r image.Rectangle, data []byte) error {
	if err := b.checkRegion(r); err != nil {
		return err
	}
	if want := r.Dx() * r.Dy() * BytesPerPixel; len(data) != want {
		return fmt.Errorf("%w: region %v needs %d bytes, got %d", ErrSizeMismatch, r, want, len(data))
	}

	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := b.Pix[y*b.width+r.Min.X : y*b.width+r.Max.X]
		for x := range row {
			row[x] = binary.LittleEndian.Uint32(data[i:])
			i += BytesPerPixel
		}
	}

	return nil
}

func (b *Buffer) checkRegion(r image.Rectangle) error {
	if r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > b.width || r.Max.Y > b.height || r.Min.X > r.Max.X || r.Min.Y > r.Max.Y {
		return fmt.Errorf("%w: region %v outside %dx%d", ErrOutOfBounds, r, b.width, b.height)
	}
	return nil
}

func (b *Buffer) Clear(c uint32) {
	for i := range b.Pix {
		b.Pix[i] = c
	}
}

func (b *Buffer) Clone() *Buffer {
	return &Buffer{
		Pix:    append([]uint32(nil), b.Pix...),
		width:  b.width,
		height: b.height,
	}
}

// Resize allocates a new buffer and copies the current content into its top
// left corner, clipped to the new extent. New pixels are transparent.
func (b *Buffer) Resize(width, height int) (*Buffer, error) {
	dest, err := New(width, height)
	if err != nil {
		return nil, err
	}

	w := min(width, b.width)
	for y := range min(height, b.height) {
		copy(dest.Pix[y*width:y*width+w], b.Pix[y*b.width:y*b.width+w])
	}

	return dest, nil
}

// Equal reports whether both buffers have the same extent and pixels.
func (b *Buffer) Equal(o *Buffer) bool {
	if b.width != o.width || b.height != o.height {
		return false
	}
	for i, c := range b.Pix {
		if o.Pix[i] != c {
			return false
		}
	}
	return true
}
