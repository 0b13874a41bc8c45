package pixbuf

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	red   uint32 = 0xFF0000FF
	green uint32 = 0xFF00FF00
	white uint32 = 0xFFFFFFFF
)

func TestNewRejectsNegativeSize(t *testing.T) {
	_, err := New(-1, 4)
	require.ErrorIs(t, err, ErrOutOfBounds)

	b, err := New(0, 0)
	require.NoError(t, err)
	assert.Empty(t, b.Pix)
}

func TestNewRejectsHugeSize(t *testing.T) {
	for _, size := range [][2]int{
		{math.MaxInt, 2},
		{math.MaxInt32, math.MaxInt32},
		{MaxPixels + 1, 1},
		{1, MaxPixels + 1},
	} {
		_, err := New(size[0], size[1])
		assert.ErrorIs(t, err, ErrOutOfBounds, "%dx%d", size[0], size[1])
	}

	b, err := New(math.MaxInt, 0)
	require.NoError(t, err)
	assert.Empty(t, b.Pix)

	small, err := New(2, 2)
	require.NoError(t, err)
	_, err = small.Resize(math.MaxInt32, math.MaxInt32)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestGetPut(t *testing.T) {
	b, err := New(3, 2)
	require.NoError(t, err)
	require.Len(t, b.Pix, 6)

	b.Put(2, 1, red)
	assert.Equal(t, red, b.Get(2, 1))
	assert.Equal(t, red, b.Pix[5])
	assert.Equal(t, Transparent, b.Get(0, 0))

	assert.Panics(t, func() { b.Get(3, 0) })
	assert.Panics(t, func() { b.Put(0, 2, red) })
	assert.Panics(t, func() { b.Get(-1, 0) })
}

func TestLookupStore(t *testing.T) {
	b, err := New(2, 2)
	require.NoError(t, err)

	require.NoError(t, b.Store(1, 1, green))
	c, err := b.Lookup(1, 1)
	require.NoError(t, err)
	assert.Equal(t, green, c)

	_, err = b.Lookup(2, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.ErrorIs(t, b.Store(0, -1, green), ErrOutOfBounds)
}

func TestExtractInsertRegion(t *testing.T) {
	b, err := New(4, 3)
	require.NoError(t, err)
	b.Put(1, 1, Pack(1, 2, 3, 4))
	b.Put(2, 1, Pack(5, 6, 7, 8))

	r := image.Rect(1, 1, 3, 2)
	raw, err := b.ExtractRegion(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, raw)

	full, err := b.ExtractRegion(b.Bounds())
	require.NoError(t, err)
	assert.Len(t, full, 4*3*BytesPerPixel)

	other, err := New(4, 3)
	require.NoError(t, err)
	require.NoError(t, other.InsertRegion(b.Bounds(), full))
	assert.True(t, other.Equal(b))
}

func TestExtractRegionOutOfBounds(t *testing.T) {
	b, err := New(4, 4)
	require.NoError(t, err)

	_, err = b.ExtractRegion(image.Rect(2, 2, 5, 4))
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = b.ExtractRegion(image.Rect(-1, 0, 2, 2))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	raw, err := b.ExtractRegion(image.Rect(1, 1, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestInsertRegionErrors(t *testing.T) {
	b, err := New(4, 4)
	require.NoError(t, err)

	err = b.InsertRegion(image.Rect(0, 0, 2, 2), make([]byte, 15))
	assert.ErrorIs(t, err, ErrSizeMismatch)

	err = b.InsertRegion(image.Rect(3, 3, 5, 5), make([]byte, 16))
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestResizeKeepsTopLeft(t *testing.T) {
	b, err := New(3, 3)
	require.NoError(t, err)
	b.Clear(red)

	bigger, err := b.Resize(5, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, bigger.Width())
	assert.Equal(t, 4, bigger.Height())
	assert.Len(t, bigger.Pix, 20)
	assert.Equal(t, red, bigger.Get(2, 2))
	assert.Equal(t, Transparent, bigger.Get(3, 0))
	assert.Equal(t, Transparent, bigger.Get(0, 3))

	smaller, err := b.Resize(2, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{red, red}, smaller.Pix)
	assert.Len(t, b.Pix, 9, "source must not be modified")
}

func TestCloneIsIndependent(t *testing.T) {
	b, err := New(2, 2)
	require.NoError(t, err)
	c := b.Clone()
	c.Put(0, 0, white)
	assert.Equal(t, Transparent, b.Get(0, 0))
	assert.False(t, b.Equal(c))
}

func TestImageAdapter(t *testing.T) {
	b, err := New(2, 1)
	require.NoError(t, err)
	b.Set(0, 0, color.NRGBA{R: 0xFF, A: 0xFF})
	b.Set(5, 5, color.White)

	assert.Equal(t, red, b.Get(0, 0))
	assert.Equal(t, color.NRGBA{R: 0xFF, A: 0xFF}, b.At(0, 0))
	assert.Equal(t, color.NRGBA{}, b.At(9, 9))

	img := b.ToNRGBA()
	assert.Equal(t, []uint8{0xFF, 0, 0, 0xFF, 0, 0, 0, 0}, img.Pix)

	back := FromImage(img)
	assert.True(t, back.Equal(b))

	rgba := image.NewRGBA(image.Rect(10, 10, 12, 11))
	rgba.Set(11, 10, color.RGBA{G: 0xFF, A: 0xFF})
	conv := FromImage(rgba)
	assert.Equal(t, 2, conv.Width())
	assert.Equal(t, green, conv.Get(1, 0))
}
