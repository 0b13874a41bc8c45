package pixbuf

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var _ draw.Image = (*Buffer)(nil)

func (b *Buffer) ColorModel() color.Model {
	return color.NRGBAModel
}

// At implements image.Image. Pixels outside the buffer are transparent.
func (b *Buffer) At(x, y int) color.Color {
	if !b.InBounds(x, y) {
		return color.NRGBA{}
	}
	return ToNRGBA(b.Pix[y*b.width+x])
}

// Set implements draw.Image and ignores pixels outside the buffer.
func (b *Buffer) Set(x, y int, c color.Color) {
	if !b.InBounds(x, y) {
		return
	}
	b.Pix[y*b.width+x] = FromColor(c)
}

// ToNRGBA copies the buffer into an image sharing the same byte layout.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(b.Bounds())
	for i, c := range b.Pix {
		img.Pix[i*4+0], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3] = Unpack(c)
	}
	return img
}

// FromImage converts img into a new buffer whose origin is img.Bounds().Min.
func FromImage(img image.Image) *Buffer {
	sr := img.Bounds()
	b := &Buffer{
		Pix:    make([]uint32, sr.Dx()*sr.Dy()),
		width:  sr.Dx(),
		height: sr.Dy(),
	}

	if n, ok := img.(*image.NRGBA); ok {
		for y := range b.height {
			off := n.PixOffset(sr.Min.X, sr.Min.Y+y)
			for x := range b.width {
				p := n.Pix[off+x*4 : off+x*4+4]
				b.Pix[y*b.width+x] = Pack(p[0], p[1], p[2], p[3])
			}
		}
		return b
	}

	draw.Draw(b, b.Bounds(), img, sr.Min, draw.Src)
	return b
}
