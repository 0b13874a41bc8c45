package pixbuf

import (
	"fmt"
	"image/color"
)

// Transparent is the color of a freshly allocated buffer.
const Transparent uint32 = 0

func Pack(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

func Unpack(c uint32) (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

func ToNRGBA(c uint32) color.NRGBA {
	r, g, b, a := Unpack(c)
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// FromColor packs any color as non-premultiplied RGBA.
func FromColor(c color.Color) uint32 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Pack(n.R, n.G, n.B, n.A)
}

// ParseHex reads #RGB, #RGBA, #RRGGBB or #RRGGBBAA. Missing alpha is opaque.
func ParseHex(s string) (uint32, error) {
	var c color.NRGBA
	switch len(s) {
	case 4:
		n, err := fmt.Sscanf(s, "#%1x%1x%1x", &c.R, &c.G, &c.B)
		if err != nil {
			return 0, fmt.Errorf("could not read color %q: %w", s, err)
		} else if n < 3 {
			return 0, fmt.Errorf("insufficient color fields in %q: %d", s, n)
		}

		c.R |= c.R << 4
		c.G |= c.G << 4
		c.B |= c.B << 4
		c.A = 0xFF
	case 5:
		n, err := fmt.Sscanf(s, "#%1x%1x%1x%1x", &c.R, &c.G, &c.B, &c.A)
		if err != nil {
			return 0, fmt.Errorf("could not read color %q: %w", s, err)
		} else if n < 4 {
			return 0, fmt.Errorf("insufficient color fields in %q: %d", s, n)
		}

		c.R |= c.R << 4
		c.G |= c.G << 4
		c.B |= c.B << 4
		c.A |= c.A << 4
	case 7:
		n, err := fmt.Sscanf(s, "#%2x%2x%2x", &c.R, &c.G, &c.B)
		if err != nil {
			return 0, fmt.Errorf("could not read color %q: %w", s, err)
		} else if n < 3 {
			return 0, fmt.Errorf("insufficient color fields in %q: %d", s, n)
		}

		c.A = 0xFF
	case 9:
		n, err := fmt.Sscanf(s, "#%2x%2x%2x%2x", &c.R, &c.G, &c.B, &c.A)
		if err != nil {
			return 0, fmt.Errorf("could not read color %q: %w", s, err)
		} else if n < 4 {
			return 0, fmt.Errorf("insufficient color fields in %q: %d", s, n)
		}
	default:
		return 0, fmt.Errorf("invalid color %q, should be #RGB, #RGBA, #RRGGBB or #RRGGBBAA", s)
	}

	return Pack(c.R, c.G, c.B, c.A), nil
}

// Hex formats c as #RRGGBBAA.
func Hex(c uint32) string {
	r, g, b, a := Unpack(c)
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
}
