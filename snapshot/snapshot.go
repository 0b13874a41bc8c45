package snapshot

import (
	"encoding/binary"
	"fmt"
	"image"

	"pixedit/pixbuf"
)

const headerSize = 16

// Snapshot is an immutable compressed capture of a buffer region.
type Snapshot struct {
	// Rect is the captured rectangle in buffer coordinates.
	Rect image.Rectangle
	// Data decompresses to Rect.Dx()*Rect.Dy()*4 raw RGBA bytes, row-major.
	Data []byte
}

func Capture(codec *Codec, buf *pixbuf.Buffer, r image.Rectangle) (*Snapshot, error) {
	raw, err := buf.ExtractRegion(r)
	if err != nil {
		return nil, fmt.Errorf("could not extract region %v: %w", r, err)
	}

	data, err := codec.Compress(raw)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Rect: r, Data: data}, nil
}

// Restore writes the captured pixels back into buf. The stream must inflate
// to exactly the size of Rect; buf is untouched on any error.
func (s *Snapshot) Restore(codec *Codec, buf *pixbuf.Buffer) error {
	if !s.Rect.In(buf.Bounds()) {
		return fmt.Errorf("could not restore region %v: %w", s.Rect, pixbuf.ErrOutOfBounds)
	}
	want := 0
	if !s.Rect.Empty() {
		want = s.Rect.Dx() * s.Rect.Dy() * pixbuf.BytesPerPixel
	}

	raw, err := codec.DecompressLimit(s.Data, want)
	if err != nil {
		return err
	}
	if len(raw) != want {
		return fmt.Errorf("%w: %w: region %v needs %d bytes, stream holds %d", ErrCorruptData, pixbuf.ErrSizeMismatch, s.Rect, want, len(raw))
	}
	if err := buf.InsertRegion(s.Rect, raw); err != nil {
		return fmt.Errorf("could not restore region %v: %w", s.Rect, err)
	}
	return nil
}

// MarshalBinary encodes originX, originY, width, height as little-endian
// uint32 followed by the compressed stream.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	if s.Rect.Min.X < 0 || s.Rect.Min.Y < 0 || s.Rect.Dx() < 0 || s.Rect.Dy() < 0 {
		return nil, fmt.Errorf("invalid snapshot rectangle %v", s.Rect)
	}

	out := make([]byte, headerSize, headerSize+len(s.Data))
	binary.LittleEndian.PutUint32(out[0:], uint32(s.Rect.Min.X))
	binary.LittleEndian.PutUint32(out[4:], uint32(s.Rect.Min.Y))
	binary.LittleEndian.PutUint32(out[8:], uint32(s.Rect.Dx()))
	binary.LittleEndian.PutUint32(out[12:], uint32(s.Rect.Dy()))
	return append(out, s.Data...), nil
}

func (s *Snapshot) UnmarshalBinary(b []byte) error {
	if len(b) < headerSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrCorruptData, headerSize, len(b))
	}

	x := int(binary.LittleEndian.Uint32(b[0:]))
	y := int(binary.LittleEndian.Uint32(b[4:]))
	w := int(binary.LittleEndian.Uint32(b[8:]))
	h := int(binary.LittleEndian.Uint32(b[12:]))
	s.Rect = image.Rect(x, y, x+w, y+h)
	s.Data = append([]byte(nil), b[headerSize:]...)
	return nil
}
