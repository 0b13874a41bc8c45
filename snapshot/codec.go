// Package snapshot captures rectangular regions of a pixel buffer as
// compressed, self-describing byte streams.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"pixedit/pixbuf"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

var ErrCorruptData = errors.New("corrupt snapshot data")

type Format string

const (
	Zlib Format = "zlib"
	Zstd Format = "zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// maxDecoded is the largest raw region any buffer can hold.
const maxDecoded = pixbuf.MaxPixels * pixbuf.BytesPerPixel

// Codec compresses with a fixed format. Decompress accepts either format.
type Codec struct {
	format Format
}

func NewCodec(format Format) (*Codec, error) {
	switch format {
	case "":
		format = Zlib
	case Zlib, Zstd:
	default:
		return nil, fmt.Errorf("unsupported snapshot codec: %s", format)
	}
	return &Codec{format: format}, nil
}

// DefaultCodec writes zlib streams.
func DefaultCodec() *Codec {
	return &Codec{format: Zlib}
}

func (c *Codec) Format() Format {
	return c.format
}

func (c *Codec) Compress(raw []byte) ([]byte, error) {
	if c.format == Zstd {
		enc, err := sharedZstd.encoder()
		if err != nil {
			return nil, fmt.Errorf("could not create zstd encoder: %w", err)
		}
		return enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("could not deflate %d bytes: %w", len(raw), err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("could not finish deflate stream: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) Decompress(data []byte) ([]byte, error) {
	return c.DecompressLimit(data, maxDecoded)
}

// DecompressLimit is Decompress for streams expected to hold at most limit
// bytes. Longer streams fail with ErrCorruptData before they are fully
// inflated.
func (c *Codec) DecompressLimit(data []byte, limit int) ([]byte, error) {
	limit = min(max(limit, 0), maxDecoded)

	switch {
	case bytes.HasPrefix(data, zstdMagic):
		var hdr zstd.Header
		if err := hdr.Decode(data); err == nil && hdr.HasFCS && hdr.FrameContentSize > uint64(limit) {
			return nil, fmt.Errorf("%w: frame holds %d bytes, limit %d", ErrCorruptData, hdr.FrameContentSize, limit)
		}

		dec, err := sharedZstd.decoder()
		if err != nil {
			return nil, fmt.Errorf("could not create zstd decoder: %w", err)
		}
		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		if len(raw) > limit {
			return nil, fmt.Errorf("%w: stream exceeds %d bytes", ErrCorruptData, limit)
		}
		return raw, nil
	case isZlibHeader(data):
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		defer zr.Close()

		raw, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		if len(raw) > limit {
			return nil, fmt.Errorf("%w: stream exceeds %d bytes", ErrCorruptData, limit)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: unrecognised stream header", ErrCorruptData)
	}
}

// isZlibHeader checks the RFC 1950 CMF/FLG pair: deflate method and a
// header checksum divisible by 31.
func isZlibHeader(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	return data[0]&0x0F == 8 && (uint16(data[0])<<8|uint16(data[1]))%31 == 0
}

type zstdCoders struct {
	encOnce sync.Once
	enc     *zstd.Encoder
	encErr  error

	decOnce sync.Once
	dec     *zstd.Decoder
	decErr  error
}

// EncodeAll and DecodeAll are safe for concurrent use, so one pair serves
// every Codec.
var sharedZstd zstdCoders

func (z *zstdCoders) encoder() (*zstd.Encoder, error) {
	z.encOnce.Do(func() {
		// zero frames keep empty inputs self-describing
		z.enc, z.encErr = zstd.NewWriter(nil, zstd.WithZeroFrames(true))
	})
	return z.enc, z.encErr
}

func (z *zstdCoders) decoder() (*zstd.Decoder, error) {
	z.decOnce.Do(func() {
		z.dec, z.decErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecoded))
	})
	return z.dec, z.decErr
}
