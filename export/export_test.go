package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pixedit/pixbuf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func sample(t *testing.T) *pixbuf.Buffer {
	t.Helper()
	b, err := pixbuf.New(3, 2)
	require.NoError(t, err)
	b.Put(0, 0, pixbuf.Pack(0xFF, 0, 0, 0xFF))
	b.Put(1, 0, pixbuf.Pack(0, 0, 0xFF, 0x00))
	return b
}

func TestFlattenOverBackground(t *testing.T) {
	img := Flatten(sample(t), pixbuf.Pack(0xFF, 0xFF, 0xFF, 0xFF))

	assert.Equal(t, color.NRGBA{R: 0xFF, A: 0xFF}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, img.NRGBAAt(2, 1))
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]string{
		"a.png": "png", "b.JPG": "jpeg", "c.tif": "tiff", "d.bmp": "bmp", "e.gif": "gif",
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("f.webp")
	assert.Error(t, err)
}

func TestEncodeLossless(t *testing.T) {
	img := Flatten(sample(t), pixbuf.Pack(0xFF, 0xFF, 0xFF, 0xFF))
	decoders := map[string]func(*bytes.Reader) (image.Image, error){
		"png":  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		"bmp":  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		"tiff": func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
	}

	for format, decode := range decoders {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, format), format)

		got, err := decode(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err, format)
		assert.True(t, pixbuf.FromImage(got).Equal(pixbuf.FromImage(img)), format)
	}

	for _, format := range []string{"gif", "jpeg"} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, format), format)
		assert.NotZero(t, buf.Len(), format)
	}

	assert.Error(t, Encode(&bytes.Buffer{}, img, "webp"))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "drawing.png")
	img := Flatten(sample(t), pixbuf.Pack(0xFF, 0xFF, 0xFF, 0xFF))

	require.NoError(t, WriteFile(dest, img, "png", false))
	assert.FileExists(t, dest)

	err := WriteFile(dest, img, "png", false)
	assert.ErrorContains(t, err, "already exists")
	require.NoError(t, WriteFile(dest, img, "png", true))

	err = WriteFile(filepath.Join(dir, "bad.xyz"), img, "xyz", false)
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}
