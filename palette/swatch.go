package palette

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"pixedit/pixbuf"
)

// Load reads a PAL file and returns the colors of all its palettes.
func Load(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open palette %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close palette", "name", path, "error", closeErr)
		}
	}()

	pals, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("could not load palette %q: %w", path, err)
	}

	var res []uint32
	for _, pal := range pals {
		res = append(res, pal...)
	}
	return res, nil
}

// Save writes colors as a single-palette PAL file.
func Save(path string, colors []uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create palette %q: %w", path, err)
	}

	if _, err := WriteTo(f, [][]uint32{colors}); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not save palette %q: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not flush palette %q: %w", path, err)
	}
	return f.Close()
}

// ParseColor accepts a hex color (see pixbuf.ParseHex) or a swatch
// reference of the form "file.pal:index".
func ParseColor(s string) (uint32, error) {
	if strings.HasPrefix(s, "#") {
		return pixbuf.ParseHex(s)
	}

	// paths may contain colons, the index never does
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return 0, fmt.Errorf("invalid color %q, should be #RRGGBB[AA] or file.pal:index", s)
	}
	path := s[:i]

	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return 0, fmt.Errorf("invalid swatch index in %q: %w", s, err)
	}

	colors, err := Load(path)
	if err != nil {
		return 0, err
	}
	if n < 0 || n >= len(colors) {
		return 0, fmt.Errorf("swatch index %d out of range, %q has %d colors", n, path, len(colors))
	}
	return colors[n], nil
}
