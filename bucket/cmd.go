package bucket

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"pixedit/export"
	"pixedit/fill"
	"pixedit/palette"
	"pixedit/parallel"
	"pixedit/pixbuf"

	"github.com/alecthomas/kong"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type CLICmd struct {
	Scan      string `help:"Source folder to scan" default:"."`
	Dest      string `help:"Destination folder for filled pictures. Relative to scan dir if not absolute. If same as scan dir, will overwrite source files." default:"filled"`
	X         int    `help:"Seed column" required:""`
	Y         int    `help:"Seed row" required:""`
	Color     string `help:"Fill color as #RGB, #RGBA, #RRGGBB, #RRGGBBAA or file.pal:index" required:""`
	Format    string `help:"Output format of filled image. 'same' keeps the source format where it can be encoded, png otherwise" enum:"same,png,bmp,tiff,gif,jpeg" default:"same"`
	FillColor uint32 `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if c.X < 0 || c.Y < 0 {
		return fmt.Errorf("invalid seed (%d,%d)", c.X, c.Y)
	}

	if c.FillColor, err = palette.ParseColor(c.Color); err != nil {
		return err
	}

	return nil
}

func (c *CLICmd) Run(pool *parallel.Pool) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var filledCount, skippedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		pool.Go(func() error {
			filePath := filepath.Join(c.Scan, file.Name())
			logger := slog.Default().With("file", filePath)

			changed, err := c.fillFile(logger, filePath, file.Name())
			switch {
			case err != nil:
				errCount.Add(1)
				logger.Error("could not fill image", "error", err)
				return err
			case changed:
				filledCount.Add(1)
			default:
				skippedCount.Add(1)
			}
			return nil
		})
	}

	poolErr := pool.Wait()

	filled, skipped, errors := filledCount.Load(), skippedCount.Load(), errCount.Load()
	slog.Info("stats", "filled", filled, "unchanged", skipped, "errors", errors,
		"total", filled+skipped+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files: %w", errors, poolErr)
	}
	return nil
}

func (c *CLICmd) fillFile(logger *slog.Logger, filePath, fileName string) (bool, error) {
	imgFile, err := os.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("could not open image: %w", err)
	}
	img, imgType, err := image.Decode(imgFile)
	if closeErr := imgFile.Close(); closeErr != nil {
		logger.Error("could not close image", "error", closeErr)
	}
	if err != nil {
		return false, fmt.Errorf("could not decode image: %w", err)
	}

	buf := pixbuf.FromImage(img)
	if !buf.InBounds(c.X, c.Y) {
		logger.Warn("seed outside image", "width", buf.Width(), "height", buf.Height())
	}
	changed := fill.Fill(buf, c.X, c.Y, c.FillColor)
	logger.Info("filled", "changed", changed, "color", pixbuf.Hex(c.FillColor))

	outType := outputFormat(c.Format, imgType)
	oldExt := filepath.Ext(fileName)
	dest := filepath.Join(c.Dest, fmt.Sprintf("%s.%s", strings.TrimSuffix(fileName, oldExt), outType))

	if err := export.WriteFile(dest, buf.ToNRGBA(), outType, c.Dest == c.Scan); err != nil {
		return changed, err
	}
	return changed, nil
}

func outputFormat(format, imgType string) string {
	if format != "same" {
		return format
	}
	for _, f := range export.Formats {
		if f == imgType {
			return f
		}
	}
	return "png"
}
