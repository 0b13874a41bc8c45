// Package surface ties a pixel buffer to its undo history and to the
// persistence and export collaborators of a drawing session.
package surface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"pixedit/config"
	"pixedit/export"
	"pixedit/fill"
	"pixedit/history"
	"pixedit/pixbuf"
	"pixedit/snapshot"
	"pixedit/throttle"
)

var ErrTooSmall = errors.New("canvas size below minimum")

// Store persists saved canvases. *store.Store satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Options struct {
	Width, Height int
	// MinSize bounds Resize. Zero accepts any non-negative size.
	MinSize int

	MaxDepth int
	Codec    *snapshot.Codec

	// Background is used when flattening for export.
	Background uint32

	UndoThrottle  time.Duration
	ClearThrottle time.Duration
	AutoSaveDelay time.Duration

	Store Store
	Key   string

	Logger *slog.Logger
	// Now drives the throttles; nil means time.Now.
	Now func() time.Time
}

// OptionsFromConfig builds surface options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	codec, err := snapshot.NewCodec(snapshot.Format(cfg.History.Codec))
	if err != nil {
		return Options{}, err
	}
	bg, err := pixbuf.ParseHex(cfg.Canvas.Background)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Width:         cfg.Canvas.Width,
		Height:        cfg.Canvas.Height,
		MinSize:       cfg.Canvas.MinSize,
		MaxDepth:      cfg.History.MaxDepth,
		Codec:         codec,
		Background:    bg,
		UndoThrottle:  cfg.Timing.UndoThrottle(),
		ClearThrottle: cfg.Timing.ClearThrottle(),
		AutoSaveDelay: cfg.Timing.AutoSave(),
		Key:           cfg.Storage.Key,
	}, nil
}

// Surface is a single drawing surface. Every operation runs to completion
// under the surface lock; callers never see a half-applied mutation.
type Surface struct {
	mu   sync.Mutex
	opts Options

	buf  *pixbuf.Buffer
	hist *history.History

	color     uint32
	brushSize int

	undoGate  *throttle.Gate
	redoGate  *throttle.Gate
	clearGate *throttle.Gate

	autoSave bool
	saver    *throttle.Debouncer

	logger *slog.Logger
}

// New allocates a transparent canvas and commits it as the history baseline.
func New(opts Options) (*Surface, error) {
	if opts.Codec == nil {
		opts.Codec = snapshot.DefaultCodec()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	buf, err := pixbuf.New(opts.Width, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("could not allocate canvas: %w", err)
	}

	s := &Surface{
		opts:      opts,
		buf:       buf,
		hist:      history.New(opts.Codec, opts.MaxDepth),
		color:     pixbuf.Pack(0, 0, 0, 0xFF),
		brushSize: 5,
		undoGate:  throttle.NewGateWithClock(opts.UndoThrottle, opts.Now),
		redoGate:  throttle.NewGateWithClock(opts.UndoThrottle, opts.Now),
		clearGate: throttle.NewGateWithClock(opts.ClearThrottle, opts.Now),
		saver:     throttle.NewDebouncer(opts.AutoSaveDelay),
		logger:    opts.Logger.With("component", "surface"),
	}
	s.hist.SetLogger(opts.Logger)

	if err := s.hist.Commit(buf, buf.Bounds()); err != nil {
		return nil, fmt.Errorf("could not commit baseline: %w", err)
	}

	return s, nil
}

func (s *Surface) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Width()
}

func (s *Surface) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Height()
}

// Buffer returns a copy of the current pixels.
func (s *Surface) Buffer() *pixbuf.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Clone()
}

func (s *Surface) Image() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.ToNRGBA()
}

func (s *Surface) Color() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

func (s *Surface) SetColor(c uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = c
}

func (s *Surface) BrushSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brushSize
}

func (s *Surface) SetBrushSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brushSize = n
}

func (s *Surface) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

func (s *Surface) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// HistoryLen returns the undo and redo stack lengths.
func (s *Surface) HistoryLen() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.UndoLen(), s.hist.RedoLen()
}

// Fill flood fills from (x, y) with c and commits when anything changed.
func (s *Surface) Fill(x, y int, c uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fill.Fill(s.buf, x, y, c) {
		s.logger.Debug("fill skipped", "x", x, "y", y, "color", pixbuf.Hex(c))
		return false, nil
	}
	return true, s.commit()
}

// Apply runs a drawing primitive against the buffer and commits the result.
func (s *Surface) Apply(draw func(*pixbuf.Buffer)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draw(s.buf)
	return s.commit()
}

// Undo reports false when throttled or when only the baseline is left.
func (s *Surface) Undo() (bool, error) {
	if !s.undoGate.Allow() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Undo(s.buf)
}

func (s *Surface) Redo() (bool, error) {
	if !s.redoGate.Allow() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Redo(s.buf)
}

// Clear makes every pixel transparent and commits.
func (s *Surface) Clear() (bool, error) {
	if !s.clearGate.Allow() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Clear(pixbuf.Transparent)
	return true, s.commit()
}

// Resize reallocates the canvas keeping its content top-left aligned.
// Resize cannot be undone: earlier snapshots no longer fit the buffer, so
// the history is discarded and restarts from the resized canvas. Sizes whose
// area exceeds pixbuf.MaxPixels fail with pixbuf.ErrOutOfBounds.
func (s *Surface) Resize(width, height int) error {
	if width < s.opts.MinSize || height < s.opts.MinSize {
		return fmt.Errorf("%w: %dx%d, minimum %d", ErrTooSmall, width, height, s.opts.MinSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resize(width, height)
}

func (s *Surface) resize(width, height int) error {
	buf, err := s.buf.Resize(width, height)
	if err != nil {
		return fmt.Errorf("could not resize canvas: %w", err)
	}
	s.buf = buf
	if err := s.hist.Reset(buf); err != nil {
		return err
	}

	s.logger.Info("resized", "width", width, "height", height)
	s.scheduleSave()
	return nil
}

// PickColor returns the color at (x, y) and makes it the current color.
func (s *Surface) PickColor(x, y int) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.buf.Lookup(x, y)
	if err != nil {
		return 0, err
	}
	s.color = c
	return c, nil
}

// Export flattens the canvas over the background color and writes it to
// path.
func (s *Surface) Export(path, format string, overwrite bool) error {
	s.mu.Lock()
	img := export.Flatten(s.buf, s.opts.Background)
	s.mu.Unlock()

	if format == "" {
		var err error
		if format, err = export.FormatFromPath(path); err != nil {
			return err
		}
	}

	if err := export.WriteFile(path, img, format, overwrite); err != nil {
		return err
	}
	s.logger.Info("exported", "file", path, "format", format)
	return nil
}

func (s *Surface) commit() error {
	if err := s.hist.Commit(s.buf, s.buf.Bounds()); err != nil {
		return err
	}
	s.scheduleSave()
	return nil
}
