package surface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"pixedit/pixbuf"
	"pixedit/snapshot"
	"pixedit/store"
)

var (
	ErrNoStore       = errors.New("no store configured")
	ErrNoSavedCanvas = errors.New("no saved canvas")
)

const savedCanvasVersion = 1

// SavedCanvas is the persisted form of a surface: editor state plus a
// full-canvas snapshot in its binary layout.
type SavedCanvas struct {
	Version   int    `json:"version"`
	Color     string `json:"color"`
	BrushSize int    `json:"brushSize"`
	Width     int    `json:"canvasWidth"`
	Height    int    `json:"canvasHeight"`
	Snapshot  []byte `json:"snapshot"`
}

func (s *Surface) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Surface) save(ctx context.Context) error {
	if s.opts.Store == nil {
		return ErrNoStore
	}

	snap, err := snapshot.Capture(s.opts.Codec, s.buf, s.buf.Bounds())
	if err != nil {
		return fmt.Errorf("could not capture canvas: %w", err)
	}
	blob, err := snap.MarshalBinary()
	if err != nil {
		return fmt.Errorf("could not encode canvas: %w", err)
	}

	data, err := json.Marshal(SavedCanvas{
		Version:   savedCanvasVersion,
		Color:     pixbuf.Hex(s.color),
		BrushSize: s.brushSize,
		Width:     s.buf.Width(),
		Height:    s.buf.Height(),
		Snapshot:  blob,
	})
	if err != nil {
		return fmt.Errorf("could not encode saved canvas: %w", err)
	}

	if err := s.opts.Store.Put(ctx, s.opts.Key, data); err != nil {
		return fmt.Errorf("could not save canvas: %w", err)
	}

	s.logger.Info("saved", "key", s.opts.Key, "bytes", len(data))
	return nil
}

// Load replaces the canvas with the saved one. When nothing is saved, or the
// saved entry is damaged, the canvas is reset to a fresh transparent
// baseline at its current size and the error says why; a damaged entry is
// also deleted.
func (s *Surface) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Store == nil {
		return ErrNoStore
	}

	data, err := s.opts.Store.Get(ctx, s.opts.Key)
	if errors.Is(err, store.ErrNotFound) {
		if rerr := s.freshBaseline(); rerr != nil {
			return rerr
		}
		return fmt.Errorf("%w under %q", ErrNoSavedCanvas, s.opts.Key)
	} else if err != nil {
		return fmt.Errorf("could not read saved canvas: %w", err)
	}

	if err := s.restore(data); err != nil {
		s.logger.Error("discarding damaged save", "key", s.opts.Key, "error", err)
		if derr := s.opts.Store.Delete(ctx, s.opts.Key); derr != nil {
			s.logger.Error("could not delete damaged save", "key", s.opts.Key, "error", derr)
		}
		if rerr := s.freshBaseline(); rerr != nil {
			return rerr
		}
		return fmt.Errorf("could not load saved canvas: %w", err)
	}

	s.logger.Info("loaded", "key", s.opts.Key, "width", s.buf.Width(), "height", s.buf.Height())
	return nil
}

func (s *Surface) restore(data []byte) error {
	var saved SavedCanvas
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("%w: %w", snapshot.ErrCorruptData, err)
	}

	var snap snapshot.Snapshot
	if err := snap.UnmarshalBinary(saved.Snapshot); err != nil {
		return err
	}

	// the header and the record must agree before anything is allocated
	if snap.Rect.Min != (image.Point{}) || snap.Rect.Dx() != saved.Width || snap.Rect.Dy() != saved.Height {
		return fmt.Errorf("%w: snapshot %v does not cover %dx%d canvas", snapshot.ErrCorruptData, snap.Rect, saved.Width, saved.Height)
	}
	buf, err := pixbuf.New(saved.Width, saved.Height)
	if err != nil {
		return fmt.Errorf("%w: %w", snapshot.ErrCorruptData, err)
	}
	if err := snap.Restore(s.opts.Codec, buf); err != nil {
		if !errors.Is(err, snapshot.ErrCorruptData) {
			err = fmt.Errorf("%w: %w", snapshot.ErrCorruptData, err)
		}
		return err
	}

	color := s.color
	if saved.Color != "" {
		if color, err = pixbuf.ParseHex(saved.Color); err != nil {
			return fmt.Errorf("%w: %w", snapshot.ErrCorruptData, err)
		}
	}

	s.buf = buf
	s.color = color
	if saved.BrushSize > 0 {
		s.brushSize = saved.BrushSize
	}
	return s.hist.Reset(buf)
}

func (s *Surface) freshBaseline() error {
	s.buf.Clear(pixbuf.Transparent)
	return s.hist.Reset(s.buf)
}

// Forget deletes the saved canvas and pending autosave.
func (s *Surface) Forget(ctx context.Context) error {
	s.saver.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Store == nil {
		return ErrNoStore
	}
	return s.opts.Store.Delete(ctx, s.opts.Key)
}

// SetAutoSave makes every commit schedule a debounced save.
func (s *Surface) SetAutoSave(on bool) {
	s.mu.Lock()
	s.autoSave = on
	s.mu.Unlock()

	if !on {
		s.saver.Stop()
	}
}

func (s *Surface) AutoSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoSave
}

// scheduleSave must be called with s.mu held; the save itself runs later
// and takes the lock on its own.
func (s *Surface) scheduleSave() {
	if !s.autoSave || s.opts.Store == nil {
		return
	}
	s.saver.Trigger(func() {
		if err := s.Save(context.Background()); err != nil {
			s.logger.Error("autosave failed", "error", err)
		}
	})
}

// Close runs a pending autosave.
func (s *Surface) Close() {
	s.saver.Flush()
}
