// Package history keeps a bounded linear undo/redo history of compressed
// buffer snapshots.
//
// The bottom entry of the undo stack is the baseline: it is never popped, so
// the buffer can always be restored to a defined state. Once the stack is
// full the oldest entry is evicted before the next one is kept.
package history

import (
	"fmt"
	"image"
	"log/slog"

	"pixedit/pixbuf"
	"pixedit/snapshot"
)

const DefaultMaxDepth = 20

type History struct {
	codec    *snapshot.Codec
	maxDepth int
	undo     []*snapshot.Snapshot
	redo     []*snapshot.Snapshot
	logger   *slog.Logger
}

// New returns an empty history. A maxDepth below 1 selects DefaultMaxDepth.
func New(codec *snapshot.Codec, maxDepth int) *History {
	if codec == nil {
		codec = snapshot.DefaultCodec()
	}
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &History{
		codec:    codec,
		maxDepth: maxDepth,
		logger:   slog.Default().With("component", "history"),
	}
}

func (h *History) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	h.logger = l.With("component", "history")
}

func (h *History) MaxDepth() int { return h.maxDepth }
func (h *History) UndoLen() int  { return len(h.undo) }
func (h *History) RedoLen() int  { return len(h.redo) }
func (h *History) CanUndo() bool { return len(h.undo) > 1 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Commit captures r from buf as the newest undo entry and drops the redo
// stack.
func (h *History) Commit(buf *pixbuf.Buffer, r image.Rectangle) error {
	s, err := snapshot.Capture(h.codec, buf, r)
	if err != nil {
		return fmt.Errorf("could not capture snapshot: %w", err)
	}

	h.undo = append(h.undo, s)
	if len(h.undo) > h.maxDepth {
		h.undo[0] = nil
		h.undo = h.undo[1:]
	}
	clear(h.redo)
	h.redo = h.redo[:0]

	h.logger.Debug("committed", "rect", r, "bytes", len(s.Data), "depth", len(h.undo))
	return nil
}

// Undo restores buf from the entry below the newest one and moves the
// newest entry to the redo stack. It reports false without touching buf when
// only the baseline is left. If the restore fails both stacks and buf are
// left as they were.
func (h *History) Undo(buf *pixbuf.Buffer) (bool, error) {
	if len(h.undo) <= 1 {
		return false, nil
	}

	if err := h.undo[len(h.undo)-2].Restore(h.codec, buf); err != nil {
		return false, fmt.Errorf("could not restore undo state: %w", err)
	}

	top := h.undo[len(h.undo)-1]
	h.undo[len(h.undo)-1] = nil
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)

	h.logger.Debug("undo", "depth", len(h.undo), "redo", len(h.redo))
	return true, nil
}

// Redo re-applies the most recently undone entry, with the same failure
// guarantee as Undo.
func (h *History) Redo(buf *pixbuf.Buffer) (bool, error) {
	if len(h.redo) == 0 {
		return false, nil
	}

	s := h.redo[len(h.redo)-1]
	if err := s.Restore(h.codec, buf); err != nil {
		return false, fmt.Errorf("could not restore redo state: %w", err)
	}

	h.redo[len(h.redo)-1] = nil
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, s)

	h.logger.Debug("redo", "depth", len(h.undo), "redo", len(h.redo))
	return true, nil
}

// Reset discards both stacks and commits the whole of buf as a new baseline.
func (h *History) Reset(buf *pixbuf.Buffer) error {
	clear(h.undo)
	h.undo = h.undo[:0]
	clear(h.redo)
	h.redo = h.redo[:0]
	return h.Commit(buf, buf.Bounds())
}
