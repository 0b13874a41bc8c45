package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"pixedit/palette"
	"pixedit/pixbuf"
	"pixedit/surface"
)

// Runner executes editing commands, one per line, against a surface.
type Runner struct {
	surface *surface.Surface
	out     io.Writer
	logger  *slog.Logger
	sleep   func(time.Duration)
}

func NewRunner(s *surface.Surface, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{surface: s, out: out, logger: logger, sleep: time.Sleep}
}

// Run executes every line of r. Blank lines and lines starting with # are
// skipped. It stops at the first failing command.
func (r *Runner) Run(ctx context.Context, script io.Reader) error {
	sc := bufio.NewScanner(script)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Exec(ctx, text); err != nil {
			return fmt.Errorf("line %d %q: %w", line, text, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("could not read script: %w", err)
	}
	return nil
}

func (r *Runner) Exec(ctx context.Context, cmd string) error {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]
	s := r.surface

	switch name {
	case "color":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		c, err := palette.ParseColor(args[0])
		if err != nil {
			return err
		}
		s.SetColor(c)
	case "brush":
		n, err := intArgs(args, 1)
		if err != nil {
			return err
		}
		if n[0] < 1 {
			return fmt.Errorf("invalid brush size: %d", n[0])
		}
		s.SetBrushSize(n[0])
	case "fill":
		if len(args) == 3 {
			c, err := palette.ParseColor(args[2])
			if err != nil {
				return err
			}
			s.SetColor(c)
			args = args[:2]
		}
		n, err := intArgs(args, 2)
		if err != nil {
			return err
		}
		changed, err := s.Fill(n[0], n[1], s.Color())
		if err != nil {
			return err
		}
		r.logger.Info("fill", "x", n[0], "y", n[1], "color", pixbuf.Hex(s.Color()), "changed", changed)
	case "undo":
		ok, err := s.Undo()
		if err != nil {
			return err
		}
		r.logger.Info("undo", "applied", ok)
	case "redo":
		ok, err := s.Redo()
		if err != nil {
			return err
		}
		r.logger.Info("redo", "applied", ok)
	case "clear":
		ok, err := s.Clear()
		if err != nil {
			return err
		}
		r.logger.Info("clear", "applied", ok)
	case "resize":
		n, err := intArgs(args, 2)
		if err != nil {
			return err
		}
		return s.Resize(n[0], n[1])
	case "pick":
		n, err := intArgs(args, 2)
		if err != nil {
			return err
		}
		c, err := s.PickColor(n[0], n[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, pixbuf.Hex(c))
	case "wait":
		n, err := intArgs(args, 1)
		if err != nil {
			return err
		}
		r.sleep(time.Duration(n[0]) * time.Millisecond)
	case "save":
		return s.Save(ctx)
	case "load":
		err := s.Load(ctx)
		if errors.Is(err, surface.ErrNoSavedCanvas) {
			r.logger.Info("nothing saved, starting fresh")
			return nil
		}
		return err
	case "forget":
		return s.Forget(ctx)
	case "autosave":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		switch args[0] {
		case "on":
			s.SetAutoSave(true)
		case "off":
			s.SetAutoSave(false)
		default:
			return fmt.Errorf("autosave takes on or off, got %q", args[0])
		}
	case "export":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("export takes PATH [FORMAT]")
		}
		format := ""
		if len(args) == 2 {
			format = args[1]
		}
		return s.Export(args[0], format, true)
	case "status":
		undo, redo := s.HistoryLen()
		fmt.Fprintf(r.out, "%dx%d undo=%d redo=%d can_undo=%t can_redo=%t color=%s\n",
			s.Width(), s.Height(), undo, redo, s.CanUndo(), s.CanRedo(), pixbuf.Hex(s.Color()))
	default:
		return fmt.Errorf("unknown command %q", name)
	}

	return nil
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	return nil
}

func intArgs(args []string, n int) ([]int, error) {
	if err := wantArgs(args, n); err != nil {
		return nil, err
	}
	res := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", a, err)
		}
		res[i] = v
	}
	return res, nil
}
