// Package fill implements a 4-connected scanline flood fill over a packed
// pixel buffer.
package fill

import (
	"sync"

	"pixedit/pixbuf"
)

type seed struct {
	x, y int
}

var stackPool = sync.Pool{
	New: func() any {
		s := make([]seed, 0, 1024)
		return &s
	},
}

// Fill replaces the 4-connected region of pixels equal to the color at
// (x, y) with c. Colors match on the exact packed value, alpha included.
// It reports whether any pixel changed: an off-buffer seed or a seed that
// already has color c leaves buf untouched.
func Fill(buf *pixbuf.Buffer, x, y int, c uint32) bool {
	if !buf.InBounds(x, y) {
		return false
	}

	target := buf.Get(x, y)
	if target == c {
		return false
	}

	sp := stackPool.Get().(*[]seed)
	stack := append((*sp)[:0], seed{x, y})
	defer func() {
		*sp = stack[:0]
		stackPool.Put(sp)
	}()

	w, h, pix := buf.Width(), buf.Height(), buf.Pix
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		row := s.y * w
		lx := s.x
		for lx >= 0 && pix[row+lx] == target {
			lx--
		}
		lx++
		rx := s.x
		for rx < w && pix[row+rx] == target {
			rx++
		}
		rx--
		if lx > rx {
			continue
		}

		for i := lx; i <= rx; i++ {
			pix[row+i] = c
		}

		if s.y > 0 {
			stack = pushRuns(stack, pix[row-w:row], lx, rx, s.y-1, target)
		}
		if s.y < h-1 {
			stack = pushRuns(stack, pix[row+w:row+2*w], lx, rx, s.y+1, target)
		}
	}

	return true
}

// pushRuns pushes one seed for each run of target pixels in line[lx:rx+1].
func pushRuns(stack []seed, line []uint32, lx, rx, y int, target uint32) []seed {
	inRun := false
	for i := lx; i <= rx; i++ {
		if line[i] != target {
			inRun = false
			continue
		}
		if !inRun {
			stack = append(stack, seed{i, y})
			inRun = true
		}
	}
	return stack
}
