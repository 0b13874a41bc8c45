package fill

import (
	"math/rand"
	"testing"

	"pixedit/pixbuf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	red   uint32 = 0xFF0000FF
	green uint32 = 0xFF00FF00
	white uint32 = 0xFFFFFFFF
	black uint32 = 0xFF000000
)

func solid(t *testing.T, w, h int, c uint32) *pixbuf.Buffer {
	t.Helper()
	b, err := pixbuf.New(w, h)
	require.NoError(t, err)
	b.Clear(c)
	return b
}

// reference computes the 4-connected component of (x, y) with a plain BFS.
func reference(b *pixbuf.Buffer, x, y int) map[int]bool {
	target := b.Get(x, y)
	seen := map[int]bool{y*b.Width() + x: true}
	queue := [][2]int{{x, y}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := p[0]+d[0], p[1]+d[1]
			if !b.InBounds(nx, ny) || b.Get(nx, ny) != target {
				continue
			}
			if i := ny*b.Width() + nx; !seen[i] {
				seen[i] = true
				queue = append(queue, [2]int{nx, ny})
			}
		}
	}
	return seen
}

func TestFillSolidBuffer(t *testing.T) {
	b := solid(t, 4, 4, red)

	assert.True(t, Fill(b, 0, 0, green))
	for i, c := range b.Pix {
		assert.Equal(t, green, c, "pixel %d", i)
	}
}

func TestFillAroundIsland(t *testing.T) {
	b := solid(t, 4, 4, red)
	b.Put(2, 2, white)

	require.True(t, Fill(b, 0, 0, green))
	for y := range 4 {
		for x := range 4 {
			want := green
			if x == 2 && y == 2 {
				want = white
			}
			assert.Equal(t, want, b.Get(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestFillSameColorIsNoop(t *testing.T) {
	b := solid(t, 5, 5, green)
	b.Put(1, 3, red)
	before := b.Clone()

	assert.False(t, Fill(b, 0, 0, green))
	assert.True(t, b.Equal(before))
}

func TestFillSeedOutside(t *testing.T) {
	b := solid(t, 3, 3, red)
	before := b.Clone()

	for _, p := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {100, 100}} {
		assert.False(t, Fill(b, p[0], p[1], green))
	}
	assert.True(t, b.Equal(before))
}

func TestFillStopsAtDiagonals(t *testing.T) {
	// Checkerboard: every same-colored neighbour is diagonal only.
	b := solid(t, 4, 4, white)
	for y := range 4 {
		for x := range 4 {
			if (x+y)%2 == 0 {
				b.Put(x, y, black)
			}
		}
	}

	require.True(t, Fill(b, 1, 1, red))
	changed := 0
	for _, c := range b.Pix {
		if c == red {
			changed++
		}
	}
	assert.Equal(t, 1, changed)
	assert.Equal(t, red, b.Get(1, 1))
}

func TestFillAlphaParticipates(t *testing.T) {
	b := solid(t, 3, 1, red)
	b.Put(1, 0, red&0x00FFFFFF|0x80000000)

	require.True(t, Fill(b, 0, 0, green))
	assert.Equal(t, []uint32{green, red&0x00FFFFFF | 0x80000000, red}, b.Pix)
}

func TestFillEnclosedRegion(t *testing.T) {
	b := solid(t, 7, 7, white)
	for i := 1; i < 6; i++ {
		b.Put(i, 1, black)
		b.Put(i, 5, black)
		b.Put(1, i, black)
		b.Put(5, i, black)
	}

	require.True(t, Fill(b, 3, 3, red))
	for y := range 7 {
		for x := range 7 {
			inside := x > 1 && x < 5 && y > 1 && y < 5
			switch {
			case inside:
				assert.Equal(t, red, b.Get(x, y), "(%d,%d)", x, y)
			case x == 0 || y == 0 || x == 6 || y == 6:
				assert.Equal(t, white, b.Get(x, y), "(%d,%d)", x, y)
			default:
				assert.Equal(t, black, b.Get(x, y), "(%d,%d)", x, y)
			}
		}
	}
}

func TestFillSerpentine(t *testing.T) {
	// Walls with alternating gaps force the scan to reverse direction on
	// every row.
	const w, h = 9, 9
	b := solid(t, w, h, white)
	for y := 1; y < h; y += 2 {
		for x := range w {
			b.Put(x, y, black)
		}
		if (y/2)%2 == 0 {
			b.Put(w-1, y, white)
		} else {
			b.Put(0, y, white)
		}
	}

	want := reference(b, 0, 0)
	require.True(t, Fill(b, 0, 0, green))
	for i, c := range b.Pix {
		if want[i] {
			assert.Equal(t, green, c, "pixel %d", i)
		} else {
			assert.Equal(t, black, c, "pixel %d", i)
		}
	}
}

func TestFillMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	palette := []uint32{red, white, black}

	for round := range 50 {
		w, h := 1+rng.Intn(24), 1+rng.Intn(24)
		b := solid(t, w, h, red)
		for i := range b.Pix {
			b.Pix[i] = palette[rng.Intn(len(palette))]
		}
		x, y := rng.Intn(w), rng.Intn(h)
		before := b.Clone()
		region := reference(b, x, y)

		require.True(t, Fill(b, x, y, green), "round %d", round)
		for i, c := range b.Pix {
			if region[i] {
				assert.Equal(t, green, c, "round %d pixel %d", round, i)
			} else {
				assert.Equal(t, before.Pix[i], c, "round %d pixel %d", round, i)
			}
		}
	}
}

func TestFillLargeBuffer(t *testing.T) {
	b := solid(t, 2048, 1024, white)
	require.True(t, Fill(b, 1000, 500, red))
	for i, c := range b.Pix {
		if c != red {
			t.Fatalf("pixel %d not filled: %#x", i, c)
		}
	}
}
