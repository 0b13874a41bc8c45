package throttle

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestGateDropsWithinInterval(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	g := NewGateWithClock(200*time.Millisecond, clk.now)

	assert.True(t, g.Allow())
	assert.False(t, g.Allow())

	clk.advance(150 * time.Millisecond)
	assert.False(t, g.Allow())

	clk.advance(50 * time.Millisecond)
	assert.True(t, g.Allow())

	clk.advance(199 * time.Millisecond)
	assert.False(t, g.Allow())
}

func TestGateHeldKey(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	g := NewGateWithClock(200*time.Millisecond, clk.now)

	// 1s of key repeat at 30ms collapses to one run per 200ms window.
	allowed := 0
	for range 34 {
		if g.Allow() {
			allowed++
		}
		clk.advance(30 * time.Millisecond)
	}
	assert.Equal(t, 5, allowed)
}

func TestGateZeroInterval(t *testing.T) {
	g := NewGate(0)
	for range 10 {
		assert.True(t, g.Allow())
	}
}

func TestDebouncerLastCallWins(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var got atomic.Int32
	done := make(chan struct{})

	for i := range 5 {
		d.Trigger(func() {
			got.Store(int32(i + 1))
			close(done)
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	assert.Equal(t, int32(5), got.Load())
	assert.False(t, d.Pending())
}

func TestDebouncerFlushAndStop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var runs atomic.Int32

	d.Trigger(func() { runs.Add(1) })
	require.True(t, d.Pending())
	d.Flush()
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, d.Pending())

	d.Flush()
	assert.Equal(t, int32(1), runs.Load())

	d.Trigger(func() { runs.Add(1) })
	d.Stop()
	assert.False(t, d.Pending())
	d.Flush()
	assert.Equal(t, int32(1), runs.Load())
}
