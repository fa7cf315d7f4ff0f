package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingTarget struct {
	calls []string
	dts   []float64
}

func (r *recordingTarget) Update(dt float64) {
	r.calls = append(r.calls, "update")
	r.dts = append(r.dts, dt)
}

func (r *recordingTarget) Render() {
	r.calls = append(r.calls, "render")
}

func TestFrameOrderAndDelta(t *testing.T) {
	base := time.Unix(100, 0)
	ticks := []time.Time{base, base.Add(16 * time.Millisecond), base.Add(50 * time.Millisecond)}
	i := 0
	target := &recordingTarget{}
	c := New(target, WithNow(func() time.Time {
		now := ticks[i]
		i++
		return now
	}), WithLabel("test"))

	for range ticks {
		assert.True(t, c.Frame())
	}

	assert.Equal(t, []string{"update", "render", "update", "render", "update", "render"}, target.calls)
	assert.Equal(t, 0.0, target.dts[0])
	assert.InDelta(t, 0.016, target.dts[1], 1e-9)
	assert.InDelta(t, 0.034, target.dts[2], 1e-9)
	assert.Equal(t, uint64(3), c.Frames())
}

func TestDestroyIsIdempotent(t *testing.T) {
	target := &recordingTarget{}
	c := New(target)
	c.Frame()
	c.Destroy()
	c.Destroy()

	assert.True(t, c.Stopped())
	assert.False(t, c.Frame())
	assert.Len(t, target.calls, 2)
}

func TestBackwardsClockClampsToZero(t *testing.T) {
	base := time.Unix(100, 0)
	times := []time.Time{base, base.Add(-time.Second)}
	i := 0
	target := &recordingTarget{}
	c := New(target, WithNow(func() time.Time { i++; return times[i-1] }))
	c.Frame()
	c.Frame()
	assert.Equal(t, 0.0, target.dts[1])
}
