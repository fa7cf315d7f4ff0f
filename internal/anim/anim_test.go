package anim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmootherGeometricDecay(t *testing.T) {
	for _, target := range []float64{0, 0.3, 1} {
		s := NewSmoother(DefaultK)
		s.Value = 1 - target
		s.SetTarget(target)

		prev := math.Abs(target - s.Value)
		n := FramesToWithin(DefaultK, 0.01)
		for i := 0; i < n; i++ {
			s.Step()
			dev := math.Abs(target - s.Value)
			assert.LessOrEqual(t, dev, prev, "deviation must not grow")
			assert.InDelta(t, prev*(1-DefaultK), dev, 1e-12)
			prev = dev
		}
		assert.Less(t, prev, 0.01)
	}
}

func TestFramesToWithin(t *testing.T) {
	assert.Equal(t, 29, FramesToWithin(0.15, 0.01))
}

func TestSmootherNoOvershoot(t *testing.T) {
	s := NewSmoother(DefaultK)
	s.SetTarget(0.8)
	for i := 0; i < 500; i++ {
		s.Step()
		require.LessOrEqual(t, s.Value, 0.8)
	}
	s.SetTarget(5)
	assert.Equal(t, 1.0, s.Target)
}

func TestStepDTMatchesStepAt60Hz(t *testing.T) {
	a, b := NewSmoother(DefaultK), NewSmoother(DefaultK)
	a.SetTarget(1)
	b.SetTarget(1)
	for i := 0; i < 20; i++ {
		a.Step()
		b.StepDT(1.0 / 60)
	}
	assert.InDelta(t, a.Value, b.Value, 1e-9)
	assert.Equal(t, b.Value, b.StepDT(0))
}

func TestSpeechWaveStartsAtZero(t *testing.T) {
	w := NewSpeechWave(SpeechRateFrame)
	assert.InDelta(t, 0, w.Value(), 1e-12)
	for i := 0; i < 1000; i++ {
		v := w.Advance(1)
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}

func TestBlinkerDurationAndGap(t *testing.T) {
	b := FrameBlinker(rand.New(rand.NewSource(7)))

	var (
		run, gap   int
		blinks     int
		sawOpenGap bool
	)
	for frame := 0; frame < 20000; frame++ {
		if b.Advance(1) {
			if run == 0 && sawOpenGap {
				assert.GreaterOrEqual(t, float64(gap), b.Min, "gap before blink %d", blinks)
			}
			run++
			gap = 0
			require.LessOrEqual(t, float64(run), b.Duration)
		} else {
			if run > 0 {
				assert.Equal(t, int(b.Duration), run)
				blinks++
				sawOpenGap = true
			}
			run = 0
			gap++
		}
	}
	assert.Greater(t, blinks, 40)
}

func TestBlinkerCounterFrozenDuringBlink(t *testing.T) {
	b := NewBlinker(1, 0, 3, rand.New(rand.NewSource(1)))
	assert.False(t, b.Advance(1))
	assert.True(t, b.Advance(1))
	elapsed := b.Elapsed()
	assert.True(t, b.Advance(1))
	assert.Equal(t, elapsed, b.Elapsed())
	assert.True(t, b.Advance(1))
	assert.False(t, b.Advance(1))
	assert.Zero(t, b.Elapsed())
	assert.Zero(t, b.Remaining())
}

func TestBreath(t *testing.T) {
	br := Breath{Amplitude: 0.05, Rate: 1.5}
	for i := 0; i < 100; i++ {
		br.Advance(0.1)
		assert.InDelta(t, 1, br.Scale(), 0.05+1e-12)
	}
}
