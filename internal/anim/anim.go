// Package anim holds the numeric animation laws shared by both avatar
// backends: exponential smoothing, the speaking waveform, the blink renewal
// process and breathing.
//
// Every law advances by an explicit step. The 2D backend steps in frames
// (dt = 1 per tick), the 3D backend in wall-clock seconds. A single instance
// must only ever be driven on one basis.
package anim

import (
	"math"
	"math/rand"
)

// DefaultK is the smoothing factor used for mouth openness.
const DefaultK = 0.15

// Speaking waveform constants. The phase starts at -pi/2 so the target rises
// from 0, continuous with the idle target.
const (
	SpeechBias      = 0.35
	SpeechAmplitude = 0.35
	SpeechRateFrame = 0.06 // radians per frame
	SpeechRateSec   = 3.6  // radians per second
)

// Clamp01 limits v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Smoother approaches Target exponentially: v += (target - v) * K.
// With K in (0,1) and Value, Target in [0,1] the value never overshoots.
type Smoother struct {
	Value  float64
	Target float64
	K      float64
}

// NewSmoother returns a smoother at rest at 0.
func NewSmoother(k float64) Smoother {
	return Smoother{K: k}
}

// SetTarget sets the value approached by subsequent steps, clamped to [0,1].
func (s *Smoother) SetTarget(target float64) {
	s.Target = Clamp01(target)
}

// Step applies one frame of the smoothing law.
func (s *Smoother) Step() float64 {
	s.Value = Clamp01(s.Value + (s.Target-s.Value)*s.K)
	return s.Value
}

// StepDT applies the law for dt seconds, scaled so that 1/60 s equals one
// Step. This keeps wall-clock animation independent of the refresh rate.
func (s *Smoother) StepDT(dt float64) float64 {
	if dt <= 0 {
		return s.Value
	}
	k := 1 - math.Pow(1-s.K, dt*60)
	s.Value = Clamp01(s.Value + (s.Target-s.Value)*k)
	return s.Value
}

// FramesToWithin returns how many Steps bring a constant-target deviation
// below eps: ceil(ln(eps) / ln(1-k)).
func FramesToWithin(k, eps float64) int {
	return int(math.Ceil(math.Log(eps) / math.Log(1-k)))
}

// Waveform is the periodic mouth target used while speaking.
type Waveform struct {
	Bias      float64
	Amplitude float64
	Rate      float64
	phase     float64
}

// NewSpeechWave returns the speaking waveform at the given rate, already
// anchored at its starting phase.
func NewSpeechWave(rate float64) Waveform {
	w := Waveform{Bias: SpeechBias, Amplitude: SpeechAmplitude, Rate: rate}
	w.Restart()
	return w
}

// Restart anchors the phase so the next samples rise from 0.
func (w *Waveform) Restart() {
	w.phase = -math.Pi / 2
}

// Advance moves the phase forward by dt and returns the new target.
func (w *Waveform) Advance(dt float64) float64 {
	w.phase += w.Rate * dt
	return w.Value()
}

// Value returns the current target in [0,1].
func (w *Waveform) Value() float64 {
	return Clamp01(w.Bias + w.Amplitude*math.Sin(w.phase))
}

// Blinker is a renewal process. It counts up while the eyes are open; once
// the count exceeds a threshold drawn from [Min, Min+Range) a blink of
// Duration starts, and when it ends the count resets and a new threshold is
// drawn.
type Blinker struct {
	Min      float64
	Range    float64
	Duration float64

	rng       *rand.Rand
	elapsed   float64
	threshold float64
	remaining float64
}

// NewBlinker creates a blinker. rng must not be shared with other goroutines.
func NewBlinker(min, spread, duration float64, rng *rand.Rand) *Blinker {
	b := &Blinker{Min: min, Range: spread, Duration: duration, rng: rng}
	b.threshold = b.draw()
	return b
}

// FrameBlinker returns the frame-counted blinker used by the 2D face.
func FrameBlinker(rng *rand.Rand) *Blinker {
	return NewBlinker(180, 120, 8, rng)
}

// ClockBlinker returns the wall-clock blinker (seconds) used by the 3D model.
func ClockBlinker(rng *rand.Rand) *Blinker {
	return NewBlinker(3, 2, 0.15, rng)
}

func (b *Blinker) draw() float64 {
	return b.Min + b.rng.Float64()*b.Range
}

// Advance steps the process by dt and reports whether the eyes are closed.
// The counter does not advance during a blink.
func (b *Blinker) Advance(dt float64) bool {
	if b.remaining > 0 {
		b.remaining -= dt
		if b.remaining <= 0 {
			b.remaining = 0
			b.elapsed = 0
			b.threshold = b.draw()
		}
		return b.remaining > 0
	}

	b.elapsed += dt
	if b.elapsed > b.threshold {
		b.remaining = b.Duration
		return true
	}
	return false
}

// Blinking reports whether a blink is in progress.
func (b *Blinker) Blinking() bool {
	return b.remaining > 0
}

// Elapsed returns the time counted since the last blink ended.
func (b *Blinker) Elapsed() float64 {
	return b.elapsed
}

// Remaining returns what is left of the current blink, 0 when open.
func (b *Blinker) Remaining() float64 {
	return b.remaining
}

// Breath is a slow sinusoid applied to the torso while idle.
type Breath struct {
	Amplitude float64
	Rate      float64
	phase     float64
}

// Advance moves the phase by dt and returns the new offset.
func (b *Breath) Advance(dt float64) float64 {
	b.phase += b.Rate * dt
	return b.Offset()
}

// Offset returns Amplitude * sin(phase).
func (b *Breath) Offset() float64 {
	return b.Amplitude * math.Sin(b.phase)
}

// Scale returns 1 + Offset, for use as a multiplicative torso scale.
func (b *Breath) Scale() float64 {
	return 1 + b.Offset()
}
