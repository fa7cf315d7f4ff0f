// Package face2d is the procedural 2D avatar: a painted face driven by a
// frame-counted state machine for mouth, blink, head tilt and breathing.
package face2d

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"chosenoffset.com/avatarstage/internal/anim"
	"chosenoffset.com/avatarstage/internal/emotion"
	"chosenoffset.com/avatarstage/internal/render"
)

// ErrContainerMissing is returned by New without a container.
var ErrContainerMissing = render.ErrContainerMissing

// Frame-basis constants.
const (
	headBobAmplitude = 2.0
	headBobRate      = 0.05 // radians per frame
	breathAmplitude  = 0.5
	breathRate       = 0.015 // radians per frame
	tiltSwayRate     = 0.03  // radians per frame
)

// State is a snapshot of the animated face.
type State struct {
	Emotion        emotion.Emotion
	Speaking       bool
	MouthOpenness  float64
	MouthTarget    float64
	Blinking       bool
	BlinkRemaining float64
	HeadTilt       float64 // degrees
	HeadBob        float64
	Breath         float64
	Frame          uint64
}

// Face is the 2D backend.
type Face struct {
	renderer  render.Renderer
	container render.Container
	surface   render.Image
	log       zerolog.Logger
	palette   Palette

	state  State
	mouth  anim.Smoother
	wave   anim.Waveform
	blink  *anim.Blinker
	breath anim.Breath

	debug     bool
	destroyed bool
	onLayer   func(name string)
}

// Option configures a Face.
type Option func(*Face)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Face) {
		f.log = log.With().Str("component", "face2d").Logger()
	}
}

// WithRand sets the blink randomness source.
func WithRand(rng *rand.Rand) Option {
	return func(f *Face) {
		f.blink = anim.FrameBlinker(rng)
	}
}

// WithColors sets the skin and hair colors from hex strings.
func WithColors(skinHex, hairHex string) Option {
	return func(f *Face) {
		f.palette = NewPalette(skinHex, hairHex)
	}
}

// WithDebug enables the state overlay.
func WithDebug(on bool) Option {
	return func(f *Face) {
		f.debug = on
	}
}

// New creates the face and mounts its surface on container.
func New(r render.Renderer, container render.Container, opts ...Option) (*Face, error) {
	if container == nil {
		return nil, ErrContainerMissing
	}
	if r == nil {
		return nil, fmt.Errorf("face2d: no renderer: %w", render.ErrRenderContextUnavailable)
	}

	f := &Face{
		renderer:  r,
		container: container,
		log:       zerolog.Nop(),
		palette:   NewPalette(DefaultSkin, DefaultHair),
		mouth:     anim.NewSmoother(anim.DefaultK),
		wave:      anim.NewSpeechWave(anim.SpeechRateFrame),
		breath:    anim.Breath{Amplitude: breathAmplitude, Rate: breathRate},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.blink == nil {
		f.blink = anim.FrameBlinker(rand.New(rand.NewSource(time.Now().UnixNano())))
	}

	w, h := container.Bounds()
	f.surface = r.NewImage(w, h)
	container.Mount(f.surface)

	f.log.Debug().Int("width", w).Int("height", h).Msg("face initialized")
	return f, nil
}

// SetEmotion applies the profile for label; unknown labels mean normal.
func (f *Face) SetEmotion(label string) {
	f.state.Emotion = emotion.Parse(label)
}

// SetSpeaking toggles the waveform-driven mouth target.
func (f *Face) SetSpeaking(on bool) {
	if on && !f.state.Speaking {
		f.wave.Restart()
	}
	f.state.Speaking = on
}

// SpeakStart is SetSpeaking(true).
func (f *Face) SpeakStart() { f.SetSpeaking(true) }

// SpeakStop is SetSpeaking(false).
func (f *Face) SpeakStop() { f.SetSpeaking(false) }

// LoadQuality is a no-op; the procedural face has no assets.
func (f *Face) LoadQuality(string) {}

// SetColors replaces the skin and hair colors.
func (f *Face) SetColors(skinHex, hairHex string) {
	prev := f.palette
	f.palette = NewPalette(skinHex, hairHex)
	if prev.Skin != f.palette.Skin || prev.Hair != f.palette.Hair {
		f.log.Debug().Str("skin", f.palette.Skin.Hex()).Str("hair", f.palette.Hair.Hex()).Msg("colors updated")
	}
}

// Palette returns the colors in use.
func (f *Face) Palette() Palette {
	return f.palette
}

// SetDebug toggles the state overlay.
func (f *Face) SetDebug(on bool) {
	f.debug = on
}

// Debug reports whether the overlay is drawn.
func (f *Face) Debug() bool {
	return f.debug
}

// Resize reallocates the surface to the container's bounds. Positive w and
// h override the container.
func (f *Face) Resize(w, h int) {
	if f.destroyed {
		return
	}
	if w <= 0 || h <= 0 {
		w, h = f.container.Bounds()
	}
	if cw, ch := f.surface.Size(); cw == w && ch == h {
		return
	}

	f.container.Unmount(f.surface)
	f.surface.Dispose()
	f.surface = f.renderer.NewImage(w, h)
	f.container.Mount(f.surface)
}

// Destroy unmounts and releases the surface. It is idempotent.
func (f *Face) Destroy() {
	if f.destroyed {
		return
	}
	f.destroyed = true
	f.container.Unmount(f.surface)
	f.surface.Dispose()
	f.log.Debug().Msg("face destroyed")
}

// State returns the current animation state.
func (f *Face) State() State {
	return f.state
}

// Surface returns the image the face renders into.
func (f *Face) Surface() render.Image {
	return f.surface
}

// Update advances the face by one frame. dt is ignored: this backend counts
// frames and assumes the host calls it at a steady cadence.
func (f *Face) Update(dt float64) {
	if f.destroyed {
		return
	}
	s := &f.state
	s.Frame++
	frame := float64(s.Frame)

	if s.Speaking {
		f.mouth.SetTarget(f.wave.Advance(1))
		s.HeadBob = headBobAmplitude * math.Sin(frame*headBobRate)
	} else {
		f.mouth.SetTarget(0)
		s.HeadBob = 0
		s.Breath = f.breath.Advance(1)
	}
	s.MouthOpenness = f.mouth.Step()
	s.MouthTarget = f.mouth.Target

	s.Blinking = f.blink.Advance(1)
	s.BlinkRemaining = f.blink.Remaining()

	p := emotion.Lookup(s.Emotion)
	s.HeadTilt = p.HeadTilt + p.TiltSway*math.Sin(frame*tiltSwayRate)
}
