// Package avatar owns the active avatar backend. It is the single entry point
// the host and the control server talk to.
package avatar

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"chosenoffset.com/avatarstage/internal/clock"
	"chosenoffset.com/avatarstage/internal/diag"
	"chosenoffset.com/avatarstage/internal/face2d"
	"chosenoffset.com/avatarstage/internal/metrics"
	"chosenoffset.com/avatarstage/internal/model3d"
	"chosenoffset.com/avatarstage/internal/render"
	"chosenoffset.com/avatarstage/internal/settings"
)

// Backend is what every avatar renderer implements.
type Backend interface {
	SetEmotion(label string)
	SetSpeaking(on bool)
	SpeakStart()
	SpeakStop()
	LoadQuality(tier string)
	Resize(w, h int)
	Destroy()
	Update(dt float64)
	Render()
}

// Optional backend capabilities.
type (
	colorSetter interface {
		SetColors(skinHex, hairHex string)
	}
	debugSetter interface {
		SetDebug(on bool)
	}
)

// Deps are the collaborators shared by every backend the controller builds.
type Deps struct {
	Renderer render.Renderer
	Log      zerolog.Logger
	Sink     diag.Sink
	AssetDir string
	Loader   model3d.Loader   // nil uses the asset chain over AssetDir
	Rand     *rand.Rand       // nil seeds from the wall clock
	Now      func() time.Time // nil uses time.Now
}

// Controller holds at most one active backend and its clock.
type Controller struct {
	container render.Container
	deps      Deps
	log       zerolog.Logger

	snap      settings.Snapshot
	kind      string
	backend   Backend
	clock     *clock.Clock
	emotion   string
	speaking  bool
	debug     bool
	destroyed bool
}

// New builds the backend selected by snap.Type on container.
func New(container render.Container, snap settings.Snapshot, deps Deps) (*Controller, error) {
	if container == nil {
		return nil, render.ErrContainerMissing
	}
	if deps.Sink == nil {
		deps.Sink = diag.Nop{}
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c := &Controller{
		container: container,
		deps:      deps,
		log:       deps.Log.With().Str("component", "avatar").Logger(),
		snap:      snap.Normalize(),
	}
	if err := c.SwitchBackend(c.snap.Type); err != nil {
		return nil, err
	}
	return c, nil
}

// SwitchBackend tears down the current backend and builds kind in its place.
// A 3D request on a renderer without mesh support yields the 2D face.
func (c *Controller) SwitchBackend(kind string) error {
	if c.destroyed {
		return nil
	}
	c.teardown()

	b, actual, err := c.build(kind)
	if err != nil {
		return fmt.Errorf("failed to build %s backend: %w", kind, err)
	}
	c.backend, c.kind = b, actual

	clockOpts := []clock.Option{clock.WithLabel(actual)}
	if c.deps.Now != nil {
		clockOpts = append(clockOpts, clock.WithNow(c.deps.Now))
	}
	c.clock = clock.New(b, clockOpts...)
	metrics.BackendSwitches.WithLabelValues(actual).Inc()

	if c.emotion != "" {
		b.SetEmotion(c.emotion)
	}
	b.SetSpeaking(c.speaking)
	b.LoadQuality(c.snap.Quality)

	c.log.Info().Str("requested", kind).Str("backend", actual).Msg("avatar backend active")
	return nil
}

func (c *Controller) build(kind string) (Backend, string, error) {
	if kind == settings.Type3D {
		r, err := model3d.New(c.deps.Renderer, c.container,
			model3d.WithLogger(c.deps.Log),
			model3d.WithRand(c.deps.Rand),
			model3d.WithSink(c.deps.Sink),
			model3d.WithAssetDir(c.deps.AssetDir),
			model3d.WithLoader(c.deps.Loader),
		)
		switch {
		case err == nil:
			return r, settings.Type3D, nil
		case errors.Is(err, render.ErrRenderContextUnavailable):
			c.log.Warn().Err(err).Msg("3D unavailable, falling back to 2D face")
		default:
			return nil, "", err
		}
	}

	f, err := face2d.New(c.deps.Renderer, c.container,
		face2d.WithLogger(c.deps.Log),
		face2d.WithRand(c.deps.Rand),
		face2d.WithColors(c.snap.SkinColor, c.snap.HairColor),
		face2d.WithDebug(c.debug),
	)
	if err != nil {
		return nil, "", err
	}
	return f, settings.Type2D, nil
}

func (c *Controller) teardown() {
	if c.clock != nil {
		c.clock.Destroy()
		c.clock = nil
	}
	if c.backend != nil {
		c.backend.Destroy()
		c.backend = nil
	}
}

// ApplySettings reconciles the controller with a new snapshot.
func (c *Controller) ApplySettings(snap settings.Snapshot) error {
	if c.destroyed {
		return nil
	}
	snap = snap.Normalize()
	prev := c.snap
	c.snap = snap

	if snap.Type != prev.Type {
		return c.SwitchBackend(snap.Type)
	}
	if snap.Quality != prev.Quality {
		c.backend.LoadQuality(snap.Quality)
	}
	if snap.SkinColor != prev.SkinColor || snap.HairColor != prev.HairColor {
		if cs, ok := c.backend.(colorSetter); ok {
			cs.SetColors(snap.SkinColor, snap.HairColor)
		}
	}
	return nil
}

// SetEmotion forwards label to the backend and remembers it across switches.
func (c *Controller) SetEmotion(label string) {
	if c.destroyed {
		return
	}
	c.emotion = label
	c.backend.SetEmotion(label)
}

// SetSpeaking forwards the speaking flag.
func (c *Controller) SetSpeaking(on bool) {
	if c.destroyed {
		return
	}
	c.speaking = on
	c.backend.SetSpeaking(on)
}

// SpeakStart is SetSpeaking(true).
func (c *Controller) SpeakStart() { c.SetSpeaking(true) }

// SpeakStop is SetSpeaking(false).
func (c *Controller) SpeakStop() { c.SetSpeaking(false) }

// LoadQuality records tier and forwards it.
func (c *Controller) LoadQuality(tier string) {
	if c.destroyed {
		return
	}
	c.snap.Quality = settings.Snapshot{Type: c.snap.Type, Quality: tier}.Normalize().Quality
	c.backend.LoadQuality(c.snap.Quality)
}

// Resize forwards new dimensions; non-positive values mean container bounds.
func (c *Controller) Resize(w, h int) {
	if c.destroyed {
		return
	}
	c.backend.Resize(w, h)
}

// SetDebug toggles the backend's state overlay where it has one.
func (c *Controller) SetDebug(on bool) {
	c.debug = on
	if c.destroyed {
		return
	}
	if ds, ok := c.backend.(debugSetter); ok {
		ds.SetDebug(on)
	}
}

// Frame ticks the active clock once. It reports false after Destroy.
func (c *Controller) Frame() bool {
	if c.destroyed || c.clock == nil {
		return false
	}
	return c.clock.Frame()
}

// Destroy tears everything down. Later calls on the controller do nothing.
func (c *Controller) Destroy() {
	if c.destroyed {
		return
	}
	c.teardown()
	c.destroyed = true
	c.log.Debug().Msg("avatar destroyed")
}

// Kind returns the active backend kind, which may differ from the requested
// one after a fallback.
func (c *Controller) Kind() string {
	return c.kind
}

// Backend returns the active backend, nil after Destroy.
func (c *Controller) Backend() Backend {
	return c.backend
}

// Snapshot returns the settings currently applied.
func (c *Controller) Snapshot() settings.Snapshot {
	return c.snap
}

// Speaking reports the last speaking state forwarded.
func (c *Controller) Speaking() bool {
	return c.speaking
}

// Debug reports whether the overlay is requested.
func (c *Controller) Debug() bool {
	return c.debug
}

// Destroyed reports whether Destroy has been called.
func (c *Controller) Destroyed() bool {
	return c.destroyed
}
