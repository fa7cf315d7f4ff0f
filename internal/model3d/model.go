// Package model3d is the 3D avatar: a loaded model in a small scene, posed on
// wall-clock time and drawn by the software rasterizer in internal/scene.
package model3d

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"chosenoffset.com/avatarstage/internal/anim"
	"chosenoffset.com/avatarstage/internal/asset"
	"chosenoffset.com/avatarstage/internal/diag"
	"chosenoffset.com/avatarstage/internal/emotion"
	"chosenoffset.com/avatarstage/internal/metrics"
	"chosenoffset.com/avatarstage/internal/placeholders"
	"chosenoffset.com/avatarstage/internal/render"
	"chosenoffset.com/avatarstage/internal/scene"
)

// ErrContainerMissing is returned by New without a container.
var ErrContainerMissing = render.ErrContainerMissing

// Wall-clock constants.
const (
	headBobAmplitude = 0.02
	headBobRate      = 10.0 // radians per second
	breathAmplitude  = 0.05
	breathRate       = 1.5 // radians per second
	blinkScaleY      = 0.1
	jawSwing         = 0.2 // radians at full waveform deflection
	mouthSwing       = 0.2 // scale y at full waveform deflection
	mouthMinScale    = 0.1
)

// Loader resolves a quality tier to a model. Load must not fail; it is called
// off the frame thread.
type Loader interface {
	Load(tier asset.Tier) *asset.Model
}

type loadResult struct {
	token uint64
	tier  asset.Tier
	model *asset.Model
}

// pose is a node's transform at commit time.
type pose struct {
	t mgl32.Vec3
	r mgl32.Quat
	s mgl32.Vec3
}

// part is a named node the renderer drives directly.
type part struct {
	node *scene.Node
	rest pose
}

func newPart(n *scene.Node) *part {
	if n == nil {
		return nil
	}
	return &part{node: n, rest: pose{t: n.Translation, r: n.Rotation, s: n.Scale}}
}

// State is a snapshot of the 3D avatar.
type State struct {
	Emotion       emotion.Emotion
	Speaking      bool
	MouthOpenness float64
	Blinking      bool
	Tier          asset.Tier
	Format        asset.Format
	Pending       bool
	Elapsed       float64
}

// Renderer is the 3D backend.
type Renderer struct {
	renderer  render.Renderer
	container render.Container
	surface   render.Image
	scene     *scene.Scene
	loader    Loader
	sink      diag.Sink
	assetDir  string
	log       zerolog.Logger
	rng       *rand.Rand

	emotion  emotion.Emotion
	speaking bool
	mouth    anim.Smoother
	wave     anim.Waveform
	blink    *anim.Blinker
	blinking bool
	breath   anim.Breath
	elapsed  float64

	model   *asset.Model
	binding Binding
	players []*scene.Player
	root    *part
	jaw     *part
	lips    *part
	body    *part
	eyes    [2]*part

	token     uint64
	committed uint64
	tier      asset.Tier
	results   chan loadResult
	done      chan struct{}
	stale     int
	destroyed bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Renderer) {
		r.log = log.With().Str("component", "model3d").Logger()
	}
}

// WithRand sets the blink randomness source.
func WithRand(rng *rand.Rand) Option {
	return func(r *Renderer) { r.rng = rng }
}

// WithLoader replaces the asset chain.
func WithLoader(l Loader) Option {
	return func(r *Renderer) { r.loader = l }
}

// WithSink sets where the default asset chain reports failed stages.
func WithSink(s diag.Sink) Option {
	return func(r *Renderer) { r.sink = s }
}

// WithAssetDir sets the directory the default asset chain reads.
func WithAssetDir(dir string) Option {
	return func(r *Renderer) { r.assetDir = dir }
}

// New creates the 3D avatar with the primitive model already in place. No
// load is started; call LoadQuality for that.
func New(rr render.Renderer, container render.Container, opts ...Option) (*Renderer, error) {
	if container == nil {
		return nil, ErrContainerMissing
	}
	if rr == nil || !rr.Capabilities().Mesh {
		return nil, fmt.Errorf("model3d: triangle meshes unsupported: %w", render.ErrRenderContextUnavailable)
	}

	r := &Renderer{
		renderer:  rr,
		container: container,
		log:       zerolog.Nop(),
		sink:      diag.Nop{},
		mouth:     anim.NewSmoother(anim.DefaultK),
		wave:      anim.NewSpeechWave(anim.SpeechRateSec),
		breath:    anim.Breath{Amplitude: breathAmplitude, Rate: breathRate},
		tier:      asset.TierHigh,
		results:   make(chan loadResult, 8),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r.blink = anim.ClockBlinker(r.rng)
	if r.loader == nil {
		r.loader = asset.NewChain(asset.NewCatalog(r.assetDir), r.sink, r.log)
	}

	w, h := container.Bounds()
	r.scene = scene.New(aspect(w, h))
	r.surface = rr.NewImage(w, h)
	container.Mount(r.surface)

	r.attach(&asset.Model{
		Root:   placeholders.Avatar(placeholders.DefaultDetail),
		Format: asset.FormatPrimitive,
	})

	r.log.Debug().Int("width", w).Int("height", h).Msg("scene initialized")
	return r, nil
}

func aspect(w, h int) float32 {
	if w <= 0 || h <= 0 {
		return 1
	}
	return float32(w) / float32(h)
}

// SetEmotion activates the morph channel bound to label, or poses the eyes
// when the model has no bound channels. Unknown labels mean normal.
func (r *Renderer) SetEmotion(label string) {
	r.emotion = emotion.Parse(label)
	if !r.binding.Empty() {
		r.binding.Apply(r.emotion)
	}
	r.applyEyes()
}

// SetSpeaking toggles the jaw and mouth animation.
func (r *Renderer) SetSpeaking(on bool) {
	if on && !r.speaking {
		r.wave.Restart()
	}
	r.speaking = on
	if !on {
		r.applySpeech(0)
	}
}

// SpeakStart is SetSpeaking(true).
func (r *Renderer) SpeakStart() { r.SetSpeaking(true) }

// SpeakStop is SetSpeaking(false).
func (r *Renderer) SpeakStop() { r.SetSpeaking(false) }

// LoadQuality starts loading the model for label in the background. Only
// the most recent request is ever committed.
func (r *Renderer) LoadQuality(label string) {
	if r.destroyed {
		return
	}
	tier := asset.ParseTier(label)
	r.token++
	r.tier = tier
	token := r.token
	loader, results, done := r.loader, r.results, r.done

	r.log.Debug().Str("tier", string(tier)).Uint64("token", token).Msg("model load requested")
	go func() {
		m := loader.Load(tier)
		select {
		case results <- loadResult{token: token, tier: tier, model: m}:
		case <-done:
		}
	}()
}

// drain commits finished loads. It runs on the frame thread.
func (r *Renderer) drain() {
	for {
		select {
		case res := <-r.results:
			r.commit(res)
		default:
			return
		}
	}
}

func (r *Renderer) commit(res loadResult) {
	if res.token != r.token {
		r.stale++
		metrics.StaleLoads.Inc()
		r.log.Debug().Uint64("token", res.token).Uint64("current", r.token).Msg("discarding stale model load")
		return
	}
	r.committed = res.token
	if res.model == nil || res.model.Root == nil {
		r.log.Warn().Str("tier", string(res.tier)).Msg("loader returned no model, keeping current")
		return
	}
	r.attach(res.model)
	r.log.Info().
		Str("tier", string(res.tier)).
		Str("format", string(res.model.Format)).
		Int("triangles", res.model.Root.Triangles()).
		Msg("model committed")
}

// attach replaces the scene's model and rebinds everything derived from it.
func (r *Renderer) attach(m *asset.Model) {
	r.model = m
	r.scene.Root = m.Root
	r.binding = Bind(m.Root)

	r.root = newPart(m.Root)
	r.jaw = newPart(m.Root.FindAny("jaw"))
	r.lips = newPart(m.Root.FindAny("mouth"))
	r.body = newPart(m.Root.FindAny("torso", "body"))
	r.eyes = [2]*part{
		newPart(m.Root.FindAny("eye_left", "left_eye", "lefteye")),
		newPart(m.Root.FindAny("eye_right", "right_eye", "righteye")),
	}

	r.players = r.players[:0]
	for _, c := range m.IdleClips() {
		r.players = append(r.players, &scene.Player{Clip: c})
	}

	if !r.binding.Empty() {
		r.binding.Apply(r.emotion)
	}
	r.applyEyes()
	if !r.speaking {
		r.applySpeech(0)
	}
}

// Resize matches the camera and surface to the container, or to w and h
// when both are positive.
func (r *Renderer) Resize(w, h int) {
	if r.destroyed {
		return
	}
	if w <= 0 || h <= 0 {
		w, h = r.container.Bounds()
	}
	r.scene.Camera.SetAspectRatio(aspect(w, h))
	if cw, ch := r.surface.Size(); cw == w && ch == h {
		return
	}

	r.container.Unmount(r.surface)
	r.surface.Dispose()
	r.surface = r.renderer.NewImage(w, h)
	r.container.Mount(r.surface)
}

// Destroy releases the surface and abandons in-flight loads. It is
// idempotent.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	close(r.done)
	r.container.Unmount(r.surface)
	r.surface.Dispose()
	r.log.Debug().Msg("scene destroyed")
}

// Update advances the avatar by dt seconds.
func (r *Renderer) Update(dt float64) {
	if r.destroyed {
		return
	}
	r.drain()
	r.elapsed += dt

	for _, p := range r.players {
		p.Advance(dt)
	}

	if r.speaking {
		r.mouth.SetTarget(r.wave.Advance(dt))
	} else {
		r.mouth.SetTarget(0)
	}
	open := r.mouth.StepDT(dt)
	if r.speaking {
		r.applySpeech(open)
	}

	breath := r.breath.Advance(dt)
	if !r.speaking && r.body != nil {
		s := r.body.rest.s
		r.body.node.Scale = mgl32.Vec3{s.X(), s.Y() * float32(1+breath), s.Z()}
	}

	r.blinking = r.blink.Advance(dt)
	r.applyEyes()
}

// applySpeech poses the root, jaw and mouth for openness. It restores their
// rest transforms while idle.
func (r *Renderer) applySpeech(open float64) {
	if !r.speaking {
		for _, p := range []*part{r.root, r.jaw, r.lips} {
			if p != nil {
				p.node.Translation, p.node.Rotation, p.node.Scale = p.rest.t, p.rest.r, p.rest.s
			}
		}
		return
	}

	dev := float32((open - anim.SpeechBias) / anim.SpeechAmplitude)
	if r.root != nil {
		bob := float32(headBobAmplitude * math.Sin(r.elapsed*headBobRate))
		r.root.node.Translation = r.root.rest.t.Add(mgl32.Vec3{0, bob, 0})
	}
	if r.jaw != nil {
		r.jaw.node.Rotation = r.jaw.rest.r.Mul(mgl32.QuatRotate(jawSwing*dev, mgl32.Vec3{1, 0, 0}))
	}
	if r.lips != nil {
		s := r.lips.rest.s
		r.lips.node.Scale = mgl32.Vec3{s.X(), max(mouthMinScale, s.Y()+mouthSwing*dev), s.Z()}
	}
}

// applyEyes poses the eyes for the emotion when no morph channels are bound
// and squashes them during a blink.
func (r *Renderer) applyEyes() {
	p := emotion.Lookup(emotion.Normal).Eye
	if r.binding.Empty() {
		p = emotion.Lookup(r.emotion).Eye
	}
	for i, eye := range r.eyes {
		if eye == nil {
			continue
		}
		roll := p.Roll
		if i == 1 {
			roll = -roll
		}
		rest := eye.rest
		eye.node.Translation = rest.t.Sub(mgl32.Vec3{0, p.Drop, 0})
		eye.node.Rotation = rest.r.Mul(mgl32.QuatRotate(roll, mgl32.Vec3{0, 0, 1}))
		eye.node.Scale = mgl32.Vec3{rest.s.X() * p.Scale.X(), rest.s.Y() * p.Scale.Y(), rest.s.Z() * p.Scale.Z()}
		if r.blinking {
			eye.node.Scale[1] = rest.s.Y() * blinkScaleY
		}
	}
}

// Render draws the scene into the surface.
func (r *Renderer) Render() {
	if r.destroyed {
		return
	}
	r.scene.Draw(r.renderer, r.surface)
}

// State returns the current animation state.
func (r *Renderer) State() State {
	s := State{
		Emotion:       r.emotion,
		Speaking:      r.speaking,
		MouthOpenness: r.mouth.Value,
		Blinking:      r.blinking,
		Tier:          r.tier,
		Pending:       r.committed != r.token,
		Elapsed:       r.elapsed,
	}
	if r.model != nil {
		s.Format = r.model.Format
	}
	return s
}

// Model returns the committed model.
func (r *Renderer) Model() *asset.Model {
	return r.model
}

// Binding returns the morph binding of the committed model.
func (r *Renderer) Binding() Binding {
	return r.binding
}

// Scene returns the scene being drawn.
func (r *Renderer) Scene() *scene.Scene {
	return r.scene
}

// Surface returns the image the scene renders into.
func (r *Renderer) Surface() render.Image {
	return r.surface
}

// StaleLoads returns how many load results were discarded.
func (r *Renderer) StaleLoads() int {
	return r.stale
}
