package model3d

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/avatarstage/internal/anim"
	"chosenoffset.com/avatarstage/internal/asset"
	"chosenoffset.com/avatarstage/internal/diag"
	"chosenoffset.com/avatarstage/internal/placeholders"
	"chosenoffset.com/avatarstage/internal/render"
	"chosenoffset.com/avatarstage/internal/render/rendertest"
	"chosenoffset.com/avatarstage/internal/scene"
)

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewSource(7))), WithLogger(zerolog.Nop())}, opts...)
	r, err := New(rendertest.NewRecorder(), rendertest.NewContainer(800, 600), opts...)
	require.NoError(t, err)
	t.Cleanup(r.Destroy)
	return r
}

// settle pumps Update until no load is pending.
func settle(t *testing.T, r *Renderer) {
	t.Helper()
	require.Eventually(t, func() bool {
		r.Update(0)
		return !r.State().Pending
	}, 2*time.Second, time.Millisecond)
}

type gatedLoader struct {
	gates map[asset.Tier]chan struct{}
}

func newGatedLoader() *gatedLoader {
	g := &gatedLoader{gates: map[asset.Tier]chan struct{}{}}
	for _, tier := range asset.Tiers() {
		g.gates[tier] = make(chan struct{})
	}
	return g
}

func (g *gatedLoader) Load(tier asset.Tier) *asset.Model {
	<-g.gates[tier]
	return &asset.Model{Root: scene.NewNode(string(tier)), Format: asset.FormatRich}
}

type fixedLoader struct{ model *asset.Model }

func (f fixedLoader) Load(asset.Tier) *asset.Model { return f.model }

func TestNewErrors(t *testing.T) {
	_, err := New(rendertest.NewRecorder(), nil)
	assert.ErrorIs(t, err, ErrContainerMissing)

	flat := rendertest.NewRecorder()
	flat.Caps.Mesh = false
	_, err = New(flat, rendertest.NewContainer(10, 10))
	assert.ErrorIs(t, err, render.ErrRenderContextUnavailable)
}

func TestStartsWithPrimitive(t *testing.T) {
	rec := rendertest.NewRecorder()
	container := rendertest.NewContainer(800, 600)
	r, err := New(rec, container, WithLoader(newGatedLoader()))
	require.NoError(t, err)
	defer r.Destroy()

	assert.Equal(t, asset.FormatPrimitive, r.Model().Format)
	assert.Len(t, container.Mounted(), 1)
	assert.False(t, r.State().Pending)

	r.Render()
	assert.Positive(t, rec.Triangles())
}

func TestLastLoadWins(t *testing.T) {
	tests := []struct {
		name  string
		first asset.Tier
	}{
		{"newer resolves first", asset.TierHigh},
		{"older resolves first", asset.TierLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGatedLoader()
			r := newTestRenderer(t, WithLoader(g))

			r.LoadQuality("low")
			r.LoadQuality("high")
			assert.True(t, r.State().Pending)

			close(g.gates[tt.first])
			if tt.first == asset.TierLow {
				require.Eventually(t, func() bool {
					r.Update(0)
					return r.StaleLoads() == 1
				}, 2*time.Second, time.Millisecond)
				assert.Equal(t, asset.FormatPrimitive, r.Model().Format, "stale result not committed")
				close(g.gates[asset.TierHigh])
				settle(t, r)
			} else {
				settle(t, r)
				close(g.gates[asset.TierLow])
				require.Eventually(t, func() bool {
					r.Update(0)
					return r.StaleLoads() == 1
				}, 2*time.Second, time.Millisecond)
			}

			assert.Equal(t, "high", r.Model().Root.Name)
			assert.Equal(t, asset.TierHigh, r.State().Tier)
		})
	}
}

func failing(string) (*asset.Model, error) { return nil, errors.New("unreadable") }

func TestBothFormatsFail(t *testing.T) {
	sink := &diag.Memory{}
	chain := asset.NewChain(asset.NewCatalog(t.TempDir()), sink, zerolog.Nop(),
		asset.WithRichLoader(failing), asset.WithStaticLoader(failing))
	r := newTestRenderer(t, WithLoader(chain))

	r.LoadQuality("medium")
	settle(t, r)

	assert.Equal(t, asset.FormatPrimitive, r.Model().Format)
	assert.NotNil(t, r.Model().Root.Find(placeholders.NodeHead))
	assert.Equal(t, 1, sink.Count(asset.MsgRichFailed))
	assert.Equal(t, 1, sink.Count(asset.MsgStaticFailed))
}

func TestRichFailsStaticCommits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, placeholders.SaveOBJ(filepath.Join(dir, "model_high.obj"), placeholders.Avatar(placeholders.TierDetail["low"])))

	sink := &diag.Memory{}
	r := newTestRenderer(t, WithSink(sink), WithAssetDir(dir))
	r.LoadQuality("high")
	settle(t, r)

	assert.Equal(t, asset.FormatStatic, r.Model().Format)
	assert.Equal(t, 1, sink.Count(asset.MsgRichFailed))
	assert.Zero(t, sink.Count(asset.MsgStaticFailed))
	assert.Len(t, sink.Records(), 1)
}

func morphModel() *asset.Model {
	face := scene.NewNode("face")
	face.Mesh = &scene.Mesh{
		Positions: []mgl32.Vec3{{0, 1, 0}, {1, 1, 0}, {0, 2, 0}},
		Indices:   []uint32{0, 1, 2},
		Morphs:    []scene.MorphTarget{{Name: "Smile"}, {Name: "frown"}, {Name: "blink"}, {Name: "mad"}},
	}
	return &asset.Model{Root: scene.NewNode("rig").Add(face), Format: asset.FormatRich}
}

func TestMorphActivationIsExclusive(t *testing.T) {
	m := morphModel()
	r := newTestRenderer(t, WithLoader(fixedLoader{m}))
	r.LoadQuality("high")
	settle(t, r)
	require.False(t, r.Binding().Empty())

	face := m.Root.Find("face")
	tests := []struct {
		label string
		want  []float32
	}{
		{"joy", []float32{1, 0, 0, 0}},
		{"sad", []float32{0, 1, 0, 0}},
		{"wütend", []float32{0, 0, 0, 1}},
		{"surprised", []float32{0, 0, 0, 0}},
		{"normal", []float32{0, 0, 0, 0}},
		{"not-a-real-emotion", []float32{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			r.SetEmotion("joy")
			r.SetEmotion(tt.label)
			assert.Equal(t, tt.want, face.Influences)
		})
	}
}

func TestEmotionReappliedOnCommit(t *testing.T) {
	m := morphModel()
	r := newTestRenderer(t, WithLoader(fixedLoader{m}))
	r.SetEmotion("happy")
	r.LoadQuality("low")
	settle(t, r)
	assert.Equal(t, []float32{1, 0, 0, 0}, m.Root.Find("face").Influences)
}

func TestEyeFallback(t *testing.T) {
	r := newTestRenderer(t, WithLoader(newGatedLoader()))
	require.True(t, r.Binding().Empty())
	left := r.Model().Root.Find(placeholders.NodeEyeLeft)
	right := r.Model().Root.Find(placeholders.NodeEyeRight)
	restY := left.Translation.Y()

	r.SetEmotion("surprised")
	assert.InDelta(t, 1.5, left.Scale.X(), 1e-6)

	r.SetEmotion("traurig")
	assert.InDelta(t, restY-0.02, left.Translation.Y(), 1e-6)
	assert.InDelta(t, 1, left.Scale.X(), 1e-6)

	r.SetEmotion("angry")
	assert.NotEqual(t, left.Rotation, right.Rotation, "roll is mirrored")

	r.SetEmotion("normal")
	assert.Equal(t, mgl32.QuatIdent(), left.Rotation)
	assert.InDelta(t, restY, left.Translation.Y(), 1e-6)
}

func TestSpeakingAnimatesMouth(t *testing.T) {
	r := newTestRenderer(t, WithLoader(newGatedLoader()))
	mouth := r.Model().Root.Find(placeholders.NodeMouth)
	root := r.Model().Root

	r.SpeakStart()
	var maxScale float32
	for i := 0; i < 120; i++ {
		r.Update(1.0 / 60)
		open := r.State().MouthOpenness
		require.GreaterOrEqual(t, open, 0.0)
		require.LessOrEqual(t, open, 1.0)
		maxScale = max(maxScale, mouth.Scale.Y())
		assert.GreaterOrEqual(t, mouth.Scale.Y(), float32(mouthMinScale))
	}
	assert.Greater(t, maxScale, float32(0.3))

	r.SpeakStop()
	assert.InDelta(t, 0.3, mouth.Scale.Y(), 1e-6)
	assert.Equal(t, mgl32.Vec3{}, root.Translation)

	for i := 0; i < 120; i++ {
		r.Update(1.0 / 60)
	}
	assert.Less(t, r.State().MouthOpenness, 0.01)
}

func TestIdleBreathing(t *testing.T) {
	r := newTestRenderer(t, WithLoader(newGatedLoader()))
	body := r.Model().Root.Find(placeholders.NodeBody)

	r.Update(1)
	want := 1 + breathAmplitude*math.Sin(breathRate)
	assert.InDelta(t, want, body.Scale.Y(), 1e-5)
	assert.InDelta(t, 1, body.Scale.X(), 1e-6)
}

func TestBlinkSquashesEyes(t *testing.T) {
	r := newTestRenderer(t, WithLoader(newGatedLoader()))
	left := r.Model().Root.Find(placeholders.NodeEyeLeft)

	sawBlink := false
	for i := 0; i < 600; i++ {
		r.Update(0.02)
		if r.State().Blinking {
			sawBlink = true
			assert.InDelta(t, blinkScaleY, left.Scale.Y(), 1e-6)
		} else {
			assert.InDelta(t, 1, left.Scale.Y(), 1e-6)
		}
	}
	assert.True(t, sawBlink, "a blink within 12 s")
}

func TestResize(t *testing.T) {
	rec := rendertest.NewRecorder()
	container := rendertest.NewContainer(800, 600)
	r, err := New(rec, container, WithLoader(newGatedLoader()))
	require.NoError(t, err)
	defer r.Destroy()

	before := r.Scene().Camera.ProjectionMatrix()
	r.Resize(0, 0)
	assert.Equal(t, before, r.Scene().Camera.ProjectionMatrix())
	assert.Zero(t, container.Unmounts())

	container.SetBounds(600, 600)
	r.Resize(0, 0)
	assert.NotEqual(t, before, r.Scene().Camera.ProjectionMatrix())
	w, h := r.Surface().Size()
	assert.Equal(t, []int{600, 600}, []int{w, h})
}

func TestDestroy(t *testing.T) {
	container := rendertest.NewContainer(100, 100)
	r, err := New(rendertest.NewRecorder(), container, WithLoader(newGatedLoader()))
	require.NoError(t, err)

	surface := r.Surface()
	r.Destroy()
	r.Destroy()
	assert.True(t, surface.(*rendertest.Image).Disposed)
	assert.Equal(t, 1, container.Unmounts())

	assert.NotPanics(t, func() {
		r.LoadQuality("low")
		r.Update(0.1)
		r.Render()
	})
	assert.False(t, r.State().Pending)
}

func TestWaveformIsWallClock(t *testing.T) {
	r := newTestRenderer(t, WithLoader(newGatedLoader()))
	r.SpeakStart()
	r.Update(0.5)
	want := anim.SpeechBias + anim.SpeechAmplitude*math.Sin(-math.Pi/2+anim.SpeechRateSec*0.5)
	assert.InDelta(t, want, r.mouth.Target, 1e-9)
}
