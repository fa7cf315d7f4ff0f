package avatar

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/avatarstage/internal/asset"
	"chosenoffset.com/avatarstage/internal/emotion"
	"chosenoffset.com/avatarstage/internal/face2d"
	"chosenoffset.com/avatarstage/internal/model3d"
	"chosenoffset.com/avatarstage/internal/render"
	"chosenoffset.com/avatarstage/internal/render/rendertest"
	"chosenoffset.com/avatarstage/internal/scene"
	"chosenoffset.com/avatarstage/internal/settings"
)

// tierLog records requested tiers and hands back an empty model.
type tierLog struct {
	mu    sync.Mutex
	tiers []asset.Tier
}

func (l *tierLog) Load(tier asset.Tier) *asset.Model {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tiers = append(l.tiers, tier)
	return &asset.Model{Root: scene.NewNode(string(tier)), Format: asset.FormatRich}
}

func (l *tierLog) seen() []asset.Tier {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]asset.Tier(nil), l.tiers...)
}

type fixture struct {
	rec       *rendertest.Recorder
	container *rendertest.Container
	loads     *tierLog
	now       time.Time
}

func newFixture() *fixture {
	return &fixture{
		rec:       rendertest.NewRecorder(),
		container: rendertest.NewContainer(800, 600),
		loads:     &tierLog{},
		now:       time.Unix(0, 0),
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Renderer: f.rec,
		Log:      zerolog.Nop(),
		Loader:   f.loads,
		Rand:     rand.New(rand.NewSource(1)),
		Now: func() time.Time {
			f.now = f.now.Add(time.Second / 60)
			return f.now
		},
	}
}

func (f *fixture) controller(t *testing.T, snap settings.Snapshot) *Controller {
	t.Helper()
	c, err := New(f.container, snap, f.deps())
	require.NoError(t, err)
	t.Cleanup(c.Destroy)
	return c
}

func snapshot(kind string) settings.Snapshot {
	s := settings.Default()
	s.Type = kind
	return s
}

func TestNewMissingContainer(t *testing.T) {
	_, err := New(nil, settings.Default(), newFixture().deps())
	assert.ErrorIs(t, err, render.ErrContainerMissing)
}

func TestNewSelectsBackend(t *testing.T) {
	f := newFixture()
	c := f.controller(t, snapshot(settings.Type3D))
	assert.Equal(t, settings.Type3D, c.Kind())
	assert.IsType(t, &model3d.Renderer{}, c.Backend())

	require.Eventually(t, func() bool { return len(f.loads.seen()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, asset.TierHigh, f.loads.seen()[0], "first load issued by the controller")
}

func TestFallsBackTo2DWithoutMesh(t *testing.T) {
	f := newFixture()
	f.rec.Caps.Mesh = false
	c := f.controller(t, snapshot(settings.Type3D))

	assert.Equal(t, settings.Type2D, c.Kind())
	assert.IsType(t, &face2d.Face{}, c.Backend())
	assert.Len(t, f.container.Mounted(), 1)
}

func TestSwitchTearsDownFirstAndReapplies(t *testing.T) {
	f := newFixture()
	c := f.controller(t, snapshot(settings.Type3D))
	c.SetEmotion("freude")
	c.SpeakStart()

	require.NoError(t, c.SwitchBackend(settings.Type2D))
	assert.Equal(t, 1, f.container.Unmounts())
	assert.Len(t, f.container.Mounted(), 1, "only the new surface is mounted")

	face := c.Backend().(*face2d.Face)
	assert.Equal(t, emotion.Joy, face.State().Emotion)
	assert.True(t, face.State().Speaking)

	require.NoError(t, c.SwitchBackend(settings.Type3D))
	r := c.Backend().(*model3d.Renderer)
	assert.Equal(t, emotion.Joy, r.State().Emotion)
	assert.True(t, r.State().Speaking)
}

func TestApplySettings(t *testing.T) {
	f := newFixture()
	c := f.controller(t, snapshot(settings.Type2D))
	require.IsType(t, &face2d.Face{}, c.Backend())

	next := c.Snapshot()
	next.SkinColor = "#c68642"
	require.NoError(t, c.ApplySettings(next))
	assert.Equal(t, "#c68642", c.Backend().(*face2d.Face).Palette().Skin.Hex())
	assert.Zero(t, f.container.Unmounts(), "color change does not rebuild")

	next.Type = settings.Type3D
	require.NoError(t, c.ApplySettings(next))
	assert.Equal(t, settings.Type3D, c.Kind())

	next.Quality = "low"
	require.NoError(t, c.ApplySettings(next))
	require.Eventually(t, func() bool {
		seen := f.loads.seen()
		return len(seen) > 0 && seen[len(seen)-1] == asset.TierLow
	}, time.Second, time.Millisecond)

	require.NoError(t, c.ApplySettings(next))
	assert.Equal(t, 1, f.container.Unmounts(), "identical snapshot is a no-op")
}

func TestFrameTicksActiveClock(t *testing.T) {
	f := newFixture()
	c := f.controller(t, snapshot(settings.Type2D))

	for i := 0; i < 5; i++ {
		assert.True(t, c.Frame())
	}
	assert.Equal(t, uint64(5), c.Backend().(*face2d.Face).State().Frame)
	assert.Positive(t, len(f.rec.Calls))
}

func TestDebugCarriesAcrossSwitch(t *testing.T) {
	f := newFixture()
	c := f.controller(t, snapshot(settings.Type2D))
	c.SetDebug(true)
	assert.True(t, c.Backend().(*face2d.Face).Debug())

	require.NoError(t, c.SwitchBackend(settings.Type3D))
	require.NoError(t, c.SwitchBackend(settings.Type2D))
	assert.True(t, c.Backend().(*face2d.Face).Debug())
}

func TestCallsAfterDestroyAreNoOps(t *testing.T) {
	f := newFixture()
	c := f.controller(t, snapshot(settings.Type2D))
	c.Destroy()
	c.Destroy()

	assert.True(t, c.Destroyed())
	assert.Nil(t, c.Backend())
	assert.False(t, c.Frame())
	assert.NotPanics(t, func() {
		c.SetEmotion("joy")
		c.SpeakStart()
		c.SpeakStop()
		c.LoadQuality("low")
		c.Resize(10, 10)
		c.SetDebug(true)
		assert.NoError(t, c.ApplySettings(snapshot(settings.Type3D)))
		assert.NoError(t, c.SwitchBackend(settings.Type3D))
	})
	assert.Empty(t, f.container.Mounted())
}
