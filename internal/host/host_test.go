package host

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/avatarstage/internal/asset"
	"chosenoffset.com/avatarstage/internal/avatar"
	"chosenoffset.com/avatarstage/internal/control"
	"chosenoffset.com/avatarstage/internal/emotion"
	"chosenoffset.com/avatarstage/internal/face2d"
	"chosenoffset.com/avatarstage/internal/render"
	"chosenoffset.com/avatarstage/internal/render/rendertest"
	"chosenoffset.com/avatarstage/internal/scene"
	"chosenoffset.com/avatarstage/internal/settings"
)

// keys reports the same pressed set on every tick until press is called again.
type keys struct {
	pressed map[render.Key]bool
}

func (k *keys) press(ks ...render.Key) {
	k.pressed = map[render.Key]bool{}
	for _, key := range ks {
		k.pressed[key] = true
	}
}

func (k *keys) IsKeyPressed(key render.Key) bool { return k.pressed[key] }
func (k *keys) IsKeyJustPressed(key render.Key) bool { return k.pressed[key] }

type staticLoader struct{}

func (staticLoader) Load(t asset.Tier) *asset.Model {
	return &asset.Model{Root: scene.NewNode(string(t)), Format: asset.FormatStatic}
}

func newStage(t *testing.T, kind string, opts ...StageOption) (*Stage, *avatar.Controller, *Window) {
	t.Helper()
	win := NewWindow(640, 480)
	snap := settings.Default()
	snap.Type = kind
	ctrl, err := avatar.New(win, snap, avatar.Deps{
		Renderer: rendertest.NewRecorder(),
		Log:      zerolog.Nop(),
		Loader:   staticLoader{},
		Rand:     rand.New(rand.NewSource(7)),
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Destroy)
	return NewStage(win, ctrl, opts...), ctrl, win
}

func TestWindowMountComposite(t *testing.T) {
	win := NewWindow(10, 10)
	a, b := &rendertest.Image{W: 1, H: 1}, &rendertest.Image{W: 2, H: 2}
	win.Mount(a)
	win.Mount(a)
	win.Mount(b)
	assert.Len(t, win.Mounted(), 2)

	screen := &rendertest.Image{W: 10, H: 10}
	win.Composite(screen)
	assert.Equal(t, 2, screen.Draws)

	win.Unmount(a)
	assert.Equal(t, []render.Image{b}, win.Mounted())

	assert.False(t, win.SetBounds(10, 10))
	assert.True(t, win.SetBounds(20, 10))
	w, h := win.Bounds()
	assert.Equal(t, [2]int{20, 10}, [2]int{w, h})
}

func TestKeyboardShortcuts(t *testing.T) {
	in := &keys{}
	stage, ctrl, _ := newStage(t, settings.Type2D, WithInput(in))
	face := func() *face2d.Face { return ctrl.Backend().(*face2d.Face) }

	in.press(render.Key2)
	require.NoError(t, stage.Update())
	assert.Equal(t, emotion.Joy, face().State().Emotion)

	in.press(render.KeySpace)
	require.NoError(t, stage.Update())
	assert.True(t, face().State().Speaking)
	require.NoError(t, stage.Update())
	assert.False(t, face().State().Speaking)

	in.press(render.KeyD)
	require.NoError(t, stage.Update())
	assert.True(t, face().Debug())

	in.press(render.KeyQ)
	require.NoError(t, stage.Update())
	assert.Equal(t, "low", ctrl.Snapshot().Quality, "high cycles back to low")

	in.press(render.KeyT)
	require.NoError(t, stage.Update())
	assert.Equal(t, settings.Type3D, ctrl.Kind())
	require.NoError(t, stage.Update())
	assert.Equal(t, settings.Type2D, ctrl.Kind())

	in.press(render.KeyEscape)
	assert.ErrorIs(t, stage.Update(), render.ErrTerminated)
}

func TestNextTier(t *testing.T) {
	assert.Equal(t, asset.TierMedium, nextTier(asset.TierLow))
	assert.Equal(t, asset.TierHigh, nextTier(asset.TierMedium))
	assert.Equal(t, asset.TierLow, nextTier(asset.TierHigh))
}

func TestUpdateDrainsCommands(t *testing.T) {
	disp := control.NewDispatcher(zerolog.Nop())
	now := time.Unix(50, 0)
	stage, ctrl, _ := newStage(t, settings.Type2D,
		WithDispatcher(disp),
		WithNow(func() time.Time { return now }),
	)

	require.NoError(t, disp.Post(control.Command{Op: control.OpSpeak, Text: "hello world", Emotion: "sad"}))
	require.NoError(t, stage.Update())
	face := ctrl.Backend().(*face2d.Face)
	assert.True(t, face.State().Speaking)
	assert.Equal(t, emotion.Sad, face.State().Emotion)

	now = now.Add(time.Second)
	require.NoError(t, stage.Update())
	assert.False(t, face.State().Speaking)
	assert.Equal(t, emotion.Normal, face.State().Emotion)
}

func TestPostSettingsAppliedOnTick(t *testing.T) {
	stage, ctrl, _ := newStage(t, settings.Type2D)

	next := ctrl.Snapshot()
	next.Type = settings.Type3D
	stage.PostSettings(next)
	assert.Equal(t, settings.Type2D, ctrl.Kind(), "nothing happens until the tick")

	require.NoError(t, stage.Update())
	assert.Equal(t, settings.Type3D, ctrl.Kind())
}

func TestDrawAndLayout(t *testing.T) {
	stage, ctrl, win := newStage(t, settings.Type2D)

	screen := &rendertest.Image{W: 640, H: 480}
	stage.Draw(screen)
	assert.Equal(t, 1, screen.Draws)

	w, h := stage.Layout(320, 200)
	assert.Equal(t, [2]int{320, 200}, [2]int{w, h})
	sw, sh := ctrl.Backend().(*face2d.Face).Surface().Size()
	assert.Equal(t, [2]int{320, 200}, [2]int{sw, sh})
	assert.Len(t, win.Mounted(), 1)

	ctrl.Destroy()
	assert.ErrorIs(t, stage.Update(), render.ErrTerminated)
	stage.Draw(screen)
	assert.Equal(t, 1, screen.Draws, "nothing drawn after destroy")
}
