package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/avatarstage/internal/render/rendertest"
)

func quadMesh() *Mesh {
	return &Mesh{
		Name:      "quad",
		Positions: []mgl32.Vec3{{-0.5, 1, 0}, {0.5, 1, 0}, {0.5, 1.5, 0}, {-0.5, 1.5, 0}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
		Color:     colorful.Color{R: 1, G: 1, B: 1},
		Morphs: []MorphTarget{
			{Name: "smile", Deltas: []mgl32.Vec3{{0, 0.1, 0}, {0, 0.1, 0}, {0, 0, 0}, {0, 0, 0}}},
		},
	}
}

func TestDeformed(t *testing.T) {
	m := quadMesh()
	assert.Equal(t, m.Positions, m.Deformed(nil))
	assert.Equal(t, m.Positions, m.Deformed([]float32{0}))

	out := m.Deformed([]float32{1})
	assert.InDelta(t, 1.1, out[0].Y(), 1e-6)
	assert.InDelta(t, 1.0, m.Positions[0].Y(), 1e-6, "base positions untouched")
	assert.Equal(t, m.Positions, m.Deformed([]float32{0, 5}), "out-of-range channel ignored")
}

func TestFind(t *testing.T) {
	root := NewNode("root").Add(
		NewNode("Body").Add(NewNode("Head").Add(NewNode("eye_left"))),
	)
	assert.NotNil(t, root.Find("head"))
	assert.Equal(t, "eye_left", root.Find("EYE_LEFT").Name)
	assert.Nil(t, root.Find("jaw"))
	assert.Equal(t, "Body", root.FindAny("torso", "body").Name)
}

func TestWalkComposesTransforms(t *testing.T) {
	root := NewNode("root")
	root.Translation = mgl32.Vec3{1, 0, 0}
	child := NewNode("child")
	child.Translation = mgl32.Vec3{0, 2, 0}
	root.Add(child)

	var got mgl32.Vec3
	root.Walk(mgl32.Ident4(), func(n *Node, world mgl32.Mat4) {
		if n == child {
			got = world.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
		}
	})
	assert.InDelta(t, 1, got.X(), 1e-6)
	assert.InDelta(t, 2, got.Y(), 1e-6)
}

func TestCameraAspectIdempotent(t *testing.T) {
	c := NewPortraitCamera(4.0 / 3)
	before := c.ProjectionMatrix()
	c.SetAspectRatio(4.0 / 3)
	assert.False(t, c.Dirty())
	assert.Equal(t, before, c.ProjectionMatrix())

	c.SetAspectRatio(16.0 / 9)
	assert.True(t, c.Dirty())
	assert.NotEqual(t, before, c.ProjectionMatrix())
	assert.False(t, c.Dirty())
}

func TestClipSampling(t *testing.T) {
	n := NewNode("torso")
	clip := &Clip{
		Name:     "idle",
		Duration: 2,
		Channels: []Channel{{
			Node:   n,
			Path:   PathTranslation,
			Times:  []float32{0, 2},
			Values: []mgl32.Vec4{{0, 0, 0, 0}, {0, 2, 0, 0}},
		}},
	}
	p := &Player{Clip: clip}
	p.Advance(0.5)
	assert.InDelta(t, 0.5, n.Translation.Y(), 1e-5)
	p.Advance(2)
	assert.InDelta(t, 0.5, p.Time(), 1e-5, "playhead wraps")

	var nilPlayer *Player
	assert.NotPanics(t, func() { nilPlayer.Advance(1) })
}

func TestDrawSortsAndBatches(t *testing.T) {
	s := New(4.0 / 3)
	near := NewNode("near")
	near.Mesh = quadMesh()
	near.Translation = mgl32.Vec3{0, 0, 1}
	far := NewNode("far")
	far.Mesh = quadMesh()
	far.Mesh.Color = colorful.Color{R: 1}
	s.Root = NewNode("root").Add(near, far)

	rec := rendertest.NewRecorder()
	dst := rec.NewImage(800, 600)
	drawn := s.Draw(rec, dst)

	require.Equal(t, 4, drawn)
	require.Len(t, rec.Calls, 1)
	assert.Equal(t, 4, rec.Calls[0].Triangles)
	assert.Equal(t, 1, dst.(*rendertest.Image).Fills, "background fill")
}

func TestDrawEmptyScene(t *testing.T) {
	s := New(1)
	rec := rendertest.NewRecorder()
	assert.Zero(t, s.Draw(rec, rec.NewImage(10, 10)))
	assert.Empty(t, rec.Calls)
}

func TestTriangles(t *testing.T) {
	root := NewNode("root")
	root.Mesh = quadMesh()
	assert.Equal(t, 2, root.Triangles())
	assert.Len(t, root.Meshes(), 1)
}
