package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarRigHasFourLights(t *testing.T) {
	rig := NewAvatarRig()
	lights := rig.GetAllLights()
	require.Len(t, lights, 4)
	assert.Equal(t, Ambient, lights[0].Kind)

	key, ok := rig.Light("key")
	require.True(t, ok)
	assert.Equal(t, 0.8, key.Intensity)
	_, ok = rig.Light("spot")
	assert.False(t, ok)
}

func TestShadeFacingKeyIsBrighter(t *testing.T) {
	rig := NewAvatarRig()
	base := colorful.Color{R: 0.8, G: 0.8, B: 0.8}
	key, _ := rig.Light("key")

	lit := rig.Shade(base, key.Direction())
	away := rig.Shade(base, key.Direction().Mul(-1))

	assert.Greater(t, lit.R, away.R)
	assert.True(t, lit.IsValid())
	assert.True(t, away.IsValid())
}

func TestShadeZeroNormalUsesAmbientOnly(t *testing.T) {
	rig := NewAvatarRig()
	c := rig.Shade(colorful.Color{R: 1, G: 1, B: 1}, mgl32.Vec3{})
	assert.InDelta(t, 0x4a/255.0*0.4, c.R, 1e-9)
}
