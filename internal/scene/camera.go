package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera with cached matrices.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	// Projection parameters
	FOV         float32 // degrees
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	// Cached matrices
	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
	dirty            bool
}

// NewCamera creates a new camera
func NewCamera(position, target, up mgl32.Vec3, fov, aspect, near, far float32) *Camera {
	c := &Camera{
		Position:    position,
		Target:      target,
		Up:          up,
		FOV:         fov,
		AspectRatio: aspect,
		NearPlane:   near,
		FarPlane:    far,
		dirty:       true,
	}
	c.updateMatrices()
	return c
}

// NewPortraitCamera frames a standing avatar from chest height.
func NewPortraitCamera(aspect float32) *Camera {
	return NewCamera(
		mgl32.Vec3{0, 1.6, 3},
		mgl32.Vec3{0, 1.2, 0},
		mgl32.Vec3{0, 1, 0},
		45,
		aspect,
		0.1, 1000,
	)
}

// ViewMatrix returns the view matrix
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix
func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projectionMatrix
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

func (c *Camera) updateMatrices() {
	c.viewMatrix = mgl32.LookAtV(c.Position, c.Target, c.Up)
	c.projectionMatrix = mgl32.Perspective(
		mgl32.DegToRad(c.FOV),
		c.AspectRatio,
		c.NearPlane,
		c.FarPlane,
	)
	c.dirty = false
}

// SetAspectRatio updates aspect ratio. Setting the current value again does
// not invalidate the cached matrices.
func (c *Camera) SetAspectRatio(aspect float32) {
	if aspect <= 0 || aspect == c.AspectRatio {
		return
	}
	c.AspectRatio = aspect
	c.dirty = true
}

// Dirty reports whether the matrices need recomputing.
func (c *Camera) Dirty() bool {
	return c.dirty
}
