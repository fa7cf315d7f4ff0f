package render

import (
	"errors"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrContainerMissing is returned when a backend is constructed without
	// a container to mount its surface on.
	ErrContainerMissing = errors.New("render: container missing")

	// ErrRenderContextUnavailable is returned by backends that need a
	// capability the active renderer lacks.
	ErrRenderContextUnavailable = errors.New("render: render context unavailable")

	// ErrTerminated is returned from Game.Update to end the loop cleanly.
	ErrTerminated = errors.New("render: terminated")
)

// Capabilities describes optional renderer features.
type Capabilities struct {
	// Mesh is true when the renderer can take the large shaded triangle
	// batches the 3D model backend produces.
	Mesh bool
}

// Renderer is the main rendering interface that abstracts the underlying
// graphics engine. The avatar backends only ever talk to this interface, so
// the same face can be drawn into a window or into a headless raster.
type Renderer interface {
	// Image operations
	NewImage(width, height int) Image

	// Vector operations (for drawing shapes)
	FillCircle(dst Image, x, y, radius float32, clr color.Color)
	FillTriangles(dst Image, vertices []Vertex, indices []uint16)

	// Text operations
	DrawText(dst Image, text string, x, y int, clr color.Color, scale float64)
	MeasureText(text string, scale float64) (width, height int)

	Capabilities() Capabilities
}

// Image represents a renderable image surface that can be drawn to or drawn from.
// It abstracts the underlying image implementation.
type Image interface {
	// Properties
	Bounds() image.Rectangle
	Size() (width, height int)

	// Fill operations
	Fill(clr color.Color)
	Clear()

	// Drawing operations
	DrawImage(src Image, opts *DrawImageOptions)

	// Resource management
	Dispose()
}

// DrawImageOptions contains options for drawing an image.
type DrawImageOptions struct {
	// GeoM maps source pixels to destination pixels. The zero matrix is
	// treated as identity.
	GeoM mgl64.Mat3
}

// Translate returns options that place the source at (x, y).
func Translate(x, y float64) *DrawImageOptions {
	return &DrawImageOptions{GeoM: mgl64.Translate2D(x, y)}
}

// Matrix returns the effective transform, substituting identity for zero.
func (o *DrawImageOptions) Matrix() mgl64.Mat3 {
	if o == nil || o.GeoM == (mgl64.Mat3{}) {
		return mgl64.Ident3()
	}
	return o.GeoM
}

// Vertex represents a vertex for triangle rendering. Colors are
// premultiplied and in [0,1]; the source is always a white texel, so the
// vertex color is the pixel color.
type Vertex struct {
	DstX   float32
	DstY   float32
	SrcX   float32
	SrcY   float32
	ColorR float32
	ColorG float32
	ColorB float32
	ColorA float32
}

// Container is the host element a backend mounts its surface on. It is
// queried for size on construction and resize.
type Container interface {
	Bounds() (width, height int)
	Mount(surface Image)
	Unmount(surface Image)
}

// InputManager handles input from the user (keyboard only; the stage has no
// pointer interactions).
type InputManager interface {
	IsKeyPressed(key Key) bool
	IsKeyJustPressed(key Key) bool
}

// Key represents a keyboard key.
type Key int

// Key constants for the stage's dev shortcuts
const (
	Key1 Key = iota
	Key2
	Key3
	Key4
	Key5
	Key6
	KeySpace
	KeyT // toggle 2D/3D
	KeyQ // cycle quality
	KeyD // debug overlay
	KeyEscape
)

// Game represents the game interface that the engine will call.
type Game interface {
	// Update updates the logic. It is called every tick (typically 60 times per second).
	Update() error

	// Draw draws the screen. It is called every frame.
	Draw(screen Image)

	// Layout accepts the outside size (e.g., window size) and returns the logical screen size.
	Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int)
}

// Engine represents the engine that manages the loop and window.
type Engine interface {
	// SetWindowSize sets the window size in pixels.
	SetWindowSize(width, height int)

	// SetWindowTitle sets the window title.
	SetWindowTitle(title string)

	// SetWindowResizable enables or disables window resizing.
	SetWindowResizable(resizable bool)

	// RunGame runs the loop with the provided game.
	// This is a blocking call that runs until the game ends or Update
	// returns ErrTerminated.
	RunGame(game Game) error
}
