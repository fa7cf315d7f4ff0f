// Package rendertest provides in-memory fakes of the render interfaces for
// tests: a container that tracks mounted surfaces and a renderer that
// records draw calls instead of producing pixels.
package rendertest

import (
	"image"
	"image/color"
	"sync"

	"chosenoffset.com/avatarstage/internal/render"
)

// Container is a fixed-size render.Container.
type Container struct {
	mu       sync.Mutex
	W, H     int
	mounted  []render.Image
	unmounts int
}

// NewContainer returns a container of the given size.
func NewContainer(w, h int) *Container {
	return &Container{W: w, H: h}
}

// Bounds implements render.Container.
func (c *Container) Bounds() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.W, c.H
}

// SetBounds changes the reported size.
func (c *Container) SetBounds(w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.W, c.H = w, h
}

// Mount implements render.Container.
func (c *Container) Mount(surface render.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted = append(c.mounted, surface)
}

// Unmount implements render.Container.
func (c *Container) Unmount(surface render.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.mounted {
		if s == surface {
			c.mounted = append(c.mounted[:i], c.mounted[i+1:]...)
			c.unmounts++
			return
		}
	}
}

// Mounted returns the currently mounted surfaces.
func (c *Container) Mounted() []render.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]render.Image(nil), c.mounted...)
}

// Unmounts returns how many surfaces were removed.
func (c *Container) Unmounts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unmounts
}

// Call is one recorded draw operation.
type Call struct {
	Op        string
	Dst       render.Image
	Triangles int
	Color     color.RGBA
}

// Recorder is a render.Renderer that records calls.
type Recorder struct {
	Caps  render.Capabilities
	Calls []Call
}

// NewRecorder returns a recorder advertising mesh support.
func NewRecorder() *Recorder {
	return &Recorder{Caps: render.Capabilities{Mesh: true}}
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.Calls = nil
}

// NewImage implements render.Renderer.
func (r *Recorder) NewImage(width, height int) render.Image {
	return &Image{W: width, H: height}
}

// FillCircle implements render.Renderer.
func (r *Recorder) FillCircle(dst render.Image, x, y, radius float32, clr color.Color) {
	r.Calls = append(r.Calls, Call{Op: "circle", Dst: dst, Color: toRGBA(clr)})
}

// FillTriangles implements render.Renderer.
func (r *Recorder) FillTriangles(dst render.Image, vertices []render.Vertex, indices []uint16) {
	var clr color.RGBA
	if len(vertices) > 0 {
		v := vertices[0]
		clr = color.RGBA{uint8(v.ColorR * 255), uint8(v.ColorG * 255), uint8(v.ColorB * 255), uint8(v.ColorA * 255)}
	}
	r.Calls = append(r.Calls, Call{Op: "triangles", Dst: dst, Triangles: len(indices) / 3, Color: clr})
}

// DrawText implements render.Renderer.
func (r *Recorder) DrawText(dst render.Image, text string, x, y int, clr color.Color, scale float64) {
	r.Calls = append(r.Calls, Call{Op: "text", Dst: dst, Color: toRGBA(clr)})
}

// MeasureText implements render.Renderer.
func (r *Recorder) MeasureText(text string, scale float64) (int, int) {
	return len(text) * 6, 13
}

// Capabilities implements render.Renderer.
func (r *Recorder) Capabilities() render.Capabilities {
	return r.Caps
}

// Triangles returns the total number of triangles submitted.
func (r *Recorder) Triangles() int {
	n := 0
	for _, c := range r.Calls {
		n += c.Triangles
	}
	return n
}

func toRGBA(clr color.Color) color.RGBA {
	return color.RGBAModel.Convert(clr).(color.RGBA)
}

// Image is a size-only render.Image.
type Image struct {
	W, H     int
	Fills    int
	Draws    int
	Disposed bool
}

// Bounds implements render.Image.
func (i *Image) Bounds() image.Rectangle { return image.Rect(0, 0, i.W, i.H) }

// Size implements render.Image.
func (i *Image) Size() (int, int) { return i.W, i.H }

// Fill implements render.Image.
func (i *Image) Fill(color.Color) { i.Fills++ }

// Clear implements render.Image.
func (i *Image) Clear() { i.Fills++ }

// DrawImage implements render.Image.
func (i *Image) DrawImage(render.Image, *render.DrawImageOptions) { i.Draws++ }

// Dispose implements render.Image.
func (i *Image) Dispose() { i.Disposed = true }
