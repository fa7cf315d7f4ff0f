// Package raster implements the render interfaces on plain image.RGBA
// buffers using golang.org/x/image. It backs the headless snapshot command
// and gives tests pixel-exact frames without a GPU.
package raster

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"chosenoffset.com/avatarstage/internal/render"
)

// Renderer implements render.Renderer on image.RGBA.
type Renderer struct {
	caps render.Capabilities
	ras  *vector.Rasterizer
}

// Option configures the renderer.
type Option func(*Renderer)

// WithoutMesh hides the mesh capability, forcing the 2D backend.
func WithoutMesh() Option {
	return func(r *Renderer) {
		r.caps.Mesh = false
	}
}

// NewRenderer creates a raster renderer. It is not safe for concurrent use.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		caps: render.Capabilities{Mesh: true},
		ras:  vector.NewRasterizer(1, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewImage creates a transparent image.
func (r *Renderer) NewImage(width, height int) render.Image {
	return &Image{img: image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))}
}

// FillCircle draws a filled circle as a polygon.
func (r *Renderer) FillCircle(dst render.Image, x, y, radius float32, clr color.Color) {
	render.FillConvex(r, dst, render.Ellipse(float64(x), float64(y), float64(radius), float64(radius), 32), clr)
}

// FillTriangles rasterizes triangles with the average of their vertex
// colors. Consecutive triangles of one color and winding share a path so
// their common edges leave no antialiasing seam.
func (r *Renderer) FillTriangles(dst render.Image, vertices []render.Vertex, indices []uint16) {
	img := dst.(*Image).img
	b := img.Bounds()
	x0, y0, x1, y1 := float32(b.Min.X), float32(b.Min.Y), float32(b.Max.X), float32(b.Max.Y)

	var (
		batch     [][]pt
		batchClr  color.RGBA
		batchSign bool
	)
	flush := func() {
		if len(batch) > 0 {
			r.fill(img, batch, batchClr)
		}
		batch = batch[:0]
	}

	for i := 0; i+2 < len(indices); i += 3 {
		a, bv, c := vertices[indices[i]], vertices[indices[i+1]], vertices[indices[i+2]]
		tri := []pt{{a.DstX, a.DstY}, {bv.DstX, bv.DstY}, {c.DstX, c.DstY}}
		area := (tri[1].x-tri[0].x)*(tri[2].y-tri[0].y) - (tri[2].x-tri[0].x)*(tri[1].y-tri[0].y)
		if area == 0 {
			continue
		}
		poly := clip(tri, x0, y0, x1, y1)
		if len(poly) < 3 {
			continue
		}
		clr, sign := averageColor(a, bv, c), area > 0
		if len(batch) > 0 && (clr != batchClr || sign != batchSign) {
			flush()
		}
		batch = append(batch, poly)
		batchClr, batchSign = clr, sign
	}
	flush()
}

func (r *Renderer) fill(img *image.RGBA, polys [][]pt, clr color.RGBA) {
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for _, poly := range polys {
		for _, p := range poly {
			minX, minY = min(minX, p.x), min(minY, p.y)
			maxX, maxY = max(maxX, p.x), max(maxY, p.y)
		}
	}
	box := image.Rect(int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))), int(math.Ceil(float64(maxY)))).Intersect(img.Bounds())
	if box.Empty() {
		return
	}

	r.ras.Reset(box.Dx(), box.Dy())
	ox, oy := float32(box.Min.X), float32(box.Min.Y)
	for _, poly := range polys {
		r.ras.MoveTo(poly[0].x-ox, poly[0].y-oy)
		for _, p := range poly[1:] {
			r.ras.LineTo(p.x-ox, p.y-oy)
		}
		r.ras.ClosePath()
	}
	r.ras.Draw(img, box, image.NewUniform(clr), image.Point{})
}

func averageColor(vs ...render.Vertex) color.RGBA {
	var cr, cg, cb, ca float32
	for _, v := range vs {
		cr += v.ColorR
		cg += v.ColorG
		cb += v.ColorB
		ca += v.ColorA
	}
	n := float32(len(vs))
	to8 := func(f float32) uint8 {
		return uint8(math.Round(float64(min(max(f/n, 0), 1) * 255)))
	}
	return color.RGBA{R: to8(cr), G: to8(cg), B: to8(cb), A: to8(ca)}
}

// DrawText draws text with the 7x13 bitmap face. y is the top of the line.
func (r *Renderer) DrawText(dst render.Image, text string, x, y int, clr color.Color, scale float64) {
	d := &font.Drawer{
		Dst:  dst.(*Image).img,
		Src:  image.NewUniform(clr),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(text)
}

// MeasureText returns the size of text in the bitmap face.
func (r *Renderer) MeasureText(text string, scale float64) (width, height int) {
	w := font.MeasureString(basicfont.Face7x13, text).Ceil()
	return int(float64(w) * scale), int(float64(basicfont.Face7x13.Height) * scale)
}

// Capabilities reports the renderer's optional features.
func (r *Renderer) Capabilities() render.Capabilities {
	return r.caps
}

// Image wraps an *image.RGBA.
type Image struct {
	img *image.RGBA
}

// Bounds returns the bounds of the image.
func (i *Image) Bounds() image.Rectangle {
	return i.img.Bounds()
}

// Size returns the width and height of the image.
func (i *Image) Size() (width, height int) {
	return i.img.Bounds().Dx(), i.img.Bounds().Dy()
}

// Fill replaces every pixel with clr.
func (i *Image) Fill(clr color.Color) {
	xdraw.Draw(i.img, i.img.Bounds(), image.NewUniform(clr), image.Point{}, xdraw.Src)
}

// Clear clears the image to transparent.
func (i *Image) Clear() {
	i.Fill(color.Transparent)
}

// DrawImage composites src over the image. Integer translations are copied
// directly; anything else is resampled bilinearly.
func (i *Image) DrawImage(src render.Image, opts *render.DrawImageOptions) {
	s := src.(*Image).img
	m := opts.Matrix()
	if m.At(0, 0) == 1 && m.At(1, 1) == 1 && m.At(0, 1) == 0 && m.At(1, 0) == 0 &&
		m.At(0, 2) == math.Trunc(m.At(0, 2)) && m.At(1, 2) == math.Trunc(m.At(1, 2)) {
		off := image.Pt(int(m.At(0, 2)), int(m.At(1, 2)))
		xdraw.Draw(i.img, s.Bounds().Add(off), s, s.Bounds().Min, xdraw.Over)
		return
	}
	aff := f64.Aff3{m.At(0, 0), m.At(0, 1), m.At(0, 2), m.At(1, 0), m.At(1, 1), m.At(1, 2)}
	xdraw.BiLinear.Transform(i.img, aff, s, s.Bounds(), xdraw.Over, nil)
}

// Dispose is a no-op; the buffer is garbage collected.
func (i *Image) Dispose() {}

// RGBA returns the underlying buffer.
func (i *Image) RGBA() *image.RGBA {
	return i.img
}

// EncodePNG writes the image as PNG.
func (i *Image) EncodePNG(w io.Writer) error {
	return png.Encode(w, i.img)
}

// Engine runs a render.Game without a window, ticking at a fixed rate.
type Engine struct {
	ctx       context.Context
	width     int
	height    int
	tps       int
	maxFrames int
	renderer  *Renderer
	screen    *Image
}

// NewEngine creates a headless engine drawing with r. maxFrames <= 0 runs
// until the context is done or the game terminates.
func NewEngine(ctx context.Context, r *Renderer, tps, maxFrames int) *Engine {
	if tps <= 0 {
		tps = 60
	}
	return &Engine{ctx: ctx, renderer: r, tps: tps, maxFrames: maxFrames, width: 800, height: 600}
}

// SetWindowSize sets the outside size passed to Layout.
func (e *Engine) SetWindowSize(width, height int) {
	e.width, e.height = width, height
}

// SetWindowTitle is ignored.
func (e *Engine) SetWindowTitle(string) {}

// SetWindowResizable is ignored.
func (e *Engine) SetWindowResizable(bool) {}

// RunGame drives game until maxFrames, context cancellation or
// render.ErrTerminated.
func (e *Engine) RunGame(game render.Game) error {
	ticker := time.NewTicker(time.Second / time.Duration(e.tps))
	defer ticker.Stop()

	for frame := 0; e.maxFrames <= 0 || frame < e.maxFrames; frame++ {
		w, h := game.Layout(e.width, e.height)
		if e.screen == nil || e.screen.img.Bounds().Dx() != w || e.screen.img.Bounds().Dy() != h {
			e.screen = e.renderer.NewImage(w, h).(*Image)
		}

		if err := game.Update(); err != nil {
			if errors.Is(err, render.ErrTerminated) {
				return nil
			}
			return err
		}
		e.screen.Clear()
		game.Draw(e.screen)

		select {
		case <-e.ctx.Done():
			return e.ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Screen returns the last drawn frame, nil before the first.
func (e *Engine) Screen() *Image {
	return e.screen
}
