package render

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Shapes are built as point lists in local space, transformed with a 2D
// homogeneous matrix, then tessellated into triangles for FillTriangles.

// Ellipse returns segments points around (cx, cy).
func Ellipse(cx, cy, rx, ry float64, segments int) []mgl64.Vec2 {
	return Arc(cx, cy, rx, ry, 0, 2*math.Pi, segments)[:segments]
}

// Arc returns segments+1 points along an elliptical arc from start to end
// (radians, clockwise in screen space).
func Arc(cx, cy, rx, ry, start, end float64, segments int) []mgl64.Vec2 {
	if segments < 1 {
		segments = 1
	}
	pts := make([]mgl64.Vec2, 0, segments+1)
	step := (end - start) / float64(segments)
	for i := 0; i <= segments; i++ {
		a := start + step*float64(i)
		pts = append(pts, mgl64.Vec2{cx + rx*math.Cos(a), cy + ry*math.Sin(a)})
	}
	return pts
}

// RoundRect returns the outline of a rectangle with corner radius r.
func RoundRect(x, y, w, h, r float64, cornerSegments int) []mgl64.Vec2 {
	r = math.Min(r, math.Min(w, h)/2)
	if r <= 0 {
		return Rect(x, y, w, h)
	}
	var pts []mgl64.Vec2
	corners := []struct{ cx, cy, a float64 }{
		{x + w - r, y + r, -math.Pi / 2},
		{x + w - r, y + h - r, 0},
		{x + r, y + h - r, math.Pi / 2},
		{x + r, y + r, math.Pi},
	}
	for _, c := range corners {
		pts = append(pts, Arc(c.cx, c.cy, r, r, c.a, c.a+math.Pi/2, cornerSegments)...)
	}
	return pts
}

// Rect returns the four corners of an axis-aligned rectangle.
func Rect(x, y, w, h float64) []mgl64.Vec2 {
	return []mgl64.Vec2{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

// Transform applies m to every point in place and returns pts.
func Transform(m mgl64.Mat3, pts []mgl64.Vec2) []mgl64.Vec2 {
	for i, p := range pts {
		v := m.Mul3x1(mgl64.Vec3{p[0], p[1], 1})
		pts[i] = mgl64.Vec2{v[0], v[1]}
	}
	return pts
}

// VertexColor converts clr to premultiplied float components.
func VertexColor(clr color.Color) (r, g, b, a float32) {
	cr, cg, cb, ca := clr.RGBA()
	return float32(cr) / 0xffff, float32(cg) / 0xffff, float32(cb) / 0xffff, float32(ca) / 0xffff
}

func vertex(p mgl64.Vec2, r, g, b, a float32) Vertex {
	return Vertex{DstX: float32(p[0]), DstY: float32(p[1]), ColorR: r, ColorG: g, ColorB: b, ColorA: a}
}

// FillConvex fills a convex polygon as a triangle fan.
func FillConvex(rd Renderer, dst Image, pts []mgl64.Vec2, clr color.Color) {
	if len(pts) < 3 {
		return
	}
	r, g, b, a := VertexColor(clr)
	verts := make([]Vertex, len(pts))
	for i, p := range pts {
		verts[i] = vertex(p, r, g, b, a)
	}
	indices := make([]uint16, 0, (len(pts)-2)*3)
	for i := 1; i+1 < len(pts); i++ {
		indices = append(indices, 0, uint16(i), uint16(i+1))
	}
	rd.FillTriangles(dst, verts, indices)
}

// Stroke draws a polyline of the given width as a strip of quads. When
// closed is set the last point joins the first.
func Stroke(rd Renderer, dst Image, pts []mgl64.Vec2, width float64, clr color.Color, closed bool) {
	if len(pts) < 2 {
		return
	}
	if closed {
		pts = append(append([]mgl64.Vec2(nil), pts...), pts[0])
	}
	r, g, b, a := VertexColor(clr)
	half := width / 2
	verts := make([]Vertex, 0, (len(pts)-1)*4)
	indices := make([]uint16, 0, (len(pts)-1)*6)
	for i := 0; i+1 < len(pts); i++ {
		p0, p1 := pts[i], pts[i+1]
		d := p1.Sub(p0)
		if d.Len() == 0 {
			continue
		}
		n := mgl64.Vec2{-d[1], d[0]}.Normalize().Mul(half)
		base := uint16(len(verts))
		verts = append(verts,
			vertex(p0.Add(n), r, g, b, a),
			vertex(p1.Add(n), r, g, b, a),
			vertex(p1.Sub(n), r, g, b, a),
			vertex(p0.Sub(n), r, g, b, a),
		)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	if len(indices) > 0 {
		rd.FillTriangles(dst, verts, indices)
	}
}

// FillVerticalGradient fills a rectangle blending from top to bottom in
// uniform bands, which every backend renders identically.
func FillVerticalGradient(rd Renderer, dst Image, x, y, w, h float64, top, bottom color.Color, bands int) {
	if bands < 1 {
		bands = 1
	}
	tr, tg, tb, ta := VertexColor(top)
	br, bg, bb, ba := VertexColor(bottom)
	lerp := func(a, b float32, t float32) float32 { return a + (b-a)*t }

	verts := make([]Vertex, 0, bands*4)
	indices := make([]uint16, 0, bands*6)
	bandH := h / float64(bands)
	for i := 0; i < bands; i++ {
		t := float32(i) / float32(max(bands-1, 1))
		r, g, b, a := lerp(tr, br, t), lerp(tg, bg, t), lerp(tb, bb, t), lerp(ta, ba, t)
		y0 := y + bandH*float64(i)
		base := uint16(len(verts))
		for _, p := range Rect(x, y0, w, bandH) {
			verts = append(verts, vertex(p, r, g, b, a))
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	rd.FillTriangles(dst, verts, indices)
}
