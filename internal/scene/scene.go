package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"chosenoffset.com/avatarstage/internal/render"
	"chosenoffset.com/avatarstage/internal/render/lighting"
)

// maxBatchTriangles keeps each FillTriangles call within uint16 indices.
const maxBatchTriangles = 0xffff / 3

// Scene is what the 3D avatar draws: one camera, the fixed light rig and a
// single root model node that is swapped wholesale on reload.
type Scene struct {
	Camera     *Camera
	Lights     *lighting.Rig
	Background colorful.Color
	Root       *Node
}

// New returns an empty scene with the portrait camera and avatar lights.
func New(aspect float32) *Scene {
	return &Scene{
		Camera:     NewPortraitCamera(aspect),
		Lights:     lighting.NewAvatarRig(),
		Background: colorful.Color{R: 0x07 / 255.0, G: 0x12 / 255.0, B: 0x28 / 255.0},
	}
}

type projected struct {
	depth float32
	pts   [3]mgl32.Vec2
	clr   colorful.Color
}

// Draw clears dst to the background and paints the model back to front with
// flat Lambert shading. It returns the number of triangles drawn.
func (s *Scene) Draw(r render.Renderer, dst render.Image) int {
	dst.Fill(s.Background)
	if s.Root == nil {
		return 0
	}

	w, h := dst.Size()
	vp := s.Camera.ViewProjection()
	eye := s.Camera.Position
	near := s.Camera.NearPlane

	var tris []projected
	s.Root.Walk(mgl32.Ident4(), func(n *Node, world mgl32.Mat4) {
		if n.Mesh == nil {
			return
		}
		positions := n.Mesh.Deformed(n.Influences)
		worldPos := make([]mgl32.Vec3, len(positions))
		clipPos := make([]mgl32.Vec4, len(positions))
		for i, p := range positions {
			wp := world.Mul4x1(p.Vec4(1))
			worldPos[i] = wp.Vec3()
			clipPos[i] = vp.Mul4x1(wp)
		}

		idx := n.Mesh.Indices
		for k := 0; k+2 < len(idx); k += 3 {
			a, b, c := int(idx[k]), int(idx[k+1]), int(idx[k+2])
			if a >= len(positions) || b >= len(positions) || c >= len(positions) {
				continue
			}
			ca, cb, cc := clipPos[a], clipPos[b], clipPos[c]
			if ca.W() < near || cb.W() < near || cc.W() < near {
				continue
			}

			pa, pb, pc := worldPos[a], worldPos[b], worldPos[c]
			normal := pb.Sub(pa).Cross(pc.Sub(pa))
			if normal.Len() == 0 {
				continue
			}
			center := pa.Add(pb).Add(pc).Mul(1.0 / 3)
			if normal.Dot(eye.Sub(center)) < 0 {
				normal = normal.Mul(-1)
			}

			tris = append(tris, projected{
				depth: (ca.W() + cb.W() + cc.W()) / 3,
				pts:   [3]mgl32.Vec2{toScreen(ca, w, h), toScreen(cb, w, h), toScreen(cc, w, h)},
				clr:   s.Lights.Shade(n.Mesh.Color, normal),
			})
		}
	})

	sort.SliceStable(tris, func(i, j int) bool { return tris[i].depth > tris[j].depth })

	for start := 0; start < len(tris); start += maxBatchTriangles {
		end := min(start+maxBatchTriangles, len(tris))
		batch := tris[start:end]
		verts := make([]render.Vertex, 0, len(batch)*3)
		indices := make([]uint16, 0, len(batch)*3)
		for _, t := range batch {
			cr, cg, cb, ca := render.VertexColor(t.clr)
			for _, p := range t.pts {
				indices = append(indices, uint16(len(verts)))
				verts = append(verts, render.Vertex{
					DstX: p[0], DstY: p[1],
					ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
				})
			}
		}
		r.FillTriangles(dst, verts, indices)
	}
	return len(tris)
}

func toScreen(v mgl32.Vec4, w, h int) mgl32.Vec2 {
	inv := 1 / v.W()
	return mgl32.Vec2{
		(v.X()*inv + 1) / 2 * float32(w),
		(1 - v.Y()*inv) / 2 * float32(h),
	}
}
