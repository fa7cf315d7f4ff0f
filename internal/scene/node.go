// Package scene is the minimal scene graph behind the 3D avatar: nodes with
// TRS transforms, triangle meshes with morph targets, keyframe clips, a
// camera and a software rasterizer that draws through render.Renderer.
package scene

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// MorphTarget is a named per-vertex displacement channel.
type MorphTarget struct {
	Name   string
	Deltas []mgl32.Vec3
}

// Mesh is an indexed triangle list with a flat base color.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Indices   []uint32
	Color     colorful.Color
	Morphs    []MorphTarget
}

// Deformed returns positions with morph influences applied. It returns the
// base positions untouched when every influence is zero.
func (m *Mesh) Deformed(influences []float32) []mgl32.Vec3 {
	active := false
	for i, w := range influences {
		if w != 0 && i < len(m.Morphs) {
			active = true
			break
		}
	}
	if !active {
		return m.Positions
	}

	out := make([]mgl32.Vec3, len(m.Positions))
	copy(out, m.Positions)
	for i, w := range influences {
		if w == 0 || i >= len(m.Morphs) {
			continue
		}
		for v, d := range m.Morphs[i].Deltas {
			if v < len(out) {
				out[v] = out[v].Add(d.Mul(w))
			}
		}
	}
	return out
}

// Node is a transform in the hierarchy, optionally carrying a mesh.
type Node struct {
	Name        string
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
	Mesh        *Mesh
	Influences  []float32
	Children    []*Node
}

// NewNode returns a node at the origin with identity rotation and scale.
func NewNode(name string) *Node {
	return &Node{Name: name, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// Add appends children and returns n.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Local returns the node's transform relative to its parent.
func (n *Node) Local() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Translation.X(), n.Translation.Y(), n.Translation.Z())
	r := n.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// Walk visits n and its descendants depth-first with their world transforms.
func (n *Node) Walk(parent mgl32.Mat4, fn func(node *Node, world mgl32.Mat4)) {
	world := parent.Mul4(n.Local())
	fn(n, world)
	for _, c := range n.Children {
		c.Walk(world, fn)
	}
}

// Find returns the first node named name (case-insensitive), or nil.
func (n *Node) Find(name string) *Node {
	if strings.EqualFold(n.Name, name) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// FindAny returns the first match for any of names, tried in order.
func (n *Node) FindAny(names ...string) *Node {
	for _, name := range names {
		if found := n.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Meshes returns every node carrying a mesh, depth-first.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Walk(mgl32.Ident4(), func(node *Node, _ mgl32.Mat4) {
		if node.Mesh != nil {
			out = append(out, node)
		}
	})
	return out
}

// Triangles counts the triangles under n.
func (n *Node) Triangles() int {
	total := 0
	for _, m := range n.Meshes() {
		total += len(m.Mesh.Indices) / 3
	}
	return total
}
