package asset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"chosenoffset.com/avatarstage/internal/scene"
)

// defaultMaterial is used for primitives without a base color factor.
var defaultMaterial = colorful.Color{R: 0.8, G: 0.8, B: 0.8}

// LoadGLTF reads a .glb or .gltf file into a node hierarchy with morph
// targets and TRS animation clips.
func LoadGLTF(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	if len(doc.Meshes) == 0 {
		return nil, errors.New("no meshes in file")
	}

	nodes := make([]*scene.Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		sn, err := convertNode(doc, i, n)
		if err != nil {
			return nil, err
		}
		nodes[i] = sn
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) >= 0 && int(c) < len(nodes) && int(c) != i {
				nodes[i].Add(nodes[c])
			}
		}
	}

	root := scene.NewNode(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	for _, idx := range rootNodes(doc) {
		root.Add(nodes[idx])
	}
	if root.Triangles() == 0 {
		return nil, errors.New("no triangles in file")
	}

	return &Model{
		Root:   root,
		Clips:  readClips(doc, nodes),
		Format: FormatRich,
		Path:   path,
	}, nil
}

// rootNodes returns the nodes of the default scene, or every node nobody
// parents when the file has no scenes.
func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			s = int(*doc.Scene)
		}
		var out []int
		for _, n := range doc.Scenes[s].Nodes {
			if int(n) < len(doc.Nodes) {
				out = append(out, int(n))
			}
		}
		return out
	}

	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(child) {
				child[c] = true
			}
		}
	}
	var out []int
	for i, isChild := range child {
		if !isChild {
			out = append(out, i)
		}
	}
	return out
}

func convertNode(doc *gltf.Document, idx int, n *gltf.Node) (*scene.Node, error) {
	name := n.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}
	sn := scene.NewNode(name)

	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var mat mgl32.Mat4
		for i, v := range m {
			mat[i] = float32(v)
		}
		sn.Translation, sn.Rotation, sn.Scale = decompose(mat)
	} else {
		t, r, s := n.TranslationOrDefault(), n.RotationOrDefault(), n.ScaleOrDefault()
		sn.Translation = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
		sn.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
		sn.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
	}

	if n.Mesh == nil {
		return sn, nil
	}
	if int(*n.Mesh) >= len(doc.Meshes) {
		return nil, fmt.Errorf("node %q references missing mesh %d", name, *n.Mesh)
	}
	gm := doc.Meshes[*n.Mesh]
	names := targetNames(gm.Extras)

	weights := gm.Weights
	if len(n.Weights) > 0 {
		weights = n.Weights
	}

	var meshes []*scene.Mesh
	for pi, prim := range gm.Primitives {
		m, err := convertPrimitive(doc, prim, names)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
		}
		if m == nil {
			continue
		}
		m.Name = gm.Name
		meshes = append(meshes, m)
	}

	influences := func() []float32 {
		out := make([]float32, len(weights))
		for i, w := range weights {
			out[i] = float32(w)
		}
		return out
	}

	switch len(meshes) {
	case 0:
	case 1:
		sn.Mesh = meshes[0]
		sn.Influences = influences()
	default:
		// Each extra primitive hangs off the node with an identity transform.
		for i, m := range meshes {
			part := scene.NewNode(fmt.Sprintf("%s#%d", name, i))
			part.Mesh = m
			part.Influences = influences()
			sn.Add(part)
		}
	}
	return sn, nil
}

func convertPrimitive(doc *gltf.Document, prim *gltf.Primitive, names []string) (*scene.Mesh, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("primitive has no positions")
	}
	acc, err := accessor(doc, int(posIdx))
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	m := &scene.Mesh{Color: defaultMaterial, Positions: make([]mgl32.Vec3, len(positions))}
	for i, p := range positions {
		m.Positions[i] = mgl32.Vec3(p)
	}

	if prim.Indices != nil {
		acc, err := accessor(doc, int(*prim.Indices))
		if err != nil {
			return nil, err
		}
		if m.Indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		m.Indices = make([]uint32, len(positions))
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}

	if prim.Material != nil && int(*prim.Material) < len(doc.Materials) {
		if pbr := doc.Materials[*prim.Material].PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
			f := pbr.BaseColorFactor
			m.Color = colorful.Color{R: f[0], G: f[1], B: f[2]}
		}
	}

	for i, target := range prim.Targets {
		mt := scene.MorphTarget{Name: fmt.Sprintf("target_%d", i)}
		if i < len(names) && names[i] != "" {
			mt.Name = names[i]
		}
		if idx, ok := target[gltf.POSITION]; ok {
			acc, err := accessor(doc, int(idx))
			if err != nil {
				return nil, err
			}
			deltas, err := modeler.ReadPosition(doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("read morph target %q: %w", mt.Name, err)
			}
			mt.Deltas = make([]mgl32.Vec3, len(deltas))
			for j, d := range deltas {
				mt.Deltas[j] = mgl32.Vec3(d)
			}
		}
		m.Morphs = append(m.Morphs, mt)
	}
	return m, nil
}

// targetNames reads the conventional extras.targetNames array.
func targetNames(extras any) []string {
	obj, ok := extras.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := obj["targetNames"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, len(list))
	for i, v := range list {
		out[i], _ = v.(string)
	}
	return out
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

// readClips converts translation, rotation and scale channels. Morph weight
// channels and non-float outputs are skipped.
func readClips(doc *gltf.Document, nodes []*scene.Node) []*scene.Clip {
	var clips []*scene.Clip
	for ai, a := range doc.Animations {
		clip := &scene.Clip{Name: a.Name}
		if clip.Name == "" {
			clip.Name = fmt.Sprintf("animation_%d", ai)
		}

		for _, ch := range a.Channels {
			if ch.Target.Node == nil || int(*ch.Target.Node) >= len(nodes) {
				continue
			}
			if int(ch.Sampler) < 0 || int(ch.Sampler) >= len(a.Samplers) {
				continue
			}
			s := a.Samplers[ch.Sampler]

			var path scene.Path
			switch ch.Target.Path {
			case gltf.TRSTranslation:
				path = scene.PathTranslation
			case gltf.TRSRotation:
				path = scene.PathRotation
			case gltf.TRSScale:
				path = scene.PathScale
			default:
				continue
			}

			times, values, ok := readSampler(doc, s)
			if !ok {
				continue
			}
			if s.Interpolation == gltf.InterpolationCubicSpline && len(values) == 3*len(times) {
				// Keep the value of each in-tangent, value, out-tangent triple.
				kept := make([]mgl32.Vec4, len(times))
				for i := range kept {
					kept[i] = values[3*i+1]
				}
				values = kept
			}
			if len(values) != len(times) {
				continue
			}

			clip.Channels = append(clip.Channels, scene.Channel{
				Node:   nodes[*ch.Target.Node],
				Path:   path,
				Times:  times,
				Values: values,
			})
			if end := times[len(times)-1]; end > clip.Duration {
				clip.Duration = end
			}
		}

		if len(clip.Channels) > 0 {
			clips = append(clips, clip)
		}
	}
	return clips
}

func readSampler(doc *gltf.Document, s *gltf.AnimationSampler) ([]float32, []mgl32.Vec4, bool) {
	in, err := accessor(doc, int(s.Input))
	if err != nil {
		return nil, nil, false
	}
	out, err := accessor(doc, int(s.Output))
	if err != nil {
		return nil, nil, false
	}

	rawTimes, err := modeler.ReadAccessor(doc, in, nil)
	if err != nil {
		return nil, nil, false
	}
	times, ok := rawTimes.([]float32)
	if !ok || len(times) == 0 {
		return nil, nil, false
	}

	rawValues, err := modeler.ReadAccessor(doc, out, nil)
	if err != nil {
		return nil, nil, false
	}
	var values []mgl32.Vec4
	switch v := rawValues.(type) {
	case [][3]float32:
		values = make([]mgl32.Vec4, len(v))
		for i, x := range v {
			values[i] = mgl32.Vec4{x[0], x[1], x[2], 0}
		}
	case [][4]float32:
		values = make([]mgl32.Vec4, len(v))
		for i, x := range v {
			values[i] = mgl32.Vec4(x)
		}
	default:
		return nil, nil, false
	}
	return times, values, true
}

// decompose splits an affine matrix without shear into TRS parts.
func decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	t := m.Col(3).Vec3()
	sx, sy, sz := m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()
	if sx == 0 || sy == 0 || sz == 0 {
		return t, mgl32.QuatIdent(), mgl32.Vec3{sx, sy, sz}
	}
	rot := mgl32.Mat4FromCols(
		m.Col(0).Mul(1/sx),
		m.Col(1).Mul(1/sy),
		m.Col(2).Mul(1/sz),
		mgl32.Vec4{0, 0, 0, 1},
	)
	return t, mgl32.Mat4ToQuat(rot), mgl32.Vec3{sx, sy, sz}
}
