package asset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"chosenoffset.com/avatarstage/internal/scene"
)

// staticMaterial is applied to objects without a resolvable material.
var staticMaterial = colorful.Color{R: 0x88 / 255.0, G: 0xaa / 255.0, B: 0xff / 255.0}

// LoadOBJ reads a Wavefront OBJ file. Each o/g block becomes a child node.
// Materials referenced through mtllib contribute their diffuse color.
func LoadOBJ(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	root, err := ParseOBJ(f, func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(filepath.Dir(path), name))
	})
	if err != nil {
		return nil, err
	}
	root.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Model{Root: root, Format: FormatStatic, Path: path}, nil
}

type objState struct {
	verts     []mgl32.Vec3
	materials map[string]colorful.Color
	root      *scene.Node
	cur       *scene.Node
	remap     map[int]uint32
	color     colorful.Color
}

// ParseOBJ parses OBJ text. openMTL resolves mtllib references and may be
// nil, in which case every object gets the default static material.
func ParseOBJ(r io.Reader, openMTL func(name string) (io.ReadCloser, error)) (*scene.Node, error) {
	st := &objState{
		materials: map[string]colorful.Color{},
		root:      scene.NewNode("obj"),
		color:     staticMaterial,
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			st.verts = append(st.verts, v)
		case "o", "g":
			name := "object"
			if len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
			st.begin(name)
		case "usemtl":
			if len(fields) > 1 {
				if c, ok := st.materials[fields[1]]; ok {
					st.color = c
				}
				switch {
				case st.cur == nil:
				case len(st.cur.Mesh.Indices) == 0:
					st.cur.Mesh.Color = st.color
				default:
					// Material change mid-object starts a new part.
					st.begin(st.cur.Name)
				}
			}
		case "mtllib":
			if openMTL == nil {
				continue
			}
			for _, name := range fields[1:] {
				// A missing material library leaves the default color.
				rc, err := openMTL(name)
				if err != nil {
					continue
				}
				parseMTL(rc, st.materials)
				rc.Close()
			}
		case "f":
			if err := st.face(fields[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	if st.root.Triangles() == 0 {
		return nil, errors.New("no faces in file")
	}
	return st.root, nil
}

func (st *objState) begin(name string) {
	n := scene.NewNode(name)
	n.Mesh = &scene.Mesh{Name: name, Color: st.color}
	st.root.Add(n)
	st.cur = n
	st.remap = map[int]uint32{}
}

// face triangulates a polygon as a fan. Vertex references may be negative
// and may carry /vt/vn suffixes, which are ignored.
func (st *objState) face(refs []string) error {
	if len(refs) < 3 {
		return errors.New("face needs at least three vertices")
	}
	if st.cur == nil {
		st.begin("default")
	}

	idx := make([]uint32, len(refs))
	for i, ref := range refs {
		raw, _, _ := strings.Cut(ref, "/")
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("bad vertex reference %q", ref)
		}
		if n < 0 {
			n = len(st.verts) + n + 1
		}
		if n < 1 || n > len(st.verts) {
			return fmt.Errorf("vertex %d out of range", n)
		}
		local, ok := st.remap[n]
		if !ok {
			local = uint32(len(st.cur.Mesh.Positions))
			st.cur.Mesh.Positions = append(st.cur.Mesh.Positions, st.verts[n-1])
			st.remap[n] = local
		}
		idx[i] = local
	}

	for i := 1; i+1 < len(idx); i++ {
		st.cur.Mesh.Indices = append(st.cur.Mesh.Indices, idx[0], idx[i], idx[i+1])
	}
	return nil
}

func parseMTL(r io.Reader, into map[string]colorful.Color) {
	sc := bufio.NewScanner(r)
	current := ""
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			if len(fields) > 1 {
				current = fields[1]
				into[current] = staticMaterial
			}
		case "Kd":
			if current == "" {
				continue
			}
			if v, err := parseVec3(fields[1:]); err == nil {
				into[current] = colorful.Color{R: float64(v[0]), G: float64(v[1]), B: float64(v[2])}
			}
		}
	}
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	if len(fields) < 3 {
		return mgl32.Vec3{}, errors.New("expected three components")
	}
	var v mgl32.Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return mgl32.Vec3{}, fmt.Errorf("bad number %q", fields[i])
		}
		v[i] = float32(f)
	}
	return v, nil
}
