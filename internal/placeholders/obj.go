package placeholders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"

	"chosenoffset.com/avatarstage/internal/scene"
)

// TierDetail maps each quality tier to the tessellation written for it.
var TierDetail = map[string]Detail{
	"low":    {BodySegments: 8, SphereWidth: 12, SphereHeight: 8},
	"medium": {BodySegments: 8, SphereWidth: 20, SphereHeight: 12},
	"high":   DefaultDetail,
}

// WriteOBJ writes every mesh under root as a Wavefront object with world
// transforms baked in. Each mesh gets a material named after it; when mtl is
// non-nil the matching Kd entries are written there and referenced as
// mtlName.
func WriteOBJ(obj, mtl io.Writer, mtlName string, root *scene.Node) error {
	ow := bufio.NewWriter(obj)
	fmt.Fprintln(ow, "# avatarstage primitive avatar")
	if mtl != nil && mtlName != "" {
		fmt.Fprintf(ow, "mtllib %s\n", mtlName)
	}

	var mw *bufio.Writer
	if mtl != nil {
		mw = bufio.NewWriter(mtl)
	}

	base := 1
	root.Walk(mgl32.Ident4(), func(n *scene.Node, world mgl32.Mat4) {
		if n.Mesh == nil {
			return
		}
		fmt.Fprintf(ow, "o %s\n", n.Name)
		if mw != nil {
			c := n.Mesh.Color
			fmt.Fprintf(mw, "newmtl %s\nKd %.4f %.4f %.4f\n\n", n.Name, c.R, c.G, c.B)
			fmt.Fprintf(ow, "usemtl %s\n", n.Name)
		}
		for _, p := range n.Mesh.Positions {
			w := world.Mul4x1(p.Vec4(1))
			fmt.Fprintf(ow, "v %.5f %.5f %.5f\n", w.X(), w.Y(), w.Z())
		}
		idx := n.Mesh.Indices
		for k := 0; k+2 < len(idx); k += 3 {
			fmt.Fprintf(ow, "f %d %d %d\n", base+int(idx[k]), base+int(idx[k+1]), base+int(idx[k+2]))
		}
		base += len(n.Mesh.Positions)
	})

	if mw != nil {
		if err := mw.Flush(); err != nil {
			return fmt.Errorf("failed to write materials: %w", err)
		}
	}
	if err := ow.Flush(); err != nil {
		return fmt.Errorf("failed to write geometry: %w", err)
	}
	return nil
}

// SaveOBJ writes root to path plus a sibling .mtl file
func SaveOBJ(path string, root *scene.Node) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	mtlPath := path[:len(path)-len(filepath.Ext(path))] + ".mtl"
	objFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer objFile.Close()

	mtlFile, err := os.Create(mtlPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer mtlFile.Close()

	return WriteOBJ(objFile, mtlFile, filepath.Base(mtlPath), root)
}

// GenerateAndSave writes model_{low,medium,high}.obj primitives into dir
func GenerateAndSave(dir string) error {
	for _, tier := range []string{"low", "medium", "high"} {
		path := filepath.Join(dir, "model_"+tier+".obj")
		if err := SaveOBJ(path, Avatar(TierDetail[tier])); err != nil {
			return fmt.Errorf("failed to save %s: %w", tier, err)
		}
		fmt.Printf("  Generated: %s\n", path)
	}
	return nil
}
