package placeholders

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"chosenoffset.com/avatarstage/internal/scene"
)

// ColorPalette defines colors for the primitive avatar parts
var ColorPalette = struct {
	Body  colorful.Color
	Skin  colorful.Color
	Eye   colorful.Color
	Mouth colorful.Color
}{
	Body:  colorful.Color{R: 0x4a / 255.0, G: 0x90 / 255.0, B: 0xe2 / 255.0}, // Shirt blue
	Skin:  colorful.Color{R: 0xf2 / 255.0, G: 0xd0 / 255.0, B: 0xb3 / 255.0}, // Default skin
	Eye:   colorful.Color{},                                                  // Black
	Mouth: colorful.Color{R: 0x8b / 255.0},                                   // Dark red
}

// Detail controls tessellation of the primitive parts
type Detail struct {
	BodySegments int
	SphereWidth  int
	SphereHeight int
}

// DefaultDetail is the tessellation used for the in-memory fallback.
var DefaultDetail = Detail{BodySegments: 8, SphereWidth: 32, SphereHeight: 16}

// Part names the 3D backend looks up for transform-driven expression.
const (
	NodeRoot     = "avatar"
	NodeBody     = "body"
	NodeHead     = "head"
	NodeEyeLeft  = "eye_left"
	NodeEyeRight = "eye_right"
	NodeMouth    = "mouth"
)

// Avatar builds the deterministic primitive avatar: a cylinder torso, a
// sphere head, two eyes and a flattened mouth. It does no I/O and cannot
// fail, so it is always the last stage of a model load.
func Avatar(d Detail) *scene.Node {
	body := scene.NewNode(NodeBody)
	body.Translation = mgl32.Vec3{0, 0.8, 0}
	body.Mesh = CreateCylinder(NodeBody, 0.4, 0.5, 1.6, d.BodySegments, ColorPalette.Body)

	head := scene.NewNode(NodeHead)
	head.Translation = mgl32.Vec3{0, 1.8, 0}
	head.Mesh = CreateSphere(NodeHead, 0.35, d.SphereWidth, d.SphereHeight, ColorPalette.Skin)

	eyeW, eyeH := max(d.SphereWidth/2, 6), max(d.SphereHeight/2, 4)
	left := scene.NewNode(NodeEyeLeft)
	left.Translation = mgl32.Vec3{-0.15, 0.05, 0.25}
	left.Mesh = CreateSphere(NodeEyeLeft, 0.08, eyeW, eyeH, ColorPalette.Eye)

	right := scene.NewNode(NodeEyeRight)
	right.Translation = mgl32.Vec3{0.15, 0.05, 0.25}
	right.Mesh = CreateSphere(NodeEyeRight, 0.08, eyeW, eyeH, ColorPalette.Eye)

	mouth := scene.NewNode(NodeMouth)
	mouth.Translation = mgl32.Vec3{0, -0.1, 0.3}
	mouth.Scale = mgl32.Vec3{1, 0.3, 0.8}
	mouth.Mesh = CreateSphere(NodeMouth, 0.08, eyeW, eyeH, ColorPalette.Mouth)

	head.Add(left, right, mouth)
	return scene.NewNode(NodeRoot).Add(body, head)
}

// CreateCylinder creates a capped cylinder centered on the origin
func CreateCylinder(name string, radiusTop, radiusBottom, height float32, segments int, col colorful.Color) *scene.Mesh {
	segments = max(segments, 3)
	m := &scene.Mesh{Name: name, Color: col}
	half := height / 2

	// Rings: top then bottom, followed by the two cap centers.
	for _, ring := range []struct{ y, r float32 }{{half, radiusTop}, {-half, radiusBottom}} {
		for i := 0; i < segments; i++ {
			a := 2 * math.Pi * float64(i) / float64(segments)
			m.Positions = append(m.Positions, mgl32.Vec3{
				ring.r * float32(math.Sin(a)), ring.y, ring.r * float32(math.Cos(a)),
			})
		}
	}
	top := uint32(len(m.Positions))
	m.Positions = append(m.Positions, mgl32.Vec3{0, half, 0}, mgl32.Vec3{0, -half, 0})
	bottom := top + 1

	n := uint32(segments)
	for i := uint32(0); i < n; i++ {
		j := (i + 1) % n
		// Side quad
		m.Indices = append(m.Indices, i, n+i, n+j, i, n+j, j)
		// Caps
		m.Indices = append(m.Indices, top, i, j)
		m.Indices = append(m.Indices, bottom, n+j, n+i)
	}
	return m
}

// CreateSphere creates a UV sphere centered on the origin
func CreateSphere(name string, radius float32, widthSegments, heightSegments int, col colorful.Color) *scene.Mesh {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)
	m := &scene.Mesh{Name: name, Color: col}

	for y := 0; y <= heightSegments; y++ {
		v := float64(y) / float64(heightSegments)
		theta := v * math.Pi
		for x := 0; x <= widthSegments; x++ {
			u := float64(x) / float64(widthSegments)
			phi := u * 2 * math.Pi
			m.Positions = append(m.Positions, mgl32.Vec3{
				-radius * float32(math.Cos(phi)*math.Sin(theta)),
				radius * float32(math.Cos(theta)),
				radius * float32(math.Sin(phi)*math.Sin(theta)),
			})
		}
	}

	stride := uint32(widthSegments + 1)
	for y := uint32(0); y < uint32(heightSegments); y++ {
		for x := uint32(0); x < uint32(widthSegments); x++ {
			a := y*stride + x
			b := a + stride
			if y != 0 {
				m.Indices = append(m.Indices, a, b, a+1)
			}
			if y != uint32(heightSegments)-1 {
				m.Indices = append(m.Indices, a+1, b, b+1)
			}
		}
	}
	return m
}
