package lighting

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// Kind distinguishes ambient from directional lights.
type Kind int

const (
	Ambient Kind = iota
	Directional
)

// LightSource is a single light in the avatar scene
type LightSource struct {
	Name      string
	Kind      Kind
	Color     colorful.Color
	Intensity float64    // 0.0 to 1.0
	Position  mgl32.Vec3 // directional lights shine from here toward the origin
}

// Direction returns the unit vector pointing from the surface toward the light.
func (l LightSource) Direction() mgl32.Vec3 {
	if l.Position.Len() == 0 {
		return mgl32.Vec3{0, 0, 1}
	}
	return l.Position.Normalize()
}

// Rig holds the fixed light template of the avatar scene
type Rig struct {
	lights []LightSource
}

// NewAvatarRig returns the four fixed lights: ambient, key, fill and rim.
func NewAvatarRig() *Rig {
	return &Rig{lights: []LightSource{
		{Name: "ambient", Kind: Ambient, Color: colorful.Color{R: 0x4a / 255.0, G: 0x90 / 255.0, B: 0xe2 / 255.0}, Intensity: 0.4},
		{Name: "key", Kind: Directional, Color: colorful.Color{R: 1, G: 1, B: 1}, Intensity: 0.8, Position: mgl32.Vec3{5, 10, 7.5}},
		{Name: "fill", Kind: Directional, Color: colorful.Color{R: 0x87 / 255.0, G: 0xce / 255.0, B: 0xeb / 255.0}, Intensity: 0.3, Position: mgl32.Vec3{-5, 5, -5}},
		{Name: "rim", Kind: Directional, Color: colorful.Color{R: 1, G: 1, B: 1}, Intensity: 0.2, Position: mgl32.Vec3{0, 5, -10}},
	}}
}

// GetAllLights returns every light in the rig
func (r *Rig) GetAllLights() []LightSource {
	return append([]LightSource(nil), r.lights...)
}

// Light returns the light with the given name.
func (r *Rig) Light(name string) (LightSource, bool) {
	for _, l := range r.lights {
		if l.Name == name {
			return l, true
		}
	}
	return LightSource{}, false
}

// Shade applies Lambert lighting to base for a surface with the given
// world-space normal. The result is clamped to displayable range.
func (r *Rig) Shade(base colorful.Color, normal mgl32.Vec3) colorful.Color {
	n := normal
	if n.Len() > 0 {
		n = n.Normalize()
	}

	var lr, lg, lb float64
	for _, l := range r.lights {
		w := l.Intensity
		if l.Kind == Directional {
			d := float64(n.Dot(l.Direction()))
			if d <= 0 {
				continue
			}
			w *= d
		}
		lr += l.Color.R * w
		lg += l.Color.G * w
		lb += l.Color.B * w
	}

	return colorful.Color{R: base.R * lr, G: base.G * lg, B: base.B * lb}.Clamped()
}
