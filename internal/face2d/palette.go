package face2d

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Default skin and hair colors, used when a settings value does not parse.
const (
	DefaultSkin = "#f2d0b3"
	DefaultHair = "#2b1b12"
)

// Palette holds the colors the face is painted with.
type Palette struct {
	BackgroundTop    colorful.Color
	BackgroundBottom colorful.Color
	Skin             colorful.Color
	Hair             colorful.Color
	Shirt            colorful.Color
	ShirtStroke      colorful.Color
	Pupil            colorful.Color
	EyeWhite         colorful.Color
	Mouth            colorful.Color
	Cheek            colorful.Color
}

// NewPalette builds a palette around the given skin and hair hex colors.
func NewPalette(skinHex, hairHex string) Palette {
	return Palette{
		BackgroundTop:    mustHex("#0f172a"),
		BackgroundBottom: mustHex("#071228"),
		Skin:             parseHex(skinHex, DefaultSkin),
		Hair:             parseHex(hairHex, DefaultHair),
		Shirt:            mustHex("#3b82f6"),
		ShirtStroke:      mustHex("#2563eb"),
		Pupil:            colorful.Color{},
		EyeWhite:         colorful.Color{R: 1, G: 1, B: 1},
		Mouth:            mustHex("#8b0000"),
		Cheek:            mustHex("#ff9999"),
	}
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(s, fallback string) colorful.Color {
	if c, err := colorful.Hex(s); err == nil {
		return c
	}
	return mustHex(fallback)
}

// adjust shifts every channel by amount/255, clamped.
func adjust(c colorful.Color, amount int) colorful.Color {
	d := float64(amount) / 255
	return colorful.Color{R: c.R + d, G: c.G + d, B: c.B + d}.Clamped()
}

// withAlpha returns c at the given opacity.
func withAlpha(c colorful.Color, alpha float64) color.Color {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}
