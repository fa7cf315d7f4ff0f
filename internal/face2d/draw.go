package face2d

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"chosenoffset.com/avatarstage/internal/emotion"
	"chosenoffset.com/avatarstage/internal/render"
)

const segments = 48

// layer is one painter's-algorithm pass.
type layer struct {
	name string
	draw func(f *Face, cx, cy float64)
}

// layers is the fixed back-to-front order. Later layers occlude earlier ones.
var layers = []layer{
	{"background", (*Face).drawBackground},
	{"body", (*Face).drawBody},
	{"head", (*Face).drawHead},
	{"hair", (*Face).drawHair},
	{"eyes", (*Face).drawEyes},
	{"cheeks", (*Face).drawCheeks},
	{"mouth", (*Face).drawMouth},
}

// Render paints the current state into the surface.
func (f *Face) Render() {
	if f.destroyed {
		return
	}
	w, h := f.surface.Size()
	cx, cy := float64(w)/2, float64(h)/2

	f.surface.Clear()
	for _, l := range layers {
		if f.onLayer != nil {
			f.onLayer(l.name)
		}
		l.draw(f, cx, cy)
	}

	if f.debug {
		f.drawDebugInfo()
	}
}

// headMatrix places face-local coordinates: origin at the head center,
// rotated by the current tilt.
func (f *Face) headMatrix(cx, cy float64) mgl64.Mat3 {
	tilt := mgl64.DegToRad(f.state.HeadTilt)
	return mgl64.Translate2D(cx, cy-40+f.state.HeadBob).Mul3(mgl64.HomogRotate2D(tilt))
}

func (f *Face) fill(m mgl64.Mat3, pts []mgl64.Vec2, clr color.Color) {
	render.FillConvex(f.renderer, f.surface, render.Transform(m, pts), clr)
}

func (f *Face) stroke(m mgl64.Mat3, pts []mgl64.Vec2, width float64, clr color.Color, closed bool) {
	render.Stroke(f.renderer, f.surface, render.Transform(m, pts), width, clr, closed)
}

func (f *Face) drawBackground(cx, cy float64) {
	w, h := f.surface.Size()
	render.FillVerticalGradient(f.renderer, f.surface, 0, 0, float64(w), float64(h),
		f.palette.BackgroundTop, f.palette.BackgroundBottom, 32)
}

func (f *Face) drawBody(cx, cy float64) {
	breath := 0.0
	if !f.state.Speaking {
		breath = f.state.Breath
	}
	bodyW := 180 + breath*2
	bodyH := 120 + breath
	outline := render.RoundRect(cx-bodyW/2, cy+70, bodyW, bodyH, 10, 6)

	f.fill(mgl64.Ident3(), outline, f.palette.Shirt)
	f.stroke(mgl64.Ident3(), outline, 2, f.palette.ShirtStroke, true)
}

func (f *Face) drawHead(cx, cy float64) {
	m := f.headMatrix(cx, cy).Mul3(mgl64.Scale2D(1.2, 1.2))

	// Shadow first, offset down-right, so the face edge reads as depth.
	f.fill(m, render.Ellipse(5, 10, 80, 110, segments), adjust(f.palette.Skin, -20))
	f.fill(m, render.Ellipse(0, 0, 80, 110, segments), f.palette.Skin)
}

func (f *Face) drawHair(cx, cy float64) {
	m := f.headMatrix(cx, cy)
	highlight := adjust(f.palette.Hair, 30)

	f.fill(m, render.RoundRect(-90, -140, 180, 80, 20, 6), f.palette.Hair)
	f.fill(m, render.RoundRect(-70, -135, 40, 15, 5, 3), highlight)
	f.fill(m, render.RoundRect(20, -130, 35, 12, 5, 3), highlight)
}

func (f *Face) drawEyes(cx, cy float64) {
	m := f.headMatrix(cx, cy)
	const eyeY = -30.0

	eyeW, eyeH := 12.0, 10.0
	if f.state.Blinking {
		eyeW, eyeH = 2, 2
	}

	for _, x := range []float64{-30, 30} {
		if !f.state.Blinking {
			f.fill(m, render.Ellipse(x, eyeY, eyeW+2, eyeH+2, segments/2), f.palette.EyeWhite)
		}
		f.fill(m, render.Ellipse(x, eyeY, eyeW, eyeH, segments/2), f.palette.Pupil)
		if !f.state.Blinking {
			f.fill(m, render.Ellipse(x-2, eyeY-2, 3, 3, 12), f.palette.EyeWhite)
		}
	}

	f.drawEyebrows(m, eyeY-25)
}

// brow describes the inner and outer end heights relative to the brow line,
// for the left brow; the right brow is mirrored.
var brows = map[emotion.EyebrowShape]struct{ outer, inner float64 }{
	emotion.BrowFlat:     {0, 0},
	emotion.BrowRaised:   {-3, -3},
	emotion.BrowWorried:  {2, -2},
	emotion.BrowFurrowed: {-5, 5},
	emotion.BrowArched:   {-10, -10},
	emotion.BrowLifted:   {-6, 0},
}

func (f *Face) drawEyebrows(m mgl64.Mat3, y float64) {
	shape := brows[emotion.Lookup(f.state.Emotion).Eyebrow]
	for _, side := range []float64{-1, 1} {
		pts := []mgl64.Vec2{{45 * side, y + shape.outer}, {15 * side, y + shape.inner}}
		f.stroke(m, pts, 4, f.palette.Hair, false)
		f.fill(m, render.Ellipse(pts[0][0], pts[0][1], 2, 2, 8), f.palette.Hair)
		f.fill(m, render.Ellipse(pts[1][0], pts[1][1], 2, 2, 8), f.palette.Hair)
	}
}

func (f *Face) drawCheeks(cx, cy float64) {
	if !emotion.Lookup(f.state.Emotion).Blush {
		return
	}
	m := f.headMatrix(cx, cy)
	blush := withAlpha(f.palette.Cheek, 0.3)
	f.fill(m, render.Ellipse(-50, 10, 15, 10, segments/2), blush)
	f.fill(m, render.Ellipse(50, 10, 15, 10, segments/2), blush)
}

func (f *Face) drawMouth(cx, cy float64) {
	m := f.headMatrix(cx, cy)
	const mouthY = 40.0

	shape := emotion.Lookup(f.state.Emotion).Mouth
	if f.state.Speaking {
		// Speech drives the mouth regardless of expression.
		shape = emotion.MouthNeutral
	}

	switch shape {
	case emotion.MouthSmile:
		f.stroke(m, render.Arc(0, mouthY-5, 25, 25, 0.2, math.Pi-0.2, 24), 3, f.palette.Mouth, false)
	case emotion.MouthFrown:
		f.stroke(m, render.Arc(0, mouthY+15, 25, 25, math.Pi+0.2, 2*math.Pi-0.2, 24), 3, f.palette.Mouth, false)
	case emotion.MouthOpen:
		f.fill(m, render.Ellipse(0, mouthY, 20, 30, segments), f.palette.Mouth)
	case emotion.MouthTight:
		f.fill(m, render.Rect(-20, mouthY-3, 40, 6), f.palette.Mouth)
	case emotion.MouthPursed:
		f.fill(m, render.Ellipse(4, mouthY, 12, 5, segments/2), f.palette.Mouth)
	default:
		const mouthW = 28.0
		mouthH := 6 + f.state.MouthOpenness*20
		f.fill(m, render.Ellipse(0, mouthY, mouthW, mouthH, segments), f.palette.Mouth)
		if mouthH > 10 {
			f.fill(m, render.Ellipse(0, mouthY-mouthH/3, mouthW-4, 3, segments/2), f.palette.EyeWhite)
		}
	}
}

func (f *Face) drawDebugInfo() {
	s := f.state
	lines := []string{
		fmt.Sprintf("Emotion: %s", s.Emotion),
		fmt.Sprintf("Speaking: %t", s.Speaking),
		fmt.Sprintf("Frame: %d", s.Frame),
		fmt.Sprintf("Mouth: %.2f", s.MouthOpenness),
	}
	for i, line := range lines {
		f.renderer.DrawText(f.surface, line, 10, 10+15*i, color.White, 1)
	}
}
