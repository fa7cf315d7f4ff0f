package raster

type pt struct{ x, y float32 }

// clip cuts poly to the rectangle [x0,x1]x[y0,y1] (Sutherland-Hodgman).
// The rasterizer only accepts paths inside its own bounds.
func clip(poly []pt, x0, y0, x1, y1 float32) []pt {
	edges := []struct {
		inside func(p pt) bool
		cross  func(a, b pt) pt
	}{
		{func(p pt) bool { return p.x >= x0 }, func(a, b pt) pt { return atX(a, b, x0) }},
		{func(p pt) bool { return p.x <= x1 }, func(a, b pt) pt { return atX(a, b, x1) }},
		{func(p pt) bool { return p.y >= y0 }, func(a, b pt) pt { return atY(a, b, y0) }},
		{func(p pt) bool { return p.y <= y1 }, func(a, b pt) pt { return atY(a, b, y1) }},
	}

	out := poly
	for _, e := range edges {
		if len(out) == 0 {
			break
		}
		in := out
		out = make([]pt, 0, len(in)+2)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

func atX(a, b pt, x float32) pt {
	t := (x - a.x) / (b.x - a.x)
	return pt{x, a.y + (b.y-a.y)*t}
}

func atY(a, b pt, y float32) pt {
	t := (y - a.y) / (b.y - a.y)
	return pt{a.x + (b.x-a.x)*t, y}
}
