package scene

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Path is the node property a channel animates.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

// Channel animates one property of one node. Translation and scale use the
// XYZ of each value; rotation stores a quaternion as XYZW.
type Channel struct {
	Node   *Node
	Path   Path
	Times  []float32
	Values []mgl32.Vec4
}

// Clip is a named set of channels.
type Clip struct {
	Name     string
	Duration float32
	Channels []Channel
}

// Apply poses every channel at time t (seconds, clamped to the keys).
func (c *Clip) Apply(t float32) {
	for _, ch := range c.Channels {
		ch.apply(t)
	}
}

func (ch Channel) apply(t float32) {
	if ch.Node == nil || len(ch.Times) == 0 || len(ch.Times) != len(ch.Values) {
		return
	}
	i := sort.Search(len(ch.Times), func(i int) bool { return ch.Times[i] > t })
	var a, b mgl32.Vec4
	var f float32
	switch {
	case i == 0:
		a, b = ch.Values[0], ch.Values[0]
	case i == len(ch.Times):
		a, b = ch.Values[i-1], ch.Values[i-1]
	default:
		t0, t1 := ch.Times[i-1], ch.Times[i]
		a, b = ch.Values[i-1], ch.Values[i]
		if t1 > t0 {
			f = (t - t0) / (t1 - t0)
		}
	}

	switch ch.Path {
	case PathTranslation:
		ch.Node.Translation = lerp3(a, b, f)
	case PathScale:
		ch.Node.Scale = lerp3(a, b, f)
	case PathRotation:
		qa := mgl32.Quat{W: a[3], V: mgl32.Vec3{a[0], a[1], a[2]}}
		qb := mgl32.Quat{W: b[3], V: mgl32.Vec3{b[0], b[1], b[2]}}
		ch.Node.Rotation = mgl32.QuatSlerp(qa, qb, f)
	}
}

func lerp3(a, b mgl32.Vec4, f float32) mgl32.Vec3 {
	v := a.Add(b.Sub(a).Mul(f))
	return mgl32.Vec3{v[0], v[1], v[2]}
}

// Player loops a clip on wall-clock time.
type Player struct {
	Clip *Clip
	time float32
}

// Advance moves the playhead by dt seconds, wrapping at the clip's end, and
// poses the nodes.
func (p *Player) Advance(dt float64) {
	if p == nil || p.Clip == nil {
		return
	}
	p.time += float32(dt)
	if p.Clip.Duration > 0 {
		p.time = float32(math.Mod(float64(p.time), float64(p.Clip.Duration)))
	}
	p.Clip.Apply(p.time)
}

// Time returns the playhead position in seconds.
func (p *Player) Time() float32 {
	return p.time
}
