package model3d

import (
	"strings"

	"chosenoffset.com/avatarstage/internal/emotion"
	"chosenoffset.com/avatarstage/internal/scene"
)

// boundMesh maps emotions to morph channel indices on one mesh node.
type boundMesh struct {
	node     *scene.Node
	channels map[emotion.Emotion]int
}

// Binding maps each morph-carrying mesh to the channels that express each
// emotion. It is rebuilt on every model commit.
type Binding struct {
	meshes []boundMesh
}

// Bind walks root and matches morph target names against the emotion
// synonyms. Meshes without any match are left out.
func Bind(root *scene.Node) Binding {
	var b Binding
	if root == nil {
		return b
	}
	for _, n := range root.Meshes() {
		if len(n.Mesh.Morphs) == 0 {
			continue
		}
		channels := map[emotion.Emotion]int{}
		for _, e := range emotion.All() {
			if idx, ok := findChannel(n.Mesh.Morphs, emotion.MorphSynonyms(e)); ok {
				channels[e] = idx
			}
		}
		if len(channels) > 0 {
			b.meshes = append(b.meshes, boundMesh{node: n, channels: channels})
		}
	}
	return b
}

func findChannel(morphs []scene.MorphTarget, synonyms []string) (int, bool) {
	for _, name := range synonyms {
		for i, m := range morphs {
			if strings.EqualFold(m.Name, name) {
				return i, true
			}
		}
	}
	return 0, false
}

// Empty reports whether no mesh carries a usable channel.
func (b Binding) Empty() bool {
	return len(b.meshes) == 0
}

// Apply zeroes every influence on the bound meshes and raises the channel
// bound to e to 1. Only one channel per mesh is ever active.
func (b Binding) Apply(e emotion.Emotion) {
	for _, m := range b.meshes {
		n := m.node
		if len(n.Influences) != len(n.Mesh.Morphs) {
			n.Influences = make([]float32, len(n.Mesh.Morphs))
		}
		for i := range n.Influences {
			n.Influences[i] = 0
		}
		if idx, ok := m.channels[e]; ok {
			n.Influences[idx] = 1
		}
	}
}
