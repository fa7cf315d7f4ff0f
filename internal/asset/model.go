package asset

import (
	"strings"

	"chosenoffset.com/avatarstage/internal/scene"
)

// Model is a loaded avatar ready to be attached to a scene
type Model struct {
	Root   *scene.Node
	Clips  []*scene.Clip
	Format Format
	Path   string
}

// IdleClips returns the clips whose name mentions idle
func (m *Model) IdleClips() []*scene.Clip {
	var out []*scene.Clip
	for _, c := range m.Clips {
		if strings.Contains(strings.ToLower(c.Name), "idle") {
			out = append(out, c)
		}
	}
	return out
}

// Loader reads one model file
type Loader func(path string) (*Model, error)
