// Package asset finds and loads avatar models. A load walks a fixed chain of
// formats and always ends with a usable model.
package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Tier is a model quality level
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Tiers lists every tier from cheapest to richest
func Tiers() []Tier {
	return []Tier{TierLow, TierMedium, TierHigh}
}

// ParseTier normalizes a label; unknown labels map to high
func ParseTier(label string) Tier {
	switch t := Tier(strings.ToLower(strings.TrimSpace(label))); t {
	case TierLow, TierMedium, TierHigh:
		return t
	}
	return TierHigh
}

// Format identifies a stage of the load chain
type Format string

const (
	FormatRich      Format = "rich"
	FormatStatic    Format = "static"
	FormatPrimitive Format = "primitive"
)

var (
	richExts   = []string{".glb", ".gltf"}
	staticExts = []string{".obj"}
)

// DefaultDir is where models live relative to the working directory
const DefaultDir = "assets/avatars/3d"

// Catalog maps quality tiers to model files under a directory
type Catalog struct {
	Dir string
}

// NewCatalog returns a catalog rooted at dir
func NewCatalog(dir string) Catalog {
	if dir == "" {
		dir = DefaultDir
	}
	return Catalog{Dir: dir}
}

func (c Catalog) base(t Tier) string {
	return filepath.Join(c.Dir, "model_"+string(ParseTier(string(t))))
}

// pick returns the first existing candidate, or the first candidate when
// none exist so the loader reports the missing file.
func (c Catalog) pick(t Tier, exts []string) string {
	base := c.base(t)
	for _, ext := range exts {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext
		}
	}
	return base + exts[0]
}

// Rich returns the path tried by the rich stage for t
func (c Catalog) Rich(t Tier) string {
	return c.pick(t, richExts)
}

// Static returns the path tried by the static stage for t
func (c Catalog) Static(t Tier) string {
	return c.pick(t, staticExts)
}

// Entry describes the model files available for one tier
type Entry struct {
	Tier   Tier
	Rich   string // empty when absent
	Static string // empty when absent
}

// Available reports whether any file backs this tier
func (e Entry) Available() bool {
	return e.Rich != "" || e.Static != ""
}

// Scan lists, per tier, which model files exist under dir
func Scan(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset directory: %w", err)
	}

	present := make(map[string]bool, len(entries))
	for _, entry := range entries {
		// Skip directories
		if entry.IsDir() {
			continue
		}
		present[strings.ToLower(entry.Name())] = true
	}

	find := func(t Tier, exts []string) string {
		for _, ext := range exts {
			name := "model_" + string(t) + ext
			if present[name] {
				return filepath.Join(dir, name)
			}
		}
		return ""
	}

	var out []Entry
	for _, t := range Tiers() {
		out = append(out, Entry{
			Tier:   t,
			Rich:   find(t, richExts),
			Static: find(t, staticExts),
		})
	}
	return out, nil
}
