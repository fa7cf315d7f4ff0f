// Package settings holds the persisted avatar preferences. The avatar core
// only ever sees immutable snapshots of them.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
)

// Backend kinds.
const (
	Type2D = "2d"
	Type3D = "3d"
)

// Defaults.
const (
	DefaultType      = Type3D
	DefaultQuality   = "high"
	DefaultSkinColor = "#f2d0b3"
	DefaultHairColor = "#2b1b12"
	DefaultFile      = "avatarstage.yaml"
	EnvPrefix        = "AVATARSTAGE"
)

// Snapshot is one immutable view of the settings
type Snapshot struct {
	Type      string `mapstructure:"type"`
	Quality   string `mapstructure:"quality"`
	SkinColor string `mapstructure:"skin_color"`
	HairColor string `mapstructure:"hair_color"`
}

// Default returns the snapshot used when nothing is configured
func Default() Snapshot {
	return Snapshot{
		Type:      DefaultType,
		Quality:   DefaultQuality,
		SkinColor: DefaultSkinColor,
		HairColor: DefaultHairColor,
	}
}

// Normalize lowercases the enums and replaces unknown values with defaults
func (s Snapshot) Normalize() Snapshot {
	d := Default()

	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	if s.Type != Type2D && s.Type != Type3D {
		s.Type = d.Type
	}

	s.Quality = strings.ToLower(strings.TrimSpace(s.Quality))
	switch s.Quality {
	case "low", "medium", "high":
	default:
		s.Quality = d.Quality
	}

	s.SkinColor = normalizeColor(s.SkinColor, d.SkinColor)
	s.HairColor = normalizeColor(s.HairColor, d.HairColor)
	return s
}

func normalizeColor(hex, fallback string) string {
	hex = strings.TrimSpace(hex)
	if hex != "" && !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	return c.Hex()
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("type", d.Type)
	v.SetDefault("quality", d.Quality)
	v.SetDefault("skin_color", d.SkinColor)
	v.SetDefault("hair_color", d.HairColor)
}

// Load reads path (if it exists) and AVATARSTAGE_* environment overrides.
// An empty path searches the working directory for avatarstage.yaml.
func Load(path string) (Snapshot, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, filepath.Ext(DefaultFile)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Default(), fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var s Snapshot
	if err := v.Unmarshal(&s); err != nil {
		return Default(), fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s.Normalize(), nil
}

// Save writes s to path, creating the directory when needed
func Save(path string, s Snapshot) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	s = s.Normalize()
	v := viper.New()
	v.Set("type", s.Type)
	v.Set("quality", s.Quality)
	v.Set("skin_color", s.SkinColor)
	v.Set("hair_color", s.HairColor)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
