// Package emotion maps emotion labels to the visual parameters both avatar
// backends consume. Everything here is a fixed table; there is no state.
package emotion

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Emotion is one entry of the fixed emotion domain.
type Emotion int

// Emotion constants. Normal is the zero value so an unset field is neutral.
const (
	Normal Emotion = iota
	Joy
	Sad
	Angry
	Surprised
	Thinking
)

var names = [...]string{
	Normal:    "normal",
	Joy:       "joy",
	Sad:       "sad",
	Angry:     "angry",
	Surprised: "surprised",
	Thinking:  "thinking",
}

// String returns the canonical English label.
func (e Emotion) String() string {
	if e < Normal || int(e) >= len(names) {
		return names[Normal]
	}
	return names[e]
}

// All returns every emotion in declaration order.
func All() []Emotion {
	return []Emotion{Normal, Joy, Sad, Angry, Surprised, Thinking}
}

// aliases resolves labels (English and German) to their enum entry.
var aliases = map[string]Emotion{
	"normal":      Normal,
	"neutral":     Normal,
	"joy":         Joy,
	"happy":       Joy,
	"freude":      Joy,
	"sad":         Sad,
	"traurig":     Sad,
	"angry":       Angry,
	"wütend":      Angry,
	"wuetend":     Angry,
	"surprised":   Surprised,
	"überrascht":  Surprised,
	"ueberrascht": Surprised,
	"thinking":    Thinking,
	"denkend":     Thinking,
}

// Parse resolves a label to an Emotion. Unknown labels normalize to Normal.
func Parse(label string) Emotion {
	if e, ok := aliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return e
	}
	return Normal
}

// EyebrowShape identifies how the 2D renderer draws the brows.
type EyebrowShape int

const (
	BrowFlat EyebrowShape = iota
	BrowRaised
	BrowWorried
	BrowFurrowed
	BrowArched
	BrowLifted
)

// MouthShape identifies how the 2D renderer draws the mouth.
type MouthShape int

const (
	MouthNeutral MouthShape = iota // openness-driven ellipse
	MouthSmile
	MouthFrown
	MouthOpen
	MouthTight
	MouthPursed
)

// EyePose is the discrete eye transform applied by the 3D backend when the
// model has no matching morph channels.
type EyePose struct {
	Scale mgl32.Vec3
	Drop  float32 // downward offset in model units
	Roll  float32 // radians, mirrored between left and right eye
}

// Profile is the immutable visual target set for one emotion.
type Profile struct {
	Eyebrow  EyebrowShape
	Mouth    MouthShape
	HeadTilt float64 // degrees
	TiltSway float64 // degrees of slow sinusoidal sway, 0 for none
	Blush    bool
	Eye      EyePose
}

var restEye = EyePose{Scale: mgl32.Vec3{1, 1, 1}}

var profiles = [...]Profile{
	Normal: {Eyebrow: BrowFlat, Mouth: MouthNeutral, Eye: restEye},
	Joy: {
		Eyebrow:  BrowRaised,
		Mouth:    MouthSmile,
		HeadTilt: 2,
		Blush:    true,
		Eye:      EyePose{Scale: mgl32.Vec3{1, 0.7, 1}},
	},
	Sad: {
		Eyebrow:  BrowWorried,
		Mouth:    MouthFrown,
		HeadTilt: -3,
		Eye:      EyePose{Scale: mgl32.Vec3{1, 1, 1}, Drop: 0.02},
	},
	Angry: {
		Eyebrow: BrowFurrowed,
		Mouth:   MouthTight,
		Eye:     EyePose{Scale: mgl32.Vec3{1, 1, 1}, Roll: 0.3},
	},
	Surprised: {
		Eyebrow: BrowArched,
		Mouth:   MouthOpen,
		Eye:     EyePose{Scale: mgl32.Vec3{1.5, 1.5, 1.5}},
	},
	Thinking: {
		Eyebrow:  BrowLifted,
		Mouth:    MouthPursed,
		TiltSway: 5,
		Eye:      restEye,
	},
}

// Lookup returns the profile for e. Out-of-range values get the Normal profile.
func Lookup(e Emotion) Profile {
	if e < Normal || int(e) >= len(profiles) {
		return profiles[Normal]
	}
	return profiles[e]
}

var morphSynonyms = map[Emotion][]string{
	Joy:       {"happy", "smile", "joy"},
	Sad:       {"sad", "frown"},
	Angry:     {"angry", "mad"},
	Surprised: {"surprised", "shock"},
	Thinking:  {"thinking", "concentrate"},
}

// MorphSynonyms returns the morph-channel names that bind to e, in priority order.
// Normal has none: it is expressed by zeroing every channel.
func MorphSynonyms(e Emotion) []string {
	return morphSynonyms[e]
}
