package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		label string
		want  Emotion
	}{
		{"normal", Normal},
		{"happy", Joy},
		{"JOY", Joy},
		{"  freude ", Joy},
		{"traurig", Sad},
		{"wütend", Angry},
		{"überrascht", Surprised},
		{"denkend", Thinking},
		{"thinking", Thinking},
		{"not-a-real-emotion", Normal},
		{"", Normal},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.label))
		})
	}
}

func TestLookupUnknownIsNormal(t *testing.T) {
	assert.Equal(t, Lookup(Normal), Lookup(Parse("not-a-real-emotion")))
	assert.Equal(t, Lookup(Normal), Lookup(Emotion(99)))
	assert.Equal(t, "normal", Emotion(-1).String())
}

func TestProfiles(t *testing.T) {
	assert.True(t, Lookup(Joy).Blush)
	assert.False(t, Lookup(Sad).Blush)
	assert.Equal(t, 2.0, Lookup(Joy).HeadTilt)
	assert.Equal(t, -3.0, Lookup(Sad).HeadTilt)
	assert.NotZero(t, Lookup(Thinking).TiltSway)

	for _, e := range All() {
		if e == Thinking {
			continue
		}
		assert.Zero(t, Lookup(e).TiltSway, e.String())
	}
}

func TestMorphSynonyms(t *testing.T) {
	assert.Empty(t, MorphSynonyms(Normal))
	assert.Contains(t, MorphSynonyms(Joy), "smile")
	assert.Contains(t, MorphSynonyms(Joy), "happy")
	for _, e := range All()[1:] {
		assert.NotEmpty(t, MorphSynonyms(e), e.String())
	}
}
