package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Snapshot
		want Snapshot
	}{
		{"zero value", Snapshot{}, Default()},
		{
			"valid values kept",
			Snapshot{Type: " 2D ", Quality: "Low", SkinColor: "#AABBCC", HairColor: "112233"},
			Snapshot{Type: Type2D, Quality: "low", SkinColor: "#aabbcc", HairColor: "#112233"},
		},
		{
			"unknown values replaced",
			Snapshot{Type: "vr", Quality: "ultra", SkinColor: "skin", HairColor: "#12"},
			Default(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "avatarstage.yaml")
	want := Snapshot{Type: Type2D, Quality: "medium", SkinColor: "#c68642", HairColor: "#000000"}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("AVATARSTAGE_TYPE", "2d")
	t.Setenv("AVATARSTAGE_QUALITY", "low")

	s, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Type2D, s.Type)
	assert.Equal(t, "low", s.Quality)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: [unclosed\n"), 0o644))
	s, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), s)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avatarstage.yaml")
	require.NoError(t, Save(path, Default()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Snapshot
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, zerolog.Nop(), func(s Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, s)
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, Save(path, Snapshot{Type: Type2D}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1].Type == Type2D
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
