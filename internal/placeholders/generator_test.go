package placeholders

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarParts(t *testing.T) {
	root := Avatar(DefaultDetail)
	for _, name := range []string{NodeBody, NodeHead, NodeEyeLeft, NodeEyeRight, NodeMouth} {
		n := root.Find(name)
		require.NotNil(t, n, name)
		assert.NotNil(t, n.Mesh, name)
	}
	assert.InDelta(t, 0.3, root.Find(NodeMouth).Scale.Y(), 1e-6)
}

func TestAvatarDeterministic(t *testing.T) {
	a, b := Avatar(DefaultDetail), Avatar(DefaultDetail)
	assert.Equal(t, a.Triangles(), b.Triangles())
	assert.Equal(t, a.Find(NodeHead).Mesh.Positions, b.Find(NodeHead).Mesh.Positions)
}

func TestMeshIndicesInRange(t *testing.T) {
	for _, n := range Avatar(TierDetail["low"]).Meshes() {
		t.Run(n.Name, func(t *testing.T) {
			assert.Zero(t, len(n.Mesh.Indices)%3)
			for _, i := range n.Mesh.Indices {
				assert.Less(t, int(i), len(n.Mesh.Positions))
			}
		})
	}
}

func TestWriteOBJ(t *testing.T) {
	var obj, mtl bytes.Buffer
	root := Avatar(TierDetail["low"])
	require.NoError(t, WriteOBJ(&obj, &mtl, "model.mtl", root))

	text := obj.String()
	assert.Contains(t, text, "mtllib model.mtl")
	assert.Contains(t, text, "o head")
	assert.Contains(t, text, "usemtl mouth")
	assert.Equal(t, root.Triangles(), strings.Count(text, "\nf "))
	assert.Contains(t, mtl.String(), "newmtl eye_left")
}

func TestGenerateAndSave(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, GenerateAndSave(dir))
	for _, tier := range []string{"low", "medium", "high"} {
		_, err := os.Stat(filepath.Join(dir, "model_"+tier+".obj"))
		assert.NoError(t, err, tier)
		_, err = os.Stat(filepath.Join(dir, "model_"+tier+".mtl"))
		assert.NoError(t, err, tier)
	}
}
