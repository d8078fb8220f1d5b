package assets

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaType(t *testing.T) {
	assert.Equal(t, "text/javascript", MediaType("app.js"))
	assert.Equal(t, "application/json", MediaType("layers/Parcels.GEOJSON"))
	assert.Equal(t, "text/css", MediaType("style.css"))
	assert.Empty(t, MediaType("favicon.ico"))
}

func TestBytes(t *testing.T) {
	m := New()

	out, err := m.Bytes("text/css", []byte("body {\n  color: red;\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", string(out))

	out, err = m.Bytes("application/json", []byte(`{ "type" : "FeatureCollection", "features" : [ ] }`))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"FeatureCollection","features":[]}`, string(out))
}

func TestDir(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "public")

	require.NoError(t, os.MkdirAll(filepath.Join(src, "layers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "app.js"), []byte("// map\nconst   zoom = 12 ;\nconsole.log( zoom );\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "layers", "gyms.geojson"), []byte("{\n  \"type\": \"FeatureCollection\",\n  \"features\": []\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "favicon.ico"), []byte{0, 0, 1, 0}, 0o644))

	results, err := New().Dir(src, dst)
	require.NoError(t, err)
	require.Len(t, results, 3)

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	assert.Equal(t, "app.js", results[0].Path)
	assert.Less(t, results[0].After, results[0].Before)
	assert.Equal(t, "favicon.ico", results[1].Path)
	assert.True(t, results[1].Copied)
	assert.Equal(t, results[1].Before, results[1].After)

	geo, err := os.ReadFile(filepath.Join(dst, "layers", "gyms.geojson"))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"FeatureCollection","features":[]}`, string(geo))

	ico, err := os.ReadFile(filepath.Join(dst, "favicon.ico"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1, 0}, ico)
}

func TestDirMissingSource(t *testing.T) {
	_, err := New().Dir(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
