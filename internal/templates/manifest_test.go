package templates

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildManifest(t *testing.T) {
	fsys := fstest.MapFS{
		"manifest.json":    file(`{}`),
		"README.md":        file("docs"),
		"A/2.json":         file(`[]`),
		"A/1.json":         file(`[]`),
		"A/EXAMPLE.json":   file(`[]`),
		"A/notes.txt":      file(""),
		"RR/10.json":       file(`[]`),
		"RR/9.json":        file(`[]`),
		"EMPTY/README.md":  file(""),
		"B/nested/1.json":  file(`[]`),
		"B/manifest.json":  file(`{}`),
		"B/sign-left.json": file(`[]`),
	}

	m, err := BuildManifest(fsys)
	require.NoError(t, err)

	assert.Equal(t, Manifest{
		"A":  {"1.json", "2.json"},
		"B":  {"sign-left.json"},
		"RR": {"10.json", "9.json"},
	}, m)
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"A/1.json", "A/2.json", "J/1.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	}

	m, err := WriteManifest(dir)
	require.NoError(t, err)
	assert.Len(t, m, 2)

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)

	var written Manifest
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, m, written)

	// The directory source picks the written manifest up.
	got, err := NewDirSource(os.DirFS(dir)).Manifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, m, got)

	// Rewriting does not list the manifest itself.
	again, err := WriteManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m, again)
}
