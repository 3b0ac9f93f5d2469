package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noContent(ctx context.Context) (Bootstrap, error) { return Bootstrap{}, nil }

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{Name: "first", Extensions: []string{"md", "TXT"}, Content: noContent}))
	require.NoError(t, r.Register(Definition{Name: "second", Extensions: []string{".txt", "csv"}, Content: noContent}))

	tests := []struct {
		ext  string
		want string
	}{
		{"md", "first"},
		{".md", "first"},
		{"txt", "first"},
		{"CSV", "second"},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			def, err := r.Lookup(tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Name)
		})
	}

	_, err := r.Lookup("png")
	assert.True(t, errors.Is(err, ErrNoMatchingEditor))
}

func TestRegistryRegisterValidation(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(Definition{Extensions: []string{"md"}, Content: noContent}))
	assert.Error(t, r.Register(Definition{Name: "x", Content: noContent}))
	assert.Error(t, r.Register(Definition{Name: "x", Extensions: []string{"md"}}))
	require.NoError(t, r.Register(Definition{Name: "x", Extensions: []string{"md"}, Content: noContent}))
	assert.Error(t, r.Register(Definition{Name: "x", Extensions: []string{"txt"}, Content: noContent}))
	assert.Len(t, r.List(), 1)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "draw.js"), []byte("draw()"), 0o644))
	manifest := `
editors:
  - name: draw
    extensions: [excalidraw, draw]
    html: <canvas></canvas>
    script_file: draw.js
  - name: sheet
    extensions: [csv]
    html_file: missing.html
`
	path := filepath.Join(dir, "editors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadManifest(path))
	assert.Len(t, r.List(), 2)

	def, err := r.Lookup("draw")
	require.NoError(t, err)
	boot, err := def.Content(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Bootstrap{HTML: "<canvas></canvas>", Script: "draw()"}, boot)

	def, err = r.Lookup("csv")
	require.NoError(t, err)
	_, err = def.Content(context.Background())
	assert.Error(t, err)
}

func TestParseManifestInvalid(t *testing.T) {
	_, err := ParseManifest([]byte("editors: [{extensions: [md]}]"), ".")
	assert.Error(t, err)

	_, err = ParseManifest([]byte("editors: {"), ".")
	assert.Error(t, err)
}
