package space

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/notebook/internal/service"
	"github.com/GriffinCanCode/notebook/internal/space"
)

func newTestRegistry(t *testing.T) (*service.Registry, *space.Store) {
	t.Helper()
	store, err := space.New(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	r := service.NewRegistry(nil)
	require.NoError(t, r.Register(NewProvider(store)))
	return r, store
}

func TestPages(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Invoke(ctx, "space.writePage", []any{"notes/a", "# A"})
	require.NoError(t, err)

	text, err := r.Invoke(ctx, "space.readPage", []any{"notes/a"})
	require.NoError(t, err)
	assert.Equal(t, "# A", text)

	pages, err := r.Invoke(ctx, "space.listPages", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/a"}, pages)

	_, err = r.Invoke(ctx, "space.readPage", []any{"missing"})
	assert.True(t, errors.Is(err, space.ErrNotFound))
}

func TestFiles(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()

	encoded := base64.StdEncoding.EncodeToString([]byte("binary\x00data"))
	_, err := r.Invoke(ctx, "space.writeFile", []any{"att/blob.bin", encoded})
	require.NoError(t, err)
	assert.True(t, store.FileExists("att/blob.bin"))

	result, err := r.Invoke(ctx, "space.readFile", []any{"att/blob.bin"})
	require.NoError(t, err)
	file := result.(File)
	assert.Equal(t, encoded, file.Data)
	assert.Equal(t, "att/blob.bin", file.Meta.Name)

	exists, err := r.Invoke(ctx, "space.fileExists", []any{"att/blob.bin"})
	require.NoError(t, err)
	assert.Equal(t, true, exists)

	listed, err := r.Invoke(ctx, "space.list", []any{"att/*"})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = r.Invoke(ctx, "space.deleteFile", []any{"att/blob.bin"})
	require.NoError(t, err)
	assert.False(t, store.FileExists("att/blob.bin"))

	_, err = r.Invoke(ctx, "space.writeFile", []any{"x.bin", "not base64!"})
	assert.Error(t, err)
}

func TestEscapesRejected(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Invoke(context.Background(), "space.readFile", []any{"../secret"})
	assert.True(t, errors.Is(err, space.ErrOutsideSpace))
}

func TestDataFormats(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()
	value := map[string]any{"title": "Board", "tags": []any{"a", "b"}}

	for _, name := range []string{"data/board.json", "data/board.yaml", "data/board.toml"} {
		t.Run(name, func(t *testing.T) {
			_, err := r.Invoke(ctx, "space.writeData", []any{name, value})
			require.NoError(t, err)
			assert.True(t, store.FileExists(name))

			parsed, err := r.Invoke(ctx, "space.readData", []any{name})
			require.NoError(t, err)
			m, ok := parsed.(map[string]any)
			require.True(t, ok, "%T", parsed)
			assert.Equal(t, "Board", m["title"])
			assert.Len(t, m["tags"], 2)
		})
	}

	_, err := r.Invoke(ctx, "space.writeData", []any{"data/table.csv", []any{
		[]any{"name", "qty"},
		[]any{"pen", 3},
	}})
	require.NoError(t, err)
	rows, err := r.Invoke(ctx, "space.readData", []any{"data/table.csv"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"name": "pen", "qty": "3"}}, rows)

	_, err = r.Invoke(ctx, "space.readData", []any{"notes.md"})
	assert.Error(t, err)
	_, err = r.Invoke(ctx, "space.writeData", []any{"data/x.xml", value})
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, err := r.Invoke(ctx, "space.writePage", []any{"a", "# Groceries\nbuy Milk\n"})
	require.NoError(t, err)
	_, err = r.Invoke(ctx, "space.writePage", []any{"b", "milk again\nmilk thrice"})
	require.NoError(t, err)

	result, err := r.Invoke(ctx, "space.search", []any{"milk"})
	require.NoError(t, err)
	matches := result.([]Match)
	require.Len(t, matches, 3)
	assert.Equal(t, Match{Page: "a", Line: 2, Text: "buy Milk"}, matches[0])

	result, err = r.Invoke(ctx, "space.search", []any{"milk", float64(1)})
	require.NoError(t, err)
	assert.Len(t, result.([]Match), 1)

	_, err = r.Invoke(ctx, "space.search", nil)
	assert.Error(t, err)
}
