package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

const yamlLayout = `
id: morning
name: Morning
widgets:
  - id: clock
    definitionId: Clock
    gridPosition: {x: 0, y: 0}
    gridSize: {width: 1, height: 1}
    properties:
      format: 12h
  - id: quote
    definitionId: Quote
    gridSize: {width: 2, height: 2}
    properties:
      topic: coffee
`

const tomlLayout = `
name = "Evening"

[[widgets]]
id = "clock"
definitionId = "Clock"

[widgets.gridSize]
width = 2
height = 2

[widgets.properties]
label = "Later"
`

const jsonLayout = `{"id":"work","name":"Work","widgets":[{"id":"q","definitionId":"Quote","gridSize":{"width":1,"height":1}}]}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSeederLoadsAllFormats(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeFile(t, dir, "morning.yaml", yamlLayout)
	writeFile(t, dir, "nested/evening.toml", tomlLayout)
	writeFile(t, dir, "work.json", jsonLayout)
	writeFile(t, dir, "broken.yml", "widgets: [unterminated")
	writeFile(t, dir, "README.md", "# not a layout")

	result, err := NewSeeder(m, dir, nil).Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Loaded: 3, Failed: 1}, result)

	morning, err := m.Get(ctx, "morning")
	require.NoError(t, err)
	assert.Equal(t, "Morning", morning.Name)
	require.Len(t, morning.Widgets, 2)
	assert.Equal(t, "12h", morning.Widgets[0].Properties["format"])

	evening, err := m.Get(ctx, "evening")
	require.NoError(t, err, "layouts without an id are keyed by file name")
	assert.Equal(t, widget.Size{Width: 2, Height: 2}, evening.Widgets[0].Size)

	board, err := m.Board(ctx, "evening")
	require.NoError(t, err)
	assert.Equal(t, "Later 24h", board.Tiles[0].State.Data)
}

func TestSeederSkipsExistingLayouts(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Save(ctx, &Layout{ID: "work", Name: "Edited"})
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "work.json", jsonLayout)

	result, err := NewSeeder(m, dir, nil).Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Skipped: 1}, result)

	work, err := m.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "Edited", work.Name)
}

func TestSeederMissingDirectory(t *testing.T) {
	m, _ := newTestManager(t)

	result, err := NewSeeder(m, filepath.Join(t.TempDir(), "absent"), nil).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, result)
}

func TestDecodeLayoutUnsupportedFormat(t *testing.T) {
	_, err := DecodeLayout("layout.xml", []byte("<layout/>"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
