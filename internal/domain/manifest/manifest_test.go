package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/storage"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

const yamlManifest = `
apps:
  - id: win-manual
    name: Manual
    color: "#ff6b6b"
    showsDesktopIcon: true
    defaultIconPosition: { x: 20, y: 20 }
    defaultWindowPosition: { x: 100, y: 50 }
  - id: win-billing
    name: Billing
    system: true
    fixedPosition: true
    defaultWindowPosition: { right: 10, bottom: 50 }
    defaultSize: { width: 200, height: 200 }
`

const tomlManifest = `
[[apps]]
id = "win-manual"
name = "Manual"
color = "#ff6b6b"
showsDesktopIcon = true
defaultIconPosition = { x = 20, y = 20 }
defaultWindowPosition = { x = 100, y = 50 }

[[apps]]
id = "win-billing"
name = "Billing"
system = true
fixedPosition = true
defaultWindowPosition = { right = 10, bottom = 50 }
defaultSize = { width = 200, height = 200 }
`

func TestParseFormatsAgree(t *testing.T) {
	fromYAML, err := Parse([]byte(yamlManifest), FormatYAML)
	require.NoError(t, err)
	fromTOML, err := Parse([]byte(tomlManifest), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromTOML)
	require.Len(t, fromYAML.Apps, 2)

	billing := fromYAML.Apps[1]
	assert.True(t, billing.System)
	assert.True(t, billing.FixedPosition)
	assert.Equal(t, types.Anchored(10, 50), billing.DefaultWindowPosition)
	assert.Equal(t, &types.WindowSize{Width: 200, Height: 200}, billing.DefaultSize)
	assert.Equal(t, []string{"win-manual", "win-billing"}, fromYAML.IDs())
}

func TestParseJSON(t *testing.T) {
	m, err := Parse([]byte(`{"apps":[{"id":"a","name":"A","kind":"service"}]}`), FormatJSON)
	require.NoError(t, err)
	assert.True(t, m.Apps[0].IsService())
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("apps:\n  - id: a\n    name: A\n    colour: red\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte("[[apps]]\nid = \"a\"\nname = \"A\"\ncolour = \"red\"\n"), FormatTOML)
	assert.Error(t, err)
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte("apps:\n  - {id: a, name: A}\n  - {id: a, name: B}\n"), FormatYAML)
	assert.ErrorIs(t, err, store.ErrInvalidMetadata)
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"apps.yaml": FormatYAML,
		"apps.YML":  FormatYAML,
		"apps.toml": FormatTOML,
		"apps.json": FormatJSON,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatOf("apps.ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Apps, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBundledManifestsParse(t *testing.T) {
	for _, name := range []string{"apps.yaml", "apps.toml"} {
		m, err := Load(filepath.Join("..", "..", "..", "configs", name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, m.Apps, name)
	}
}

func TestInjectPrunesUndeclared(t *testing.T) {
	backend := storage.NewMemory()
	backend.Seed(store.DefaultKey, []byte(`{"win-manual":{"isOpen":true},"removed-app":{"isOpen":true}}`))

	st := store.New(backend, store.Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, st.Hydrate(context.Background()))

	m, err := Parse([]byte(yamlManifest), FormatYAML)
	require.NoError(t, err)

	declared, err := m.Inject(st, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"win-manual", "win-billing"}, declared)
	assert.Equal(t, []string{"win-billing", "win-manual"}, st.IDs())

	rec, _ := st.Get("win-manual")
	assert.True(t, rec.IsOpen, "persisted state survives injection")
	assert.Equal(t, "Manual", rec.Name)
	assert.Equal(t, 1, backend.Writes(store.DefaultKey))
}

func TestInjectSkipsInvalid(t *testing.T) {
	st := store.New(storage.NewMemory(), store.Options{})

	m := &Manifest{Apps: []types.Metadata{
		{ID: "ok", Name: "OK"},
		{ID: "bad id!", Name: "Bad"},
	}}

	declared, err := m.Inject(st, nil)
	assert.ErrorIs(t, err, store.ErrInvalidMetadata)
	assert.Equal(t, []string{"ok"}, declared)
	assert.Equal(t, []string{"ok"}, st.IDs())
}
