package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/wikiport/internal/manifest"
)

func TestLoader_Load_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
spaces:
  - key: ENG
  - key: OPS
    force: true
options:
  continue_on_error: true
  concurrency: 4
`), 0o644))

	cfg, err := manifest.NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ENG", "OPS"}, cfg.Keys())
	require.NotNil(t, cfg.Options.ContinueOnError)
	assert.True(t, *cfg.Options.ContinueOnError)
	assert.Equal(t, 4, cfg.Options.Concurrency)
}

func TestLoader_Load_ContinueOnErrorDefaultsTrue(t *testing.T) {
	cfg, err := manifest.NewLoader().LoadFromBytes([]byte("spaces:\n  - key: ENG\n"), ".yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg.Options.ContinueOnError)
	assert.True(t, *cfg.Options.ContinueOnError)
}

func TestLoader_Load_ContinueOnErrorExplicitFalse(t *testing.T) {
	cfg, err := manifest.NewLoader().LoadFromBytes([]byte(`
spaces:
  - key: ENG
options:
  continue_on_error: false
`), ".yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg.Options.ContinueOnError)
	assert.False(t, *cfg.Options.ContinueOnError)
}

func TestLoader_Load_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"spaces": [{"key": "ENG"}]}`), 0o644))

	cfg, err := manifest.NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ENG"}, cfg.Keys())
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	_, err := manifest.NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, manifest.ErrFileNotFound)
}

func TestLoader_Load_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	_, err := manifest.NewLoader().Load(path)
	assert.ErrorIs(t, err, manifest.ErrUnsupportedExt)
}

func TestLoader_Load_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spaces: ["), 0o644))

	_, err := manifest.NewLoader().Load(path)
	assert.ErrorIs(t, err, manifest.ErrInvalidFormat)
}

func TestLoader_Load_EmptySpaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spaces: []"), 0o644))

	_, err := manifest.NewLoader().Load(path)
	assert.ErrorIs(t, err, manifest.ErrNoSpaces)
}

func TestLoader_Load_DuplicateKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
spaces:
  - key: ENG
  - key: ENG
`), 0o644))

	_, err := manifest.NewLoader().Load(path)
	assert.ErrorIs(t, err, manifest.ErrDuplicateKey)
}

func TestConfig_ForceFor(t *testing.T) {
	yes := true
	no := false
	cfg := &manifest.Config{
		Spaces: []manifest.Space{
			{Key: "A", Force: &yes},
			{Key: "B", Force: &no},
			{Key: "C"},
		},
		Options: manifest.Options{Force: true},
	}

	assert.True(t, cfg.ForceFor("A"), "per-space override wins")
	assert.False(t, cfg.ForceFor("B"), "per-space override wins even when false")
	assert.True(t, cfg.ForceFor("C"), "global option applies without override")
}
