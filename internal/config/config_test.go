package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad/internal/todo"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "taskpad")
	path := filepath.Join(dir, DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(dir, DefaultDBName), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, DefaultLogName), cfg.LogPath)
	assert.Empty(t, cfg.ExportDir)
	assert.Equal(t, todo.FilterAll, cfg.Filter())
	assert.Equal(t, "ctrl+z", cfg.Keys.Undo)

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreateFillsBlankKeysAndResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	abs := filepath.Join(t.TempDir(), "elsewhere.db")
	data := `db_path = "` + filepath.ToSlash(abs) + `"
export_dir = "exports"
default_filter = "active"

[keys]
add = "n"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(abs), filepath.ToSlash(cfg.DBPath))
	assert.Equal(t, filepath.Join(dir, DefaultLogName), cfg.LogPath)
	assert.Equal(t, filepath.Join(dir, "exports"), cfg.ExportDir)
	assert.Equal(t, todo.FilterActive, cfg.Filter())
	assert.Equal(t, "n", cfg.Keys.Add)
	assert.Equal(t, "q", cfg.Keys.Quit)
	assert.Equal(t, " ", cfg.Keys.Toggle)
}

func TestLoadOrCreateRejectsBadFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_filter = "overdue"`), 0o644))

	_, err := LoadOrCreate(path)
	assert.ErrorContains(t, err, "default_filter")
}

func TestLoadOrCreateRejectsBrokenToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`db_path = `), 0o644))

	_, err := LoadOrCreate(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestResolvePathKeepsSQLiteURIs(t *testing.T) {
	assert.Equal(t, "file::memory:", resolvePath("/base", "file::memory:"))
	assert.Empty(t, resolvePath("/base", ""))
	assert.Equal(t, filepath.Join("/base", "x.db"), resolvePath("/base", "x.db"))
}

func TestResolveConfigPathPrefersEnv(t *testing.T) {
	t.Setenv(envConfigPath, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", ResolveConfigPath())
}
