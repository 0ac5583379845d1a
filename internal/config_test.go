package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(EnvDataDirectory, "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "mikedb", cfg.AppName)
	require.Equal(t, "data", cfg.Storage.DataDirectory)
	require.Equal(t, int64(8192), cfg.Storage.PageSize)
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mikedb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_name: test
storage:
  data_directory: /srv/file-dir
  page_size: 512
log:
  level: debug
`), 0o644))

	t.Setenv(EnvDataDirectory, "")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "test", cfg.AppName)
	require.Equal(t, "/srv/file-dir", cfg.Storage.DataDirectory)
	require.Equal(t, int64(512), cfg.Storage.PageSize)
	require.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	t.Setenv(EnvDataDirectory, "/srv/env-dir")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/env-dir", cfg.Storage.DataDirectory)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  page_size: -1\n"), 0o644))
	_, err = LoadConfig(path)
	require.ErrorContains(t, err, "page_size")
}
