package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chtemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/unprocessed", cfg.Dirs.Unprocessed)
	assert.Equal(t, "data/processed", cfg.Dirs.Processed)
	assert.Equal(t, "data/processed/csv", cfg.Dirs.Extracts)
	assert.Equal(t, "csv", cfg.Extract.Format)
	assert.Equal(t, 4, cfg.Extract.Concurrency)
	assert.Equal(t, ".html", cfg.Extract.SourceExt)
	assert.Equal(t, "cosd-extract.db", cfg.Journal.Path)
	assert.Equal(t, "cosd", cfg.Warehouse.SchemaName)
	assert.Empty(t, cfg.Warehouse.ExcludeGroups)
	assert.InDelta(t, 2.0, cfg.FTP.PerSecond, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chtemp(t)

	yaml := `
dirs:
  unprocessed: /srv/cosd/in
extract:
  format: xlsx
  concurrency: 8
warehouse:
  exclude_groups: ["stage_by_cancer_group_in_"]
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/cosd/in", cfg.Dirs.Unprocessed)
	assert.Equal(t, "xlsx", cfg.Extract.Format)
	assert.Equal(t, 8, cfg.Extract.Concurrency)
	assert.Equal(t, []string{"stage_by_cancer_group_in_"}, cfg.Warehouse.ExcludeGroups)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults survive partial files.
	assert.Equal(t, "data/processed", cfg.Dirs.Processed)
}

func TestLoadFromEnv(t *testing.T) {
	chtemp(t)
	t.Setenv("COSD_WAREHOUSE_DATABASE_URL", "postgres://localhost/cosd")
	t.Setenv("COSD_LOG_LEVEL", "warn")
	t.Setenv("COSD_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/cosd", cfg.Warehouse.DatabaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "chatty", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
