package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Web.Port)
	assert.Equal(t, 4, cfg.Probe.Workers)
	assert.Equal(t, 30*time.Second, cfg.Probe.PerItemTimeout)
	assert.Equal(t, "results", cfg.Storage.ResultsRoot)
	assert.Equal(t, "exclusions", cfg.Storage.ExclusionsDir)
	assert.Equal(t, "ffmpeg", cfg.Renderer.FFmpegPath)
	assert.Equal(t, "tasks.yaml", cfg.TasksFile)
	assert.Empty(t, cfg.Telemetry.ExporterEndpoint)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  port: "8080"
probe:
  workers: 2
  per_item_timeout: 10s
storage:
  results_root: /var/lib/vidmark/results
  exclusions_dir: /var/lib/vidmark/exclusions
tasks_file: /etc/vidmark/tasks.yaml
`), 0o640))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Web.Port)
	assert.Equal(t, 2, cfg.Probe.Workers)
	assert.Equal(t, 10*time.Second, cfg.Probe.PerItemTimeout)
	assert.Equal(t, "/var/lib/vidmark/results", cfg.Storage.ResultsRoot)
	assert.Equal(t, "/etc/vidmark/tasks.yaml", cfg.TasksFile)

	// File values merge over defaults, not replace them.
	assert.Equal(t, "0.0.0.0", cfg.Web.Host)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VIDMARK_WEB_PORT", "9999")
	t.Setenv("VIDMARK_PROBE_WORKERS", "8")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Web.Port)
	assert.Equal(t, 8, cfg.Probe.Workers)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
probe:
  workers: 0
`), 0o640))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
