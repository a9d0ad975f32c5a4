package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultTextModel, cfg.Models.Text)
	assert.Equal(t, 5*time.Second, cfg.Video.PollInterval)
	assert.Equal(t, defaultMaxPolls, cfg.Video.MaxPolls)
	assert.Equal(t, "file", cfg.Credentials.Backend)
	assert.NotEmpty(t, cfg.Credentials.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coursemarketer.yaml")
	content := `
server:
  port: "9000"
video:
  poll_interval: 2s
  max_polls: 10
content:
  platform_name: Hahow
credentials:
  backend: redis
  redis_url: redis://localhost:6379/0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Video.PollInterval)
	assert.Equal(t, 10, cfg.Video.MaxPolls)
	assert.Equal(t, "Hahow", cfg.Content.PlatformName)
	assert.Equal(t, "redis", cfg.Credentials.Backend)
	assert.Equal(t, defaultImageModel, cfg.Models.Image)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("COURSEMARKETER_VIDEO_MAX_POLLS", "3")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Video.MaxPolls)
	assert.Equal(t, "otlp", cfg.Tracing.Exporter)
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestEnvAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", " fallback ")
	assert.Equal(t, "fallback", EnvAPIKey())

	t.Setenv("GEMINI_API_KEY", "primary")
	assert.Equal(t, "primary", EnvAPIKey())
}
