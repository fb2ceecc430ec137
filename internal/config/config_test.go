package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "job_scraper", cfg.MongoDatabase)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.True(t, cfg.BrowserHeadless)
	assert.Equal(t, 3, cfg.TaskMaxRetries)
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"http_addr: \":9090\"\nmongo_database: staging_jobs\ntask_max_retries: 5\n",
	), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MONGO_DATABASE", "prod_jobs")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "prod_jobs", cfg.MongoDatabase)
	assert.Equal(t, 5, cfg.TaskMaxRetries)
}

func TestLoadEnvBool(t *testing.T) {
	t.Setenv("BROWSER_HEADLESS", "false")
	cfg := Load()
	assert.False(t, cfg.BrowserHeadless)
}
