package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shenanigigs/datajobs/internal/errors"
)

// chdir moves the test into an empty directory so no stray .env is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "data/data_jobs.csv", cfg.InputPath)
	assert.Equal(t, "missing", cfg.SkillsPolicy)
	assert.Equal(t, 4, cfg.CleanWorkers)
	assert.Equal(t, 512, cfg.CleanChunkSize)
	assert.False(t, cfg.FilterAnalystRoles)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "datajobs", cfg.ServiceName)
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INPUT_PATH", "in.xlsx")
	t.Setenv("SKILLS_POLICY", "ABORT")
	t.Setenv("CLEAN_WORKERS", "8")
	t.Setenv("FILTER_ANALYST_ROLES", "true")
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("CACHE_RESET", "1")
	t.Setenv("STORE_BATCH_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "in.xlsx", cfg.InputPath)
	assert.Equal(t, "abort", cfg.SkillsPolicy)
	assert.Equal(t, 8, cfg.CleanWorkers)
	assert.True(t, cfg.FilterAnalystRoles)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.CacheReset)
	assert.Equal(t, 1000, cfg.StoreBatchSize)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OUTPUT_PATH=from-dotenv.csv\n"), 0o600))
	chdir(t, dir)
	t.Setenv("OUTPUT_PATH", "")
	require.NoError(t, os.Unsetenv("OUTPUT_PATH"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.csv", cfg.OutputPath)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown skills policy", "SKILLS_POLICY", "ignore"},
		{"zero workers", "CLEAN_WORKERS", "0"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"empty input", "INPUT_PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.val)
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
			assert.True(t, errors.Is(err, errors.ErrTypeInvalidInput))
		})
	}
}

func TestValidateRequiresRedisWhenCaching(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.CacheEnabled = true
	cfg.RedisAddr = ""
	require.Error(t, cfg.Validate())
}
