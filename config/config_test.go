package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.BaseURL, config.BaseURL)
	assert.Equal(t, "main", config.DefaultBranch)
	assert.Equal(t, 5, config.ConcurrentCheckLimit)
	assert.Equal(t, 5*time.Minute, config.BranchCacheTTL)

	_, err = os.Stat(getConfigPath())
	assert.NoError(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "base_url": "https://code.example.org",
  "default_branch": "trunk",
  "concurrent_check_limit": 12,
  "branch_cache_ttl": "90s",
  "log_level": "debug"
}`), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://code.example.org", config.BaseURL)
	assert.Equal(t, "trunk", config.DefaultBranch)
	assert.Equal(t, 12, config.ConcurrentCheckLimit)
	assert.Equal(t, 90*time.Second, config.BranchCacheTTL)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "█", config.ProgressBarStyle, "unset keys keep defaults")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"default_branch": "trunk"}`), 0o600))
	t.Setenv("REPONAV_DEFAULT_BRANCH", "develop")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "develop", config.DefaultBranch)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	want := DefaultConfig()
	want.DefaultBranch = "release/1.0"
	want.CacheDir = "/tmp/previews"

	require.NoError(t, SaveConfigTo(path, want))
	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadToken(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("file-token\n"), 0o600))
	config := Config{GithubTokenPath: tokenPath}

	t.Run("env wins", func(t *testing.T) {
		t.Setenv(TokenEnv, "env-token")
		token, err := LoadToken(config)
		require.NoError(t, err)
		assert.Equal(t, "env-token", token)
	})

	t.Run("file", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		token, err := LoadToken(config)
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing file is anonymous", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		token, err := LoadToken(Config{GithubTokenPath: filepath.Join(t.TempDir(), "none")})
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}
