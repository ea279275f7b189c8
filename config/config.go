package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "REPONAV"
	TokenEnv  = "GITHUB_TOKEN"
)

// Config represents the application configuration
type Config struct {
	BaseURL              string        `mapstructure:"base_url"`
	DefaultBranch        string        `mapstructure:"default_branch"`
	GithubTokenPath      string        `mapstructure:"github_token_path"`
	ConcurrentCheckLimit int           `mapstructure:"concurrent_check_limit"`
	ProgressBarStyle     string        `mapstructure:"progress_bar_style"`
	BranchCacheTTL       time.Duration `mapstructure:"branch_cache_ttl"`
	CacheDir             string        `mapstructure:"cache_dir"`
	LogLevel             string        `mapstructure:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "~"
	}
	return Config{
		BaseURL:              "https://github.com",
		DefaultBranch:        "main",
		GithubTokenPath:      filepath.Join(homeDir, ".github", "token"),
		ConcurrentCheckLimit: 5,
		ProgressBarStyle:     "█",
		BranchCacheTTL:       5 * time.Minute,
		LogLevel:             "info",
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("default_branch", def.DefaultBranch)
	v.SetDefault("github_token_path", def.GithubTokenPath)
	v.SetDefault("concurrent_check_limit", def.ConcurrentCheckLimit)
	v.SetDefault("progress_bar_style", def.ProgressBarStyle)
	v.SetDefault("branch_cache_ttl", def.BranchCacheTTL.String())
	v.SetDefault("cache_dir", def.CacheDir)
	v.SetDefault("log_level", def.LogLevel)
	return v
}

// LoadConfig loads the configuration from path, or from the user config
// directory when path is empty. A missing default file is created with
// default values. REPONAV_* environment variables override the file.
func LoadConfig(path string) (Config, error) {
	v := newViper()

	if path == "" {
		path = getConfigPath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := SaveConfigTo(path, DefaultConfig()); err != nil {
				return Config{}, fmt.Errorf("error creating default config: %w", err)
			}
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}
	if config.ConcurrentCheckLimit <= 0 {
		config.ConcurrentCheckLimit = DefaultConfig().ConcurrentCheckLimit
	}

	return config, nil
}

// SaveConfigTo writes config as JSON to path.
func SaveConfigTo(path string, config Config) error {
	v := viper.New()
	v.SetConfigType("json")
	v.Set("base_url", config.BaseURL)
	v.Set("default_branch", config.DefaultBranch)
	v.Set("github_token_path", config.GithubTokenPath)
	v.Set("concurrent_check_limit", config.ConcurrentCheckLimit)
	v.Set("progress_bar_style", config.ProgressBarStyle)
	v.Set("branch_cache_ttl", config.BranchCacheTTL.String())
	v.Set("cache_dir", config.CacheDir)
	v.Set("log_level", config.LogLevel)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return os.Chmod(path, 0o600)
}

// LoadToken returns the GitHub token from the environment, or from the
// token file. A missing file means anonymous access.
func LoadToken(config Config) (string, error) {
	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		return token, nil
	}
	if config.GithubTokenPath == "" {
		return "", nil
	}

	data, err := os.ReadFile(config.GithubTokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "repo-nav", "config.json")
}
