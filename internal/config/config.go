package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const ConfigPathEnv = "RESULT_PORTAL_CONFIG"

type Config struct {
	API     APIConfig     `yaml:"api"`
	UI      UIConfig      `yaml:"ui"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"RESULT_PORTAL_API_URL"`
	Timeout time.Duration `yaml:"timeout" env:"RESULT_PORTAL_TIMEOUT"`
}

type UIConfig struct {
	NoticeDelay time.Duration `yaml:"notice_delay" env:"RESULT_PORTAL_NOTICE_DELAY"`
}

type StorageConfig struct {
	TokenFile string `yaml:"token_file" env:"RESULT_PORTAL_TOKEN_FILE"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"RESULT_PORTAL_LOG_LEVEL"`
	Format string `yaml:"format" env:"RESULT_PORTAL_LOG_FORMAT"`
	File   string `yaml:"file" env:"RESULT_PORTAL_LOG_FILE"`
}

func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8001",
			Timeout: 30 * time.Second,
		},
		UI: UIConfig{
			NoticeDelay: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers defaults, the optional YAML file and RESULT_PORTAL_* env vars,
// in that order.
func Load() (*Config, error) {
	cfg := Default()

	configPath := os.Getenv(ConfigPathEnv)
	explicit := configPath != ""
	if !explicit {
		if dir, err := os.UserConfigDir(); err == nil {
			configPath = filepath.Join(dir, "result_portal", "config.yaml")
		}
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api timeout must not be negative")
	}
	if c.UI.NoticeDelay <= 0 {
		return fmt.Errorf("ui notice_delay must be positive")
	}
	return nil
}

// TokenPath returns the configured token file or the per-user default.
func (c *Config) TokenPath() (string, error) {
	if c.Storage.TokenFile != "" {
		return c.Storage.TokenFile, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "result_portal", "token.gob"), nil
}

// LogPath returns the configured log file or <UserCacheDir>/result_portal/portal.log.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "result_portal", "portal.log"), nil
}
