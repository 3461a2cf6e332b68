package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL         = "http://localhost:8000"
	defaultRequestTimeout = 10 * time.Second
	defaultLogLevel       = "warn"

	configDirName  = ".crivo_thalam"
	configFileName = "config.yaml"
)

// Config holds CLI configuration. It is built once at startup and passed to
// every component; nothing below cmd reads the environment directly.
type Config struct {
	APIURL         string
	ConfigDir      string
	RequestTimeout time.Duration
	LogLevel       string
	JournalEnabled bool
}

// DevicePath is the location of the persisted device record.
func (c *Config) DevicePath() string {
	return filepath.Join(c.ConfigDir, "device.json")
}

// JournalPath is the location of the local sqlite journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.ConfigDir, "journal.db")
}

// fileConfig mirrors the optional config.yaml in the config directory.
type fileConfig struct {
	APIURL         string `yaml:"api_url"`
	RequestTimeout string `yaml:"request_timeout"`
	LogLevel       string `yaml:"log_level"`
	Journal        *bool  `yaml:"journal"`
}

// LoadConfig loads configuration from environment variables, falling back to
// config.yaml in the config directory and then to defaults.
func LoadConfig() (*Config, error) {
	configDir := getEnv("CRIVO_CONFIG_DIR", "")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			configDir = configDirName
		} else {
			configDir = filepath.Join(home, configDirName)
		}
	}

	fc, err := readFileConfig(filepath.Join(configDir, configFileName))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:         firstNonEmpty(os.Getenv("CRIVO_API_URL"), fc.APIURL, defaultAPIURL),
		ConfigDir:      configDir,
		RequestTimeout: defaultRequestTimeout,
		LogLevel:       firstNonEmpty(os.Getenv("CRIVO_LOG_LEVEL"), fc.LogLevel, defaultLogLevel),
		JournalEnabled: true,
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")

	if raw := firstNonEmpty(os.Getenv("CRIVO_REQUEST_TIMEOUT"), fc.RequestTimeout); raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			return nil, err
		}
		cfg.RequestTimeout = timeout
	}

	if fc.Journal != nil {
		cfg.JournalEnabled = *fc.Journal
	}
	if v := os.Getenv("CRIVO_JOURNAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.JournalEnabled = b
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid CRIVO_API_URL %q: %w", c.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CRIVO_API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if strings.TrimSpace(c.ConfigDir) == "" {
		return errors.New("config directory must be set")
	}
	return nil
}

func readFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, nil
		}
		return fc, fmt.Errorf("read config file %q: %w", path, err)
	}
	if len(data) == 0 {
		return fc, nil
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return fc, nil
}

// parseTimeout accepts a Go duration ("15s") or a bare number of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid request timeout %q: %w", raw, err)
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
