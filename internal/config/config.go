// Package config loads settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/naka-gawa/wiki-edit-report/internal/domain"
	"github.com/naka-gawa/wiki-edit-report/internal/render"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	AppName = "wiki-edit-report"
	// DefaultLimit is the largest page size the API grants to regular users.
	DefaultLimit     = 500
	DefaultUserAgent = "wiki-edit-report/1.0 (+https://github.com/naka-gawa/wiki-edit-report)"
	DefaultTimeout   = 30 * time.Second
	DefaultOutputDir = "."
)

// Environment variables read by Load.
const (
	EnvToken    = "WIKI_OAUTH_TOKEN"
	EnvEndpoint = "WIKI_API_ENDPOINT"
)

// ErrConfigNotFound is returned when an explicitly requested configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Config holds all settings of a run.
type Config struct {
	// APIEndpoint is the action API URL. Empty means derive it from the page URL.
	APIEndpoint string          `yaml:"api_endpoint"`
	UserAgent   string          `yaml:"user_agent"`
	Limit       int             `yaml:"limit"`
	OutputDir   string          `yaml:"output_dir"`
	Formats     []render.Format `yaml:"formats"`
	Timeout     time.Duration   `yaml:"timeout"`
	// Token is only read from the environment.
	Token string `yaml:"-"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		UserAgent: DefaultUserAgent,
		Limit:     DefaultLimit,
		OutputDir: DefaultOutputDir,
		Formats:   []render.Format{render.FormatHTML},
		Timeout:   DefaultTimeout,
	}
}

// DefaultPath is the configuration file looked up when none is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Load reads path over the defaults and applies environment overrides.
// An empty path means DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && explicit:
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.APIEndpoint = v
	}
	cfg.Token = os.Getenv(EnvToken)
	return cfg, nil
}

// Endpoint returns the API endpoint to query for pageURL.
func (c *Config) Endpoint(pageURL string) string {
	if c.APIEndpoint != "" {
		return c.APIEndpoint
	}
	return domain.APIEndpointFor(pageURL)
}

// Validate reports the first invalid setting and normalizes format names.
func (c *Config) Validate() error {
	if c.Limit < 1 || c.Limit > DefaultLimit {
		return fmt.Errorf("limit must be between 1 and %d, got %d", DefaultLimit, c.Limit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	for i, f := range c.Formats {
		parsed, err := render.ParseFormat(string(f))
		if err != nil {
			return err
		}
		c.Formats[i] = parsed
	}
	return nil
}
