// Package config defines swim-times configuration and how it is loaded.
//
// Values are layered, lowest precedence first: defaults from New, an optional
// YAML file, then SWIMTIMES_* environment variables. Command-line flags are
// applied on top by the cli package.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// DBURL is the PostgreSQL connection string. Only commands that touch the
	// store require it.
	DBURL string `koanf:"db_url"`

	// BaseURL is the meet-results site, e.g. https://www.swimcloud.com.
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// UserAgent is sent with every scrape request.
	UserAgent string `koanf:"user_agent" validate:"required"`

	// HTTPTimeout bounds a single page fetch.
	HTTPTimeout time.Duration `koanf:"http_timeout" validate:"gt=0"`

	// Workers bounds the fetch pool of each pipeline stage.
	Workers int `koanf:"workers" validate:"min=1,max=256"`

	// URLsFile lists swimmer profile pages for the dashboard.
	URLsFile string `koanf:"urls_file"`

	// StandardsFile is a CSV of time standards keyed by event.
	StandardsFile string `koanf:"standards_file"`

	// CacheFile holds dashboard data between runs; CacheTTL bounds its age.
	CacheFile string        `koanf:"cache_file"`
	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"gte=0"`

	// Addr is the dashboard listen address.
	Addr string `koanf:"addr" validate:"required"`
}

// New creates a Config populated with defaults
func New() *Config {
	return &Config{
		LogLevel:      "info",
		BaseURL:       "https://www.swimcloud.com",
		UserAgent:     "swim-times/1.0 (github.com/pfrederiksen/swim-times)",
		HTTPTimeout:   30 * time.Second,
		Workers:       min(32, runtime.NumCPU()+4),
		URLsFile:      "Data/urls.txt",
		StandardsFile: "Data/time_standard.csv",
		CacheFile:     "~/.local/share/swim-times/dashboard.json",
		CacheTTL:      6 * time.Hour,
		Addr:          ":8501",
	}
}

// RequireDB returns ErrInvalidConfig when no database URL is configured
func (c *Config) RequireDB() error {
	if strings.TrimSpace(c.DBURL) == "" {
		return invalidf("db_url is required (set SWIMTIMES_DB_URL or --db-url)")
	}
	return nil
}

// ExpandPath expands a leading ~/ to the user's home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", wrapLoad(err, "getting home directory")
	}
	return filepath.Join(home, path[2:]), nil
}
