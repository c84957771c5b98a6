package config

import (
	"context"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "SWIMTIMES_"
	envConfig  = "SWIMTIMES_CONFIG"
	koanfDelim = "."
)

var validate = validator.New()

// Override adjusts a loaded Config before it is validated
type Override func(*Config)

// Load builds a Config by layering defaults, an optional YAML file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file at path, or at $SWIMTIMES_CONFIG when path is empty
//  3. env (prefix SWIMTIMES_, e.g. SWIMTIMES_DB_URL -> db_url)
//  4. overrides, e.g. command-line flags
//
// Validation runs once, after every layer is applied.
func Load(ctx context.Context, path string, overrides ...Override) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapLoad(err, "load config")
	}

	k := koanf.New(koanfDelim)

	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapLoad(err, "read config file "+path)
		}
	}

	envProvider := env.Provider(envPrefix, koanfDelim, func(s string) string {
		if s == envConfig {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapLoad(err, "read environment")
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapLoad(err, "decode config")
	}
	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes and checks the configuration
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if err := validate.Struct(c); err != nil {
		return wrapInvalid(err, "validate config")
	}
	return nil
}
