package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Environment variables consulted when the file leaves credentials empty.
const (
	EnvAPIID   = "TELEGRAM_API_ID"
	EnvAPIHash = "TELEGRAM_API_HASH"
)

// Load reads a YAML configuration file, expands environment variables,
// parses it into a Config struct and fills the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.defaults()
	return &cfg, nil
}

// Default returns the configuration used when no file exists: built-in
// defaults with credentials from the environment.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.defaults()
	return &cfg, nil
}

// applyEnv fills empty credentials from TELEGRAM_API_ID / TELEGRAM_API_HASH.
func (c *Config) applyEnv() error {
	if c.Telegram.APIID == 0 {
		if v, ok := os.LookupEnv(EnvAPIID); ok && v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s must be an integer: %w", EnvAPIID, err)
			}
			c.Telegram.APIID = id
		}
	}
	if c.Telegram.APIHash == "" {
		c.Telegram.APIHash = os.Getenv(EnvAPIHash)
	}
	return nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Returns an error listing all unresolved variables (no default, no env value).
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		hasDefault := len(subs) > 2 && subs[2] != nil

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if hasDefault {
			return subs[2]
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}
