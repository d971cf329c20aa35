// Package app wires configuration, logging, the Telegram session and the
// clone pipeline together for the pigram commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/flemzord/pigram/internal/config"
	"github.com/flemzord/pigram/internal/security"
)

// ErrNoConfig is returned by ResolveConfigPath when no file exists.
var ErrNoConfig = errors.New("no configuration file found")

// Params carries the global command-line flags.
type Params struct {
	// ConfigPath is an explicit configuration file. If empty,
	// ResolveConfigPath is tried and built-in defaults apply when nothing
	// is found.
	ConfigPath string

	// DataDir overrides the configured data directory.
	DataDir string

	// LogLevel overrides the configured log level.
	LogLevel string

	// Version is injected at build time via ldflags.
	Version string

	Stdout io.Writer
	Stderr io.Writer
}

// Env is the loaded runtime shared by every command.
type Env struct {
	Config *config.Config
	// ConfigPath is empty when built-in defaults are in use.
	ConfigPath string
	DataDir    string
	Logger     *slog.Logger
	Redactor   *security.Redactor
	Version    string
	Stdout     io.Writer
}

// Setup loads and validates the configuration and builds the logger.
func Setup(params Params) (*Env, error) {
	if params.Stdout == nil {
		params.Stdout = os.Stdout
	}
	if params.Stderr == nil {
		params.Stderr = os.Stderr
	}

	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil && !errors.Is(err, ErrNoConfig) {
			return nil, err
		}
		cfgPath = resolved
	}

	var (
		cfg *config.Config
		err error
	)
	if cfgPath == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, err
	}
	if params.LogLevel != "" {
		cfg.LogLevel = params.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	redactor := Redactor(cfg)
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return &Env{
		Config:     cfg,
		ConfigPath: cfgPath,
		DataDir:    dataDir,
		Logger:     NewLogger(params.Stderr, level, redactor),
		Redactor:   redactor,
		Version:    params.Version,
		Stdout:     params.Stdout,
	}, nil
}

// Redactor returns a redactor that knows every secret held by cfg.
func Redactor(cfg *config.Config) *security.Redactor {
	r := security.NewRedactor(cfg.Telegram.APIHash)
	if cfg.Notify != nil {
		r.AddLiteral(cfg.Notify.BotToken)
	}
	if u, err := url.Parse(cfg.Telegram.Proxy); err == nil && u.User != nil {
		if pass, ok := u.User.Password(); ok {
			r.AddLiteral(pass)
		}
	}
	return r
}

// NewLogger wraps a text handler in a redacting handler to prevent secret
// leakage in logs.
func NewLogger(w io.Writer, level slog.Level, redactor *security.Redactor) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(security.NewRedactingHandler(inner, redactor))
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/pigram/pigram.yaml → ~/.config/pigram/pigram.yaml → ./pigram.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "pigram", "pigram.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "pigram", "pigram.yaml"))
	}

	candidates = append(candidates, "pigram.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w (searched: %v)", ErrNoConfig, candidates)
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/pigram if set, otherwise ~/.local/share/pigram per the XDG spec.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok && dir != "" {
		return filepath.Join(dir, "pigram")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "pigram")
}
