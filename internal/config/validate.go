package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flemzord/pigram/internal/cron"
)

// Validate checks the structural validity of a Config. Credentials are not
// checked here; commands that need a session call ValidateCredentials.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateClone(cfg.Clone)...)
	errs = append(errs, validateJobs(cfg.Jobs)...)
	errs = append(errs, validateNotify(cfg.Notify)...)

	if p := cfg.Telegram.Proxy; p != "" && !strings.HasPrefix(p, "socks5://") && !strings.HasPrefix(p, "socks5h://") {
		errs = append(errs, fmt.Errorf("config: telegram.proxy must be a socks5:// url, got %q", p))
	}

	return errors.Join(errs...)
}

// ValidateCredentials checks that a session can be opened.
func ValidateCredentials(cfg *Config) error {
	var errs []error
	if cfg.Telegram.APIID <= 0 {
		errs = append(errs, fmt.Errorf("config: telegram.api_id is required (or set %s)", EnvAPIID))
	}
	if cfg.Telegram.APIHash == "" {
		errs = append(errs, fmt.Errorf("config: telegram.api_hash is required (or set %s)", EnvAPIHash))
	}
	return errors.Join(errs...)
}

func validateClone(c CloneConfig) []error {
	var errs []error
	if c.BatchSize < 1 || c.BatchSize > 100 {
		errs = append(errs, fmt.Errorf("config: clone.batch_size must be between 1 and 100, got %d", c.BatchSize))
	}
	if c.SendAttempts < 1 {
		errs = append(errs, fmt.Errorf("config: clone.send_attempts must be at least 1, got %d", c.SendAttempts))
	}
	if c.FetchAttempts < 1 {
		errs = append(errs, fmt.Errorf("config: clone.fetch_attempts must be at least 1, got %d", c.FetchAttempts))
	}
	switch c.Mode {
	case "copy", "forward":
	default:
		errs = append(errs, fmt.Errorf("config: clone.mode must be copy or forward, got %q", c.Mode))
	}
	return errs
}

func validateJobs(jobs []JobConfig) []error {
	var errs []error
	names := make(map[string]bool, len(jobs))
	for i, j := range jobs {
		if j.Source == "" || j.Target == "" {
			errs = append(errs, fmt.Errorf("config: jobs[%d]: source and target are required", i))
		}
		if j.SourceTopic < 0 || j.TargetTopic < 0 {
			errs = append(errs, fmt.Errorf("config: jobs[%d]: topics must not be negative", i))
		}
		if names[j.Name] {
			errs = append(errs, fmt.Errorf("config: jobs[%d]: duplicate name %q", i, j.Name))
		}
		names[j.Name] = true
		if j.Schedule != "" {
			if _, err := cron.Parser.Parse(j.Schedule); err != nil {
				errs = append(errs, fmt.Errorf("config: jobs[%d]: invalid schedule %q: %w", i, j.Schedule, err))
			}
		}
	}
	return errs
}

func validateNotify(n *NotifyConfig) []error {
	if n == nil {
		return nil
	}
	var errs []error
	if n.BotToken == "" {
		errs = append(errs, errors.New("config: notify.bot_token is required"))
	}
	if n.ChatID == 0 {
		errs = append(errs, errors.New("config: notify.chat_id is required"))
	}
	return errs
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q", s)
	}
	return level, nil
}
