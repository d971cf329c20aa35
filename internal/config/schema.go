// Package config handles YAML configuration loading, environment variable
// expansion, defaults, and structural validation for pigram.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Clone     CloneConfig     `yaml:"clone"`
	Jobs      []JobConfig     `yaml:"jobs,omitempty"`
	Notify    *NotifyConfig   `yaml:"notify,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// DataDir holds the session file and checkpoints. Empty means the XDG
	// data directory.
	DataDir string `yaml:"data_dir,omitempty"`
}

// TelegramConfig holds the user session credentials.
type TelegramConfig struct {
	// APIID and APIHash come from https://my.telegram.org.
	APIID   int    `yaml:"api_id"`
	APIHash string `yaml:"api_hash"`

	// Phone skips the phone prompt during login.
	Phone string `yaml:"phone,omitempty"`

	// Session is the session file path. Relative paths live under DataDir.
	Session string `yaml:"session,omitempty"`

	// Proxy is an optional socks5:// URL.
	Proxy string `yaml:"proxy,omitempty"`
}

// CloneConfig tunes the cloning pipeline. Zero values select the defaults;
// a negative Delay, CooldownEvery or Cooldown turns that pause off.
type CloneConfig struct {
	BatchSize     int           `yaml:"batch_size,omitempty"`
	Delay         time.Duration `yaml:"delay,omitempty"`
	CooldownEvery int           `yaml:"cooldown_every,omitempty"`
	Cooldown      time.Duration `yaml:"cooldown,omitempty"`
	SendAttempts  int           `yaml:"send_attempts,omitempty"`
	FetchAttempts int           `yaml:"fetch_attempts,omitempty"`
	RetryBackoff  time.Duration `yaml:"retry_backoff,omitempty"`

	// Mode is "copy" (default) or "forward".
	Mode string `yaml:"mode,omitempty"`

	// CheckpointDir overrides <data_dir>/checkpoints.
	CheckpointDir string `yaml:"checkpoint_dir,omitempty"`
}

// JobConfig is one source/target pair synchronized by `pigram sync`.
type JobConfig struct {
	Name        string `yaml:"name"`
	Source      string `yaml:"source"`
	Target      string `yaml:"target"`
	SourceTopic int    `yaml:"source_topic,omitempty"`
	TargetTopic int    `yaml:"target_topic,omitempty"`

	// Schedule is a cron expression or descriptor (@hourly, @every 30m).
	// Empty means the job only runs with `pigram sync --once`.
	Schedule string `yaml:"schedule,omitempty"`
}

// NotifyConfig enables Bot API notifications when a run ends.
type NotifyConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	APIURL   string `yaml:"api_url,omitempty"`

	// OnlyFailures suppresses notifications for completed runs.
	OnlyFailures bool `yaml:"only_failures,omitempty"`
}

// TelemetryConfig controls metrics and tracing export.
type TelemetryConfig struct {
	// MetricsAddr serves /metrics and /healthz when set (e.g. 127.0.0.1:9464).
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	// OTLPEndpoint exports traces over OTLP/HTTP when set (host:port).
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
	OTLPInsecure bool   `yaml:"otlp_insecure,omitempty"`
}
