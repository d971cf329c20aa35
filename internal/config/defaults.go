package config

import (
	"path/filepath"
	"time"

	"github.com/flemzord/pigram/internal/clone"
)

// Defaults for the clone section.
const (
	DefaultBatchSize     = 100
	DefaultDelay         = 800 * time.Millisecond
	DefaultCooldownEvery = 3000
	DefaultCooldown      = 500 * time.Second
	DefaultSendAttempts  = 1
	DefaultFetchAttempts = 5
	DefaultRetryBackoff  = time.Second
	DefaultMode          = "copy"
	DefaultSessionFile   = "session.json"
	DefaultCheckpointDir = "checkpoints"
	DefaultLogLevel      = "info"
	DefaultBotAPIURL     = "https://api.telegram.org"
)

func (c *Config) defaults() {
	cl := &c.Clone
	if cl.BatchSize == 0 {
		cl.BatchSize = DefaultBatchSize
	}
	if cl.Delay == 0 {
		cl.Delay = DefaultDelay
	}
	if cl.CooldownEvery == 0 {
		cl.CooldownEvery = DefaultCooldownEvery
	}
	if cl.Cooldown == 0 {
		cl.Cooldown = DefaultCooldown
	}
	if cl.SendAttempts == 0 {
		cl.SendAttempts = DefaultSendAttempts
	}
	if cl.FetchAttempts == 0 {
		cl.FetchAttempts = DefaultFetchAttempts
	}
	if cl.RetryBackoff == 0 {
		cl.RetryBackoff = DefaultRetryBackoff
	}
	if cl.Mode == "" {
		cl.Mode = DefaultMode
	}
	if c.Telegram.Session == "" {
		c.Telegram.Session = DefaultSessionFile
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Notify != nil && c.Notify.APIURL == "" {
		c.Notify.APIURL = DefaultBotAPIURL
	}
	for i := range c.Jobs {
		if c.Jobs[i].Name == "" {
			c.Jobs[i].Name = c.Jobs[i].Source + "->" + c.Jobs[i].Target
		}
	}
}

// Options converts the clone section into pipeline options.
func (c CloneConfig) Options() clone.Options {
	off := func(d time.Duration) time.Duration { return max(d, 0) }
	return clone.Options{
		BatchSize:     c.BatchSize,
		Delay:         off(c.Delay),
		CooldownEvery: max(c.CooldownEvery, 0),
		Cooldown:      off(c.Cooldown),
		SendAttempts:  c.SendAttempts,
		FetchAttempts: c.FetchAttempts,
		RetryBackoff:  off(c.RetryBackoff),
	}
}

// SessionPath returns the session file, relative paths resolved in dataDir.
func (c *Config) SessionPath(dataDir string) string {
	return underDir(dataDir, c.Telegram.Session)
}

// CheckpointPath returns the checkpoint directory.
func (c *Config) CheckpointPath(dataDir string) string {
	if c.Clone.CheckpointDir == "" {
		return filepath.Join(dataDir, DefaultCheckpointDir)
	}
	return underDir(dataDir, c.Clone.CheckpointDir)
}

func underDir(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Job returns the configured job with the given name.
func (c *Config) Job(name string) (JobConfig, bool) {
	for _, j := range c.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return JobConfig{}, false
}

// CloneJob converts a job entry into a pipeline job.
func (j JobConfig) CloneJob() clone.Job {
	return clone.Job{
		Source:      clone.ChatRef(j.Source),
		Target:      clone.ChatRef(j.Target),
		SourceTopic: clone.TopicRef(j.SourceTopic),
		TargetTopic: clone.TopicRef(j.TargetTopic),
	}
}
