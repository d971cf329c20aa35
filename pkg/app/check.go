package app

import (
	"context"
	"fmt"

	"github.com/flemzord/pigram/internal/config"
	"github.com/flemzord/pigram/internal/notify"
)

// CheckConfig prints a summary of the loaded configuration. With online set
// it also verifies the notification bot token.
func CheckConfig(ctx context.Context, e *Env, online bool) error {
	cfg := e.Config
	source := e.ConfigPath
	if source == "" {
		source = "built-in defaults"
	}
	credErr := config.ValidateCredentials(cfg)

	out := e.Stdout
	fmt.Fprintf(out, "Configuration OK (%s)\n", source)
	fmt.Fprintf(out, "  data dir:    %s\n", e.DataDir)
	fmt.Fprintf(out, "  session:     %s\n", cfg.SessionPath(e.DataDir))
	fmt.Fprintf(out, "  checkpoints: %s\n", cfg.CheckpointPath(e.DataDir))
	fmt.Fprintf(out, "  mode:        %s\n", cfg.Clone.Mode)
	fmt.Fprintf(out, "  jobs:        %d\n", len(cfg.Jobs))
	for _, j := range cfg.Jobs {
		schedule := j.Schedule
		if schedule == "" {
			schedule = "manual"
		}
		fmt.Fprintf(out, "    %s: %s -> %s (%s)\n", j.Name, j.Source, j.Target, schedule)
	}
	if credErr != nil {
		fmt.Fprintf(out, "  credentials: missing (%v)\n", credErr)
	}

	if online && cfg.Notify != nil {
		bot, err := notify.NewClient(cfg.Notify.BotToken, cfg.Notify.APIURL).GetMe(ctx)
		if err != nil {
			return fmt.Errorf("notify: bot token check failed: %w", err)
		}
		fmt.Fprintf(out, "  notify bot:  @%s\n", bot.Username)
	}
	return credErr
}
