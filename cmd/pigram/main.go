// Package main is the entry point for the pigram CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/pigram/internal/checkpoint"
	"github.com/flemzord/pigram/internal/clone"
	"github.com/flemzord/pigram/internal/telegram"
	"github.com/flemzord/pigram/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := app.SignalContext(context.Background())
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, telegram.ErrNotAuthorized) || errors.Is(err, clone.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "hint: run `pigram login` to authorize this session")
		}
		os.Exit(1)
	}
}

// globals holds the persistent flags.
type globals struct {
	configPath string
	dataDir    string
	logLevel   string
}

func (g *globals) setup(cmd *cobra.Command) (*app.Env, error) {
	return app.Setup(app.Params{
		ConfigPath: g.configPath,
		DataDir:    g.dataDir,
		LogLevel:   g.logLevel,
		Version:    version,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	})
}

func rootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "pigram",
		Short:         "Clone Telegram chat history into another chat, resumably",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&g.dataDir, "data-dir", "", "Directory holding the session and checkpoints")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		versionCmd(),
		loginCmd(g),
		logoutCmd(g),
		statusCmd(g),
		chatsCmd(g),
		cloneCmd(g),
		syncCmd(g),
		checkpointCmd(g),
		configCmd(g),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pigram %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func loginCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize a Telegram user session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			return app.Login(cmd.Context(), env, cmd.OutOrStdout())
		},
	}
}

func logoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and delete its file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			return app.Logout(cmd.Context(), env, cmd.OutOrStdout())
		},
	}
}

func statusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the session is authorized",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			return app.Status(cmd.Context(), env, cmd.OutOrStdout())
		},
	}
}

func chatsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List the account's chats with their ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			return env.WithClient(cmd.Context(), func(ctx context.Context, c *telegram.Client) error {
				return app.Chats(ctx, env, c)
			})
		},
	}
}

// pairFlags selects a chat pair directly or through a configured job.
type pairFlags struct {
	job         string
	source      string
	target      string
	sourceTopic int
	targetTopic int
}

func (p *pairFlags) register(cmd *cobra.Command, topics bool) {
	cmd.Flags().StringVarP(&p.job, "job", "j", "", "Use the source and target of a configured job")
	cmd.Flags().StringVarP(&p.source, "source", "s", "", "Source chat: id, @username or me")
	cmd.Flags().StringVarP(&p.target, "target", "t", "", "Target chat: id, @username or me")
	if topics {
		cmd.Flags().IntVar(&p.sourceTopic, "source-topic", 0, "Only clone this topic of the source")
		cmd.Flags().IntVar(&p.targetTopic, "target-topic", 0, "Post into this topic of the target")
	}
}

func (p *pairFlags) cloneJob(env *app.Env) (clone.Job, error) {
	if p.job != "" {
		j, ok := env.Config.Job(p.job)
		if !ok {
			return clone.Job{}, fmt.Errorf("unknown job %q", p.job)
		}
		return j.CloneJob(), nil
	}
	return clone.Job{
		Source:      clone.ChatRef(p.source),
		Target:      clone.ChatRef(p.target),
		SourceTopic: clone.TopicRef(p.sourceTopic),
		TargetTopic: clone.TopicRef(p.targetTopic),
	}, nil
}

func cloneCmd(g *globals) *cobra.Command {
	var pair pairFlags
	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Copy every message of a source chat into a target chat",
		Long: "Copy every message of a source chat into a target chat, oldest first.\n" +
			"Progress is checkpointed after each message; running the same pair again\n" +
			"resumes after the last copied message. Omitted chats are picked interactively.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			job, err := pair.cloneJob(env)
			if err != nil {
				return err
			}
			return env.WithClient(cmd.Context(), func(ctx context.Context, c *telegram.Client) error {
				if job.Source == "" {
					if job.Source, err = app.PickChat(ctx, c, "Source chat"); err != nil {
						return err
					}
				}
				if job.Target == "" {
					if job.Target, err = app.PickChat(ctx, c, "Target chat"); err != nil {
						return err
					}
				}
				_, err = app.Clone(ctx, env, c, job)
				return err
			})
		},
	}
	pair.register(cmd, true)
	return cmd
}

func syncCmd(g *globals) *cobra.Command {
	var params app.SyncParams
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run the configured jobs on their schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			return env.WithClient(cmd.Context(), func(ctx context.Context, c *telegram.Client) error {
				return app.Sync(ctx, env, c, params)
			})
		},
	}
	cmd.Flags().BoolVar(&params.Once, "once", false, "Run every job once and exit")
	cmd.Flags().StringSliceVar(&params.Jobs, "job", nil, "Only run the named jobs")
	return cmd
}

func checkpointCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or reset resume checkpoints",
	}

	run := func(pair *pairFlags, fn func(*app.Env, checkpoint.Key) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			job, err := pair.cloneJob(env)
			if err != nil {
				return err
			}
			if job.Source == "" || job.Target == "" {
				return errors.New("both --source and --target (or --job) are required")
			}
			if key, ok := app.NumericKey(job.Source, job.Target); ok {
				return fn(env, key)
			}
			return env.WithClient(cmd.Context(), func(ctx context.Context, c *telegram.Client) error {
				key, err := app.ResolveKey(ctx, c, job.Source, job.Target)
				if err != nil {
					return err
				}
				return fn(env, key)
			})
		}
	}

	var showPair, resetPair pairFlags
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the last copied message id of a pair",
		RunE:  run(&showPair, app.ShowCheckpoint),
	}
	showPair.register(show, false)

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Forget the progress of a pair so the next run starts over",
		RunE:  run(&resetPair, app.ResetCheckpoint),
	}
	resetPair.register(reset, false)

	cmd.AddCommand(show, reset)
	return cmd
}

func configCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	var online bool
	check := &cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				g.configPath = args[0]
			}
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			return app.CheckConfig(cmd.Context(), env, online)
		},
	}
	check.Flags().BoolVar(&online, "online", false, "Also verify the notification bot token")
	cmd.AddCommand(check)
	return cmd
}
