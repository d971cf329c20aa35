package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// Config holds the credentials and local state of a user session.
type Config struct {
	APIID       int
	APIHash     string
	SessionPath string
	// Proxy is an optional socks5:// URL.
	Proxy  string
	Client ClientOptions
	Logger *slog.Logger
}

// Validate checks the fields required to connect.
func (c Config) Validate() error {
	var errs []error
	if c.APIID <= 0 {
		errs = append(errs, errors.New("telegram: api_id is required"))
	}
	if c.APIHash == "" {
		errs = append(errs, errors.New("telegram: api_hash is required"))
	}
	if c.SessionPath == "" {
		errs = append(errs, errors.New("telegram: session path is required"))
	}
	return errors.Join(errs...)
}

// Session owns one MTProto connection and its persisted authorization.
type Session struct {
	cfg    Config
	client *telegram.Client
	logger *slog.Logger
}

// NewSession prepares a session. No network activity happens until Run.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SessionPath), 0o700); err != nil {
		return nil, fmt.Errorf("telegram: creating session directory: %w", err)
	}

	opts := telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionPath},
	}
	if cfg.Proxy != "" {
		resolver, err := proxyResolver(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		opts.Resolver = resolver
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Client.Logger = logger

	return &Session{
		cfg:    cfg,
		client: telegram.NewClient(cfg.APIID, cfg.APIHash, opts),
		logger: logger.With("component", "session"),
	}, nil
}

// Run connects, checks that the session is authorized and calls fn with a
// ready Client. The connection is closed when fn returns.
func (s *Session) Run(ctx context.Context, fn func(ctx context.Context, c *Client) error) error {
	return s.client.Run(ctx, func(ctx context.Context) error {
		status, err := s.client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("telegram: checking auth status: %w", mapError(err))
		}
		if !status.Authorized {
			return ErrNotAuthorized
		}
		if status.User != nil {
			s.logger.Debug("session restored", "user_id", status.User.ID, "username", status.User.Username)
		}
		return fn(ctx, NewClient(s.client.API(), s.cfg.Client))
	})
}

// Status reports whether the stored session is authorized, and as whom.
func (s *Session) Status(ctx context.Context) (*auth.Status, error) {
	var status *auth.Status
	err := s.client.Run(ctx, func(ctx context.Context) error {
		var err error
		status, err = s.client.Auth().Status(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: checking auth status: %w", err)
	}
	return status, nil
}

// Login runs the interactive sign-in flow when the session is not yet
// authorized and returns the logged-in user.
func (s *Session) Login(ctx context.Context, authenticator auth.UserAuthenticator) (*tg.User, error) {
	var user *tg.User
	err := s.client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(authenticator, auth.SendCodeOptions{})
		if err := s.client.Auth().IfNecessary(ctx, flow); err != nil {
			return err
		}
		self, err := s.client.Self(ctx)
		if err != nil {
			return err
		}
		user = self
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: login: %w", err)
	}
	s.logger.Info("logged in", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Logout terminates the authorization on the server and removes the local
// session file.
func (s *Session) Logout(ctx context.Context) error {
	err := s.client.Run(ctx, func(ctx context.Context) error {
		status, err := s.client.Auth().Status(ctx)
		if err != nil {
			return err
		}
		if !status.Authorized {
			return nil
		}
		_, err = s.client.API().AuthLogOut(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("telegram: logout: %w", err)
	}
	if err := os.Remove(s.cfg.SessionPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("telegram: removing session file: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}
