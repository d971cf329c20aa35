package app

import (
	"context"
	"fmt"
	"io"

	"github.com/flemzord/pigram/internal/config"
	"github.com/flemzord/pigram/internal/telegram"
)

// OpenSession prepares the Telegram session described by the config.
func (e *Env) OpenSession() (*telegram.Session, error) {
	if err := config.ValidateCredentials(e.Config); err != nil {
		return nil, err
	}
	return telegram.NewSession(telegram.Config{
		APIID:       e.Config.Telegram.APIID,
		APIHash:     e.Config.Telegram.APIHash,
		SessionPath: e.Config.SessionPath(e.DataDir),
		Proxy:       e.Config.Telegram.Proxy,
		Client:      telegram.ClientOptions{Mode: telegram.Mode(e.Config.Clone.Mode)},
		Logger:      e.Logger,
	})
}

// WithClient connects an authorized session and calls fn.
func (e *Env) WithClient(ctx context.Context, fn func(ctx context.Context, c *telegram.Client) error) error {
	sess, err := e.OpenSession()
	if err != nil {
		return err
	}
	return sess.Run(ctx, fn)
}

// Login signs in interactively when the session is not yet authorized.
func Login(ctx context.Context, e *Env, out io.Writer) error {
	sess, err := e.OpenSession()
	if err != nil {
		return err
	}
	user, err := sess.Login(ctx, telegram.TerminalAuthenticator{PhoneNumber: e.Config.Telegram.Phone})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Logged in as %s (id %d)\n", displayName(user.FirstName, user.LastName, user.Username), user.ID)
	return err
}

// Logout revokes the session and removes its file.
func Logout(ctx context.Context, e *Env, out io.Writer) error {
	sess, err := e.OpenSession()
	if err != nil {
		return err
	}
	if err := sess.Logout(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, "Logged out")
	return err
}

// Status prints whether the stored session is authorized.
func Status(ctx context.Context, e *Env, out io.Writer) error {
	sess, err := e.OpenSession()
	if err != nil {
		return err
	}
	status, err := sess.Status(ctx)
	if err != nil {
		return err
	}
	if !status.Authorized || status.User == nil {
		_, err = fmt.Fprintln(out, "Not logged in; run `pigram login`")
		return err
	}
	u := status.User
	_, err = fmt.Fprintf(out, "Logged in as %s (id %d)\nSession: %s\n",
		displayName(u.FirstName, u.LastName, u.Username), u.ID, e.Config.SessionPath(e.DataDir))
	return err
}

func displayName(first, last, username string) string {
	name := first
	if last != "" {
		name += " " + last
	}
	if username != "" {
		name += " @" + username
	}
	if name == "" {
		return "unknown"
	}
	return name
}
