package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// TerminalAuthenticator prompts for login details on the terminal.
type TerminalAuthenticator struct {
	// PhoneNumber skips the phone prompt when set.
	PhoneNumber string
}

// Compile-time interface check.
var _ auth.UserAuthenticator = TerminalAuthenticator{}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func prompt(ctx context.Context, title, description string, secret bool) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		Description(description).
		Value(&value).
		Validate(notEmpty(strings.ToLower(title)))
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Phone implements auth.UserAuthenticator.
func (a TerminalAuthenticator) Phone(ctx context.Context) (string, error) {
	if a.PhoneNumber != "" {
		return a.PhoneNumber, nil
	}
	return prompt(ctx, "Phone number", "International format, e.g. +33612345678", false)
}

// Password implements auth.UserAuthenticator.
func (a TerminalAuthenticator) Password(ctx context.Context) (string, error) {
	return prompt(ctx, "Password", "Two-step verification is enabled on this account", true)
}

// Code implements auth.UserAuthenticator.
func (a TerminalAuthenticator) Code(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	return prompt(ctx, "Code", "Sent to your Telegram app or by SMS", false)
}

// AcceptTermsOfService implements auth.UserAuthenticator.
func (a TerminalAuthenticator) AcceptTermsOfService(ctx context.Context, tos tg.HelpTermsOfService) error {
	var accept bool
	confirm := huh.NewConfirm().
		Title("Accept Telegram terms of service?").
		Description(tos.Text).
		Value(&accept)
	if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
		return err
	}
	if !accept {
		return errors.New("terms of service declined")
	}
	return nil
}

// SignUp implements auth.UserAuthenticator. Accounts must be created with an
// official app first.
func (a TerminalAuthenticator) SignUp(context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign up is not supported; create the account with an official app")
}
