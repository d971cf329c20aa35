package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/flemzord/pigram/internal/clone"
	"github.com/flemzord/pigram/internal/render"
)

// Chats prints the account's dialogs as a table.
func Chats(ctx context.Context, e *Env, client clone.Client) error {
	dialogs, err := client.Dialogs(ctx)
	if err != nil {
		return fmt.Errorf("listing chats: %w", err)
	}
	render.Dialogs(e.Stdout, dialogs)
	return nil
}

// PickChat lets the user choose a dialog interactively.
func PickChat(ctx context.Context, client clone.Client, title string) (clone.ChatRef, error) {
	dialogs, err := client.Dialogs(ctx)
	if err != nil {
		return "", fmt.Errorf("listing chats: %w", err)
	}
	if len(dialogs) == 0 {
		return "", errors.New("no chats available")
	}

	var id int64
	opts := make([]huh.Option[int64], 0, len(dialogs))
	for _, d := range dialogs {
		opts = append(opts, huh.NewOption(dialogLabel(d), d.Peer.ID))
	}
	sel := huh.NewSelect[int64]().
		Title(title).
		Options(opts...).
		Filtering(true).
		Height(15).
		Value(&id)
	if err := huh.NewForm(huh.NewGroup(sel)).RunWithContext(ctx); err != nil {
		return "", err
	}
	return clone.ChatRef(strconv.FormatInt(id, 10)), nil
}

func dialogLabel(d clone.Dialog) string {
	label := fmt.Sprintf("%s [%s] %d", d.Peer.Title, d.Kind, d.Peer.ID)
	if d.Username != "" {
		label += " @" + d.Username
	}
	return label
}
