package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/flemzord/pigram/internal/clone"
)

const sendTimeout = 30 * time.Second

// Options configures a Notifier.
type Options struct {
	ChatID int64
	// OnlyFailures suppresses reports for runs that ended cleanly.
	OnlyFailures bool
	Logger       *slog.Logger
	Now          func() time.Time
}

// Notifier posts a summary when a clone run finishes.
type Notifier struct {
	client *Client
	opts   Options
}

// New creates a Notifier sending through client.
func New(client *Client, opts Options) *Notifier {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Notifier{client: client, opts: opts}
}

// Observer returns a clone observer that reports the run named label.
// Delivery errors are logged, never returned to the run.
func (n *Notifier) Observer(label string) clone.Observer {
	var started time.Time
	return func(ev clone.ProgressEvent) {
		now := n.opts.Now()
		if started.IsZero() {
			started = now
		}
		if !ev.Final {
			return
		}
		elapsed := now.Sub(started)
		started = time.Time{}

		if ev.Err == nil && ev.Processed == 0 {
			return
		}
		if n.opts.OnlyFailures && ev.Err == nil && ev.Errors == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		text := Summary(label, ev, elapsed)
		if _, err := n.client.SendMessage(ctx, SendMessageRequest{
			ChatID:                n.opts.ChatID,
			Text:                  text,
			DisableWebPagePreview: true,
		}); err != nil {
			n.opts.Logger.Warn("notify: failed to send run summary", "job", label, "error", err)
		}
	}
}

// Summary renders the report for a final event.
func Summary(label string, ev clone.ProgressEvent, elapsed time.Duration) string {
	var b strings.Builder
	switch {
	case ev.Err == nil:
		fmt.Fprintf(&b, "pigram: %s completed\n", label)
	case errors.Is(ev.Err, context.Canceled):
		fmt.Fprintf(&b, "pigram: %s stopped\n", label)
	default:
		fmt.Fprintf(&b, "pigram: %s aborted: %v\n", label, ev.Err)
	}
	fmt.Fprintf(&b, "messages: %s", humanize.Comma(int64(ev.Processed)))
	if ev.Errors > 0 {
		fmt.Fprintf(&b, " (%s failed)", humanize.Comma(int64(ev.Errors)))
	}
	fmt.Fprintf(&b, "\nlast id: %d\nelapsed: %s", ev.LastMessageID, elapsed.Round(time.Second))
	return b.String()
}
