package clone

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// Limit is the batch size requested from the client.
	Limit int
	// Attempts bounds retries of non-throttle fetch errors. Throttle signals
	// are always retried and do not count.
	Attempts int
	// Backoff is the first retry delay; it doubles on each failed attempt.
	Backoff time.Duration
	// OnThrottle is called before the governor absorbs a throttle signal.
	OnThrottle func(wait time.Duration)
	Logger     *slog.Logger
	Tracer     trace.Tracer
}

// Fetcher retrieves ordered batches of source messages.
type Fetcher struct {
	client   Client
	governor *Governor
	cfg      FetcherConfig
}

// NewFetcher creates a fetcher pacing its retries through governor.
func NewFetcher(client Client, governor *Governor, cfg FetcherConfig) *Fetcher {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultBatchSize
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = defaultTracer()
	}
	return &Fetcher{client: client, governor: governor, cfg: cfg}
}

// FetchBatch returns up to Limit messages of chat strictly newer than
// afterID, oldest first. An empty batch means the history is exhausted.
func (f *Fetcher) FetchBatch(ctx context.Context, chat Peer, afterID int, topic TopicRef) ([]Message, error) {
	ctx, span := f.cfg.Tracer.Start(ctx, "clone.fetch", trace.WithAttributes(
		attribute.Int64("clone.chat_id", chat.ID),
		attribute.Int("clone.after_id", afterID),
		attribute.Int("clone.topic", int(topic)),
	))
	defer span.End()

	req := FetchRequest{AfterID: afterID, Limit: f.cfg.Limit, Topic: topic}
	backoff := f.cfg.Backoff
	failures := 0

	for {
		msgs, err := f.client.Fetch(ctx, chat, req)
		if err == nil {
			batch := ascendingAfter(msgs, afterID)
			span.SetAttributes(attribute.Int("clone.batch_len", len(batch)))
			return batch, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if wait, ok := AsThrottle(err); ok {
			f.cfg.Logger.Warn("fetch throttled", "chat_id", chat.ID, "after_id", afterID, "wait", wait)
			if f.cfg.OnThrottle != nil {
				f.cfg.OnThrottle(wait)
			}
			if err := f.governor.HandleThrottle(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if errors.Is(err, ErrUnauthorized) {
			span.RecordError(err)
			return nil, err
		}

		failures++
		if failures >= f.cfg.Attempts {
			span.RecordError(err)
			return nil, fmt.Errorf("clone: fetch after id %d: %w", afterID, err)
		}
		f.cfg.Logger.Warn("fetch failed, retrying",
			"chat_id", chat.ID,
			"after_id", afterID,
			"attempt", failures,
			"error", err,
		)
		if err := f.governor.Backoff(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

// ascendingAfter keeps messages newer than afterID, sorted by id, without
// duplicates. Checkpoint advancement relies on this ordering.
func ascendingAfter(msgs []Message, afterID int) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID > afterID {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b Message) int { return cmp.Compare(a.ID, b.ID) })
	return slices.CompactFunc(out, func(a, b Message) bool { return a.ID == b.ID })
}
