package clone_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/pigram/internal/checkpoint"
	"github.com/flemzord/pigram/internal/clone"
	"github.com/flemzord/pigram/internal/clone/clonetest"
)

const (
	srcID int64 = -1001
	dstID int64 = -1002
)

var pairKey = checkpoint.Key{Source: srcID, Target: dstID}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sleeper records every pause instead of waiting.
type sleeper struct {
	mu    sync.Mutex
	calls []time.Duration
	hook  func(d time.Duration)
}

func (s *sleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

func (s *sleeper) durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

// recorder collects progress events.
type recorder struct {
	mu     sync.Mutex
	events []clone.ProgressEvent
}

func (r *recorder) observe(ev clone.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []clone.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]clone.ProgressEvent(nil), r.events...)
}

func (r *recorder) ofKind(k clone.EventKind) []clone.ProgressEvent {
	var out []clone.ProgressEvent
	for _, ev := range r.all() {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) last() clone.ProgressEvent {
	all := r.all()
	if len(all) == 0 {
		return clone.ProgressEvent{}
	}
	return all[len(all)-1]
}

// quietOptions disables every pause so only throttle and retry sleeps are
// recorded.
func quietOptions() clone.Options {
	return clone.Options{
		BatchSize:     100,
		SendAttempts:  1,
		FetchAttempts: 1,
		RetryBackoff:  time.Second,
	}
}

func newFixture() *clonetest.FakeClient {
	fc := clonetest.NewFakeClient()
	fc.AddChat(srcID, "Source", "src", "@src")
	fc.AddChat(dstID, "Target", "dst")
	return fc
}

func newCloner(t *testing.T, fc *clonetest.FakeClient, store checkpoint.Store, opts clone.Options, s *sleeper) *clone.Cloner {
	t.Helper()
	if s == nil {
		s = &sleeper{}
	}
	c, err := clone.New(clone.Config{
		Client:  fc,
		Store:   store,
		Options: opts,
		Sleep:   s.sleep,
		Logger:  discardLogger(),
	})
	if err != nil {
		t.Fatalf("clone.New: %v", err)
	}
	return c
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var pairJob = clone.Job{Source: "src", Target: "dst"}
