package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flemzord/pigram/internal/clone"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

// botServer records sendMessage bodies.
type botServer struct {
	*httptest.Server
	mu   sync.Mutex
	sent []SendMessageRequest
}

func newBotServer(t *testing.T) *botServer {
	t.Helper()
	b := &botServer{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req SendMessageRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}
		b.mu.Lock()
		b.sent = append(b.sent, req)
		b.mu.Unlock()
		writeJSON(t, w, APIResponse[Message]{OK: true, Result: Message{MessageID: 1}})
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *botServer) requests() []SendMessageRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SendMessageRequest(nil), b.sent...)
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	srv := newBotServer(t)
	client := NewClient("TOKEN", srv.URL)
	msg, err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: 42, Text: "hello"})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if msg.MessageID != 1 {
		t.Errorf("MessageID = %d, want 1", msg.MessageID)
	}
	reqs := srv.requests()
	if len(reqs) != 1 || reqs[0].ChatID != 42 || reqs[0].Text != "hello" {
		t.Errorf("requests = %+v", reqs)
	}
}

func TestGetMe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/getMe" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		writeJSON(t, w, APIResponse[User]{OK: true, Result: User{ID: 7, IsBot: true, Username: "pigram_bot"}})
	}))
	defer srv.Close()

	user, err := NewClient("TOKEN", srv.URL).GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe() error: %v", err)
	}
	if user.Username != "pigram_bot" || !user.IsBot {
		t.Errorf("user = %+v", user)
	}
}

func TestAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(t, w, APIResponse[json.RawMessage]{OK: false, ErrorCode: 400, Description: "Bad Request: chat not found"})
	}))
	defer srv.Close()

	_, err := NewClient("TOKEN", srv.URL).SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Code != 400 || !strings.Contains(apiErr.Error(), "chat not found") {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestRateLimitRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			writeJSON(t, w, APIResponse[json.RawMessage]{
				OK:          false,
				ErrorCode:   429,
				Description: "Too Many Requests",
				Parameters:  &ResponseParameters{RetryAfter: 1},
			})
			return
		}
		writeJSON(t, w, APIResponse[Message]{OK: true, Result: Message{MessageID: 9}})
	}))
	defer srv.Close()

	msg, err := NewClient("TOKEN", srv.URL).SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "x"})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if msg.MessageID != 9 || calls.Load() != 2 {
		t.Errorf("message = %d after %d calls, want 9 after 2", msg.MessageID, calls.Load())
	}
}

func TestRateLimitCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		writeJSON(t, w, APIResponse[json.RawMessage]{
			OK:         false,
			ErrorCode:  429,
			Parameters: &ResponseParameters{RetryAfter: 30},
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient("TOKEN", srv.URL).SendMessage(ctx, SendMessageRequest{ChatID: 1, Text: "x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestNotifier_Observer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		onlyFailures bool
		final        clone.ProgressEvent
		wantSent     bool
		wantText     string
	}{
		{
			name:     "completed",
			final:    clone.ProgressEvent{Final: true, Processed: 1234, LastMessageID: 5000},
			wantSent: true,
			wantText: "archive completed",
		},
		{
			name:         "completed suppressed",
			onlyFailures: true,
			final:        clone.ProgressEvent{Final: true, Processed: 3},
		},
		{
			name:         "completed with failures",
			onlyFailures: true,
			final:        clone.ProgressEvent{Final: true, Processed: 3, Errors: 1},
			wantSent:     true,
			wantText:     "(1 failed)",
		},
		{
			name:  "empty run",
			final: clone.ProgressEvent{Final: true},
		},
		{
			name:     "empty run aborted",
			final:    clone.ProgressEvent{Final: true, Err: context.Canceled},
			wantSent: true,
			wantText: "archive stopped",
		},
		{
			name:         "aborted",
			onlyFailures: true,
			final:        clone.ProgressEvent{Final: true, Err: clone.ErrUnauthorized},
			wantSent:     true,
			wantText:     "archive aborted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newBotServer(t)
			n := New(NewClient("TOKEN", srv.URL), Options{ChatID: 99, OnlyFailures: tt.onlyFailures})
			obs := n.Observer("archive")
			obs(clone.ProgressEvent{Kind: clone.EventMessage, Processed: 1})
			obs(tt.final)

			reqs := srv.requests()
			if !tt.wantSent {
				if len(reqs) != 0 {
					t.Fatalf("sent %d messages, want none", len(reqs))
				}
				return
			}
			if len(reqs) != 1 {
				t.Fatalf("sent %d messages, want 1", len(reqs))
			}
			if reqs[0].ChatID != 99 {
				t.Errorf("ChatID = %d, want 99", reqs[0].ChatID)
			}
			if !strings.Contains(reqs[0].Text, tt.wantText) {
				t.Errorf("text %q does not contain %q", reqs[0].Text, tt.wantText)
			}
		})
	}
}

func TestNotifier_ObserverElapsedPerRun(t *testing.T) {
	t.Parallel()

	srv := newBotServer(t)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := New(NewClient("TOKEN", srv.URL), Options{
		ChatID: 99,
		Now:    func() time.Time { return clock },
	})
	obs := n.Observer("archive")

	// First run lasts 10s.
	obs(clone.ProgressEvent{Kind: clone.EventMessage, Processed: 1})
	clock = clock.Add(10 * time.Second)
	obs(clone.ProgressEvent{Final: true, Processed: 1})

	// The scheduler stays idle for an hour, then the second run lasts 5s.
	clock = clock.Add(time.Hour)
	obs(clone.ProgressEvent{Kind: clone.EventMessage, Processed: 1})
	clock = clock.Add(5 * time.Second)
	obs(clone.ProgressEvent{Final: true, Processed: 1})

	reqs := srv.requests()
	if len(reqs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(reqs))
	}
	for i, want := range []string{"elapsed: 10s", "elapsed: 5s"} {
		if !strings.Contains(reqs[i].Text, want) {
			t.Errorf("run %d text %q does not contain %q", i+1, reqs[i].Text, want)
		}
	}
}

func TestNotifier_ObserverSkipsIdleTicks(t *testing.T) {
	t.Parallel()

	srv := newBotServer(t)
	n := New(NewClient("TOKEN", srv.URL), Options{ChatID: 99})
	obs := n.Observer("archive")
	for range 3 {
		obs(clone.ProgressEvent{Kind: clone.EventStatus, Status: "Resuming from ID 10..."})
		obs(clone.ProgressEvent{Final: true, LastMessageID: 10})
	}
	obs(clone.ProgressEvent{Final: true, Processed: 2, LastMessageID: 12})

	reqs := srv.requests()
	if len(reqs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(reqs))
	}
	if !strings.Contains(reqs[0].Text, "messages: 2") {
		t.Errorf("text %q does not report the new messages", reqs[0].Text)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	got := Summary("a->b", clone.ProgressEvent{Processed: 12345, Errors: 2, LastMessageID: 777}, 90*time.Second)
	for _, want := range []string{"a->b completed", "messages: 12,345 (2 failed)", "last id: 777", "elapsed: 1m30s"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, missing %q", got, want)
		}
	}

	stopped := Summary("x", clone.ProgressEvent{Err: context.Canceled}, 0)
	if !strings.Contains(stopped, "x stopped") {
		t.Errorf("Summary() = %q, want stopped", stopped)
	}
}
