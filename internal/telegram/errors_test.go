package telegram

import (
	"errors"
	"testing"
	"time"

	"github.com/gotd/td/tgerr"

	"github.com/flemzord/pigram/internal/clone"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")
	tests := []struct {
		name     string
		err      error
		wait     time.Duration
		throttle bool
		unauth   bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: plain},
		{name: "flood wait", err: tgerr.New(420, "FLOOD_WAIT_30"), wait: 30 * time.Second, throttle: true},
		{name: "slow mode", err: tgerr.New(420, "SLOWMODE_WAIT_12"), wait: 12 * time.Second, throttle: true},
		{name: "revoked", err: tgerr.New(401, "SESSION_REVOKED"), unauth: true},
		{name: "unregistered", err: tgerr.New(401, "AUTH_KEY_UNREGISTERED"), unauth: true},
		{name: "deactivated", err: tgerr.New(403, "USER_DEACTIVATED_BAN"), unauth: true},
		{name: "forbidden", err: tgerr.New(403, "CHAT_WRITE_FORBIDDEN")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mapError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("mapError(nil) = %v", got)
				}
				return
			}

			wait, throttle := clone.AsThrottle(got)
			if throttle != tt.throttle || wait != tt.wait {
				t.Errorf("throttle = %v/%s, want %v/%s", throttle, wait, tt.throttle, tt.wait)
			}
			if unauth := errors.Is(got, clone.ErrUnauthorized); unauth != tt.unauth {
				t.Errorf("unauthorized = %v, want %v", unauth, tt.unauth)
			}
			if !tt.throttle && !errors.Is(got, tt.err) {
				t.Errorf("mapped error %v lost the original %v", got, tt.err)
			}
		})
	}
}
