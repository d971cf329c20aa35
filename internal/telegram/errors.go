package telegram

import (
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/tgerr"

	"github.com/flemzord/pigram/internal/clone"
)

// ErrNotAuthorized is returned by Session.Run when no valid session exists.
var ErrNotAuthorized = errors.New("telegram: not logged in, run `pigram login` first")

// errUnsupportedMedia marks a message whose media cannot be re-sent by copy.
var errUnsupportedMedia = errors.New("telegram: media type cannot be copied")

// unauthorizedTypes are RPC error types meaning the session is gone.
var unauthorizedTypes = map[string]bool{
	"AUTH_KEY_UNREGISTERED": true,
	"AUTH_KEY_INVALID":      true,
	"AUTH_KEY_PERM_EMPTY":   true,
	"SESSION_REVOKED":       true,
	"SESSION_EXPIRED":       true,
	"USER_DEACTIVATED":      true,
	"USER_DEACTIVATED_BAN":  true,
}

// mapError translates RPC errors into the signals the clone pipeline
// understands: throttle waits and revoked sessions. Other errors pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if wait, ok := tgerr.AsFloodWait(err); ok {
		return &clone.ThrottleError{Wait: wait}
	}
	rpcErr, ok := tgerr.As(err)
	if !ok {
		return err
	}
	switch {
	case rpcErr.Type == "SLOWMODE_WAIT":
		return &clone.ThrottleError{Wait: time.Duration(rpcErr.Argument) * time.Second}
	case rpcErr.Code == 401, unauthorizedTypes[rpcErr.Type]:
		return fmt.Errorf("%w: %w", clone.ErrUnauthorized, err)
	}
	return err
}
