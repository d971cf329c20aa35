package clone

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors.
var (
	// ErrUnauthorized indicates the remote session was revoked or expired.
	// It aborts a run at whichever call site observes it.
	ErrUnauthorized = errors.New("clone: session is no longer authorized")

	// ErrAlreadyRunning indicates another run for the same chat pair is in
	// progress in this process.
	ErrAlreadyRunning = errors.New("clone: a clone for this chat pair is already running")

	// ErrSameChat indicates the target would receive its own messages back.
	ErrSameChat = errors.New("clone: source and target are the same conversation")
)

// ResolutionError reports a chat reference that could not be resolved.
type ResolutionError struct {
	Ref ChatRef
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("clone: resolve %q: %v", string(e.Ref), e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ThrottleError is the remote service asking the caller to back off for Wait
// before retrying the same operation.
type ThrottleError struct {
	Wait time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("clone: throttled by server, retry after %s", e.Wait)
}

// AsThrottle returns the requested wait when err carries a throttle signal.
func AsThrottle(err error) (time.Duration, bool) {
	var te *ThrottleError
	if errors.As(err, &te) {
		return te.Wait, true
	}
	return 0, false
}

// ReplicationError reports a message that could not be re-emitted.
type ReplicationError struct {
	MessageID int
	Err       error
}

func (e *ReplicationError) Error() string {
	return fmt.Sprintf("clone: replicate message %d: %v", e.MessageID, e.Err)
}

func (e *ReplicationError) Unwrap() error { return e.Err }
