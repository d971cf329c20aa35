// Package checkpoint persists the resume marker of a clone run: the id of the
// last processed source message for an ordered (source, target) chat pair.
package checkpoint

import (
	"errors"
	"fmt"
)

// ErrCorrupt is returned by Load when an artifact exists but does not hold a
// valid message id. Callers treat it as "no checkpoint".
var ErrCorrupt = errors.New("checkpoint: corrupt content")

// Key identifies the checkpoint of one (source, target) chat pair.
// The order matters: cloning A into B and B into A are different pairs.
type Key struct {
	Source int64
	Target int64
}

// String returns the deterministic name fragment used for the artifact.
func (k Key) String() string {
	return fmt.Sprintf("%d_%d", k.Source, k.Target)
}

// Store reads and writes checkpoints.
//
// Load reports ok=false when no usable checkpoint exists. A non-nil error is
// informational (corrupt or unreadable artifact) and never implies ok=true.
type Store interface {
	Load(key Key) (id int, ok bool, err error)
	Save(key Key, id int) error
	Reset(key Key) error
}
