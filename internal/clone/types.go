package clone

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ChatRef references a conversation as the user typed it: a numeric (marked)
// id, a username with or without "@", or "me" for saved messages.
type ChatRef string

// Numeric returns the id when the reference is a decimal number.
func (r ChatRef) Numeric() (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(string(r)), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// TopicRef is a sub-thread id. Zero means the whole chat when reading and
// top-level posting when writing.
type TopicRef int

// IsSet reports whether the reference points at a topic.
func (t TopicRef) IsSet() bool { return t > 0 }

// Peer is a resolved conversation. Handle carries the adapter-specific entity
// (for the Telegram adapter, a tg.InputPeerClass) and is opaque to this package.
type Peer struct {
	ID     int64
	Title  string
	Handle any
}

// Message is one source message. Raw carries the adapter payload needed to
// re-send it; the pipeline only reads ID.
type Message struct {
	ID    int
	Date  time.Time
	Text  string
	Media string
	Raw   any
}

// DialogKind classifies a dialog.
type DialogKind string

// Dialog kinds.
const (
	DialogUser    DialogKind = "user"
	DialogGroup   DialogKind = "group"
	DialogChannel DialogKind = "channel"
)

// Dialog is one entry of the account's conversation list.
type Dialog struct {
	Peer     Peer
	Kind     DialogKind
	Username string
}

// Job describes one clone run.
type Job struct {
	Source      ChatRef
	Target      ChatRef
	SourceTopic TopicRef
	TargetTopic TopicRef
}

// Validate checks the job before any remote call is made.
func (j Job) Validate() error {
	var errs []error
	if strings.TrimSpace(string(j.Source)) == "" {
		errs = append(errs, errors.New("clone: source chat is required"))
	}
	if strings.TrimSpace(string(j.Target)) == "" {
		errs = append(errs, errors.New("clone: target chat is required"))
	}
	if j.SourceTopic < 0 || j.TargetTopic < 0 {
		errs = append(errs, errors.New("clone: topic ids must not be negative"))
	}
	return errors.Join(errs...)
}

// loops reports whether writing into target would feed the source again.
func (j Job) loops(source, target Peer) bool {
	if source.ID != target.ID {
		return false
	}
	return !j.SourceTopic.IsSet() || j.SourceTopic == j.TargetTopic
}
