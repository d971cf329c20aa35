package clone

import "context"

// FetchRequest selects the messages returned by Client.Fetch.
type FetchRequest struct {
	// AfterID excludes every message with an id lower than or equal to it.
	AfterID int
	// Limit caps the number of returned messages.
	Limit int
	// Topic scopes the request to one sub-thread when set.
	Topic TopicRef
}

// Client is the remote capability the pipeline consumes. Implementations work
// on a pre-authenticated session; the pipeline never authenticates.
//
// Throttle signals must be reported as *ThrottleError and a revoked session as
// an error wrapping ErrUnauthorized.
type Client interface {
	// Resolve turns a reference into a live peer.
	Resolve(ctx context.Context, ref ChatRef) (Peer, error)
	// Fetch returns messages newer than req.AfterID, oldest first.
	Fetch(ctx context.Context, chat Peer, req FetchRequest) ([]Message, error)
	// Send recreates msg in chat, under topic when set.
	Send(ctx context.Context, chat Peer, msg Message, topic TopicRef) error
	// Dialogs lists the account's conversations.
	Dialogs(ctx context.Context) ([]Dialog, error)
}

// Classifier is implemented by clients that can tell service notifications
// (joins, pins, title changes) apart from user content.
type Classifier interface {
	IsService(msg Message) bool
}

// ClassifyFunc reports whether msg is a service notification that must not be
// replicated.
type ClassifyFunc func(msg Message) bool
