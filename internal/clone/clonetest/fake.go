// Package clonetest provides test doubles for the clone package.
package clonetest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/flemzord/pigram/internal/clone"
)

// service marks a message as a service notification in Message.Raw.
type service struct{}

// Text returns a user message with the given id.
func Text(id int, text string) clone.Message {
	return clone.Message{
		ID:   id,
		Date: time.Unix(int64(1_700_000_000+id), 0).UTC(),
		Text: text,
	}
}

// Service returns a service notification with the given id.
func Service(id int) clone.Message {
	return clone.Message{
		ID:   id,
		Date: time.Unix(int64(1_700_000_000+id), 0).UTC(),
		Raw:  service{},
	}
}

// Sent records one successful Send call.
type Sent struct {
	Chat      int64
	MessageID int
	Topic     clone.TopicRef
}

// FakeClient is an in-memory clone.Client. Chats are registered with AddChat
// and filled with AddMessages; failures are queued per call site.
type FakeClient struct {
	mu sync.Mutex

	chats   map[clone.ChatRef]clone.Peer
	history map[int64][]clone.Message
	topics  map[int64]map[int]clone.TopicRef

	resolveErrs map[clone.ChatRef][]error
	fetchErrs   []error
	sendErrs    map[int][]error

	fetches []clone.FetchRequest
	sent    []Sent
	tries   map[int]int

	// OnSend, when set, runs before every Send attempt.
	OnSend func(ctx context.Context, msg clone.Message)
}

// Compile-time interface checks.
var (
	_ clone.Client     = (*FakeClient)(nil)
	_ clone.Classifier = (*FakeClient)(nil)
)

// NewFakeClient returns an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		chats:       make(map[clone.ChatRef]clone.Peer),
		history:     make(map[int64][]clone.Message),
		topics:      make(map[int64]map[int]clone.TopicRef),
		resolveErrs: make(map[clone.ChatRef][]error),
		sendErrs:    make(map[int][]error),
		tries:       make(map[int]int),
	}
}

// AddChat registers a chat reachable through every ref in refs and returns
// its peer.
func (f *FakeClient) AddChat(id int64, title string, refs ...clone.ChatRef) clone.Peer {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := clone.Peer{ID: id, Title: title, Handle: id}
	f.chats[clone.ChatRef(fmt.Sprint(id))] = p
	for _, ref := range refs {
		f.chats[ref] = p
	}
	return p
}

// AddMessages appends msgs to the history of chat id.
func (f *FakeClient) AddMessages(id int64, msgs ...clone.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[id] = append(f.history[id], msgs...)
	slices.SortFunc(f.history[id], func(a, b clone.Message) int { return a.ID - b.ID })
}

// AddTopicMessages appends msgs to chat id inside topic.
func (f *FakeClient) AddTopicMessages(id int64, topic clone.TopicRef, msgs ...clone.Message) {
	f.AddMessages(id, msgs...)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topics[id] == nil {
		f.topics[id] = make(map[int]clone.TopicRef)
	}
	for _, m := range msgs {
		f.topics[id][m.ID] = topic
	}
}

// FailResolve queues errs for successive Resolve calls of ref.
func (f *FakeClient) FailResolve(ref clone.ChatRef, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveErrs[ref] = append(f.resolveErrs[ref], errs...)
}

// FailFetch queues errs for successive Fetch calls.
func (f *FakeClient) FailFetch(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErrs = append(f.fetchErrs, errs...)
}

// FailSend queues errs for successive Send attempts of message id.
func (f *FakeClient) FailSend(id int, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErrs[id] = append(f.sendErrs[id], errs...)
}

// Resolve implements clone.Client.
func (f *FakeClient) Resolve(_ context.Context, ref clone.ChatRef) (clone.Peer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if errs := f.resolveErrs[ref]; len(errs) > 0 {
		f.resolveErrs[ref] = errs[1:]
		return clone.Peer{}, errs[0]
	}
	p, ok := f.chats[ref]
	if !ok {
		return clone.Peer{}, fmt.Errorf("chat %q not found", string(ref))
	}
	return p, nil
}

// Fetch implements clone.Client.
func (f *FakeClient) Fetch(_ context.Context, chat clone.Peer, req clone.FetchRequest) ([]clone.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, req)
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		return nil, err
	}

	var out []clone.Message
	for _, m := range f.history[chat.ID] {
		if m.ID <= req.AfterID {
			continue
		}
		if req.Topic.IsSet() && f.topics[chat.ID][m.ID] != req.Topic {
			continue
		}
		out = append(out, m)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return out, nil
}

// Send implements clone.Client.
func (f *FakeClient) Send(ctx context.Context, chat clone.Peer, msg clone.Message, topic clone.TopicRef) error {
	if f.OnSend != nil {
		f.OnSend(ctx, msg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tries[msg.ID]++
	if errs := f.sendErrs[msg.ID]; len(errs) > 0 {
		f.sendErrs[msg.ID] = errs[1:]
		return errs[0]
	}
	f.sent = append(f.sent, Sent{Chat: chat.ID, MessageID: msg.ID, Topic: topic})
	return nil
}

// Dialogs implements clone.Client.
func (f *FakeClient) Dialogs(context.Context) ([]clone.Dialog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[int64]bool)
	var out []clone.Dialog
	for _, p := range f.chats {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		kind := clone.DialogUser
		if p.ID < 0 {
			kind = clone.DialogGroup
		}
		out = append(out, clone.Dialog{Peer: p, Kind: kind})
	}
	slices.SortFunc(out, func(a, b clone.Dialog) int {
		switch {
		case a.Peer.ID < b.Peer.ID:
			return -1
		case a.Peer.ID > b.Peer.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

// IsService implements clone.Classifier.
func (f *FakeClient) IsService(msg clone.Message) bool {
	_, ok := msg.Raw.(service)
	return ok
}

// Fetches returns every Fetch request received, in order.
func (f *FakeClient) Fetches() []clone.FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.fetches)
}

// Sent returns every successful Send, in order.
func (f *FakeClient) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

// SentIDs returns the ids of successfully sent messages, in order.
func (f *FakeClient) SentIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.sent))
	for _, s := range f.sent {
		ids = append(ids, s.MessageID)
	}
	return ids
}

// Attempts returns the number of Send calls made for message id.
func (f *FakeClient) Attempts(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tries[id]
}
