package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gotd/td/tg"
	"golang.org/x/time/rate"
)

var errNotStubbed = errors.New("not stubbed")

// fakeAPI records requests and returns canned responses.
type fakeAPI struct {
	mu sync.Mutex

	history   func(*tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
	replies   func(*tg.MessagesGetRepliesRequest) (tg.MessagesMessagesClass, error)
	dialogs   func(*tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error)
	resolve   func(*tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error)
	users     []tg.UserClass
	sendErr   error
	resolveN  int
	dialogReq []*tg.MessagesGetDialogsRequest
	sentText  []*tg.MessagesSendMessageRequest
	sentMedia []*tg.MessagesSendMediaRequest
	forwarded []*tg.MessagesForwardMessagesRequest
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) MessagesGetHistory(_ context.Context, req *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error) {
	if f.history == nil {
		return nil, errNotStubbed
	}
	return f.history(req)
}

func (f *fakeAPI) MessagesGetReplies(_ context.Context, req *tg.MessagesGetRepliesRequest) (tg.MessagesMessagesClass, error) {
	if f.replies == nil {
		return nil, errNotStubbed
	}
	return f.replies(req)
}

func (f *fakeAPI) MessagesGetDialogs(_ context.Context, req *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error) {
	f.mu.Lock()
	f.dialogReq = append(f.dialogReq, req)
	f.mu.Unlock()
	if f.dialogs == nil {
		return nil, errNotStubbed
	}
	return f.dialogs(req)
}

func (f *fakeAPI) MessagesSendMessage(_ context.Context, req *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentText = append(f.sentText, req)
	return &tg.Updates{}, f.sendErr
}

func (f *fakeAPI) MessagesSendMedia(_ context.Context, req *tg.MessagesSendMediaRequest) (tg.UpdatesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentMedia = append(f.sentMedia, req)
	return &tg.Updates{}, f.sendErr
}

func (f *fakeAPI) MessagesForwardMessages(_ context.Context, req *tg.MessagesForwardMessagesRequest) (tg.UpdatesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwarded = append(f.forwarded, req)
	return &tg.Updates{}, f.sendErr
}

func (f *fakeAPI) ContactsResolveUsername(_ context.Context, req *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error) {
	f.mu.Lock()
	f.resolveN++
	f.mu.Unlock()
	if f.resolve == nil {
		return nil, errNotStubbed
	}
	return f.resolve(req)
}

func (f *fakeAPI) UsersGetUsers(context.Context, []tg.InputUserClass) ([]tg.UserClass, error) {
	if f.users == nil {
		return nil, errNotStubbed
	}
	return f.users, nil
}

func newTestClient(api API, mode Mode) *Client {
	return NewClient(api, ClientOptions{
		Mode:       mode,
		DialogRate: rate.Inf,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sleep:      func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	})
}
