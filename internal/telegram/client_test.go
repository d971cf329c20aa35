package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/flemzord/pigram/internal/clone"
)

func channelPeer() clone.Peer {
	return clone.Peer{ID: -1000000000020, Handle: &tg.InputPeerChannel{ChannelID: 20, AccessHash: 99}}
}

func TestClient_FetchAscending(t *testing.T) {
	t.Parallel()

	var got *tg.MessagesGetHistoryRequest
	api := &fakeAPI{
		history: func(req *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error) {
			got = req
			return &tg.MessagesChannelMessages{
				Messages: []tg.MessageClass{
					&tg.Message{ID: 13, Message: "c"},
					&tg.MessageService{ID: 12},
					&tg.Message{ID: 11, Message: "a", Media: &tg.MessageMediaPhoto{}},
					&tg.MessageEmpty{ID: 10},
				},
			}, nil
		},
	}
	c := newTestClient(api, ModeCopy)

	msgs, err := c.Fetch(context.Background(), channelPeer(), clone.FetchRequest{AfterID: 10, Limit: 50})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if got.OffsetID != 11 || got.AddOffset != -50 || got.Limit != 50 || got.MinID != 10 {
		t.Errorf("request = %+v, want offset 11, add -50, limit 50, min 10", got)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, id := range []int{11, 12, 13} {
		if msgs[i].ID != id {
			t.Errorf("msgs[%d].ID = %d, want %d", i, msgs[i].ID, id)
		}
	}
	if msgs[0].Media != "photo" {
		t.Errorf("media = %q, want photo", msgs[0].Media)
	}
	if !c.IsService(msgs[1]) || c.IsService(msgs[0]) {
		t.Error("service classification mismatch")
	}
}

func TestClient_FetchTopicUsesReplies(t *testing.T) {
	t.Parallel()

	var got *tg.MessagesGetRepliesRequest
	api := &fakeAPI{
		replies: func(req *tg.MessagesGetRepliesRequest) (tg.MessagesMessagesClass, error) {
			got = req
			return &tg.MessagesMessagesSlice{}, nil
		},
	}
	c := newTestClient(api, ModeCopy)

	msgs, err := c.Fetch(context.Background(), channelPeer(), clone.FetchRequest{Limit: 100, Topic: 4})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages, want none", len(msgs))
	}
	if got == nil || got.MsgID != 4 || got.OffsetID != 1 {
		t.Errorf("replies request = %+v, want topic 4 from offset 1", got)
	}
}

func TestClient_FetchFloodWait(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		history: func(*tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error) {
			return nil, tgerr.New(420, "FLOOD_WAIT_9")
		},
	}
	c := newTestClient(api, ModeCopy)

	_, err := c.Fetch(context.Background(), channelPeer(), clone.FetchRequest{Limit: 1})
	if _, ok := clone.AsThrottle(err); !ok {
		t.Fatalf("error = %v, want throttle", err)
	}
}

func TestClient_FetchUnresolvedPeer(t *testing.T) {
	t.Parallel()

	c := newTestClient(&fakeAPI{}, ModeCopy)
	if _, err := c.Fetch(context.Background(), clone.Peer{ID: 1}, clone.FetchRequest{Limit: 1}); err == nil {
		t.Fatal("expected error for a peer without handle")
	}
}

func TestClient_ResolveUsername(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		resolve: func(req *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error) {
			if req.Username != "NewsChan" {
				return nil, tgerr.New(400, "USERNAME_NOT_OCCUPIED")
			}
			return &tg.ContactsResolvedPeer{
				Peer:  &tg.PeerChannel{ChannelID: 20},
				Chats: []tg.ChatClass{&tg.Channel{ID: 20, AccessHash: 99, Title: "News", Username: "NewsChan"}},
			}, nil
		},
	}
	c := newTestClient(api, ModeCopy)

	p, err := c.Resolve(context.Background(), "https://t.me/NewsChan")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.ID != -1000000000020 || p.Title != "News" {
		t.Errorf("peer = %+v", p)
	}

	// Second lookup is served from the cache.
	if _, err := c.Resolve(context.Background(), "@newschan"); err != nil {
		t.Fatalf("cached Resolve: %v", err)
	}
	if api.resolveN != 1 {
		t.Errorf("resolve calls = %d, want 1", api.resolveN)
	}

	if _, err := c.Resolve(context.Background(), "@missing"); err == nil {
		t.Error("expected error for unknown username")
	}
}

func TestClient_ResolveNumericLoadsDialogs(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		dialogs: func(*tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error) {
			return &tg.MessagesDialogs{
				Dialogs: []tg.DialogClass{&tg.Dialog{Peer: &tg.PeerChat{ChatID: 10}, TopMessage: 3}},
				Chats:   []tg.ChatClass{&tg.Chat{ID: 10, Title: "Family"}},
			}, nil
		},
	}
	c := newTestClient(api, ModeCopy)

	p, err := c.Resolve(context.Background(), "-10")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Title != "Family" {
		t.Errorf("Title = %q, want Family", p.Title)
	}

	_, err = c.Resolve(context.Background(), "-999")
	var re *clone.ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want ResolutionError", err)
	}
}

func TestClient_ResolveSelf(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{users: []tg.UserClass{&tg.User{ID: 42, Self: true, FirstName: "Me"}}}
	c := newTestClient(api, ModeCopy)

	p, err := c.Resolve(context.Background(), "me")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.ID != 42 {
		t.Errorf("ID = %d, want 42", p.ID)
	}
	if _, ok := p.Handle.(*tg.InputPeerSelf); !ok {
		t.Errorf("Handle = %T, want *tg.InputPeerSelf", p.Handle)
	}
}
