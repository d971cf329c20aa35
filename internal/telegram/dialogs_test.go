package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"golang.org/x/time/rate"

	"github.com/flemzord/pigram/internal/clone"
)

func TestClient_DialogsPaging(t *testing.T) {
	t.Parallel()

	calls := 0
	api := &fakeAPI{
		dialogs: func(req *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error) {
			calls++
			switch calls {
			case 1:
				return nil, tgerr.New(420, "FLOOD_WAIT_1")
			case 2:
				return &tg.MessagesDialogsSlice{
					Count: 3,
					Dialogs: []tg.DialogClass{
						&tg.Dialog{Peer: &tg.PeerUser{UserID: 5}, TopMessage: 50},
						&tg.Dialog{Peer: &tg.PeerChannel{ChannelID: 20}, TopMessage: 40},
					},
					Messages: []tg.MessageClass{
						&tg.Message{ID: 50, PeerID: &tg.PeerUser{UserID: 5}, Date: 2000},
						&tg.Message{ID: 40, PeerID: &tg.PeerChannel{ChannelID: 20}, Date: 1000},
					},
					Chats: []tg.ChatClass{&tg.Channel{ID: 20, AccessHash: 9, Title: "News", Broadcast: true}},
					Users: []tg.UserClass{&tg.User{ID: 5, AccessHash: 1, FirstName: "Ada", Username: "ada"}},
				}, nil
			default:
				return &tg.MessagesDialogsSlice{
					Count:   3,
					Dialogs: []tg.DialogClass{&tg.Dialog{Peer: &tg.PeerChat{ChatID: 10}, TopMessage: 7}},
					Chats:   []tg.ChatClass{&tg.Chat{ID: 10, Title: "Family"}},
				}, nil
			}
		},
	}
	c := NewClient(api, ClientOptions{DialogPageSize: 2})
	c.opts.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	c.limiter.SetLimit(rate.Inf)

	dialogs, err := c.Dialogs(context.Background())
	if err != nil {
		t.Fatalf("Dialogs: %v", err)
	}

	want := []struct {
		id   int64
		kind clone.DialogKind
	}{
		{id: 5, kind: clone.DialogUser},
		{id: -1000000000020, kind: clone.DialogChannel},
		{id: -10, kind: clone.DialogGroup},
	}
	if len(dialogs) != len(want) {
		t.Fatalf("got %d dialogs, want %d", len(dialogs), len(want))
	}
	for i, w := range want {
		if dialogs[i].Peer.ID != w.id || dialogs[i].Kind != w.kind {
			t.Errorf("dialogs[%d] = %+v, want id %d kind %s", i, dialogs[i], w.id, w.kind)
		}
	}
	if dialogs[0].Username != "ada" {
		t.Errorf("Username = %q, want ada", dialogs[0].Username)
	}

	next := api.dialogReq[2]
	if next.OffsetID != 40 || next.OffsetDate != 1000 || next.Limit != 2 {
		t.Errorf("second page request = %+v, want offset 40 at date 1000", next)
	}
	if in, ok := next.OffsetPeer.(*tg.InputPeerChannel); !ok || in.ChannelID != 20 {
		t.Errorf("offset peer = %#v", next.OffsetPeer)
	}
}
