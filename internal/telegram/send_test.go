package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/flemzord/pigram/internal/clone"
)

func TestInputMedia(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		media   tg.MessageMediaClass
		wantOK  bool
		wantErr bool
		check   func(t *testing.T, in tg.InputMediaClass)
	}{
		{name: "none", media: nil},
		{name: "webpage", media: &tg.MessageMediaWebPage{}},
		{
			name:   "photo",
			media:  &tg.MessageMediaPhoto{Photo: &tg.Photo{ID: 1, AccessHash: 2, FileReference: []byte{3}}},
			wantOK: true,
			check: func(t *testing.T, in tg.InputMediaClass) {
				p, ok := in.(*tg.InputMediaPhoto)
				if !ok {
					t.Fatalf("got %T", in)
				}
				ref, _ := p.ID.(*tg.InputPhoto)
				if ref == nil || ref.ID != 1 || ref.AccessHash != 2 {
					t.Errorf("photo ref = %#v", p.ID)
				}
			},
		},
		{
			name:   "document",
			media:  &tg.MessageMediaDocument{Document: &tg.Document{ID: 4, AccessHash: 5}},
			wantOK: true,
			check: func(t *testing.T, in tg.InputMediaClass) {
				d, ok := in.(*tg.InputMediaDocument)
				if !ok {
					t.Fatalf("got %T", in)
				}
				ref, _ := d.ID.(*tg.InputDocument)
				if ref == nil || ref.ID != 4 || ref.AccessHash != 5 {
					t.Errorf("document ref = %#v", d.ID)
				}
			},
		},
		{
			name:   "geo",
			media:  &tg.MessageMediaGeo{Geo: &tg.GeoPoint{Lat: 48.85, Long: 2.35}},
			wantOK: true,
			check: func(t *testing.T, in tg.InputMediaClass) {
				g, ok := in.(*tg.InputMediaGeoPoint)
				if !ok {
					t.Fatalf("got %T", in)
				}
				p, _ := g.GeoPoint.(*tg.InputGeoPoint)
				if p == nil || p.Lat != 48.85 || p.Long != 2.35 {
					t.Errorf("geo = %#v", g.GeoPoint)
				}
			},
		},
		{
			name:   "contact",
			media:  &tg.MessageMediaContact{PhoneNumber: "+100", FirstName: "Bob"},
			wantOK: true,
		},
		{name: "empty photo", media: &tg.MessageMediaPhoto{Photo: &tg.PhotoEmpty{}}, wantErr: true},
		{name: "poll", media: &tg.MessageMediaPoll{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in, ok, err := inputMedia(tt.media)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errUnsupportedMedia) {
				t.Errorf("err = %v, want errUnsupportedMedia", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.check != nil {
				tt.check(t, in)
			}
		})
	}
}

func TestReplyTo(t *testing.T) {
	t.Parallel()

	if replyTo(0) != nil {
		t.Error("root posting must not set a reply anchor")
	}
	r, ok := replyTo(9).(*tg.InputReplyToMessage)
	if !ok || r.ReplyToMsgID != 9 || r.TopMsgID != 9 {
		t.Errorf("replyTo(9) = %#v", r)
	}
}

func TestClient_SendCopy(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	c := newTestClient(api, ModeCopy)
	target := channelPeer()

	text := clone.Message{ID: 1, Raw: &tg.Message{ID: 1, Message: "hello"}}
	if err := c.Send(context.Background(), target, text, 0); err != nil {
		t.Fatalf("Send text: %v", err)
	}
	photo := clone.Message{ID: 2, Raw: &tg.Message{
		ID:      2,
		Message: "caption",
		Media:   &tg.MessageMediaPhoto{Photo: &tg.Photo{ID: 7}},
	}}
	if err := c.Send(context.Background(), target, photo, 5); err != nil {
		t.Fatalf("Send photo: %v", err)
	}

	if len(api.sentText) != 1 || api.sentText[0].Message != "hello" || api.sentText[0].ReplyTo != nil {
		t.Errorf("text sends = %+v", api.sentText)
	}
	if len(api.sentMedia) != 1 || api.sentMedia[0].Message != "caption" {
		t.Fatalf("media sends = %+v", api.sentMedia)
	}
	if r, ok := api.sentMedia[0].ReplyTo.(*tg.InputReplyToMessage); !ok || r.ReplyToMsgID != 5 {
		t.Errorf("media reply anchor = %#v", api.sentMedia[0].ReplyTo)
	}
	if api.sentText[0].RandomID == 0 || api.sentMedia[0].RandomID == 0 {
		t.Error("random ids must be set")
	}
}

func TestClient_SendForward(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	c := newTestClient(api, ModeForward)
	c.peers.addEntities([]tg.ChatClass{&tg.Channel{ID: 30, AccessHash: 1, Title: "Src"}}, nil)

	msg := clone.Message{ID: 8, Raw: &tg.Message{ID: 8, PeerID: &tg.PeerChannel{ChannelID: 30}}}
	if err := c.Send(context.Background(), channelPeer(), msg, 3); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(api.forwarded) != 1 {
		t.Fatalf("forwards = %d, want 1", len(api.forwarded))
	}
	f := api.forwarded[0]
	if !f.DropAuthor || f.TopMsgID != 3 || len(f.ID) != 1 || f.ID[0] != 8 {
		t.Errorf("forward request = %+v", f)
	}
}

func TestClient_SendErrors(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sendErr: tgerr.New(420, "FLOOD_WAIT_3")}
	c := newTestClient(api, ModeCopy)
	msg := clone.Message{ID: 1, Raw: &tg.Message{ID: 1, Message: "x"}}

	if _, ok := clone.AsThrottle(c.Send(context.Background(), channelPeer(), msg, 0)); !ok {
		t.Error("flood wait must map to a throttle signal")
	}

	api.sendErr = nil
	poll := clone.Message{ID: 2, Raw: &tg.Message{ID: 2, Media: &tg.MessageMediaPoll{}}}
	if err := c.Send(context.Background(), channelPeer(), poll, 0); !errors.Is(err, errUnsupportedMedia) {
		t.Errorf("err = %v, want errUnsupportedMedia", err)
	}

	service := clone.Message{ID: 3, Raw: &tg.MessageService{ID: 3}}
	if err := c.Send(context.Background(), channelPeer(), service, 0); err == nil {
		t.Error("expected error for a message without content")
	}
}
