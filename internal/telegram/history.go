package telegram

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/gotd/td/tg"

	"github.com/flemzord/pigram/internal/clone"
)

// Fetch implements clone.Client. History is requested in ascending order:
// the offset points just past req.AfterID and the negative add_offset walks
// forward from it.
func (c *Client) Fetch(ctx context.Context, chat clone.Peer, req clone.FetchRequest) ([]clone.Message, error) {
	input, err := inputPeer(chat)
	if err != nil {
		return nil, err
	}

	var res tg.MessagesMessagesClass
	if req.Topic.IsSet() {
		res, err = c.api.MessagesGetReplies(ctx, &tg.MessagesGetRepliesRequest{
			Peer:      input,
			MsgID:     int(req.Topic),
			OffsetID:  req.AfterID + 1,
			AddOffset: -req.Limit,
			Limit:     req.Limit,
			MinID:     req.AfterID,
		})
	} else {
		res, err = c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:      input,
			OffsetID:  req.AfterID + 1,
			AddOffset: -req.Limit,
			Limit:     req.Limit,
			MinID:     req.AfterID,
		})
	}
	if err != nil {
		return nil, mapError(err)
	}

	raw, chats, users := unpackMessages(res)
	c.peers.addEntities(chats, users)
	return convertMessages(raw, req.AfterID), nil
}

func unpackMessages(res tg.MessagesMessagesClass) ([]tg.MessageClass, []tg.ChatClass, []tg.UserClass) {
	switch r := res.(type) {
	case *tg.MessagesMessages:
		return r.Messages, r.Chats, r.Users
	case *tg.MessagesMessagesSlice:
		return r.Messages, r.Chats, r.Users
	case *tg.MessagesChannelMessages:
		return r.Messages, r.Chats, r.Users
	}
	return nil, nil, nil
}

// convertMessages keeps messages newer than afterID, oldest first.
func convertMessages(raw []tg.MessageClass, afterID int) []clone.Message {
	out := make([]clone.Message, 0, len(raw))
	for _, m := range raw {
		switch m := m.(type) {
		case *tg.Message:
			if m.ID <= afterID {
				continue
			}
			out = append(out, clone.Message{
				ID:    m.ID,
				Date:  time.Unix(int64(m.Date), 0),
				Text:  m.Message,
				Media: mediaKind(m.Media),
				Raw:   m,
			})
		case *tg.MessageService:
			if m.ID <= afterID {
				continue
			}
			out = append(out, clone.Message{
				ID:    m.ID,
				Date:  time.Unix(int64(m.Date), 0),
				Media: "service",
				Raw:   m,
			})
		}
	}
	slices.SortFunc(out, func(a, b clone.Message) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// mediaKind names the media of a message for logs and renders.
func mediaKind(media tg.MessageMediaClass) string {
	switch media.(type) {
	case nil, *tg.MessageMediaEmpty:
		return ""
	case *tg.MessageMediaPhoto:
		return "photo"
	case *tg.MessageMediaDocument:
		return "document"
	case *tg.MessageMediaGeo, *tg.MessageMediaGeoLive, *tg.MessageMediaVenue:
		return "location"
	case *tg.MessageMediaContact:
		return "contact"
	case *tg.MessageMediaWebPage:
		return "webpage"
	case *tg.MessageMediaPoll:
		return "poll"
	}
	return "other"
}
