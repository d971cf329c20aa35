package telegram

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/gotd/td/tg"

	"github.com/flemzord/pigram/internal/clone"
)

// Send implements clone.Client.
func (c *Client) Send(ctx context.Context, chat clone.Peer, msg clone.Message, topic clone.TopicRef) error {
	to, err := inputPeer(chat)
	if err != nil {
		return err
	}
	src, ok := msg.Raw.(*tg.Message)
	if !ok {
		return fmt.Errorf("telegram: message %d carries no content", msg.ID)
	}

	if c.opts.Mode == ModeForward {
		return mapError(c.sendForward(ctx, to, src, topic))
	}
	return mapError(c.sendCopy(ctx, to, src, topic))
}

func (c *Client) sendCopy(ctx context.Context, to tg.InputPeerClass, src *tg.Message, topic clone.TopicRef) error {
	media, ok, err := inputMedia(src.Media)
	if err != nil {
		return err
	}
	if ok {
		_, err := c.api.MessagesSendMedia(ctx, &tg.MessagesSendMediaRequest{
			Peer:     to,
			ReplyTo:  replyTo(topic),
			Media:    media,
			Message:  src.Message,
			Entities: src.Entities,
			RandomID: rand.Int64(),
		})
		return err
	}

	_, err = c.api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     to,
		ReplyTo:  replyTo(topic),
		Message:  src.Message,
		Entities: src.Entities,
		RandomID: rand.Int64(),
	})
	return err
}

func (c *Client) sendForward(ctx context.Context, to tg.InputPeerClass, src *tg.Message, topic clone.TopicRef) error {
	fromID := markedID(src.PeerID)
	from, ok := c.peers.get(fromID)
	if !ok {
		return fmt.Errorf("telegram: source peer %d of message %d is unknown", fromID, src.ID)
	}
	_, err := c.api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		FromPeer:   from.input,
		ID:         []int{src.ID},
		RandomID:   []int64{rand.Int64()},
		ToPeer:     to,
		TopMsgID:   int(topic),
		DropAuthor: true,
	})
	return err
}

// replyTo anchors a new message under topic. Nil posts at the root.
func replyTo(topic clone.TopicRef) tg.InputReplyToClass {
	if !topic.IsSet() {
		return nil
	}
	return &tg.InputReplyToMessage{ReplyToMsgID: int(topic), TopMsgID: int(topic)}
}

// inputMedia converts received media into media that can be sent again.
// ok is false when the message should go out as plain text; an error means
// the media cannot be copied at all.
func inputMedia(media tg.MessageMediaClass) (tg.InputMediaClass, bool, error) {
	switch m := media.(type) {
	case nil, *tg.MessageMediaEmpty, *tg.MessageMediaWebPage:
		return nil, false, nil

	case *tg.MessageMediaPhoto:
		photo, ok := m.Photo.(*tg.Photo)
		if !ok {
			return nil, false, errUnsupportedMedia
		}
		return &tg.InputMediaPhoto{
			ID: &tg.InputPhoto{
				ID:            photo.ID,
				AccessHash:    photo.AccessHash,
				FileReference: photo.FileReference,
			},
			Spoiler: m.Spoiler,
		}, true, nil

	case *tg.MessageMediaDocument:
		doc, ok := m.Document.(*tg.Document)
		if !ok {
			return nil, false, errUnsupportedMedia
		}
		return &tg.InputMediaDocument{
			ID: &tg.InputDocument{
				ID:            doc.ID,
				AccessHash:    doc.AccessHash,
				FileReference: doc.FileReference,
			},
			Spoiler: m.Spoiler,
		}, true, nil

	case *tg.MessageMediaGeo:
		point, ok := m.Geo.(*tg.GeoPoint)
		if !ok {
			return nil, false, errUnsupportedMedia
		}
		return &tg.InputMediaGeoPoint{
			GeoPoint: &tg.InputGeoPoint{Lat: point.Lat, Long: point.Long},
		}, true, nil

	case *tg.MessageMediaContact:
		return &tg.InputMediaContact{
			PhoneNumber: m.PhoneNumber,
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			Vcard:       m.Vcard,
		}, true, nil
	}
	return nil, false, fmt.Errorf("%w: %T", errUnsupportedMedia, media)
}
