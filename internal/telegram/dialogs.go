package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/flemzord/pigram/internal/clone"
)

// Dialogs implements clone.Client. Pages are paced by the client's limiter
// and flood waits are absorbed here, so listing never fails on throttling.
func (c *Client) Dialogs(ctx context.Context) ([]clone.Dialog, error) {
	var (
		out  []clone.Dialog
		seen = make(map[int64]bool)
		req  = &tg.MessagesGetDialogsRequest{
			OffsetPeer: &tg.InputPeerEmpty{},
			Limit:      c.opts.DialogPageSize,
		}
	)

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		res, err := c.api.MessagesGetDialogs(ctx, req)
		if err != nil {
			mapped := mapError(err)
			if wait, ok := clone.AsThrottle(mapped); ok {
				c.logger.Warn("dialog listing throttled", "wait", wait)
				if err := c.opts.Sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("telegram: listing dialogs: %w", mapped)
		}

		page, ok := unpackDialogs(res)
		if !ok {
			return out, nil
		}
		c.peers.addEntities(page.chats, page.users)

		for _, d := range page.dialogs {
			id := markedID(d.Peer)
			if seen[id] {
				continue
			}
			seen[id] = true
			e, ok := c.peers.get(id)
			if !ok {
				continue
			}
			out = append(out, clone.Dialog{Peer: e.peer(id), Kind: e.kind, Username: e.username})
		}

		if page.final || len(page.dialogs) < req.Limit {
			return out, nil
		}
		next, ok := nextDialogOffset(page, c.peers, req.Limit)
		if !ok || next.OffsetID == req.OffsetID && next.OffsetDate == req.OffsetDate {
			return out, nil
		}
		req = next
	}
}

type dialogPage struct {
	dialogs  []*tg.Dialog
	messages []tg.MessageClass
	chats    []tg.ChatClass
	users    []tg.UserClass
	// final is set when the server returned the complete list at once.
	final bool
}

func unpackDialogs(res tg.MessagesDialogsClass) (dialogPage, bool) {
	var p dialogPage
	var raw []tg.DialogClass
	switch r := res.(type) {
	case *tg.MessagesDialogs:
		raw, p.messages, p.chats, p.users = r.Dialogs, r.Messages, r.Chats, r.Users
		p.final = true
	case *tg.MessagesDialogsSlice:
		raw, p.messages, p.chats, p.users = r.Dialogs, r.Messages, r.Chats, r.Users
	default:
		return p, false
	}
	for _, d := range raw {
		if dialog, ok := d.(*tg.Dialog); ok {
			p.dialogs = append(p.dialogs, dialog)
		}
	}
	return p, true
}

// nextDialogOffset builds the request for the page after p, anchored on its
// last dialog.
func nextDialogOffset(p dialogPage, peers *peerCache, limit int) (*tg.MessagesGetDialogsRequest, bool) {
	if len(p.dialogs) == 0 {
		return nil, false
	}
	last := p.dialogs[len(p.dialogs)-1]
	lastID := markedID(last.Peer)
	e, ok := peers.get(lastID)
	if !ok {
		return nil, false
	}

	req := &tg.MessagesGetDialogsRequest{
		OffsetID:   last.TopMessage,
		OffsetPeer: e.input,
		Limit:      limit,
	}
	for _, m := range p.messages {
		switch m := m.(type) {
		case *tg.Message:
			if m.ID == last.TopMessage && markedID(m.PeerID) == lastID {
				req.OffsetDate = m.Date
			}
		case *tg.MessageService:
			if m.ID == last.TopMessage && markedID(m.PeerID) == lastID {
				req.OffsetDate = m.Date
			}
		}
	}
	return req, true
}
