package telegram

import (
	"strings"
	"sync"

	"github.com/gotd/td/tg"

	"github.com/flemzord/pigram/internal/clone"
)

// channelShift offsets channel ids in their marked (Bot API style) form.
const channelShift int64 = 1_000_000_000_000

func markUser(id int64) int64    { return id }
func markChat(id int64) int64    { return -id }
func markChannel(id int64) int64 { return -(channelShift + id) }

// markedID returns the marked id of a peer reference.
func markedID(p tg.PeerClass) int64 {
	switch p := p.(type) {
	case *tg.PeerUser:
		return markUser(p.UserID)
	case *tg.PeerChat:
		return markChat(p.ChatID)
	case *tg.PeerChannel:
		return markChannel(p.ChannelID)
	}
	return 0
}

// peerEntry is what the cache knows about one conversation.
type peerEntry struct {
	input    tg.InputPeerClass
	title    string
	username string
	kind     clone.DialogKind
}

func (e peerEntry) peer(id int64) clone.Peer {
	return clone.Peer{ID: id, Title: e.title, Handle: e.input}
}

// peerCache remembers access hashes of every entity seen in a response.
type peerCache struct {
	mu         sync.RWMutex
	byID       map[int64]peerEntry
	byUsername map[string]int64
}

func newPeerCache() *peerCache {
	return &peerCache{
		byID:       make(map[int64]peerEntry),
		byUsername: make(map[string]int64),
	}
}

func (c *peerCache) get(id int64) (peerEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	return e, ok
}

func (c *peerCache) lookupUsername(name string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byUsername[strings.ToLower(name)]
	return id, ok
}

func (c *peerCache) put(id int64, e peerEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[id] = e
	if e.username != "" {
		c.byUsername[strings.ToLower(e.username)] = id
	}
}

// addEntities records every chat and user of a response.
func (c *peerCache) addEntities(chats []tg.ChatClass, users []tg.UserClass) {
	for _, ch := range chats {
		if id, e, ok := chatEntry(ch); ok {
			c.put(id, e)
		}
	}
	for _, u := range users {
		if id, e, ok := userEntry(u); ok {
			c.put(id, e)
		}
	}
}

func chatEntry(ch tg.ChatClass) (int64, peerEntry, bool) {
	switch ch := ch.(type) {
	case *tg.Chat:
		return markChat(ch.ID), peerEntry{
			input: &tg.InputPeerChat{ChatID: ch.ID},
			title: ch.Title,
			kind:  clone.DialogGroup,
		}, true
	case *tg.Channel:
		kind := clone.DialogChannel
		if ch.Megagroup {
			kind = clone.DialogGroup
		}
		return markChannel(ch.ID), peerEntry{
			input:    &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash},
			title:    ch.Title,
			username: ch.Username,
			kind:     kind,
		}, true
	case *tg.ChannelForbidden:
		return markChannel(ch.ID), peerEntry{
			input: &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash},
			title: ch.Title,
			kind:  clone.DialogChannel,
		}, true
	}
	return 0, peerEntry{}, false
}

func userEntry(u tg.UserClass) (int64, peerEntry, bool) {
	user, ok := u.(*tg.User)
	if !ok {
		return 0, peerEntry{}, false
	}
	e := peerEntry{
		input:    &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash},
		title:    userTitle(user),
		username: user.Username,
		kind:     clone.DialogUser,
	}
	if user.Self {
		e.input = &tg.InputPeerSelf{}
		e.title = savedMessages
	}
	return markUser(user.ID), e, true
}

const savedMessages = "Saved Messages"

func userTitle(u *tg.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" && u.Username != "" {
		return "@" + u.Username
	}
	return name
}

// normalizeUsername strips "@" and t.me link prefixes.
func normalizeUsername(ref string) string {
	s := strings.TrimSpace(ref)
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	for _, prefix := range []string{"t.me/", "telegram.me/", "@"} {
		s = strings.TrimPrefix(s, prefix)
	}
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}
	return s
}

// isSelfRef reports whether ref designates the account's saved messages.
func isSelfRef(ref string) bool {
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case "me", "self":
		return true
	}
	return false
}
