package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gotd/td/tg"
	"golang.org/x/time/rate"

	"github.com/flemzord/pigram/internal/clone"
)

// Mode selects how messages are re-emitted.
type Mode string

// Replication modes.
const (
	// ModeCopy re-creates text and re-usable media as new messages.
	ModeCopy Mode = "copy"
	// ModeForward forwards with the author dropped. It handles every media
	// type but fails on chats with content protection.
	ModeForward Mode = "forward"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeCopy || m == ModeForward
}

// ClientOptions tunes a Client.
type ClientOptions struct {
	Mode Mode
	// DialogPageSize is the number of dialogs requested per page.
	DialogPageSize int
	// DialogRate paces dialog pages.
	DialogRate rate.Limit
	Logger     *slog.Logger
	// Sleep absorbs flood waits while listing dialogs. Nil uses clone.Sleep.
	Sleep clone.SleepFunc
}

// Client implements clone.Client on an authenticated RPC client.
type Client struct {
	api     API
	opts    ClientOptions
	peers   *peerCache
	limiter *rate.Limiter
	logger  *slog.Logger
	self    *tg.User
}

// Compile-time interface checks.
var (
	_ clone.Client     = (*Client)(nil)
	_ clone.Classifier = (*Client)(nil)
)

// NewClient wraps api.
func NewClient(api API, opts ClientOptions) *Client {
	if !opts.Mode.Valid() {
		opts.Mode = ModeCopy
	}
	if opts.DialogPageSize <= 0 {
		opts.DialogPageSize = 100
	}
	if opts.DialogRate == 0 {
		opts.DialogRate = rate.Every(time.Second)
	}
	if opts.Sleep == nil {
		opts.Sleep = clone.Sleep
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		api:     api,
		opts:    opts,
		peers:   newPeerCache(),
		limiter: rate.NewLimiter(opts.DialogRate, 1),
		logger:  logger.With("component", "telegram"),
	}
}

// Resolve implements clone.Client. Numeric references must name a
// conversation present in the account's dialog list.
func (c *Client) Resolve(ctx context.Context, ref clone.ChatRef) (clone.Peer, error) {
	raw := string(ref)
	if isSelfRef(raw) {
		return c.resolveSelf(ctx)
	}

	if id, ok := ref.Numeric(); ok {
		if e, ok := c.peers.get(id); ok {
			return e.peer(id), nil
		}
		if _, err := c.Dialogs(ctx); err != nil {
			return clone.Peer{}, err
		}
		if e, ok := c.peers.get(id); ok {
			return e.peer(id), nil
		}
		return clone.Peer{}, &clone.ResolutionError{
			Ref: ref,
			Err: errors.New("no dialog with this id; open the chat once from this account"),
		}
	}

	name := normalizeUsername(raw)
	if name == "" {
		return clone.Peer{}, &clone.ResolutionError{Ref: ref, Err: errors.New("empty username")}
	}
	if id, ok := c.peers.lookupUsername(name); ok {
		if e, ok := c.peers.get(id); ok {
			return e.peer(id), nil
		}
	}

	res, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: name})
	if err != nil {
		return clone.Peer{}, mapError(err)
	}
	c.peers.addEntities(res.Chats, res.Users)

	id := markedID(res.Peer)
	e, ok := c.peers.get(id)
	if !ok {
		return clone.Peer{}, &clone.ResolutionError{Ref: ref, Err: fmt.Errorf("resolved peer %d has no entity", id)}
	}
	return e.peer(id), nil
}

func (c *Client) resolveSelf(ctx context.Context) (clone.Peer, error) {
	self, err := c.Self(ctx)
	if err != nil {
		return clone.Peer{}, err
	}
	return clone.Peer{ID: markUser(self.ID), Title: savedMessages, Handle: &tg.InputPeerSelf{}}, nil
}

// Self returns the logged-in user.
func (c *Client) Self(ctx context.Context) (*tg.User, error) {
	if c.self != nil {
		return c.self, nil
	}
	users, err := c.api.UsersGetUsers(ctx, []tg.InputUserClass{&tg.InputUserSelf{}})
	if err != nil {
		return nil, mapError(err)
	}
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			c.self = user
			c.peers.addEntities(nil, users)
			return user, nil
		}
	}
	return nil, errors.New("telegram: current user not returned")
}

// IsService implements clone.Classifier. Joins, pins, title changes and
// every other action message are service notifications.
func (c *Client) IsService(msg clone.Message) bool {
	_, ok := msg.Raw.(*tg.MessageService)
	return ok
}

func inputPeer(p clone.Peer) (tg.InputPeerClass, error) {
	input, ok := p.Handle.(tg.InputPeerClass)
	if !ok || input == nil {
		return nil, fmt.Errorf("telegram: peer %d was not resolved by this client", p.ID)
	}
	return input, nil
}
