package pusher

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ChannelType distinguishes public channels from those requiring an
// authorization handshake.
type ChannelType int

const (
	ChannelPublic ChannelType = iota
	ChannelPrivate
	ChannelPresence
)

func (t ChannelType) String() string {
	switch t {
	case ChannelPublic:
		return "public"
	case ChannelPrivate:
		return "private"
	case ChannelPresence:
		return "presence"
	default:
		return "unknown"
	}
}

// channelTypeOf classifies a channel by its name prefix.
func channelTypeOf(name string) ChannelType {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "private-"):
		return ChannelPrivate
	case strings.HasPrefix(lower, "presence-"):
		return ChannelPresence
	default:
		return ChannelPublic
	}
}

// Binding is a handle to one registered listener; pass it to Unbind to
// remove the listener again.
type Binding struct {
	id  uuid.UUID
	all bool
}

type eventBinding struct {
	id    uuid.UUID
	event string
	fn    func(data string)
}

type generalBinding struct {
	id uuid.UUID
	fn func(event, data string)
}

// emitter is the listener registry shared by the client and channels:
// catch-all listeners plus listeners bound to a specific event name,
// each fired in registration order.
type emitter struct {
	mu       sync.Mutex
	bindings []eventBinding
	catchAll []generalBinding
}

// Bind registers a listener for one event name.
func (e *emitter) Bind(event string, fn func(data string)) Binding {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := uuid.New()
	e.bindings = append(e.bindings, eventBinding{id: id, event: event, fn: fn})
	return Binding{id: id}
}

// BindAll registers a catch-all listener receiving every event.
func (e *emitter) BindAll(fn func(event, data string)) Binding {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := uuid.New()
	e.catchAll = append(e.catchAll, generalBinding{id: id, fn: fn})
	return Binding{id: id, all: true}
}

// Unbind removes a previously registered listener.
func (e *emitter) Unbind(b Binding) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b.all {
		for i, g := range e.catchAll {
			if g.id == b.id {
				e.catchAll = append(e.catchAll[:i], e.catchAll[i+1:]...)
				return
			}
		}
		return
	}
	for i, eb := range e.bindings {
		if eb.id == b.id {
			e.bindings = append(e.bindings[:i], e.bindings[i+1:]...)
			return
		}
	}
}

// emit fires catch-all listeners first, then listeners bound to the
// event name, preserving registration order within each group.
// Listeners run on the caller's goroutine so a single inbound frame is
// fully dispatched before the next one is read.
func (e *emitter) emit(event, data string) {
	e.mu.Lock()
	catchAll := make([]generalBinding, len(e.catchAll))
	copy(catchAll, e.catchAll)
	var named []eventBinding
	for _, b := range e.bindings {
		if b.event == event {
			named = append(named, b)
		}
	}
	e.mu.Unlock()

	for _, g := range catchAll {
		g.fn(event, data)
	}
	for _, b := range named {
		b.fn(data)
	}
}

// Channel is one realtime subscription. Channels are created through
// Client.Subscribe and are unique per name within a client.
type Channel struct {
	emitter

	name   string
	typ    ChannelType
	client *Client

	stateMu    sync.Mutex
	subscribed bool

	// SubscriptionSucceeded, when set, fires once the server confirms
	// the subscription (again after each reconnect re-subscribe).
	SubscriptionSucceeded func()

	// presence state, populated for presence channels only
	members       map[string]string
	MemberAdded   func(id string)
	MemberRemoved func(id string)
}

func newChannel(name string, typ ChannelType, client *Client) *Channel {
	ch := &Channel{name: name, typ: typ, client: client}
	if typ == ChannelPresence {
		ch.members = make(map[string]string)
	}
	return ch
}

// Name returns the channel name.
func (ch *Channel) Name() string { return ch.name }

// Type returns the channel type classified from the name prefix.
func (ch *Channel) Type() ChannelType { return ch.typ }

// IsSubscribed reports whether the server has confirmed the
// subscription on the current connection.
func (ch *Channel) IsSubscribed() bool {
	ch.stateMu.Lock()
	defer ch.stateMu.Unlock()
	return ch.subscribed
}

// Unsubscribe sends the unsubscribe frame and removes the channel from
// the client, so it is not re-subscribed after a reconnect.
func (ch *Channel) Unsubscribe() error {
	ch.stateMu.Lock()
	ch.subscribed = false
	ch.stateMu.Unlock()
	return ch.client.unsubscribe(ch.name)
}

// Members returns a copy of the current presence member set. Nil for
// non-presence channels.
func (ch *Channel) Members() map[string]string {
	if ch.typ != ChannelPresence {
		return nil
	}
	ch.stateMu.Lock()
	defer ch.stateMu.Unlock()
	out := make(map[string]string, len(ch.members))
	for k, v := range ch.members {
		out[k] = v
	}
	return out
}

func (ch *Channel) subscriptionSucceeded() {
	ch.stateMu.Lock()
	ch.subscribed = true
	cb := ch.SubscriptionSucceeded
	ch.stateMu.Unlock()
	if cb != nil {
		cb()
	}
}

// markUnsubscribed resets confirmation state when the connection drops;
// the client re-subscribes the channel after reconnecting.
func (ch *Channel) markUnsubscribed() {
	ch.stateMu.Lock()
	ch.subscribed = false
	ch.stateMu.Unlock()
}

type memberPayload struct {
	UserID   string          `json:"user_id"`
	UserInfo json.RawMessage `json:"user_info"`
}

func (ch *Channel) addMember(data string) {
	if ch.typ != ChannelPresence {
		return
	}
	var m memberPayload
	if err := json.Unmarshal([]byte(data), &m); err != nil || m.UserID == "" {
		return
	}
	ch.stateMu.Lock()
	ch.members[m.UserID] = string(m.UserInfo)
	cb := ch.MemberAdded
	ch.stateMu.Unlock()
	if cb != nil {
		cb(m.UserID)
	}
}

func (ch *Channel) removeMember(data string) {
	if ch.typ != ChannelPresence {
		return
	}
	var m memberPayload
	if err := json.Unmarshal([]byte(data), &m); err != nil || m.UserID == "" {
		return
	}
	ch.stateMu.Lock()
	_, present := ch.members[m.UserID]
	delete(ch.members, m.UserID)
	cb := ch.MemberRemoved
	ch.stateMu.Unlock()
	if present && cb != nil {
		cb(m.UserID)
	}
}
