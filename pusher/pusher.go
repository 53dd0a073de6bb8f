package pusher

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/enjincraft/platform-go/pkg/logger"
)

const protocolVersion = 5

// Options configures a Client.
type Options struct {
	// Host is the websocket host. Defaults to ws.pusherapp.com, or the
	// cluster host when Cluster is set.
	Host string
	// Cluster selects a regional endpoint (ws-<cluster>.pusher.com).
	Cluster string
	// Encrypted selects wss:// over ws://.
	Encrypted bool
	// Authorizer authorizes private and presence subscriptions.
	// Required before subscribing to such channels.
	Authorizer Authorizer
	// ClientName and ClientVersion identify the client library on the
	// connection URL.
	ClientName    string
	ClientVersion string
	// Backoff paces reconnect attempts. Zero value uses defaults.
	Backoff BackoffConfig
	// MaxReconnectAttempts bounds reconnects per outage; 0 means
	// unlimited.
	MaxReconnectAttempts int
	// Logger receives client logs. Defaults to a no-op logger.
	Logger *logger.Logger
}

// Client is a Pusher-protocol realtime client: one websocket
// connection and any number of channel subscriptions. Subscriptions
// survive reconnects; the client re-subscribes every desired channel
// once the replacement connection is established.
type Client struct {
	emitter

	appKey string
	opts   Options
	logger *logger.Logger
	conn   *connection

	chanMu   sync.Mutex
	channels map[string]*Channel

	// OnConnected fires each time a connection is established,
	// including after a reconnect.
	OnConnected func()
	// OnStateChange observes connection state transitions.
	OnStateChange func(ConnectionState)
	// OnError receives realtime protocol errors. Errors are reported,
	// never panicked, so a broken integration surfaces to the owner.
	OnError func(*Error)
}

// New creates a client for the given application key.
func New(appKey string, opts Options) *Client {
	if opts.Host == "" {
		if opts.Cluster != "" {
			opts.Host = fmt.Sprintf("ws-%s.pusher.com", opts.Cluster)
		} else {
			opts.Host = "ws.pusherapp.com"
		}
	}
	if opts.ClientName == "" {
		opts.ClientName = "pusher-go"
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = "1.0"
	}
	if opts.Backoff == (BackoffConfig{}) {
		opts.Backoff = DefaultBackoffConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	c := &Client{
		appKey:   appKey,
		opts:     opts,
		logger:   opts.Logger,
		channels: make(map[string]*Channel),
	}
	c.conn = newConnection(c, c.connectionURL())
	return c
}

func (c *Client) connectionURL() string {
	scheme := "ws"
	if c.opts.Encrypted {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/app/%s?protocol=%d&client=%s&version=%s",
		scheme, c.opts.Host, c.appKey, protocolVersion,
		c.opts.ClientName, c.opts.ClientVersion)
}

// URL returns the websocket connection URL.
func (c *Client) URL() string { return c.conn.url }

// SocketID returns the session id assigned by the server, empty until
// connected.
func (c *Client) SocketID() string { return c.conn.SocketID() }

// State returns the current connection state.
func (c *Client) State() ConnectionState { return c.conn.State() }

// Connect opens the websocket. Connecting while already Connecting or
// Connected logs a warning and does nothing; connecting from Failed is
// an error.
func (c *Client) Connect(ctx context.Context) error {
	switch c.conn.State() {
	case StateConnected:
		c.logger.Warn("connect ignored: already connected")
		return nil
	case StateConnecting:
		c.logger.Warn("connect ignored: connection attempt in progress")
		return nil
	case StateFailed:
		return &Error{Code: ErrCodeConnectionFailed, Message: "cannot reconnect once in failed state"}
	}

	c.logger.Info("connecting", "url", c.conn.url)
	return c.conn.connect(ctx)
}

// Disconnect closes the connection and suppresses reconnection.
// Desired channel subscriptions are kept, so a later Connect restores
// them.
func (c *Client) Disconnect() {
	c.conn.disconnect()
	c.connectionLost()
}

// Subscribe returns the channel with the given name, creating and
// subscribing it if needed. Subscribing an already-subscribed name is
// idempotent. Private and presence channels (name prefixes "private-"
// and "presence-") require an Authorizer.
func (c *Client) Subscribe(ctx context.Context, name string) (*Channel, error) {
	c.chanMu.Lock()
	if ch, ok := c.channels[name]; ok {
		c.chanMu.Unlock()
		c.logger.Warn("channel already subscribed", "channel", name)
		return ch, nil
	}

	typ := channelTypeOf(name)
	if typ != ChannelPublic && c.opts.Authorizer == nil {
		c.chanMu.Unlock()
		return nil, &Error{
			Code:    ErrCodeAuthorizerNotSet,
			Message: "an authorizer is required for private and presence channels",
		}
	}

	ch := newChannel(name, typ, c)
	c.channels[name] = ch
	c.chanMu.Unlock()

	if c.conn.State() != StateConnected {
		c.logger.Warn("not connected; channel will be subscribed on connect", "channel", name)
		return ch, nil
	}

	if err := c.sendSubscribe(ctx, ch); err != nil {
		return ch, err
	}
	return ch, nil
}

// Channel returns the subscribed channel with the given name, nil if
// there is none.
func (c *Client) Channel(name string) *Channel {
	c.chanMu.Lock()
	defer c.chanMu.Unlock()
	return c.channels[name]
}

// sendSubscribe performs the authorization round-trip for private and
// presence channels, then sends the subscribe frame.
func (c *Client) sendSubscribe(ctx context.Context, ch *Channel) error {
	data := map[string]any{"channel": ch.name}

	if ch.typ != ChannelPublic {
		auth, err := c.opts.Authorizer.Authorize(ctx, ch.name, c.SocketID())
		if err != nil {
			return fmt.Errorf("pusher: authorize channel %s: %w", ch.name, err)
		}
		data["auth"] = auth.Auth
		if auth.ChannelData != "" {
			data["channel_data"] = auth.ChannelData
		}
	}

	return c.conn.send(map[string]any{"event": evtSubscribe, "data": data})
}

// unsubscribe removes the channel from the desired set and tells the
// server if currently connected.
func (c *Client) unsubscribe(name string) error {
	c.chanMu.Lock()
	_, ok := c.channels[name]
	delete(c.channels, name)
	c.chanMu.Unlock()
	if !ok || c.conn.State() != StateConnected {
		return nil
	}

	return c.conn.send(map[string]any{
		"event": evtUnsubscribe,
		"data":  map[string]any{"channel": name},
	})
}

// Trigger sends a client event on a channel.
func (c *Client) Trigger(channelName, eventName string, data any) error {
	return c.conn.send(map[string]any{
		"event":   eventName,
		"channel": channelName,
		"data":    data,
	})
}

// handleFrame is the inbound dispatch: ping gets a pong, control
// frames route to built-in handling, everything else goes to the named
// channel's listeners.
func (c *Client) handleFrame(ev Event) {
	if ev.Event == evtPing {
		if err := c.conn.send(map[string]any{"event": evtPong}); err != nil {
			c.logger.Warn("pong failed", "error", err)
		}
		return
	}

	// Client-level listeners observe every frame, control or not.
	c.emit(ev.Event, ev.Data)

	if strings.HasPrefix(ev.Event, controlPrefix) {
		c.handleControlFrame(ev)
		return
	}

	if ch := c.Channel(ev.Channel); ch != nil {
		ch.emit(ev.Event, ev.Data)
		return
	}
	c.logger.Debug("event for unknown channel", "channel", ev.Channel, "event", ev.Event)
}

func (c *Client) handleControlFrame(ev Event) {
	switch ev.Event {
	case evtConnectionEstablished:
		if err := c.conn.established(ev.Data); err != nil {
			c.notifyError(&Error{Code: ErrCodeUnknown, Message: err.Error()})
			return
		}
		c.logger.Info("connection established", "socket_id", c.SocketID())
		if c.OnConnected != nil {
			c.OnConnected()
		}
		c.resubscribeAll()

	case evtError:
		c.notifyError(parseErrorEvent(ev.Data))

	case evtSubscriptionSucceeded:
		if ch := c.Channel(ev.Channel); ch != nil {
			ch.subscriptionSucceeded()
			if ch.typ == ChannelPresence {
				c.logger.Debug("presence subscription confirmed", "channel", ev.Channel)
			}
		}

	case evtSubscriptionError:
		c.notifyError(&Error{
			Code:    ErrCodeSubscriptionError,
			Message: fmt.Sprintf("subscription error on channel %s: %s", ev.Channel, ev.Data),
		})

	case evtMemberAdded:
		if ch := c.Channel(ev.Channel); ch != nil && ch.typ == ChannelPresence {
			ch.addMember(ev.Data)
		} else {
			c.logger.Warn("member_added for non-presence channel", "channel", ev.Channel)
		}

	case evtMemberRemoved:
		if ch := c.Channel(ev.Channel); ch != nil && ch.typ == ChannelPresence {
			ch.removeMember(ev.Data)
		} else {
			c.logger.Warn("member_removed for non-presence channel", "channel", ev.Channel)
		}

	default:
		c.logger.Debug("unhandled control event", "event", ev.Event)
	}
}

// resubscribeAll restores every desired subscription after a
// connection is established.
func (c *Client) resubscribeAll() {
	c.chanMu.Lock()
	channels := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		channels = append(channels, ch)
	}
	c.chanMu.Unlock()

	for _, ch := range channels {
		if err := c.sendSubscribe(context.Background(), ch); err != nil {
			c.logger.Warn("re-subscribe failed", "channel", ch.name, "error", err)
		}
	}
}

// connectionLost resets per-connection channel state; the desired set
// itself is kept for re-subscription.
func (c *Client) connectionLost() {
	c.chanMu.Lock()
	defer c.chanMu.Unlock()
	for _, ch := range c.channels {
		ch.markUnsubscribed()
	}
}

func (c *Client) notifyStateChange(state ConnectionState) {
	c.logger.Debug("connection state changed", "state", state.String())
	if c.OnStateChange != nil {
		c.OnStateChange(state)
	}
}

func (c *Client) notifyError(perr *Error) {
	c.logger.Error("realtime error", "code", int(perr.Code), "message", perr.Message)
	if c.OnError != nil {
		c.OnError(perr)
	}
}
