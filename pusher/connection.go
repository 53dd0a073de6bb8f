package pusher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionState tracks the websocket transport lifecycle.
type ConnectionState int

const (
	StateInitialized ConnectionState = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// connection owns the raw websocket. It forwards inbound frames to the
// client for dispatch and re-dials with backoff on unexpected close
// unless the close came from an explicit disconnect.
type connection struct {
	client *Client
	url    string

	mu             sync.Mutex
	ws             *websocket.Conn
	state          ConnectionState
	socketID       string
	allowReconnect bool

	writeMu sync.Mutex
}

func newConnection(client *Client, url string) *connection {
	return &connection{
		client: client,
		url:    url,
		state:  StateInitialized,
	}
}

func (c *connection) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *connection) SocketID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socketID
}

func (c *connection) setState(state ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.client.notifyStateChange(state)
}

// connect dials the endpoint and starts the reader. The connection is
// Connected only once the server's connection_established frame
// arrives.
func (c *connection) connect(ctx context.Context) error {
	c.mu.Lock()
	c.allowReconnect = true
	c.mu.Unlock()
	c.setState(StateConnecting)

	ws, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("pusher: dial %s: %w", c.url, err)
	}

	c.adopt(ws)
	return nil
}

func (c *connection) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, c.url, nil)
	return ws, err
}

func (c *connection) adopt(ws *websocket.Conn) {
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
	go c.readLoop(ws)
}

// disconnect closes the socket and suppresses any reconnect attempt.
func (c *connection) disconnect() {
	c.mu.Lock()
	c.allowReconnect = false
	ws := c.ws
	c.ws = nil
	c.socketID = ""
	c.mu.Unlock()

	if ws != nil {
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		ws.Close()
	}
	c.setState(StateDisconnected)
}

// send writes one JSON frame. Writes are serialized; gorilla permits
// only one concurrent writer.
func (c *connection) send(v any) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return &Error{Code: ErrCodeConnectionFailed, Message: "not connected"}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := ws.WriteJSON(v); err != nil {
		return fmt.Errorf("pusher: send frame: %w", err)
	}
	return nil
}

func (c *connection) readLoop(ws *websocket.Conn) {
	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			c.handleClose(ws)
			return
		}

		ev, perr := parseEvent(frame)
		if perr != nil {
			c.client.logger.Warn("dropping invalid frame", "error", perr)
			continue
		}
		c.client.handleFrame(ev)
	}
}

// handleClose runs when the reader sees a socket error. An explicit
// disconnect replaces c.ws first, so a stale reader exits quietly.
func (c *connection) handleClose(ws *websocket.Conn) {
	c.mu.Lock()
	if c.ws != ws {
		c.mu.Unlock()
		return
	}
	c.ws = nil
	c.socketID = ""
	reconnect := c.allowReconnect
	c.mu.Unlock()

	c.setState(StateDisconnected)
	c.client.connectionLost()

	if reconnect {
		go c.reconnectLoop()
	}
}

// reconnectLoop re-dials with exponential backoff until it succeeds,
// the attempt budget runs out, or an explicit disconnect intervenes.
func (c *connection) reconnectLoop() {
	cfg := c.client.opts.Backoff
	for attempt := 0; ; attempt++ {
		if max := c.client.opts.MaxReconnectAttempts; max > 0 && attempt >= max {
			c.setState(StateFailed)
			c.client.notifyError(&Error{
				Code:    ErrCodeConnectionFailed,
				Message: fmt.Sprintf("reconnect attempts exhausted after %d tries", attempt),
			})
			return
		}

		time.Sleep(cfg.delay(attempt))

		c.mu.Lock()
		allowed := c.allowReconnect
		c.mu.Unlock()
		if !allowed {
			return
		}

		c.setState(StateConnecting)
		ws, err := c.dial(context.Background())
		if err != nil {
			c.client.logger.Warn("reconnect attempt failed", "attempt", attempt+1, "error", err)
			c.setState(StateDisconnected)
			continue
		}

		c.adopt(ws)
		return
	}
}

// established records the socket id from the connection_established
// control frame and transitions to Connected.
func (c *connection) established(data string) error {
	var payload struct {
		SocketID string `json:"socket_id"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return fmt.Errorf("pusher: parse connection_established: %w", err)
	}

	c.mu.Lock()
	c.socketID = payload.SocketID
	c.mu.Unlock()
	c.setState(StateConnected)
	return nil
}
