package enjin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// appChannelName is the realtime channel carrying every event for the
// client's app: enjin.server.{network}.{platform}.{app}.
func (c *Client) appChannelName(info PlatformInfo) string {
	return fmt.Sprintf("enjin.server.%s.%s.%d", info.Network, info.ID, c.cfg.AppID)
}

// linkChannelName is the identity-scoped channel used while waiting
// for a wallet link.
func (c *Client) linkChannelName(info PlatformInfo, identityID int) string {
	return c.appChannelName(info) + "." + strconv.Itoa(identityID)
}

// BindEvent registers a listener fired every time the named event
// arrives on the app channel. Listeners fire in registration order.
func (c *Client) BindEvent(eventName string, fn func(RequestEvent)) {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()
	c.eventListeners[eventName] = append(c.eventListeners[eventName], fn)
}

// ListenForLink subscribes the identity-scoped channel and fires fn
// once that identity links a wallet. The channel unsubscribes itself
// after the identity_updated event, so this is a one-shot listen.
func (c *Client) ListenForLink(ctx context.Context, identityID int, fn func(RequestEvent)) error {
	c.mu.Lock()
	realtime := c.realtime
	info := c.platform
	c.mu.Unlock()
	if realtime == nil {
		return fmt.Errorf("enjin: realtime not initialized")
	}

	channel, err := realtime.Subscribe(ctx, c.linkChannelName(info, identityID))
	if err != nil {
		return fmt.Errorf("enjin: subscribe link channel: %w", err)
	}

	channel.BindAll(func(eventName, data string) {
		ev, err := decodeRequestEvent(data)
		if err != nil {
			c.logger.Warn("undecodable link event", "event", eventName, "error", err)
			return
		}
		c.logger.Debug("link channel event", "event", eventName, "type", ev.EventType)

		if ev.EventType == "identity_updated" {
			fn(ev)
			if err := channel.Unsubscribe(); err != nil {
				c.logger.Warn("unsubscribe link channel failed", "error", err)
			}
		}
	})
	return nil
}

// handleChannelEvent is the app channel dispatcher: it decodes the
// payload, feeds bound listeners, and resolves the callback registry
// on tx_executed.
func (c *Client) handleChannelEvent(eventName, data string) {
	ev, err := decodeRequestEvent(data)
	if err != nil {
		c.logger.Warn("undecodable channel event", "event", eventName, "error", err)
		return
	}
	c.logger.Debug("channel event", "event", eventName, "type", ev.EventType, "data", data)

	c.eventMu.Lock()
	listeners := append([]func(RequestEvent){}, c.eventListeners[eventName]...)
	c.eventMu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}

	if ev.EventType == "tx_executed" {
		c.Registry.Resolve(ev.Data.TransactionID, ev)
	}
}

func decodeRequestEvent(data string) (RequestEvent, error) {
	var ev RequestEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return RequestEvent{}, fmt.Errorf("enjin: decode request event: %w", err)
	}
	return ev, nil
}
