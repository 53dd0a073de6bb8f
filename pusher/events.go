// Package pusher implements a client for Pusher-protocol push
// notification services (protocol 5): one websocket connection,
// channel subscriptions with private/presence authorization, and
// per-channel event fan-out. The Enjin platform delivers transaction
// lifecycle events over this protocol.
package pusher

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Control event names. Everything in the "pusher"/"pusher_internal"
// namespace is handled by the client itself; all other events route to
// channel listeners.
const (
	evtConnectionEstablished = "pusher:connection_established"
	evtError                 = "pusher:error"
	evtPing                  = "pusher:ping"
	evtPong                  = "pusher:pong"
	evtSubscribe             = "pusher:subscribe"
	evtUnsubscribe           = "pusher:unsubscribe"
	evtSubscriptionSucceeded = "pusher_internal:subscription_succeeded"
	evtSubscriptionError     = "pusher_internal:subscription_error"
	evtMemberAdded           = "pusher_internal:member_added"
	evtMemberRemoved         = "pusher_internal:member_removed"

	controlPrefix = "pusher"
)

// Event is one inbound frame: an event name, the channel it belongs to
// (empty for connection-level events) and the payload. Data holds the
// payload JSON as text; the protocol double-encodes object payloads as
// strings and parseEvent normalizes both encodings.
type Event struct {
	Event   string
	Channel string
	Data    string
}

type rawEvent struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func parseEvent(frame []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(frame, &raw); err != nil {
		return Event{}, fmt.Errorf("pusher: invalid event frame %q: %w", frame, err)
	}

	ev := Event{Event: raw.Event, Channel: raw.Channel}
	if len(raw.Data) > 0 {
		if raw.Data[0] == '"' {
			var inner string
			if err := json.Unmarshal(raw.Data, &inner); err != nil {
				return Event{}, fmt.Errorf("pusher: invalid event data: %w", err)
			}
			ev.Data = inner
		} else {
			ev.Data = string(raw.Data)
		}
	}
	return ev, nil
}

// ErrorCode classifies realtime protocol errors.
type ErrorCode int

const (
	ErrCodeUnknown            ErrorCode = 0
	ErrCodeMustConnectOverTLS ErrorCode = 4000
	ErrCodeAppDoesNotExist    ErrorCode = 4001
	ErrCodeConnectionFailed   ErrorCode = 5000
	ErrCodeAuthorizerNotSet   ErrorCode = 5001
	ErrCodeSubscriptionError  ErrorCode = 5003
)

// Error is a realtime protocol error, either received as a control
// frame or raised by the client. It is surfaced through the client's
// OnError callback rather than panicking the reader goroutine.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pusher: %s (code %d)", e.Message, e.Code)
}

// parseErrorEvent decodes a pusher:error frame payload.
func parseErrorEvent(data string) *Error {
	perr := &Error{Code: ErrCodeUnknown, Message: data}
	var payload struct {
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return perr
	}
	if payload.Message != "" {
		perr.Message = payload.Message
	}
	if n, err := strconv.Atoi(string(payload.Code)); err == nil {
		perr.Code = ErrorCode(n)
	}
	return perr
}
