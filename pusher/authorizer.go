package pusher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AuthResponse carries the fields a private or presence subscription
// frame must attach.
type AuthResponse struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data"`
}

// Authorizer authorizes private and presence channel subscriptions for
// a given socket session.
type Authorizer interface {
	Authorize(ctx context.Context, channelName, socketID string) (*AuthResponse, error)
}

// HTTPAuthorizer authorizes channels against an HTTP auth endpoint by
// posting the channel name and socket id as form data.
type HTTPAuthorizer struct {
	URL    string
	Client *http.Client
}

// NewHTTPAuthorizer creates an authorizer for the given endpoint URL.
func NewHTTPAuthorizer(authURL string) *HTTPAuthorizer {
	return &HTTPAuthorizer{
		URL:    authURL,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Authorize performs the authorization round-trip.
func (a *HTTPAuthorizer) Authorize(ctx context.Context, channelName, socketID string) (*AuthResponse, error) {
	form := url.Values{}
	form.Set("channel_name", channelName)
	form.Set("socket_id", socketID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("pusher: create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pusher: channel auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pusher: read auth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pusher: channel auth rejected: status %d", resp.StatusCode)
	}

	var auth AuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("pusher: decode auth response: %w", err)
	}
	return &auth, nil
}
