// Package enjin is the domain facade of the Enjin platform SDK: it
// owns the authenticated session, the GraphQL transport, the realtime
// connection and the request/callback correlation registry, and
// exposes the platform's identity, user, token and transaction
// operations.
package enjin

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/enjincraft/platform-go/graphql"
	"github.com/enjincraft/platform-go/pkg/logger"
	"github.com/enjincraft/platform-go/pusher"
	"github.com/enjincraft/platform-go/template"
)

// DefaultCallbackTTL bounds how long a request callback waits for its
// tx_executed event before the registry drops it.
const DefaultCallbackTTL = 2 * time.Minute

// Config configures a Client.
type Config struct {
	// BaseURL is the platform API root, e.g.
	// https://kovan.cloud.enjin.io. The GraphQL endpoint is derived
	// from it.
	BaseURL string
	// AppID is the application to operate as.
	AppID int
	// Debug enables query and payload logging.
	Debug bool
	// Logger receives SDK logs. Defaults to a no-op logger.
	Logger *logger.Logger
	// HTTPClient overrides the transport's HTTP client.
	HTTPClient *http.Client
	// CallbackTTL bounds pending request callbacks. Zero uses
	// DefaultCallbackTTL; negative disables expiry.
	CallbackTTL time.Duration
	// PusherHost overrides the realtime host advertised by the
	// platform. Mainly for tests.
	PusherHost string
}

// Client is a session-owning handle on one Enjin platform app.
// Multiple clients with independent sessions may coexist in a
// process.
type Client struct {
	cfg       Config
	logger    *logger.Logger
	gql       *graphql.Client
	templates *templateSets

	// Registry correlates request ids with callbacks resolved by
	// tx_executed events.
	Registry *CallbackRegistry

	mu       sync.Mutex
	session  Session
	platform PlatformInfo
	errorRep graphql.ErrorStatus
	realtime *pusher.Client

	eventMu        sync.Mutex
	eventListeners map[string][]func(RequestEvent)
}

// New creates a client for the given platform. The client is logged
// out until StartPlatform or StartPlatformWithToken succeeds.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("enjin: config: BaseURL is required")
	}
	if cfg.AppID <= 0 {
		return nil, fmt.Errorf("enjin: config: AppID is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.CallbackTTL == 0 {
		cfg.CallbackTTL = DefaultCallbackTTL
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:            cfg,
		logger:         cfg.Logger,
		templates:      templates,
		Registry:       NewCallbackRegistry(cfg.Logger),
		eventListeners: make(map[string][]func(RequestEvent)),
	}
	c.session = Session{
		BaseURL:    cfg.BaseURL,
		GraphQLURL: graphql.Endpoint(cfg.BaseURL),
		AppID:      cfg.AppID,
	}

	c.gql, err = graphql.New(graphql.Config{
		BaseURL:     cfg.BaseURL,
		TokenSource: func() string { return c.Session().AccessToken },
		Debug:       cfg.Debug,
		Logger:      cfg.Logger,
		HTTPClient:  cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Session returns a copy of the current session state.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// ErrorReport returns the code and message of the last failed
// operation, zero values if none.
func (c *Client) ErrorReport() graphql.ErrorStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorRep
}

// ResetErrorReport clears the last error report.
func (c *Client) ResetErrorReport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorRep = graphql.ErrorStatus{}
}

// Realtime exposes the realtime client once notifications are
// initialized, nil before then.
func (c *Client) Realtime() *pusher.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.realtime
}

// callbackTTL normalizes the configured ttl; negative means no expiry.
func (c *Client) callbackTTL() time.Duration {
	if c.cfg.CallbackTTL < 0 {
		return 0
	}
	return c.cfg.CallbackTTL
}

// =============================================================================
// Session Lifecycle
// =============================================================================

// StartPlatform authenticates the app with its secret and brings up
// the realtime connection.
func (c *Client) StartPlatform(ctx context.Context, secret string) error {
	query, err := c.renderTemplate(c.templates.platform, "AuthApp",
		template.NewBindings().SetInt("appId", c.cfg.AppID).Set("secret", secret))
	if err != nil {
		return err
	}

	resp, err := c.gql.Post(ctx, query, graphql.WithoutAuth())
	if err != nil {
		c.setLoginState(LoginInvalidURL)
		return fmt.Errorf("enjin: app auth: %w", err)
	}
	c.recordOutcome(resp)
	if !resp.Valid() || resp.Code == graphql.CodeUnauthorized {
		c.setLoginState(LoginInvalidCredentials)
		return fmt.Errorf("enjin: app auth rejected: %s", resp.Code)
	}

	token := resp.Data("data.result.accessToken").String()
	if token == "" {
		c.setLoginState(LoginInvalidCredentials)
		return fmt.Errorf("enjin: app auth returned no access token")
	}

	c.adoptToken(token)
	return c.initNotifications(ctx)
}

// StartPlatformWithToken starts the platform session from an existing
// access token, skipping the secret exchange.
func (c *Client) StartPlatformWithToken(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		c.setLoginState(LoginInvalidCredentials)
		return fmt.Errorf("enjin: access token is required")
	}
	c.adoptToken(accessToken)
	return c.initNotifications(ctx)
}

// AuthPlayer exchanges a player id for that player's access token.
func (c *Client) AuthPlayer(ctx context.Context, id string) (string, error) {
	resp, err := c.postTemplate(ctx, c.templates.platform, "AuthPlayer",
		template.NewBindings().Set("id", id))
	if err != nil {
		return "", err
	}
	token := resp.Data("data.result.accessToken").String()
	if token == "" {
		return "", fmt.Errorf("enjin: player auth returned no access token")
	}
	return token, nil
}

// WaitForLogin polls the current user until an identity has a linked
// wallet, once a second for up to ten attempts. It returns the linked
// user, or an error when the budget or context runs out.
func (c *Client) WaitForLogin(ctx context.Context) (*User, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for attempt := 0; attempt < 10; attempt++ {
		user, err := c.GetCurrentUser(ctx)
		if err == nil {
			for _, ident := range user.Identities {
				if ident.Wallet.EthAddress != "" {
					return user, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
	return nil, fmt.Errorf("enjin: no linked wallet appeared within the login window")
}

// CleanUp disconnects the realtime client and logs the session out.
func (c *Client) CleanUp() {
	c.mu.Lock()
	realtime := c.realtime
	c.realtime = nil
	c.session.AccessToken = ""
	c.session.TokenExpiresAt = time.Time{}
	c.session.State = LoginNone
	c.mu.Unlock()

	if realtime != nil {
		realtime.Disconnect()
	}
	c.logger.Info("platform session cleaned up")
}

// ResetPusher tears down the realtime connection and builds it back up
// from fresh platform info. Used after switching apps.
func (c *Client) ResetPusher(ctx context.Context) error {
	c.mu.Lock()
	realtime := c.realtime
	c.realtime = nil
	c.mu.Unlock()

	if realtime != nil {
		realtime.Disconnect()
	}
	return c.initNotifications(ctx)
}

func (c *Client) adoptToken(token string) {
	expiresAt, err := tokenExpiry(token)
	if err != nil {
		c.logger.Debug("access token expiry not available", "error", err)
	}

	c.mu.Lock()
	c.session.AccessToken = token
	c.session.TokenExpiresAt = expiresAt
	c.session.State = LoginValid
	c.mu.Unlock()
}

func (c *Client) setLoginState(state LoginState) {
	c.mu.Lock()
	c.session.State = state
	c.mu.Unlock()
}

// initNotifications fetches the platform info and connects the
// realtime client to the app's event channel.
func (c *Client) initNotifications(ctx context.Context) error {
	info, err := c.GetPlatformInfo(ctx)
	if err != nil {
		return err
	}

	opts := pusher.Options{
		Cluster:   info.Notifications.Pusher.Options.Cluster,
		Encrypted: info.Notifications.Pusher.Options.Encrypted == "true",
		Logger:    c.logger,
	}
	if c.cfg.PusherHost != "" {
		opts.Host = c.cfg.PusherHost
		opts.Encrypted = false
	}

	realtime := pusher.New(info.Notifications.Pusher.Key, opts)
	realtime.OnError = func(perr *pusher.Error) {
		c.logger.Error("realtime error", "code", int(perr.Code), "message", perr.Message)
	}

	c.mu.Lock()
	c.platform = *info
	c.realtime = realtime
	c.mu.Unlock()

	if err := realtime.Connect(ctx); err != nil {
		return fmt.Errorf("enjin: connect realtime: %w", err)
	}

	channel, err := realtime.Subscribe(ctx, c.appChannelName(*info))
	if err != nil {
		return fmt.Errorf("enjin: subscribe app channel: %w", err)
	}
	channel.BindAll(c.handleChannelEvent)
	return nil
}

// =============================================================================
// Query Plumbing
// =============================================================================

func (c *Client) renderTemplate(set *template.Set, name string, b *template.Bindings) (string, error) {
	query, err := set.Render(name, b)
	if err != nil {
		return "", fmt.Errorf("enjin: render %s query: %w", name, err)
	}
	return query, nil
}

// postTemplate renders a named template query and posts it, recording
// the outcome in the error report. Invalid responses come back as
// errors.
func (c *Client) postTemplate(ctx context.Context, set *template.Set, name string, b *template.Bindings, opts ...graphql.Option) (*graphql.Response, error) {
	query, err := c.renderTemplate(set, name, b)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, name, query, opts...)
}

// post issues a raw query with outcome recording; name labels errors.
func (c *Client) post(ctx context.Context, name, query string, opts ...graphql.Option) (*graphql.Response, error) {
	resp, err := c.gql.Post(ctx, query, opts...)
	if err != nil {
		return nil, fmt.Errorf("enjin: %s: %w", name, err)
	}
	c.recordOutcome(resp)
	if !resp.Valid() {
		return nil, fmt.Errorf("enjin: %s failed: %s", name, resp.Code)
	}
	return resp, nil
}

func (c *Client) recordOutcome(resp *graphql.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if resp.Err != nil {
		c.errorRep = *resp.Err
	} else if !resp.Valid() {
		c.errorRep = graphql.ErrorStatus{Code: int(resp.Code), Message: resp.Code.String()}
	}
}
