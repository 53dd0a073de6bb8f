// Package graphql provides the HTTP transport for the Enjin platform
// GraphQL API. A Client posts templated query strings and classifies
// each response into a typed outcome; every call gets its own Response
// value, so concurrent requests never share result state.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/enjincraft/platform-go/pkg/logger"
)

// Client posts GraphQL queries to a single platform endpoint.
type Client struct {
	endpoint   string
	token      func() string
	debug      bool
	logger     *logger.Logger
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the platform API root; the GraphQL endpoint is derived
	// by appending "graphql".
	BaseURL string
	// TokenSource supplies the current access token for the
	// Authorization header. May return "" before login.
	TokenSource func() string
	// Debug enables query and payload logging.
	Debug bool
	// Logger receives transport logs. Defaults to a no-op logger.
	Logger *logger.Logger
	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
}

// New creates a new transport client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("graphql: BaseURL is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	tokenSource := cfg.TokenSource
	if tokenSource == nil {
		tokenSource = func() string { return "" }
	}

	return &Client{
		endpoint:   Endpoint(cfg.BaseURL),
		token:      tokenSource,
		debug:      cfg.Debug,
		logger:     log,
		httpClient: httpClient,
	}, nil
}

// Endpoint derives the GraphQL endpoint URL from the API base URL.
func Endpoint(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/graphql"
}

// SetDebug toggles query and payload logging.
func (c *Client) SetDebug(debug bool) { c.debug = debug }

// callOptions carries per-call overrides.
type callOptions struct {
	skipAuth bool
	token    string
}

// Option configures a single Post call.
type Option func(*callOptions)

// WithoutAuth omits the Authorization header. Used for the initial
// login exchange, which has no token yet.
func WithoutAuth() Option {
	return func(o *callOptions) { o.skipAuth = true }
}

// WithToken overrides the client token source for one call.
func WithToken(token string) Option {
	return func(o *callOptions) { o.token = token }
}

// Post sends the query and blocks until the response is classified.
// A transport-level failure returns a nil Response and an error;
// protocol-level failures return a Response with Valid() == false.
func (c *Client) Post(ctx context.Context, query string, opts ...Option) (*Response, error) {
	var callOpts callOptions
	for _, opt := range opts {
		opt(&callOpts)
	}

	body, err := json.Marshal(queryEnvelope{Query: strings.Trim(query, "\r")})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal query: %w", err)
	}

	c.logQuery(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("graphql: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if !callOpts.skipAuth {
		token := callOpts.token
		if token == "" {
			token = c.token()
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql: http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("graphql: read response: %w", err)
	}

	resp := newResponse(httpResp.StatusCode, respBody, c.logger)
	c.logResult(respBody)
	return resp, nil
}

// PostAsync schedules the request without blocking and invokes handler
// with the per-call result when it completes. The handler runs on a
// separate goroutine.
func (c *Client) PostAsync(ctx context.Context, query string, handler func(*Response, error), opts ...Option) {
	go func() {
		resp, err := c.Post(ctx, query, opts...)
		if handler != nil {
			handler(resp, err)
		}
	}()
}

type queryEnvelope struct {
	Query string `json:"query"`
}

// logQuery logs the outbound body in debug mode unless it looks like it
// carries credentials.
func (c *Client) logQuery(body []byte) {
	if !c.debug {
		return
	}
	s := string(body)
	if strings.Contains(s, "password:") || strings.Contains(s, "accessTokens:") {
		return
	}
	c.logger.Debug("graphql query", "body", s)
}

func (c *Client) logResult(body []byte) {
	if c.debug {
		c.logger.Debug("graphql result", "body", string(body))
	}
}
