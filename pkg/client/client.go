// Package client is a Go SDK for the couple API.
//
// A Client holds at most one bearer token in its TokenStore. Login stores the
// token, Logout and any 401 response clear it:
//
//	c := client.NewClient("http://localhost:8080", client.WithTokenStore(client.NewFileTokenStore(path)))
//	if _, err := c.Login(ctx, "sam", "love123"); err != nil { ... }
//	summary, err := c.Couple(ctx)
package client

import (
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where a locally started server listens.
	DefaultBaseURL = "http://localhost:8080"
	// DefaultTimeout bounds every request made by the default HTTP client.
	DefaultTimeout = 15 * time.Second
)

// Client talks to the couple API on behalf of one user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithTokenStore replaces the default in-memory token store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.tokens = store
	}
}

// NewClient creates a client for the API at baseURL. An empty baseURL means
// DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     NewMemoryTokenStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsAuthenticated reports whether a token is currently held. It makes no
// network call, so a held token may still be rejected by the server.
func (c *Client) IsAuthenticated() bool {
	token, err := c.tokens.Load()
	return err == nil && token != ""
}
