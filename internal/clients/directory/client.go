// Package directory provides a client for the user directory service.
//
// The directory holds user accounts and their sessions. A session token
// minted at sign-in is the only credential the gateway accepts; each
// request is resolved against the directory rather than trusted locally,
// so revoked sessions stop working immediately.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/tether/internal/common"
	"github.com/bobmcallan/tether/internal/interfaces"
	"github.com/bobmcallan/tether/internal/models"
)

const (
	DefaultBaseURL   = "https://parseapi.back4app.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 20 // requests per second
)

// Client implements the DirectoryClient interface
type Client struct {
	baseURL    string
	appID      string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new directory client
func NewClient(appID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		appID:   appID,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type meResponse struct {
	ObjectID string `json:"objectId"`
	Username string `json:"username"`
}

// LookupUserBySession resolves a session token to the user that owns it.
// Every failure mode collapses to models.ErrInvalidSession: an expired
// token, an unknown token, and an unreachable directory are deliberately
// indistinguishable to callers.
func (c *Client) LookupUserBySession(ctx context.Context, sessionToken string) (*models.UserIdentity, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.ErrInvalidSession
	}

	reqURL := c.baseURL + "/users/me"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Parse-Application-Id", c.appID)
	req.Header.Set("X-Parse-Session-Token", sessionToken)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", "/users/me").Msg("directory lookup")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("directory unreachable")
		return nil, models.ErrInvalidSession
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.logger.Debug().Int("status", resp.StatusCode).Msg("session rejected by directory")
		return nil, models.ErrInvalidSession
	}

	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, models.ErrInvalidSession
	}
	if me.ObjectID == "" {
		return nil, models.ErrInvalidSession
	}

	return &models.UserIdentity{
		UserID:      me.ObjectID,
		DisplayName: me.Username,
	}, nil
}

// Ensure Client implements DirectoryClient
var _ interfaces.DirectoryClient = (*Client)(nil)
