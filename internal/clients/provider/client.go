// Package provider provides a client for the OAuth provider's token endpoint.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/tether/internal/common"
	"github.com/bobmcallan/tether/internal/interfaces"
	"github.com/bobmcallan/tether/internal/models"
)

const DefaultTimeout = 15 * time.Second

// Client implements the ProviderClient interface
type Client struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new provider token-endpoint client
func NewClient(tokenURL, clientID, clientSecret string, opts ...ClientOption) *Client {
	c := &Client{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// ExchangeCode redeems an authorization code for a token pair. A code is
// single use, so the exchange is attempted exactly once; failures surface
// immediately rather than being retried against a now-consumed code.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*models.TokenPair, error) {
	body, err := json.Marshal(tokenRequest{
		GrantType:    "authorization_code",
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Code:         code,
		RedirectURI:  redirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.tokenURL).Msg("exchanging authorization code")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.TransportError{Endpoint: c.tokenURL, Err: err}
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &models.TransportError{Endpoint: c.tokenURL, Err: err}
	}

	if tr.Error != "" || resp.StatusCode != http.StatusOK {
		desc := tr.ErrorDesc
		if desc == "" {
			desc = fmt.Sprintf("token endpoint returned status %d", resp.StatusCode)
		}
		c.logger.Debug().Str("error", tr.Error).Int("status", resp.StatusCode).Msg("code exchange rejected")
		return nil, &models.ProviderError{Code: tr.Error, Description: desc}
	}

	if tr.AccessToken == "" {
		return nil, &models.TransportError{
			Endpoint: c.tokenURL,
			Err:      fmt.Errorf("token response missing access_token"),
		}
	}

	return &models.TokenPair{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}, nil
}

// Ensure Client implements ProviderClient
var _ interfaces.ProviderClient = (*Client)(nil)
