package ruckus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultTokenLifetime = 3600
	tokenRefreshMargin   = 300 * time.Second
	maxErrorBodyBytes    = 4096
	headerRequestID      = "X-Request-ID"
)

// Credentials are the OAuth2 client credentials for one tenant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TenantID     string
}

// Client talks to one RUCKUS One regional endpoint. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time

	mu      sync.Mutex
	token   string
	expiry  time.Time
	refresh singleflight.Group
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient returns a Client for baseURL (for example https://api.ruckus.cloud).
func NewClient(baseURL string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns a bearer token, authenticating when none is cached or the
// cached one is within five minutes of expiry. Concurrent callers share a
// single refresh.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && c.now().Before(c.expiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.refresh.Do("token", func() (any, error) {
		return c.authenticate(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	tokenURL := fmt.Sprintf("%s/oauth2/token/%s", c.baseURL, url.PathEscape(c.creds.TenantID))
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &APIError{Kind: KindAuthentication, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug().Ctx(ctx).Str("url", tokenURL).Msg("authenticating")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Kind: KindAuthentication, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			Kind:       KindAuthentication,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(resp),
		}
	}

	var tr tokenResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&tr); decodeErr != nil {
		return "", &APIError{Kind: KindAuthentication, Err: fmt.Errorf("decoding token response: %w", decodeErr)}
	}
	if tr.AccessToken == "" {
		return "", &APIError{Kind: KindAuthentication, Detail: "no access token in response"}
	}
	if tr.ExpiresIn <= 0 {
		tr.ExpiresIn = defaultTokenLifetime
	}

	c.mu.Lock()
	c.token = tr.AccessToken
	c.expiry = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenRefreshMargin)
	c.mu.Unlock()

	c.logger.Debug().Ctx(ctx).Int("expires_in", tr.ExpiresIn).Msg("obtained access token")
	return tr.AccessToken, nil
}

// do sends an authenticated JSON request and decodes a JSON response into out
// when out is non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return &APIError{Kind: KindAPI, Err: fmt.Errorf("encoding request body: %w", marshalErr)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindTransport, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Ctx(ctx).Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Msg("request failed")
		return &APIError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().Ctx(ctx).
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", c.now().Sub(start)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.invalidateToken()
		}
		return &APIError{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(resp),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindTransport, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return &APIError{Kind: KindAPI, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// errorDetail extracts "message" or "error" from a JSON error body, falling
// back to the raw text.
func errorDetail(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(string(data))

	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil {
			if payload.Message != "" {
				return payload.Message
			}
			if payload.Error != "" {
				return payload.Error
			}
		}
	}
	return text
}
