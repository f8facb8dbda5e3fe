package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client wraps an *http.Client for the storefront API. Every authorized
// request carries the current access token; a 401 "token_expired" response
// triggers one coordinated renewal (see Renewer) and at most one replay of
// the original request.
type Client struct {
	baseURL string
	http    *http.Client
	renewer *Renewer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying transport (tests, timeouts).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRenewer substitutes the renewal coordinator.
func WithRenewer(r *Renewer) Option {
	return func(c *Client) { c.renewer = r }
}

// New builds a Client against baseURL. The default transport carries a cookie
// jar so the refresh cookie set at login survives across calls, and the
// default renewer posts to the API's renew endpoint.
func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.renewer == nil {
		c.renewer = NewRenewer(c.renewCall, 10*time.Second)
	}
	return c, nil
}

// Renewer exposes the coordinator, mainly so callers can seed credentials.
func (c *Client) Renewer() *Renewer { return c.renewer }

// Do sends an authorized request. On a 401 token-expiry response the request
// is replayed at most once after a (possibly shared) renewal; the replay's
// outcome, success or not, is returned as-is. The retried flag is local to
// this call and never crosses request boundaries, so a renewal that keeps
// failing cannot loop.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		return nil, fmt.Errorf("request body must be replayable (GetBody)")
	}

	req.Header.Set("Authorization", "Bearer "+c.renewer.Credentials().AccessToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if !isTokenExpired(resp) {
		return resp, nil
	}
	_ = resp.Body.Close()

	creds, err := c.renewer.Renew(req.Context())
	if err != nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	return c.http.Do(retry)
}

// Get is a convenience wrapper for authorized GETs.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post is a convenience wrapper for authorized JSON POSTs.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// isTokenExpired reports whether the response is the server's renewal signal.
// The body is consumed; callers must treat the response as spent.
func isTokenExpired(resp *http.Response) bool {
	if resp.StatusCode != http.StatusUnauthorized {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return false
	}
	// Put the bytes back in case the caller wants the original error body.
	resp.Body = io.NopCloser(bytes.NewReader(body))
	var e struct {
		Code string `json:"code"`
	}
	return json.Unmarshal(body, &e) == nil && e.Code == "token_expired"
}

// renewCall is the default RenewFunc: it exchanges the refresh cookie for a
// fresh access token.
func (c *Client) renewCall(ctx context.Context) (Credentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/renew", nil)
	if err != nil {
		return Credentials{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Credentials{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Credentials{}, fmt.Errorf("renewal rejected: status %d", resp.StatusCode)
	}
	var tok struct {
		AccessToken string    `json:"access_token"`
		ExpiresAt   time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return Credentials{}, fmt.Errorf("decode renewal response: %w", err)
	}
	return Credentials{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt}, nil
}
