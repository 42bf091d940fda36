// Package jellyfin is a minimal client for the Jellyfin/Emby HTTP API,
// covering the user listing and latest-items endpoints the newsletter
// needs.
package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ignite/jellyfin-newsletter/internal/config"
)

// HTTPDoer is the subset of http.Client the client depends on
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Jellyfin API client
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPDoer
}

// NewClient creates a new Jellyfin API client
func NewClient(cfg config.JellyfinConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// BaseURL returns the server base URL the client was configured with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

// APIError is a non-2xx response from the media server
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("media server error (status %d): %s", e.StatusCode, e.Body)
}

// Auth reports whether the error means the token was rejected
func (e *APIError) Auth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsAuthError reports whether err is a rejected-token response
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Auth()
}

// ListUsers returns all accounts known to the media server
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	body, err := c.doRequest(ctx, "Users")
	if err != nil {
		return nil, err
	}

	var users []User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("parsing user list: %w", err)
	}
	return users, nil
}

// ListRecentItems returns the most recently added items for a user,
// newest first, limited to limit results. Only the fields needed for
// classification are requested.
func (c *Client) ListRecentItems(ctx context.Context, userID string, limit int) ([]Item, error) {
	params := url.Values{}
	params.Set("sortBy", "DateCreated")
	params.Set("fields", "Overview")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("userId", userID)

	body, err := c.doRequest(ctx, "Users/"+url.PathEscape(userID)+"/Items/Latest?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("parsing item list: %w", err)
	}
	return items, nil
}

// doRequest makes an authenticated GET request to the media server
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-Emby-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
