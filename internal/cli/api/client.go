package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	// ErrUnauthorized is returned on 401: bad credentials or a missing/expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned on 404.
	ErrNotFound = errors.New("not found")
)

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("server status %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("server status %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses to sentinel errors.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// LoginResult is the server's answer to a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	User      string    `json:"user"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// KeyInfo is secret metadata without the value.
type KeyInfo struct {
	KeyName     string    `json:"key_name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyValue is a decrypted secret.
type KeyValue struct {
	KeyName     string    `json:"key_name"`
	APIKey      string    `json:"api_key"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Client talks to the KeyVault HTTP API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *expirable.LRU[string, KeyValue]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithKeyCache keeps fetched key values in memory for ttl.
// The cache is best-effort: it is never consulted for anything but GetKey.
func WithKeyCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size > 0 {
			c.cache = expirable.NewLRU[string, KeyValue](size, nil, ttl)
		}
	}
}

// NewClient creates an API client. token may be empty for Login and Health.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var res LoginResult
	payload := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, errors.New("no token in login response")
	}
	return &res, nil
}

// Logout records the logout on the server. The token itself stays valid until it expires.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ListKeys returns metadata of keys visible to the caller.
func (c *Client) ListKeys(ctx context.Context) ([]KeyInfo, error) {
	var res struct {
		Keys []KeyInfo `json:"keys"`
	}
	if err := c.do(ctx, http.MethodGet, "/keys", nil, &res); err != nil {
		return nil, err
	}
	return res.Keys, nil
}

// GetKey fetches a decrypted key, from the local cache when possible.
func (c *Client) GetKey(ctx context.Context, name string) (*KeyValue, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(name); ok {
			return &v, nil
		}
	}
	var v KeyValue
	if err := c.do(ctx, http.MethodGet, "/keys/"+url.PathEscape(name), nil, &v); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(name, v)
	}
	return &v, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (string, error) {
	var res struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &res); err != nil {
		return "", err
	}
	return res.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var eb struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			apiErr.Message, apiErr.Details = eb.Error, eb.Details
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
