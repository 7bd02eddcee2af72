// Package seed fetches an initial shopping list from a remote endpoint.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/idilsaglam/basket/internal/model"
)

// Fetcher returns seed records. *Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.Record, error)
}

var _ Fetcher = (*Client)(nil)

// Client GETs a JSON array of records from one URL.
type Client struct {
	url       *url.URL
	http      *http.Client
	userAgent string
	token     string
}

const (
	defaultUserAgent = "basket/0.1"
	requestTimeout   = 5 * time.Second
	errorBodyLimit   = 512
)

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the default client, which has a 5s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient validates rawURL and builds a Client for it.
func NewClient(rawURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("seed url is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse seed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("seed url %q: scheme must be http or https", trimmed)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("seed url %q: missing host", trimmed)
	}
	c := &Client{
		url:       u,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch retrieves the records.
func (c *Client) Fetch(ctx context.Context) ([]model.Record, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch seed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			return nil, fmt.Errorf("fetch seed: %s", resp.Status)
		}
		return nil, fmt.Errorf("fetch seed: %s: %s", resp.Status, msg)
	}

	var records []model.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return records, nil
}
