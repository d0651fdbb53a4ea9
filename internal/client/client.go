// Package client talks to the taskboard REST API.
//
// A Client holds an ordered list of candidate base URLs. Each request tries the
// candidates in order and returns the first 2xx response, so a client configured
// with "http://host" works against servers mounted at "/api" or at the root.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// ConnectivityError is returned when no candidate base produced a successful response.
type ConnectivityError struct {
	URL         string
	Description string
}

func (e *ConnectivityError) Error() string {
	return e.Description
}

// Diagnostics describes the most recent request attempt.
type Diagnostics struct {
	LastURL   string
	LastError string
}

// Client is safe for concurrent use.
type Client struct {
	bases []string
	http  *http.Client

	mu      sync.Mutex
	lastURL string
	lastErr string
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New derives the candidates from rawBase: rawBase + "/api" first, then rawBase itself.
func New(rawBase string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(rawBase), "/")
	return NewWithBases([]string{base + "/api", base}, opts...)
}

// NewWithBases uses the given candidates in order.
func NewWithBases(bases []string, opts ...Option) *Client {
	c := &Client{
		bases: append([]string(nil), bases...),
		http:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bases returns the candidate base URLs in the order they are tried.
func (c *Client) Bases() []string {
	return append([]string(nil), c.bases...)
}

// Diagnostics returns the last attempted URL and the last recorded failure.
// A failure on an earlier candidate stays visible after a later one succeeds.
func (c *Client) Diagnostics() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Diagnostics{LastURL: c.lastURL, LastError: c.lastErr}
}

// ResetDiagnostics clears the recorded attempt.
func (c *Client) ResetDiagnostics() {
	c.mu.Lock()
	c.lastURL, c.lastErr = "", ""
	c.mu.Unlock()
}

// Do sends the request to each candidate in turn and returns the first 2xx response.
// The caller must close the returned body.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	var lastURL, lastErr string
	for _, base := range c.bases {
		url := buildURL(base, path)
		lastURL = url
		c.recordAttempt(url)

		resp, err := c.send(ctx, method, url, payload)
		if err != nil {
			lastErr = err.Error()
			c.recordFailure(lastErr)
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		lastErr = describeFailure(resp)
		c.recordFailure(lastErr)
	}

	if lastURL == "" {
		lastErr = "no API base configured"
	}
	return nil, &ConnectivityError{URL: lastURL, Description: lastErr}
}

func (c *Client) send(ctx context.Context, method, url string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

func (c *Client) recordAttempt(url string) {
	c.mu.Lock()
	c.lastURL = url
	c.mu.Unlock()
}

func (c *Client) recordFailure(desc string) {
	c.mu.Lock()
	c.lastErr = desc
	c.mu.Unlock()
}

func buildURL(base, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + path
}

// describeFailure drains and closes resp.
func describeFailure(resp *http.Response) string {
	defer resp.Body.Close()
	text := "<no body>"
	if data, err := io.ReadAll(resp.Body); err == nil {
		text = strings.TrimSpace(string(data))
	}
	return fmt.Sprintf("HTTP %d %s - %s", resp.StatusCode, http.StatusText(resp.StatusCode), text)
}

// getJSON decodes a successful response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", resp.Request.URL, err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid JSON from %s: %s", resp.Request.URL, strings.TrimSpace(string(data)))
	}
	return nil
}
