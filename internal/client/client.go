// Package client talks to the chat backend's single request/response endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/holdings-chat/internal/model/chat"
)

// ChatPath is the fixed endpoint path, resolved against the host root.
const ChatPath = "/api/chat"

const maxResponseBytes = 1 << 20

var (
	ErrInvalidURL = errors.New("invalid backend url")

	// ErrProtocol matches every failure where the server answered but not with a usable reply.
	ErrProtocol          = errors.New("chat protocol error")
	ErrUnexpectedStatus  = fmt.Errorf("%w: unexpected status", ErrProtocol)
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrProtocol)
)

// Client posts user messages to the backend and returns its reply text.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	logger   zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidURL, baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w %q: scheme and host are required", ErrInvalidURL, baseURL)
	}

	c := &Client{
		endpoint: base.ResolveReference(&url.URL{Path: ChatPath}).String(),
		http:     &http.Client{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}

	return c, nil
}

// Endpoint returns the absolute URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type replyEnvelope struct {
	Response *string `json:"response"`
}

// Send posts {"message": text} and returns the "response" field of the reply.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(chat.Request{Message: text})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger := c.logger.With().Str("request_id", requestID).Logger()
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(started)).
		Msg("chat backend replied")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var envelope replyEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if envelope.Response == nil {
		return "", fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}

	return *envelope.Response, nil
}
