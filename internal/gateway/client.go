// Package gateway is the HTTP client for the complaints backend. Every
// response is expected in the shared envelope; results are split into data,
// *BusinessError and *TransportError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxBody = 4 << 20

// TokenSource yields the bearer token for the current session. An empty
// string with a nil error means no token is stored.
type TokenSource interface {
	AuthToken(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) AuthToken(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always yields tok.
func StaticToken(tok string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, error) { return tok, nil })
}

// Observer is told about every finished call. outcome is one of "ok",
// "business", "transport" or "unauthorized".
type Observer func(operation, outcome string)

// Client talks to the backend REST API. It is safe for concurrent use;
// WithTokenSource returns a per-session copy sharing the HTTP client.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	tokens  TokenSource
	observe Observer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithObserver installs a callback counting call outcomes.
func WithObserver(o Observer) Option { return func(c *Client) { c.observe = o } }

// New builds a client for baseURL. timeout bounds each request; no call is
// ever retried.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithTokenSource returns a copy of c that authenticates with ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"status_code"`
	Timestamp  string          `json:"timestamp"`
}

// do performs one call. auth=false skips the bearer header (login only).
// out, when non-nil, receives the decoded envelope data.
func (c *Client) do(ctx context.Context, op, method, path string, body any, auth bool, out any) (err error) {
	defer func() { c.record(op, err) }()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if auth && c.tokens != nil {
		tok, err := c.tokens.AuthToken(ctx)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("read token: %w", err)}
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &TransportError{Op: op, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			te.Message = env.Message
		}
		return te
	}
	if decodeErr != nil || env.Success == nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: ErrMalformedEnvelope}
	}
	if !*env.Success {
		return &BusinessError{Op: op, Message: env.Message, StatusCode: env.StatusCode}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)}
		}
	}
	return nil
}

func (c *Client) record(op string, err error) {
	if c.observe == nil {
		return
	}
	var be *BusinessError
	switch {
	case err == nil:
		c.observe(op, "ok")
	case IsAuthRejected(err):
		c.observe(op, "unauthorized")
	case errors.As(err, &be):
		c.observe(op, "business")
	default:
		c.observe(op, "transport")
	}
}
