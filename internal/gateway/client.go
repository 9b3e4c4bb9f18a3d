// Package gateway is the HTTP client for the expense tracking backend.
// Every failure it returns is an *apierr.Error.
package gateway

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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spendline/spendline/internal/apierr"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	userAgent      = "spendline/1.0"
)

// TokenSource supplies the bearer token attached to authenticated requests.
type TokenSource interface {
	Token() string
}

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	timeout time.Duration
	export  string

	mu             sync.RWMutex
	onUnauthorized func(token string)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithExportPath overrides the route that serves the raw CSV export.
// Empty values keep DefaultExportPath.
func WithExportPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.export = "/" + strings.TrimLeft(path, "/")
		}
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{},
		timeout: defaultTimeout,
		export:  DefaultExportPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// OnUnauthorized registers fn to be called with the token an authenticated
// request carried when the server rejected it with 401 or 403.
func (c *Client) OnUnauthorized(fn func(token string)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any        // JSON encoded when non-nil
	form   url.Values // form encoded when non-nil
	authed bool
}

// call performs r and decodes a JSON response into out (when non-nil).
func (c *Client) call(ctx context.Context, r request, out any) error {
	body, err := c.fetch(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apierr.Error{Kind: apierr.ErrUnexpected, Detail: "malformed response for " + r.path, Err: err}
	}
	return nil
}

// fetch performs r and returns the response body.
func (c *Client) fetch(ctx context.Context, r request) ([]byte, error) {
	var body []byte
	err := c.stream(ctx, r, func(rd io.Reader) error {
		var readErr error
		body, readErr = io.ReadAll(io.LimitReader(rd, maxBodySize))
		return readErr
	})
	return body, err
}

// stream performs r and hands the successful response body to consume.
func (c *Client) stream(ctx context.Context, r request, consume func(io.Reader) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, tok, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}
	requestID := req.Header.Get("X-Request-ID")
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("component", "gateway").Str("method", r.method).
			Str("path", r.path).Str("request_id", requestID).Msg("request failed")
		e := apierr.Network(err)
		e.RequestID = requestID
		return e
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug().Str("component", "gateway").Str("method", r.method).Str("path", r.path).
		Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).
		Str("request_id", requestID).Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		e := classify(resp.StatusCode, raw)
		e.RequestID = requestID
		if errors.Is(e, apierr.ErrAuth) && r.authed && tok != "" {
			c.unauthorized(tok)
		}
		return e
	}

	if err := consume(resp.Body); err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return ae
		}
		e := apierr.Network(fmt.Errorf("reading response: %w", err))
		e.RequestID = requestID
		return e
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, string, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var (
		payload     io.Reader
		contentType string
	)
	switch {
	case r.form != nil:
		payload = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.body != nil:
		encoded, err := json.Marshal(r.body)
		if err != nil {
			return nil, "", &apierr.Error{Kind: apierr.ErrUnexpected, Detail: "encoding request", Err: err}
		}
		payload = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, payload)
	if err != nil {
		return nil, "", &apierr.Error{Kind: apierr.ErrUnexpected, Detail: "creating request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	var tok string
	if r.authed && c.tokens != nil {
		tok = c.tokens.Token()
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, tok, nil
}

func (c *Client) unauthorized(tok string) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn(tok)
	}
}

// errorBody is the FastAPI error envelope. Detail is either a string or a
// list of {loc, msg} validation entries.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

type validationEntry struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func classify(status int, raw []byte) *apierr.Error {
	detail, field := parseDetail(raw)
	e := apierr.FromStatus(status, detail)
	e.Field = field
	return e
}

func parseDetail(raw []byte) (detail, field string) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw)), ""
	}
	if body.Error != "" {
		return body.Error, ""
	}
	if len(body.Detail) == 0 {
		return "", ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s, ""
	}

	var entries []validationEntry
	if err := json.Unmarshal(body.Detail, &entries); err == nil && len(entries) > 0 {
		msgs := make([]string, 0, len(entries))
		for _, v := range entries {
			msgs = append(msgs, v.Msg)
		}
		first := entries[0].Loc
		if n := len(first); n > 0 {
			field = fmt.Sprint(first[n-1])
		}
		return strings.Join(msgs, "; "), field
	}
	return string(body.Detail), ""
}
