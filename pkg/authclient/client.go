package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Client talks to the civic API on behalf of one session. It attaches the
// stored access token to every request and recovers from an expired access
// token with at most one refresh per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
	timeout    time.Duration
	log        *slog.Logger

	// refreshMu serializes refreshes so concurrent 401s share one.
	refreshMu sync.Mutex
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every single HTTP exchange, retries included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(baseURL string, store SessionStore, opts ...Option) *Client {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		timeout: DefaultTimeout,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) logger(ctx context.Context) *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return logging.FromContext(ctx)
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// payload is an encoded request body, kept as bytes so a retry can resend it.
type payload struct {
	contentType string
	data        []byte
}

func jsonPayload(v any) (*payload, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return &payload{contentType: "application/json", data: data}, nil
}

func encodeBody(body any) (*payload, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return &payload{contentType: "application/x-www-form-urlencoded", data: []byte(b.Encode())}, nil
	default:
		return jsonPayload(body)
	}
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 300 }

// send performs one HTTP exchange. It never retries.
func (c *Client) send(ctx context.Context, method, path string, p *payload, sess Session) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.endpoint(path)

	var body io.Reader
	if p != nil {
		body = bytes.NewReader(p.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if p != nil {
		req.Header.Set("Content-Type", p.contentType)
	}
	if sess.AccessToken != "" {
		tok := &oauth2.Token{AccessToken: sess.AccessToken, TokenType: sess.TokenType}
		tok.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

func decodeInto(resp *response, out any) error {
	if !resp.ok() {
		return newAPIError(resp.status, resp.body)
	}
	if out == nil || resp.status == http.StatusNoContent || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// session returns the stored session, or the zero Session when none exists.
func (c *Client) session(ctx context.Context) (Session, error) {
	s, err := c.store.Get(ctx)
	if errors.Is(err, ErrNoSession) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

func (c *Client) clearSession(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger(ctx).Warn("session_clear_error", "error", err)
	}
}
