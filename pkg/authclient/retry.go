package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

type retryState int

const (
	stateInitial retryState = iota
	stateRefreshing
	stateRetried
	stateFailed
)

func (s retryState) String() string {
	switch s {
	case stateInitial:
		return "initial"
	case stateRefreshing:
		return "refreshing"
	case stateRetried:
		return "retried"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Do sends an authenticated request and decodes a 2xx JSON response into
// out (which may be nil). body is JSON-encoded, except url.Values which is
// sent form-encoded.
//
// A 401 triggers at most one refresh followed by one resend. A 401 on the
// resend is returned as is. If the refresh fails the session is cleared and
// the original 401 is returned, wrapping the refresh error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	p, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, p, out)
}

// DoQuery is Do for bodiless requests with query parameters.
func (c *Client) DoQuery(ctx context.Context, method, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, method, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, p *payload, out any) error {
	l := c.logger(ctx).With("method", method, "path", path)

	state := stateInitial
	for {
		sess, err := c.session(ctx)
		if err != nil {
			return err
		}

		resp, err := c.send(ctx, method, path, p, sess)
		if err != nil {
			return err
		}
		err = decodeInto(resp, out)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Unauthorized() {
			return err
		}
		if state != stateInitial {
			l.Debug("unauthorized_after_retry", "state", state.String())
			return apiErr
		}

		state = stateRefreshing
		l.Debug("refresh_start", "state", state.String())

		if err := c.refreshAfter(ctx, sess); err != nil {
			state = stateFailed
			l.Debug("refresh_failed", "state", state.String(), "error", err)
			apiErr.cause = err
			return apiErr
		}

		state = stateRetried
		l.Debug("retry_with_new_token", "state", state.String())
	}
}

// refreshAfter refreshes the session that produced a 401. If another call
// already replaced that access token, the new one is used without a
// network refresh.
func (c *Client) refreshAfter(ctx context.Context, stale Session) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	cur, err := c.session(ctx)
	if err != nil {
		return err
	}
	if cur.AccessToken != "" && cur.AccessToken != stale.AccessToken {
		return nil
	}
	_, err = c.refreshLocked(ctx, cur)
	return err
}

// Refresh exchanges the stored refresh token for a new session. Any failure
// clears the stored session.
func (c *Client) Refresh(ctx context.Context) (Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	cur, err := c.session(ctx)
	if err != nil {
		return Session{}, err
	}
	return c.refreshLocked(ctx, cur)
}

func (c *Client) refreshLocked(ctx context.Context, cur Session) (Session, error) {
	if cur.RefreshToken == "" {
		c.clearSession(ctx)
		return Session{}, ErrNoRefreshToken
	}

	p, err := jsonPayload(map[string]string{"token": cur.RefreshToken})
	if err != nil {
		return Session{}, err
	}

	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", p, Session{})
	if err != nil {
		c.clearSession(ctx)
		return Session{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	var tr tokenResponse
	if err := decodeInto(resp, &tr); err != nil {
		c.clearSession(ctx)
		return Session{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if tr.AccessToken == "" {
		c.clearSession(ctx)
		return Session{}, fmt.Errorf("%w: response has no access token", ErrRefreshFailed)
	}

	next := Session{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken, TokenType: tr.TokenType}
	if next.RefreshToken == "" {
		next.RefreshToken = cur.RefreshToken
	}
	if next.TokenType == "" {
		next.TokenType = cur.TokenType
	}
	if err := c.store.Set(ctx, next); err != nil {
		c.clearSession(ctx)
		return Session{}, fmt.Errorf("%w: store session: %w", ErrRefreshFailed, err)
	}
	c.logger(ctx).Debug("session_refreshed")
	return next, nil
}
