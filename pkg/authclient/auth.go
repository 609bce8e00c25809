package authclient

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// Login runs the password grant against /auth/login (form-encoded
// grant_type, username, password) and stores the returned tokens verbatim.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	cfg := oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.endpoint("/auth/login"),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tok, err := cfg.PasswordCredentialsToken(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), username, password)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			return Session{}, newAPIError(rErr.Response.StatusCode, rErr.Body)
		}
		return Session{}, &RequestError{Method: http.MethodPost, URL: cfg.Endpoint.TokenURL, Err: err}
	}

	s := Session{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, TokenType: tok.TokenType}
	if err := c.store.Set(ctx, s); err != nil {
		return Session{}, err
	}
	c.logger(ctx).Debug("login_ok", "username", username)
	return s, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var u User
	if err := c.Do(ctx, http.MethodPost, "/auth/register", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout asks the server to revoke the refresh token, ignoring failures,
// then clears the stored session.
func (c *Client) Logout(ctx context.Context) error {
	sess, err := c.session(ctx)
	if err == nil && sess.RefreshToken != "" {
		p, perr := jsonPayload(map[string]string{"token": sess.RefreshToken})
		if perr == nil {
			resp, serr := c.send(ctx, http.MethodPost, "/auth/logout", p, sess)
			switch {
			case serr != nil:
				c.logger(ctx).Debug("logout_revoke_error", "error", serr)
			case !resp.ok():
				c.logger(ctx).Debug("logout_revoke_rejected", "status", resp.status)
			}
		}
	}
	return c.store.Clear(ctx)
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if !c.IsAuthenticated(ctx) {
		return nil, ErrNotAuthenticated
	}
	var u User
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// IsAuthenticated reports whether an access token is stored. It does not
// validate the token with the server.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	s, err := c.store.Get(ctx)
	return err == nil && s.AccessToken != ""
}
