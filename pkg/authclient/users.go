package authclient

import (
	"context"
	"net/http"
)

func (c *Client) GetUserDetails(ctx context.Context) (*UserDetails, error) {
	return c.userDetails(ctx, http.MethodGet, nil)
}

func (c *Client) CreateUserDetails(ctx context.Context, d UserDetails) (*UserDetails, error) {
	return c.userDetails(ctx, http.MethodPost, d)
}

// UpdateUserDetails only changes the non-nil fields of d.
func (c *Client) UpdateUserDetails(ctx context.Context, d UserDetails) (*UserDetails, error) {
	return c.userDetails(ctx, http.MethodPut, d)
}

func (c *Client) userDetails(ctx context.Context, method string, body any) (*UserDetails, error) {
	var out UserDetails
	if err := c.Do(ctx, method, "/user/details", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
