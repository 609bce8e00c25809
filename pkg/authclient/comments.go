package authclient

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) CreateComment(ctx context.Context, reportID uint, text string) (*Comment, error) {
	var out Comment
	body := map[string]any{"report_id": reportID, "text": text}
	if err := c.Do(ctx, http.MethodPost, "/comments/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReportComments(ctx context.Context, reportID uint, skip, limit int) ([]Comment, error) {
	var out []Comment
	q := ListOptions{Skip: skip, Limit: limit}.values()
	if err := c.DoQuery(ctx, http.MethodGet, fmt.Sprintf("/comments/report/%d", reportID), q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteComment(ctx context.Context, id uint) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/comments/%d", id), nil, nil)
}
