package authclient

import (
	"context"
	"fmt"
	"net/http"
)

// AdminReports lists the reports visible to the calling superuser.
func (c *Client) AdminReports(ctx context.Context, opts ListOptions) ([]Report, error) {
	var out []Report
	if err := c.DoQuery(ctx, http.MethodGet, "/admin/reports", opts.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateReportStatus(ctx context.Context, id uint, status string) (*Report, error) {
	var r Report
	body := map[string]string{"status": status}
	if err := c.Do(ctx, http.MethodPatch, fmt.Sprintf("/admin/reports/%d/status", id), body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CompleteReport(ctx context.Context, id uint) (*Report, error) {
	var r Report
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/admin/reports/%d/complete", id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
