package authclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Skip > 0 {
		q.Set("skip", strconv.Itoa(o.Skip))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return q
}

func (c *Client) ListReports(ctx context.Context, opts ListOptions) ([]Report, error) {
	var out []Report
	if err := c.DoQuery(ctx, http.MethodGet, "/reports/", opts.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyReports(ctx context.Context, opts ListOptions) ([]Report, error) {
	var out []Report
	if err := c.DoQuery(ctx, http.MethodGet, "/reports/me", opts.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetReport(ctx context.Context, id uint) (*Report, error) {
	var r Report
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/reports/%d", id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CreateReport(ctx context.Context, req CreateReportRequest) (*Report, error) {
	var r Report
	if err := c.Do(ctx, http.MethodPost, "/reports/", req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) Vote(ctx context.Context, reportID uint) (*Vote, error) {
	var v Vote
	body := map[string]uint{"report_id": reportID}
	if err := c.Do(ctx, http.MethodPost, "/reports/vote", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) SearchReports(ctx context.Context, query string, skip, limit int) ([]Report, error) {
	q := ListOptions{Skip: skip, Limit: limit}.values()
	q.Set("q", query)

	var out []Report
	if err := c.DoQuery(ctx, http.MethodGet, "/reports/search", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}
