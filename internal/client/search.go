package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/JaimeStill/alphadoc/internal/failures"
)

type searchResponse struct {
	Answer string `json:"answer"`
}

type dashboardResponse struct {
	Summary string `json:"dashboard_summary"`
}

// Search asks a grounded question of the workspace repository.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	var resp searchResponse
	if err := c.do(ctx, request{
		op:     failures.OpSearch,
		method: http.MethodPost,
		path:   "/search",
		query:  url.Values{"user_query": {query}},
	}, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// Dashboard returns the aggregate summary of the latest document.
func (c *Client) Dashboard(ctx context.Context) (string, error) {
	var resp dashboardResponse
	if err := c.do(ctx, request{
		op:     failures.OpDashboard,
		method: http.MethodGet,
		path:   "/dashboard/latest",
	}, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}
