package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"salon_admin/internal/model"
)

func (c *Client) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	var stats model.DashboardStats
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/analytics/dashboard"}, &stats)
	return stats, err
}

func (c *Client) BookingStats(ctx context.Context, r model.TimeRange) (json.RawMessage, error) {
	return c.analytics(ctx, "/api/analytics/bookings", url.Values{"range": {string(r)}})
}

func (c *Client) RevenueStats(ctx context.Context, r model.TimeRange) (json.RawMessage, error) {
	return c.analytics(ctx, "/api/analytics/revenue", url.Values{"range": {string(r)}})
}

func (c *Client) CustomerStats(ctx context.Context) (json.RawMessage, error) {
	return c.analytics(ctx, "/api/analytics/customers", nil)
}

func (c *Client) ServiceStats(ctx context.Context) (json.RawMessage, error) {
	return c.analytics(ctx, "/api/analytics/services", nil)
}

func (c *Client) MonthlyStats(ctx context.Context, year int) (json.RawMessage, error) {
	return c.analytics(ctx, "/api/analytics/monthly", url.Values{"year": {strconv.Itoa(year)}})
}

func (c *Client) TopServices(ctx context.Context) (json.RawMessage, error) {
	return c.analytics(ctx, "/api/analytics/top-services", nil)
}

func (c *Client) CustomerInsights(ctx context.Context) (json.RawMessage, error) {
	return c.analytics(ctx, "/api/analytics/customer-insights", nil)
}

func (c *Client) analytics(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: query}, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return raw, nil
}
