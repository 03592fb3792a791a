package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TimeRange selects the window of range-parameterized analytics queries.
type TimeRange string

const (
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
	RangeYear  TimeRange = "year"
)

var ErrInvalidRange = errors.New("unknown time range")

// ParseTimeRange defaults to a week when s is empty.
func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeWeek, nil
	case RangeWeek, RangeMonth, RangeYear:
		return r, nil
	}
	return "", fmt.Errorf("%w %q (use week, month or year)", ErrInvalidRange, s)
}

// DashboardStats is the aggregate shown on the dashboard cards.
type DashboardStats struct {
	TotalBookings       int     `json:"totalBookings"`
	TodayBookings       int     `json:"todayBookings"`
	CompletedBookings   int     `json:"completedBookings"`
	CancelledBookings   int     `json:"cancelledBookings"`
	RescheduledBookings int     `json:"rescheduledBookings"`
	TotalUsers          int     `json:"totalUsers"`
	TotalRevenue        float64 `json:"totalRevenue"`
}

// AnalyticsReport combines every analytics query of the analytics page.
// Shapes other than the dashboard stats are backend-owned and passed through.
type AnalyticsReport struct {
	Range            TimeRange       `json:"range"`
	Year             int             `json:"year"`
	Overview         DashboardStats  `json:"overview"`
	Bookings         json.RawMessage `json:"bookings"`
	Revenue          json.RawMessage `json:"revenue"`
	Customers        json.RawMessage `json:"customers"`
	Services         json.RawMessage `json:"services"`
	TopServices      json.RawMessage `json:"top_services"`
	Monthly          json.RawMessage `json:"monthly"`
	CustomerInsights json.RawMessage `json:"customer_insights"`
}
