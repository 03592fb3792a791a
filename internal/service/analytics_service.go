package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salon_admin/internal/model"

	"golang.org/x/sync/errgroup"
)

// AnalyticsBackend is the analytics part of the backend API.
type AnalyticsBackend interface {
	DashboardStats(ctx context.Context) (model.DashboardStats, error)
	BookingStats(ctx context.Context, r model.TimeRange) (json.RawMessage, error)
	RevenueStats(ctx context.Context, r model.TimeRange) (json.RawMessage, error)
	CustomerStats(ctx context.Context) (json.RawMessage, error)
	ServiceStats(ctx context.Context) (json.RawMessage, error)
	TopServices(ctx context.Context) (json.RawMessage, error)
	MonthlyStats(ctx context.Context, year int) (json.RawMessage, error)
	CustomerInsights(ctx context.Context) (json.RawMessage, error)
}

// AnalyticsService builds the analytics page.
type AnalyticsService interface {
	Report(ctx context.Context, r model.TimeRange) (*model.AnalyticsReport, error)
}

type analyticsService struct {
	backend AnalyticsBackend
	now     func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(backend AnalyticsBackend) AnalyticsService {
	return &analyticsService{backend: backend, now: time.Now}
}

// Report issues every analytics query in parallel. The report is returned
// only if all of them succeed; the first failure cancels the rest.
func (s *analyticsService) Report(ctx context.Context, r model.TimeRange) (*model.AnalyticsReport, error) {
	report := &model.AnalyticsReport{Range: r, Year: s.now().Year()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.backend.DashboardStats(gctx)
		if err != nil {
			return fmt.Errorf("dashboard stats: %w", err)
		}
		report.Overview = stats
		return nil
	})
	raw := []struct {
		name  string
		dst   *json.RawMessage
		fetch func(context.Context) (json.RawMessage, error)
	}{
		{"booking stats", &report.Bookings, func(ctx context.Context) (json.RawMessage, error) { return s.backend.BookingStats(ctx, r) }},
		{"revenue stats", &report.Revenue, func(ctx context.Context) (json.RawMessage, error) { return s.backend.RevenueStats(ctx, r) }},
		{"customer stats", &report.Customers, s.backend.CustomerStats},
		{"service stats", &report.Services, s.backend.ServiceStats},
		{"top services", &report.TopServices, s.backend.TopServices},
		{"monthly stats", &report.Monthly, func(ctx context.Context) (json.RawMessage, error) {
			return s.backend.MonthlyStats(ctx, report.Year)
		}},
		{"customer insights", &report.CustomerInsights, s.backend.CustomerInsights},
	}
	for _, q := range raw {
		q := q
		g.Go(func() error {
			data, err := q.fetch(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", q.name, err)
			}
			*q.dst = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}
	return report, nil
}
