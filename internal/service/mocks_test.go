package service

import (
	"context"
	"encoding/json"

	"salon_admin/internal/model"

	"github.com/stretchr/testify/mock"
)

type mockBookingBackend struct {
	mock.Mock
}

func (m *mockBookingBackend) TodayBookings(ctx context.Context) ([]model.Booking, error) {
	args := m.Called(ctx)
	bookings, _ := args.Get(0).([]model.Booking)
	return bookings, args.Error(1)
}

func (m *mockBookingBackend) AllBookings(ctx context.Context) ([]model.Booking, error) {
	args := m.Called(ctx)
	bookings, _ := args.Get(0).([]model.Booking)
	return bookings, args.Error(1)
}

func (m *mockBookingBackend) SearchBookings(ctx context.Context, query string) ([]model.Booking, error) {
	args := m.Called(ctx, query)
	bookings, _ := args.Get(0).([]model.Booking)
	return bookings, args.Error(1)
}

func (m *mockBookingBackend) TransitionBooking(ctx context.Context, id model.EntityID, action model.Action) error {
	return m.Called(ctx, id, action).Error(0)
}

type mockStatsBackend struct {
	mock.Mock
}

func (m *mockStatsBackend) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(model.DashboardStats)
	return stats, args.Error(1)
}

type mockUserBackend struct {
	mock.Mock
}

func (m *mockUserBackend) AllUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *mockUserBackend) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	args := m.Called(ctx, query)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *mockUserBackend) GetUser(ctx context.Context, id model.EntityID) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserBackend) VerifyUser(ctx context.Context, id model.EntityID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserBackend) DeleteUser(ctx context.Context, id model.EntityID) error {
	return m.Called(ctx, id).Error(0)
}

type mockAnalyticsBackend struct {
	mockStatsBackend
}

// The raw queries share one mocked method, "Raw", keyed by query name.
func (m *mockAnalyticsBackend) raw(query string, args ...interface{}) (json.RawMessage, error) {
	ret := m.MethodCalled("Raw", append([]interface{}{query}, args...)...)
	data, _ := ret.Get(0).(json.RawMessage)
	return data, ret.Error(1)
}

func (m *mockAnalyticsBackend) BookingStats(ctx context.Context, r model.TimeRange) (json.RawMessage, error) {
	return m.raw("bookings", r)
}

func (m *mockAnalyticsBackend) RevenueStats(ctx context.Context, r model.TimeRange) (json.RawMessage, error) {
	return m.raw("revenue", r)
}

func (m *mockAnalyticsBackend) CustomerStats(ctx context.Context) (json.RawMessage, error) {
	return m.raw("customers")
}

func (m *mockAnalyticsBackend) ServiceStats(ctx context.Context) (json.RawMessage, error) {
	return m.raw("services")
}

func (m *mockAnalyticsBackend) TopServices(ctx context.Context) (json.RawMessage, error) {
	return m.raw("top-services")
}

func (m *mockAnalyticsBackend) MonthlyStats(ctx context.Context, year int) (json.RawMessage, error) {
	return m.raw("monthly", year)
}

func (m *mockAnalyticsBackend) CustomerInsights(ctx context.Context) (json.RawMessage, error) {
	return m.raw("customer-insights")
}

type mockCalendarBackend struct {
	mock.Mock
}

func (m *mockCalendarBackend) BookingsInRange(ctx context.Context, start, end string) ([]model.Booking, error) {
	args := m.Called(ctx, start, end)
	bookings, _ := args.Get(0).([]model.Booking)
	return bookings, args.Error(1)
}

func (m *mockCalendarBackend) BookingsByDate(ctx context.Context, date string) ([]model.Booking, error) {
	args := m.Called(ctx, date)
	bookings, _ := args.Get(0).([]model.Booking)
	return bookings, args.Error(1)
}
