package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"salon_admin/internal/model"
)

func (c *Client) TodayBookings(ctx context.Context) ([]model.Booking, error) {
	return c.bookingList(ctx, request{method: http.MethodGet, path: "/api/bookings/today"})
}

func (c *Client) AllBookings(ctx context.Context) ([]model.Booking, error) {
	return c.bookingList(ctx, request{method: http.MethodGet, path: "/api/bookings/all"})
}

func (c *Client) SearchBookings(ctx context.Context, query string) ([]model.Booking, error) {
	return c.bookingList(ctx, request{
		method: http.MethodGet,
		path:   "/api/bookings/search",
		query:  url.Values{"q": {query}},
	})
}

// BookingsByDate returns the bookings of one day (YYYY-MM-DD).
func (c *Client) BookingsByDate(ctx context.Context, date string) ([]model.Booking, error) {
	return c.bookingList(ctx, request{
		method: http.MethodGet,
		path:   "/api/bookings/date/" + url.PathEscape(date),
	})
}

// BookingsInRange returns bookings between start and end inclusive (YYYY-MM-DD).
func (c *Client) BookingsInRange(ctx context.Context, start, end string) ([]model.Booking, error) {
	return c.bookingList(ctx, request{
		method: http.MethodGet,
		path:   "/api/bookings/range",
		query:  url.Values{"start": {start}, "end": {end}},
	})
}

// TransitionBooking issues one status transition command for a booking.
func (c *Client) TransitionBooking(ctx context.Context, id model.EntityID, action model.Action) error {
	switch action {
	case model.ActionDone, model.ActionCancel, model.ActionReschedule:
	default:
		return fmt.Errorf("unsupported booking action %q", action)
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/bookings/" + url.PathEscape(id.String()) + "/" + string(action),
	}, nil)
}

func (c *Client) bookingList(ctx context.Context, req request) ([]model.Booking, error) {
	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return nil, err
	}
	bookings, err := decodeBookings(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", req.path, err)
	}
	return bookings, nil
}

// decodeBookings accepts a bare array or an object wrapping it under
// "bookings", "events" or "data".
func decodeBookings(raw json.RawMessage) ([]model.Booking, error) {
	bookings := []model.Booking{}
	if len(raw) == 0 || string(raw) == "null" {
		return bookings, nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &bookings); err != nil {
			return nil, err
		}
		return bookings, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	for _, key := range []string{"bookings", "events", "data"} {
		if inner, ok := wrapped[key]; ok {
			return decodeBookings(inner)
		}
	}
	return bookings, nil
}
