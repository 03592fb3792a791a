package service

import (
	"errors"
	"fmt"
	"strings"

	"salon_admin/internal/model"
)

var ErrUnknownAction = errors.New("unknown booking action")

// ResolveStatus derives the one canonical status of a booking. A numeric
// status code always wins over remarks; remarks are the legacy channel.
// Every booking maps to exactly one status.
func ResolveStatus(b model.Booking) model.BookingStatus {
	if b.Status != nil {
		if b.Status.Code != nil {
			switch *b.Status.Code {
			case model.StatusCodeCancelled:
				return model.BookingStatusCancelled
			case model.StatusCodeCompleted:
				return model.BookingStatusCompleted
			}
		} else if label := model.BookingStatus(strings.ToLower(strings.TrimSpace(b.Status.Label))); label.Valid() {
			return label
		}
	}

	if b.Remarks == nil {
		return model.BookingStatusPending
	}
	remarks := strings.ToLower(*b.Remarks)
	switch {
	case strings.Contains(remarks, model.RemarkDone):
		return model.BookingStatusCompleted
	case strings.Contains(remarks, model.RemarkCancelled):
		return model.BookingStatusCancelled
	case strings.TrimSpace(remarks) == model.RemarkRescheduled:
		return model.BookingStatusRescheduled
	default:
		// empty remarks and unknown free text are both pending
		return model.BookingStatusPending
	}
}

// ParseAction maps a transition request onto the canonical action set. The
// past-tense names used by older views are accepted as aliases.
func ParseAction(s string) (model.Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "done", "complete", "completed":
		return model.ActionDone, nil
	case "cancel", "cancelled", "canceled":
		return model.ActionCancel, nil
	case "reschedule", "rescheduled":
		return model.ActionReschedule, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ParseStatusFilter parses a list filter. "all" and "" mean no filter.
func ParseStatusFilter(s string) (model.BookingStatus, error) {
	f := model.BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	switch {
	case f == "" || f == "all":
		return "", nil
	case f == "done":
		return model.BookingStatusCompleted, nil
	case f.Valid():
		return f, nil
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

// View attaches the resolved status and display fields to a booking.
func View(b model.Booking) model.BookingView {
	status := ResolveStatus(b)
	return model.BookingView{
		Booking:     b,
		Resolved:    status,
		StatusText:  status.Title(),
		DisplayDate: b.DisplayDate(),
		DisplayTime: b.DisplayTime(),
	}
}

// Views resolves a whole collection, never returning nil.
func Views(bookings []model.Booking) []model.BookingView {
	views := make([]model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, View(b))
	}
	return views
}

// FilterByStatus keeps views whose resolved status equals status exactly.
// An empty status keeps everything.
func FilterByStatus(views []model.BookingView, status model.BookingStatus) []model.BookingView {
	if status == "" {
		return views
	}
	filtered := make([]model.BookingView, 0, len(views))
	for _, v := range views {
		if v.Resolved == status {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Tally counts views per resolved status.
func Tally(views []model.BookingView) model.StatusTally {
	var t model.StatusTally
	for _, v := range views {
		t.Add(v.Resolved)
	}
	return t
}
