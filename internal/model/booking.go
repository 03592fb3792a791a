package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BookingStatus is the canonical lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending     BookingStatus = "pending"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusCompleted   BookingStatus = "completed"
	BookingStatusCancelled   BookingStatus = "cancelled"
	BookingStatusRescheduled BookingStatus = "rescheduled"
)

// AllBookingStatuses lists every canonical status in display order.
var AllBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCompleted,
	BookingStatusCancelled,
	BookingStatusRescheduled,
}

func (s BookingStatus) Valid() bool {
	for _, known := range AllBookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Title is the badge text for the status.
func (s BookingStatus) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Numeric status codes sent by the backend.
const (
	StatusCodeCancelled = 0
	StatusCodeCompleted = 2
)

// Remarks markers from the legacy free-text status channel.
const (
	RemarkDone        = "done"
	RemarkCancelled   = "cancelled"
	RemarkRescheduled = "rescheduled"
)

// StatusSignal is the raw "status" field of a booking. Newer endpoints send a
// numeric code, older ones a text label; exactly one of Code/Label is set.
type StatusSignal struct {
	Code  *int
	Label string
}

// StatusCode builds a numeric signal.
func StatusCode(code int) *StatusSignal {
	return &StatusSignal{Code: &code}
}

// StatusLabel builds a text signal.
func StatusLabel(label string) *StatusSignal {
	return &StatusSignal{Label: label}
}

func (s *StatusSignal) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var label string
		if err := json.Unmarshal(b, &label); err != nil {
			return err
		}
		if code, err := strconv.Atoi(strings.TrimSpace(label)); err == nil {
			s.Code = &code
			return nil
		}
		s.Label = label
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("status must be a number or string: %w", err)
	}
	code := int(f)
	s.Code = &code
	return nil
}

func (s StatusSignal) MarshalJSON() ([]byte, error) {
	if s.Code != nil {
		return json.Marshal(*s.Code)
	}
	return json.Marshal(s.Label)
}

// Booking is a customer appointment owned by the backend.
type Booking struct {
	ID       EntityID      `json:"id"`
	Date     string        `json:"date"`
	Time     string        `json:"time"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Phone    string        `json:"phone"`
	Service1 string        `json:"service1"`
	Service2 *string       `json:"service2,omitempty"`
	Status   *StatusSignal `json:"status,omitempty"`
	Remarks  *string       `json:"remarks,omitempty"`
}

// DateKey returns the storage date (YYYY-MM-DD) of the booking, accepting
// full timestamps as well.
func (b Booking) DateKey() string {
	if len(b.Date) >= 10 {
		if _, err := time.Parse("2006-01-02", b.Date[:10]); err == nil {
			return b.Date[:10]
		}
	}
	return b.Date
}

// DisplayDate formats the date as "Jan 02, 2006"; unparseable input is returned as is.
func (b Booking) DisplayDate() string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, b.Date); err == nil {
			return t.Format("Jan 02, 2006")
		}
	}
	return b.Date
}

// DisplayTime formats the time as "3:04 PM"; unparseable input is returned as is.
func (b Booking) DisplayTime() string {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, b.Time); err == nil {
			return t.Format("3:04 PM")
		}
	}
	return b.Time
}

// BookingView is a booking with its resolved status and presentation fields.
type BookingView struct {
	Booking
	Resolved    BookingStatus `json:"resolved_status"`
	StatusText  string        `json:"status_text"`
	DisplayDate string        `json:"display_date"`
	DisplayTime string        `json:"display_time"`
}

// StatusTally counts bookings per canonical status.
type StatusTally struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Confirmed   int `json:"confirmed"`
	Completed   int `json:"completed"`
	Cancelled   int `json:"cancelled"`
	Rescheduled int `json:"rescheduled"`
}

// Add records one booking in the bucket for s.
func (t *StatusTally) Add(s BookingStatus) {
	t.Total++
	switch s {
	case BookingStatusConfirmed:
		t.Confirmed++
	case BookingStatusCompleted:
		t.Completed++
	case BookingStatusCancelled:
		t.Cancelled++
	case BookingStatusRescheduled:
		t.Rescheduled++
	default:
		t.Pending++
	}
}

// BucketSum is the sum over all buckets; it always equals Total.
func (t StatusTally) BucketSum() int {
	return t.Pending + t.Confirmed + t.Completed + t.Cancelled + t.Rescheduled
}

// BookingScope names a booking collection a page works on.
type BookingScope string

const (
	ScopeToday BookingScope = "today"
	ScopeAll   BookingScope = "all"
)

func ParseScope(s string) (BookingScope, error) {
	switch BookingScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeToday:
		return ScopeToday, nil
	}
	return "", fmt.Errorf("unknown booking scope %q", s)
}
