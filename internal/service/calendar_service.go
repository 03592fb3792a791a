package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salon_admin/internal/model"
)

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid calendar date")

// CalendarBackend is the date-based booking part of the backend API.
type CalendarBackend interface {
	BookingsInRange(ctx context.Context, start, end string) ([]model.Booking, error)
	BookingsByDate(ctx context.Context, date string) ([]model.Booking, error)
}

// CalendarService backs the calendar month and day views.
type CalendarService interface {
	Month(ctx context.Context, year int, month time.Month) (*model.MonthGrid, error)
	Day(ctx context.Context, date string) (*model.DayView, error)
}

type calendarService struct {
	backend CalendarBackend
	now     func() time.Time
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(backend CalendarBackend) CalendarService {
	return &calendarService{backend: backend, now: time.Now}
}

func (s *calendarService) Month(ctx context.Context, year int, month time.Month) (*model.MonthGrid, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month must be between 1 and 12, got %d", ErrInvalidDate, month)
	}
	start, end := GridBounds(year, month)
	bookings, err := s.backend.BookingsInRange(ctx, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s %d: %w", month, year, err)
	}
	return BuildMonthGrid(year, month, bookings, s.now()), nil
}

func (s *calendarService) Day(ctx context.Context, date string) (*model.DayView, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w %q, use YYYY-MM-DD", ErrInvalidDate, date)
	}
	bookings, err := s.backend.BookingsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", date, err)
	}
	views := Views(bookings)
	return &model.DayView{
		Date:        date,
		DisplayDate: day.Format("Monday, January 2, 2006"),
		Bookings:    views,
		Counts:      Tally(views),
	}, nil
}

// GridBounds returns the first and last day shown for a month: the grid
// starts on the Sunday on or before the 1st and ends on the Saturday on or
// after the last day.
func GridBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))
	return start, end
}

// BuildMonthGrid lays bookings out on the month grid, grouped by date.
// Counts on the grid cover days inside the month only.
func BuildMonthGrid(year int, month time.Month, bookings []model.Booking, today time.Time) *model.MonthGrid {
	byDate := make(map[string][]model.BookingView)
	for _, b := range bookings {
		key := b.DateKey()
		byDate[key] = append(byDate[key], View(b))
	}

	start, end := GridBounds(year, month)
	todayKey := today.Format(dateLayout)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	grid := &model.MonthGrid{
		Year:     year,
		Month:    month,
		Title:    fmt.Sprintf("%s %d", month, year),
		Previous: first.AddDate(0, -1, 0).Format("2006-01"),
		Next:     first.AddDate(0, 1, 0).Format("2006-01"),
	}

	var week []model.DayCell
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		views := byDate[key]
		if views == nil {
			views = []model.BookingView{}
		}
		cell := model.DayCell{
			Date:     key,
			Day:      d.Day(),
			InMonth:  d.Month() == month,
			IsToday:  key == todayKey,
			Bookings: views,
			Counts:   Tally(views),
		}
		if cell.InMonth {
			for _, v := range views {
				grid.Counts.Add(v.Resolved)
			}
		}
		week = append(week, cell)
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = nil
		}
	}
	return grid
}
