package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"salon_admin/internal/model"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const transitionTimeout = 30 * time.Second

// ReloadError reports a transition that the backend accepted but whose
// follow-up reload failed.
type ReloadError struct {
	Action model.Action
	Err    error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("booking marked as %s, but reloading bookings failed: %v", e.Action.PastTense(), e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }

// BookingBackend is the booking part of the backend API.
type BookingBackend interface {
	TodayBookings(ctx context.Context) ([]model.Booking, error)
	AllBookings(ctx context.Context) ([]model.Booking, error)
	SearchBookings(ctx context.Context, query string) ([]model.Booking, error)
	TransitionBooking(ctx context.Context, id model.EntityID, action model.Action) error
}

// StatsBackend provides the dashboard aggregates.
type StatsBackend interface {
	DashboardStats(ctx context.Context) (model.DashboardStats, error)
}

// BookingService loads booking collections and issues status transitions.
// Nothing is cached: every call reads from the backend.
type BookingService interface {
	Dashboard(ctx context.Context, query string, filter model.BookingStatus) (*model.BookingPage, error)
	List(ctx context.Context, query string, filter model.BookingStatus) (*model.BookingPage, error)
	Transition(ctx context.Context, scope model.BookingScope, id model.EntityID, action model.Action) (*model.BookingPage, error)
}

type bookingService struct {
	bookings BookingBackend
	stats    StatsBackend
	log      *slog.Logger
	inflight singleflight.Group
}

// NewBookingService creates a new BookingService
func NewBookingService(bookings BookingBackend, stats StatsBackend, log *slog.Logger) BookingService {
	if log == nil {
		log = slog.Default()
	}
	return &bookingService{bookings: bookings, stats: stats, log: log}
}

// Dashboard loads today's bookings (or a search) together with the dashboard
// stats. Both loads run in parallel and fail together.
func (s *bookingService) Dashboard(ctx context.Context, query string, filter model.BookingStatus) (*model.BookingPage, error) {
	query = strings.TrimSpace(query)

	var bookings []model.Booking
	var stats model.DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if query != "" {
			bookings, err = s.bookings.SearchBookings(gctx, query)
		} else {
			bookings, err = s.bookings.TodayBookings(gctx)
		}
		if err != nil {
			return fmt.Errorf("failed to load bookings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if stats, err = s.stats.DashboardStats(gctx); err != nil {
			return fmt.Errorf("failed to load dashboard stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := newBookingPage(model.ScopeToday, query, filter, bookings)
	page.Stats = &stats
	return page, nil
}

// List loads all bookings, or the search results when query is set.
func (s *bookingService) List(ctx context.Context, query string, filter model.BookingStatus) (*model.BookingPage, error) {
	query = strings.TrimSpace(query)

	var bookings []model.Booking
	var err error
	if query != "" {
		bookings, err = s.bookings.SearchBookings(ctx, query)
	} else {
		bookings, err = s.bookings.AllBookings(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	return newBookingPage(model.ScopeAll, query, filter, bookings), nil
}

// Transition sends one status command and, only once it succeeded, reloads
// the whole scope so counts and stats come from the backend. Identical
// concurrent commands share a single backend request, which is detached from
// any one caller's cancellation. A failed reload after an accepted command is
// returned as *ReloadError.
func (s *bookingService) Transition(ctx context.Context, scope model.BookingScope, id model.EntityID, action model.Action) (*model.BookingPage, error) {
	if id == "" {
		return nil, fmt.Errorf("booking id is required")
	}
	key := id.String() + "/" + string(action)
	_, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), transitionTimeout)
		defer cancel()
		return nil, s.bookings.TransitionBooking(sharedCtx, id, action)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark booking %s as %s: %w", id, action.PastTense(), err)
	}
	s.log.Info("booking status changed", "booking_id", id.String(), "action", string(action), "shared", shared)

	var page *model.BookingPage
	if scope == model.ScopeToday {
		page, err = s.Dashboard(ctx, "", "")
	} else {
		page, err = s.List(ctx, "", "")
	}
	if err != nil {
		return nil, &ReloadError{Action: action, Err: err}
	}
	return page, nil
}

func newBookingPage(scope model.BookingScope, query string, filter model.BookingStatus, bookings []model.Booking) *model.BookingPage {
	views := Views(bookings)
	return &model.BookingPage{
		Scope:    scope,
		Query:    query,
		Filter:   filter,
		Bookings: FilterByStatus(views, filter),
		Counts:   Tally(views),
	}
}
