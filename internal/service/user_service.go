package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"salon_admin/internal/model"
)

var (
	ErrAdminExempt     = errors.New("admin accounts cannot be verified or deleted")
	ErrAlreadyVerified = errors.New("user is already verified")
)

// UserBackend is the user management part of the backend API.
type UserBackend interface {
	AllUsers(ctx context.Context) ([]model.User, error)
	SearchUsers(ctx context.Context, query string) ([]model.User, error)
	GetUser(ctx context.Context, id model.EntityID) (*model.User, error)
	VerifyUser(ctx context.Context, id model.EntityID) error
	DeleteUser(ctx context.Context, id model.EntityID) error
}

// UserService backs the user management pages.
type UserService interface {
	List(ctx context.Context, query string, filter model.UserFilter) (*model.UserPage, error)
	Get(ctx context.Context, id model.EntityID) (*model.UserView, error)
	Verify(ctx context.Context, id model.EntityID) (*model.UserPage, error)
	Delete(ctx context.Context, id model.EntityID) (*model.UserPage, error)
}

type userService struct {
	users UserBackend
	log   *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(users UserBackend, log *slog.Logger) UserService {
	if log == nil {
		log = slog.Default()
	}
	return &userService{users: users, log: log}
}

// ParseUserFilter parses the list filter; empty means all.
func ParseUserFilter(s string) (model.UserFilter, error) {
	switch f := model.UserFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return model.UserFilterAll, nil
	case model.UserFilterAll, model.UserFilterVerified, model.UserFilterUnverified, model.UserFilterAdmin:
		return f, nil
	}
	return "", fmt.Errorf("unknown user filter %q", s)
}

func (s *userService) List(ctx context.Context, query string, filter model.UserFilter) (*model.UserPage, error) {
	query = strings.TrimSpace(query)

	var users []model.User
	var err error
	if query != "" {
		users, err = s.users.SearchUsers(ctx, query)
	} else {
		users, err = s.users.AllUsers(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	page := &model.UserPage{Query: query, Filter: filter, Users: make([]model.UserView, 0, len(users)), Total: len(users)}
	for _, u := range users {
		if filter.Match(u) {
			page.Users = append(page.Users, model.NewUserView(u))
		}
	}
	return page, nil
}

func (s *userService) Get(ctx context.Context, id model.EntityID) (*model.UserView, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	view := model.NewUserView(*user)
	return &view, nil
}

// Verify marks a non-admin user's email as verified, then reloads the list.
func (s *userService) Verify(ctx context.Context, id model.EntityID) (*model.UserPage, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	if user.IsAdmin() {
		return nil, ErrAdminExempt
	}
	if user.IsVerified() {
		return nil, ErrAlreadyVerified
	}
	if err := s.users.VerifyUser(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to verify user %s: %w", id, err)
	}
	s.log.Info("user verified", "user_id", id.String())
	return s.List(ctx, "", model.UserFilterAll)
}

// Delete removes a non-admin user, then reloads the list.
func (s *userService) Delete(ctx context.Context, id model.EntityID) (*model.UserPage, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	if user.IsAdmin() {
		return nil, ErrAdminExempt
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	s.log.Info("user deleted", "user_id", id.String())
	return s.List(ctx, "", model.UserFilterAll)
}
