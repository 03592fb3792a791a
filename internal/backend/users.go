package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"salon_admin/internal/model"
)

func (c *Client) AllUsers(ctx context.Context) ([]model.User, error) {
	return c.userList(ctx, request{method: http.MethodGet, path: "/api/users/all"})
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	return c.userList(ctx, request{
		method: http.MethodGet,
		path:   "/api/users/search",
		query:  url.Values{"q": {query}},
	})
}

func (c *Client) GetUser(ctx context.Context, id model.EntityID) (*model.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: userPath(id)}, &raw); err != nil {
		return nil, err
	}
	var wrapped struct {
		User *model.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	user := &model.User{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	return user, nil
}

func (c *Client) VerifyUser(ctx context.Context, id model.EntityID) error {
	return c.do(ctx, request{method: http.MethodPost, path: userPath(id) + "/verify"}, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id model.EntityID) error {
	return c.do(ctx, request{method: http.MethodDelete, path: userPath(id)}, nil)
}

func userPath(id model.EntityID) string {
	return "/api/users/" + url.PathEscape(id.String())
}

func (c *Client) userList(ctx context.Context, req request) ([]model.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return nil, err
	}
	users := []model.User{}
	if len(raw) == 0 || string(raw) == "null" {
		return users, nil
	}
	if raw[0] != '[' {
		var wrapped struct {
			Users []model.User `json:"users"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", req.path, err)
		}
		if wrapped.Users != nil {
			users = wrapped.Users
		}
		return users, nil
	}
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", req.path, err)
	}
	return users, nil
}
