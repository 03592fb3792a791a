package backend

import (
	"context"
	"errors"
	"net/http"

	"salon_admin/internal/model"
)

// Login posts credentials to the admin login endpoint. It is sent without a
// bearer token, so a 401 here is a bad password rather than an expired session.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.User, string, error) {
	var res model.LoginResult
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/api/admin/login",
		body:      creds,
		anonymous: true,
	}, &res)
	if err != nil {
		return nil, "", err
	}
	if res.User == nil || res.Token == "" {
		return nil, "", errors.New("login response is missing user or token")
	}
	return res.User, res.Token, nil
}

// Signup registers an account through the public signup endpoint.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) error {
	return c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/api/auth/signup",
		body:      req,
		anonymous: true,
	}, nil)
}
