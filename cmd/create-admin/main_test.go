package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salon_admin/internal/backend"
	"salon_admin/internal/backend/backendtest"
	"salon_admin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) adminConfig {
	return adminConfig{
		BackendURL:   url,
		Timeout:      5 * time.Second,
		Username:     "admin",
		Email:        "admin@salon.test",
		Phone:        "09123456789",
		Password:     "admin123",
		Firstname:    "Admin",
		Lastname:     "User",
		Address:      "Admin Address",
		HashPassword: true,
	}
}

func newClient(url string) *backend.Client {
	return backend.NewClient(url, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateAdmin(t *testing.T) {
	srv := backendtest.New(t)
	client := newClient(srv.URL)
	cfg := testConfig(srv.URL)

	created, err := createAdmin(context.Background(), client, cfg)
	require.NoError(t, err)
	assert.True(t, created)

	// the new account can sign in to the dashboard
	user, token, err := client.Login(context.Background(), model.Credentials{Email: cfg.Email, Password: cfg.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.IsAdmin())
	assert.True(t, user.IsVerified())

	created, err = createAdmin(context.Background(), client, cfg)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCreateAdmin_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"phone is invalid"}`))
	}))
	defer srv.Close()

	_, err := createAdmin(context.Background(), newClient(srv.URL), testConfig(srv.URL))

	assert.ErrorContains(t, err, "phone is invalid")
}

func TestCreateAdmin_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := createAdmin(context.Background(), newClient(url), testConfig(url))

	assert.ErrorIs(t, err, backend.ErrNetwork)
}
