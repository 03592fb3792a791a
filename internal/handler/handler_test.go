package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salon_admin/internal/backend"
	"salon_admin/internal/backend/backendtest"
	"salon_admin/internal/middleware"
	"salon_admin/internal/model"
	"salon_admin/internal/repository"
	"salon_admin/internal/service"
	"salon_admin/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cookieJar holds one browser's cookies.
type cookieJar map[string]*http.Cookie

type harness struct {
	backend *backendtest.Server
	store   *repository.MemorySessionStore
	guard   *service.Guard
	router  *gin.Engine
	jar     cookieJar
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	fake := backendtest.New(t)
	fake.AddUser(model.User{
		Username: "admin", Email: "admin@salon.test", Firstname: "Rose", Lastname: "Admin",
		UserType: model.RoleAdmin, Code: model.CodeVerified,
	}, "admin123")

	store := repository.NewMemorySessionStore()
	client := backend.NewClient(fake.URL, 5*time.Second, log)
	guard := service.NewGuard(store, client, log)
	client.SetTokenSource(guard)
	client.OnUnauthorized(guard.Expire)

	respond := NewResponder(NewNotices(bytes.Repeat([]byte("k"), 32), false), "/login", log)
	tokens := utils.NewJWTUtil("dashboard-test-secret", time.Hour)
	routes := &Router{
		Auth:      NewAuthHandler(guard, tokens, respond, AdminBasePath+"/dashboard", false),
		Bookings:  NewBookingHandler(service.NewBookingService(client, client, log), service.NewExportService(client), respond),
		Users:     NewUserHandler(service.NewUserService(client, log), respond),
		Analytics: NewAnalyticsHandler(service.NewAnalyticsService(client), respond),
		Calendar:  NewCalendarHandler(service.NewCalendarService(client), respond),
		Gate:      guard,
		Tokens:    tokens,
		LoginPath: "/login",
		Log:       log,
	}
	return &harness{backend: fake, store: store, guard: guard, router: routes.Engine(), jar: cookieJar{}}
}

// do sends a JSON request from the harness's own browser.
func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	return h.send(h.jar, method, path, body)
}

// send issues a JSON request from the browser holding jar, carrying cookies
// between calls.
func (h *harness) send(jar cookieJar, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range jar {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(jar, c.Name)
			continue
		}
		jar[c.Name] = c
	}
	return w
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	h.guard.Initialize(context.Background())
	w := h.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "admin@salon.test", "password": "admin123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

type pageResponse struct {
	Page     model.BookingPage `json:"page"`
	Users    json.RawMessage   `json:"users"`
	Bookings json.RawMessage   `json:"bookings"`
	Notices  []Notice          `json:"notices"`
	Error    string            `json:"error"`
	Retry    bool              `json:"retry"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) pageResponse {
	t.Helper()
	var res pageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res
}

func today() string { return time.Now().Format("2006-01-02") }

func TestProtectedRoutes_LoadingBeforeInitialize(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, AdminBasePath+"/dashboard", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0, h.backend.CallCount("GET /api/bookings/today"))
}

func TestProtectedRoutes_RedirectWhenSignedOut(t *testing.T) {
	h := newHarness(t)
	h.guard.Initialize(context.Background())

	for _, path := range []string{"/dashboard", "/bookings", "/users", "/analytics", "/calendar"} {
		w := h.do(http.MethodGet, AdminBasePath+path, nil)
		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}
	assert.Empty(t, h.backend.Calls())
}

func TestLogin_Flow(t *testing.T) {
	h := newHarness(t)
	h.guard.Initialize(context.Background())

	w := h.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "admin@salon.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	res := decode(t, w)
	assert.Equal(t, "Invalid credentials", res.Error)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, NoticeError, res.Notices[0].Type)

	w = h.do(http.MethodPost, "/api/v1/auth/login", gin.H{"password": "admin123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "admin@salon.test", "password": "admin123"})
	require.Equal(t, http.StatusOK, w.Code)
	res = decode(t, w)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, "Welcome back, Rose Admin", res.Notices[0].Message)
	assert.NotContains(t, w.Body.String(), h.guard.Token(), "token must stay server side")
	assert.NotNil(t, h.store.Raw())
	var dashboardCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.DashboardCookie {
			dashboardCookie = c
		}
	}
	require.NotNil(t, dashboardCookie)
	assert.True(t, dashboardCookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, dashboardCookie.SameSite)
	assert.NotContains(t, w.Body.String(), dashboardCookie.Value)

	w = h.do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, AdminBasePath+"/dashboard", w.Header().Get("Location"))

	w = h.do(http.MethodGet, "/api/v1/auth/session", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"render"`)
}

func TestLogin_RejectsNonAdmin(t *testing.T) {
	h := newHarness(t)
	h.backend.AddUser(model.User{Username: "ana", Email: "ana@salon.test", UserType: model.RoleUser}, "customer1")
	h.guard.Initialize(context.Background())

	w := h.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "ana@salon.test", "password": "customer1"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.RedirectToLogin, h.guard.Decide())
	assert.Nil(t, h.store.Raw())
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	w := h.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, h.jar, middleware.DashboardCookie)
	w = h.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Nil(t, h.store.Raw())
	w = h.do(http.MethodGet, AdminBasePath+"/bookings", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	h.backend.AddBooking(model.Booking{Date: today(), Time: "09:00", Name: "Ana", Service1: "Haircut", Status: model.StatusCode(2)})
	h.backend.AddBooking(model.Booking{Date: today(), Time: "10:00", Name: "Bea", Service1: "Color"})
	h.backend.AddBooking(model.Booking{Date: "2020-01-01", Name: "Old"})
	h.signIn(t)

	w := h.do(http.MethodGet, AdminBasePath+"/dashboard", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, model.ScopeToday, res.Page.Scope)
	assert.Len(t, res.Page.Bookings, 2)
	assert.Equal(t, 1, res.Page.Counts.Completed)
	assert.Equal(t, 1, res.Page.Counts.Pending)
	require.NotNil(t, res.Page.Stats)
	assert.Equal(t, 3, res.Page.Stats.TotalBookings)
	assert.Equal(t, "9:00 AM", res.Page.Bookings[0].DisplayTime)
}

func TestBookings_FilterAndSearch(t *testing.T) {
	h := newHarness(t)
	h.backend.AddBooking(model.Booking{Date: "2024-03-05", Name: "Ana", Remarks: strPtr("cancelled")})
	h.backend.AddBooking(model.Booking{Date: "2024-03-06", Name: "Bea"})
	h.signIn(t)

	w := h.do(http.MethodGet, AdminBasePath+"/bookings?filter=cancelled", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	require.Len(t, res.Page.Bookings, 1)
	assert.Equal(t, "Ana", res.Page.Bookings[0].Name)
	assert.Equal(t, 2, res.Page.Counts.Total)

	w = h.do(http.MethodGet, AdminBasePath+"/bookings?q=bea", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode(t, w)
	require.Len(t, res.Page.Bookings, 1)
	assert.Equal(t, "Bea", res.Page.Bookings[0].Name)

	w = h.do(http.MethodGet, AdminBasePath+"/bookings?filter=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookings_Transition(t *testing.T) {
	h := newHarness(t)
	booking := h.backend.AddBooking(model.Booking{Date: "2024-03-05", Name: "Ana"})
	h.signIn(t)

	w := h.do(http.MethodPost, AdminBasePath+"/bookings/"+booking.ID.String()+"/done", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	require.Len(t, res.Page.Bookings, 1)
	assert.Equal(t, model.BookingStatusCompleted, res.Page.Bookings[0].Resolved)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, "Booking marked as done", res.Notices[0].Message)

	calls := h.backend.Calls()
	transition := indexOf(calls, "POST /api/bookings/"+booking.ID.String()+"/done")
	reload := indexOf(calls, "GET /api/bookings/all")
	require.NotEqual(t, -1, transition)
	assert.Greater(t, reload, transition)
}

func TestBookings_TransitionFailureDoesNotReload(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	w := h.do(http.MethodPost, AdminBasePath+"/bookings/999/cancel?scope=today", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	res := decode(t, w)
	assert.Equal(t, "Booking not found", res.Error)
	assert.Equal(t, 0, h.backend.CallCount("GET /api/bookings/today"))

	w = h.do(http.MethodPost, AdminBasePath+"/bookings/1/confirmed", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookings_TransitionKeptWhenReloadFails(t *testing.T) {
	h := newHarness(t)
	booking := h.backend.AddBooking(model.Booking{Date: "2024-03-05", Name: "Ana"})
	h.signIn(t)
	h.backend.Fail("GET /api/bookings/all", http.StatusInternalServerError, "db down")

	w := h.do(http.MethodPost, AdminBasePath+"/bookings/"+booking.ID.String()+"/done", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	res := decode(t, w)
	assert.True(t, res.Retry)
	assert.JSONEq(t, `[]`, string(res.Bookings))
	assert.Equal(t, "db down", res.Error)
	require.Len(t, res.Notices, 2)
	assert.Equal(t, NoticeSuccess, res.Notices[0].Type)
	assert.Equal(t, "Booking marked as done", res.Notices[0].Message)
	assert.Equal(t, NoticeError, res.Notices[1].Type)

	stored, ok := h.backend.Booking(booking.ID)
	require.True(t, ok)
	assert.Equal(t, model.BookingStatusCompleted, service.ResolveStatus(stored))
}

func TestAdminSession_RequiresCallerCredential(t *testing.T) {
	h := newHarness(t)
	booking := h.backend.AddBooking(model.Booking{Date: "2024-03-05", Name: "Ana"})
	customer := h.backend.AddUser(model.User{Username: "ana", Email: "ana@salon.test", UserType: model.RoleUser}, "customer1")
	h.signIn(t)
	cancelPath := AdminBasePath + "/bookings/" + booking.ID.String() + "/cancel"

	stranger := cookieJar{}
	w := h.send(stranger, http.MethodGet, AdminBasePath+"/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = h.send(stranger, http.MethodPost, cancelPath, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	w = h.send(stranger, http.MethodDelete, AdminBasePath+"/users/"+customer.ID.String(), nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = h.send(stranger, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.RenderContent, h.guard.Decide())
	assert.NotNil(t, h.store.Raw())

	w = h.send(stranger, http.MethodGet, "/api/v1/auth/session", nil)
	assert.Contains(t, w.Body.String(), `"status":"redirect"`)
	assert.NotContains(t, w.Body.String(), "admin@salon.test")
	w = h.send(stranger, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// a cross-site form post is refused before it reaches any handler
	req := httptest.NewRequest(http.MethodPost, cancelPath, strings.NewReader("x"))
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	assert.Equal(t, 0, h.backend.CallCount("POST /api/bookings/"+booking.ID.String()+"/cancel"))
	assert.Equal(t, 0, h.backend.CallCount("DELETE /api/users/"+customer.ID.String()))
	_, found := h.backend.User(customer.ID)
	assert.True(t, found)

	w = h.do(http.MethodGet, AdminBasePath+"/dashboard", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignInElsewhereRetiresEarlierCredential(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	other := cookieJar{}
	w := h.send(other, http.MethodPost, "/api/v1/auth/login", gin.H{"email": "admin@salon.test", "password": "admin123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = h.send(other, http.MethodGet, AdminBasePath+"/bookings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodGet, AdminBasePath+"/bookings", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestBookings_LoadFailureOffersRetry(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.Fail("GET /api/bookings/all", http.StatusInternalServerError, "database offline")

	w := h.do(http.MethodGet, AdminBasePath+"/bookings", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	res := decode(t, w)
	assert.True(t, res.Retry)
	assert.JSONEq(t, `[]`, string(res.Bookings))
	assert.Equal(t, "database offline", res.Error)
	assert.Equal(t, service.RenderContent, h.guard.Decide())
}

func TestExpiredTokenSignsOut(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.RevokeTokens()

	w := h.do(http.MethodGet, AdminBasePath+"/users", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, service.RedirectToLogin, h.guard.Decide())
	assert.Nil(t, h.store.Raw())

	// the expiry notice is delivered on the next page
	w = h.do(http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	require.Len(t, res.Notices, 1)
	assert.Contains(t, res.Notices[0].Message, "session has expired")
}

func TestUsers(t *testing.T) {
	h := newHarness(t)
	customer := h.backend.AddUser(model.User{Username: "ana", Email: "ana@salon.test", UserType: model.RoleUser, Code: 8123}, "customer1")
	h.signIn(t)

	w := h.do(http.MethodGet, AdminBasePath+"/users?filter=unverified", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ana"`)
	assert.NotContains(t, w.Body.String(), `"username":"admin"`)

	w = h.do(http.MethodPost, AdminBasePath+"/users/"+customer.ID.String()+"/verify", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored, _ := h.backend.User(customer.ID)
	assert.True(t, stored.IsVerified())

	w = h.do(http.MethodPost, AdminBasePath+"/users/"+customer.ID.String()+"/verify", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// the admin account is exempt from verify and delete
	w = h.do(http.MethodDelete, AdminBasePath+"/users/1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, h.backend.CallCount("DELETE /api/users/1"))

	w = h.do(http.MethodDelete, AdminBasePath+"/users/"+customer.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, found := h.backend.User(customer.ID)
	assert.False(t, found)

	w = h.do(http.MethodGet, AdminBasePath+"/users/"+customer.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalytics(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	w := h.do(http.MethodGet, AdminBasePath+"/analytics?range=month", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"range":"month"`)

	w = h.do(http.MethodGet, AdminBasePath+"/analytics?range=decade", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h.backend.Fail("GET /api/analytics/top-services", http.StatusInternalServerError, "boom")
	w = h.do(http.MethodGet, AdminBasePath+"/analytics", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"report":null`)
}

func TestCalendar(t *testing.T) {
	h := newHarness(t)
	h.backend.AddBooking(model.Booking{Date: "2024-03-05", Name: "Ana"})
	h.signIn(t)

	w := h.do(http.MethodGet, AdminBasePath+"/calendar?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var grid struct {
		Calendar model.MonthGrid `json:"calendar"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grid))
	assert.Equal(t, "March 2024", grid.Calendar.Title)
	assert.Equal(t, 1, grid.Calendar.Counts.Total)

	w = h.do(http.MethodGet, AdminBasePath+"/calendar/2024-03-05", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Ana"`)

	w = h.do(http.MethodGet, AdminBasePath+"/calendar?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, AdminBasePath+"/calendar/tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.backend.AddBooking(model.Booking{Date: "2024-03-05", Name: "Ana", Service1: "Haircut"})
	h.signIn(t)

	w := h.do(http.MethodGet, AdminBasePath+"/bookings/export?format=csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment; filename=bookings_export_"))
	assert.Contains(t, w.Body.String(), "Ana")

	w = h.do(http.MethodGet, AdminBasePath+"/bookings/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func indexOf(calls []string, call string) int {
	for i, c := range calls {
		if c == call {
			return i
		}
	}
	return -1
}

func strPtr(s string) *string { return &s }
