// Package backendtest runs an in-process salon backend for tests. It issues
// real bearer tokens, rejects unknown or revoked ones with 401 and keeps
// users and bookings in memory.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"salon_admin/internal/model"
	"salon_admin/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	authUserKey = "authUser"
	authRoleKey = "authRole"
)

type account struct {
	user         model.User
	passwordHash string
}

type failure struct {
	status  int
	message string
}

// Server is a fake backend. Use New to start one.
type Server struct {
	*httptest.Server

	// Now is the clock used for "today" queries.
	Now func() time.Time

	mu       sync.Mutex
	jwt      *utils.JWTUtil
	secret   int
	nextID   int
	users    []*account
	bookings []model.Booking
	failures map[string]failure
	calls    []string
}

// Cleanuper is satisfied by *testing.T and *testing.B.
type Cleanuper interface {
	Cleanup(func())
}

// New starts a fake backend and closes it when the test ends.
func New(t Cleanuper) *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		Now:      time.Now,
		nextID:   1,
		failures: make(map[string]failure),
	}
	s.jwt = utils.NewJWTUtil(s.secretKey(), time.Hour)
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) secretKey() string {
	return fmt.Sprintf("backendtest-secret-%d", s.secret)
}

// AddUser stores an account and returns it with its assigned id.
func (s *Server) AddUser(u model.User, password string) model.User {
	hash, err := utils.HashPassword(password)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(u, hash)
}

func (s *Server) addUserLocked(u model.User, hash string) model.User {
	if u.ID == "" {
		u.ID = model.EntityID(strconv.Itoa(s.nextID))
		s.nextID++
	}
	s.users = append(s.users, &account{user: u, passwordHash: hash})
	return u
}

// AddBooking stores a booking, assigning an id when it has none.
func (s *Server) AddBooking(b model.Booking) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = model.EntityID(strconv.Itoa(s.nextID))
		s.nextID++
	}
	s.bookings = append(s.bookings, b)
	return b
}

// Booking returns the stored booking with id.
func (s *Server) Booking(id model.EntityID) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.ID == id {
			return b, true
		}
	}
	return model.Booking{}, false
}

// User returns the stored user with id.
func (s *Server) User(id model.EntityID) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.findLocked(id); a != nil {
		return a.user, true
	}
	return model.User{}, false
}

// Fail makes every request to route answer with status and message until
// Recover is called. route is "METHOD /gin/path", e.g. "POST /api/bookings/:id/:action".
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret++
	s.jwt = utils.NewJWTUtil(s.secretKey(), time.Hour)
}

// IssueToken returns a valid token for u without going through login.
func (s *Server) IssueToken(u model.User) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, err := s.jwt.GenerateToken(u.ID.String(), u.UserType)
	if err != nil {
		panic(err)
	}
	return token
}

// Calls lists the requests served so far as "METHOD /path".
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount counts served requests equal to "METHOD /path".
func (s *Server) CallCount(call string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(s.record, s.inject)

	api := router.Group("/api")
	api.POST("/admin/login", s.login)
	api.POST("/auth/signup", s.signup)

	authed := api.Group("", s.bearerAuth)
	{
		authed.GET("/bookings/today", s.todayBookings)
		authed.GET("/bookings/all", s.allBookings)
		authed.GET("/bookings/search", s.searchBookings)
		authed.GET("/bookings/range", s.rangeBookings)
		authed.GET("/bookings/date/:date", s.dateBookings)
		authed.POST("/bookings/:id/:action", s.transition)

		authed.GET("/users/all", s.allUsers)
		authed.GET("/users/search", s.searchUsers)
		authed.GET("/users/:id", s.getUser)
		authed.POST("/users/:id/verify", s.verifyUser)
		authed.DELETE("/users/:id", s.deleteUser)

		authed.GET("/analytics/dashboard", s.dashboardStats)
		authed.GET("/analytics/bookings", s.rangeAggregate("bookings"))
		authed.GET("/analytics/revenue", s.rangeAggregate("revenue"))
		authed.GET("/analytics/customers", s.staticAggregate("customers"))
		authed.GET("/analytics/services", s.staticAggregate("services"))
		authed.GET("/analytics/monthly", s.monthly)
		authed.GET("/analytics/top-services", s.topServices)
		authed.GET("/analytics/customer-insights", s.staticAggregate("customer-insights"))
	}
	return router
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.calls = append(s.calls, c.Request.Method+" "+c.Request.URL.Path)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.failures[c.Request.Method+" "+c.FullPath()]
	s.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(f.status, gin.H{"message": f.message})
		return
	}
	c.Next()
}

func (s *Server) bearerAuth(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header required"})
		return
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization header format"})
		return
	}

	s.mu.Lock()
	jwtUtil := s.jwt
	s.mu.Unlock()
	claims, err := jwtUtil.ValidateToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}

	c.Set(authUserKey, claims.UserID)
	c.Set(authRoleKey, claims.UserType)
	c.Next()
}

func (s *Server) login(c *gin.Context) {
	var creds model.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	s.mu.Lock()
	var found *account
	for _, a := range s.users {
		if (creds.Email != "" && strings.EqualFold(a.user.Email, creds.Email)) ||
			(creds.Username != "" && a.user.Username == creds.Username) {
			found = a
			break
		}
	}
	s.mu.Unlock()

	if found == nil || !utils.CheckPasswordHash(creds.Password, found.passwordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	token := s.IssueToken(found.user)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": found.user, "token": token})
}

func (s *Server) signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid signup request"})
		return
	}

	hash := req.Password
	// pre-hashed passwords are stored as sent
	if !strings.HasPrefix(hash, "$2") {
		var err error
		if hash, err = utils.HashPassword(req.Password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.users {
		if strings.EqualFold(a.user.Email, req.Email) || a.user.Username == req.Username {
			c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
			return
		}
	}
	user := s.addUserLocked(model.User{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Username:  req.Username,
		Email:     req.Email,
		Phone:     req.Phone,
		Address1:  req.Address1,
		UserType:  req.UserType,
		Code:      req.Code,
	}, hash)
	c.JSON(http.StatusCreated, gin.H{"message": "User created", "user": user})
}

func (s *Server) bookingsWhere(match func(model.Booking) bool) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Booking{}
	for _, b := range s.bookings {
		if match(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s *Server) todayBookings(c *gin.Context) {
	today := s.Now().Format("2006-01-02")
	c.JSON(http.StatusOK, s.bookingsWhere(func(b model.Booking) bool { return b.DateKey() == today }))
}

func (s *Server) allBookings(c *gin.Context) {
	c.JSON(http.StatusOK, s.bookingsWhere(func(model.Booking) bool { return true }))
}

func (s *Server) searchBookings(c *gin.Context) {
	q := strings.ToLower(c.Query("q"))
	c.JSON(http.StatusOK, s.bookingsWhere(func(b model.Booking) bool {
		for _, field := range []string{b.Name, b.Email, b.Phone, b.Service1} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}))
}

func (s *Server) rangeBookings(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "start and end are required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": s.bookingsWhere(func(b model.Booking) bool {
		key := b.DateKey()
		return key >= start && key <= end
	})})
}

func (s *Server) dateBookings(c *gin.Context) {
	date := c.Param("date")
	c.JSON(http.StatusOK, s.bookingsWhere(func(b model.Booking) bool { return b.DateKey() == date }))
}

func (s *Server) transition(c *gin.Context) {
	id := model.EntityID(c.Param("id"))
	action := c.Param("action")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings {
		b := &s.bookings[i]
		if b.ID != id {
			continue
		}
		switch model.Action(action) {
		case model.ActionDone:
			b.Status = model.StatusCode(model.StatusCodeCompleted)
			b.Remarks = strPtr(model.RemarkDone)
		case model.ActionCancel:
			b.Status = model.StatusCode(model.StatusCodeCancelled)
			b.Remarks = strPtr(model.RemarkCancelled)
		case model.ActionReschedule:
			b.Status = nil
			b.Remarks = strPtr(model.RemarkRescheduled)
		default:
			c.JSON(http.StatusNotFound, gin.H{"message": "Unknown action"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Booking updated"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Booking not found"})
}

func (s *Server) findLocked(id model.EntityID) *account {
	for _, a := range s.users {
		if a.user.ID == id {
			return a
		}
	}
	return nil
}

func (s *Server) listUsers(match func(model.User) bool) []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.User{}
	for _, a := range s.users {
		if match(a.user) {
			out = append(out, a.user)
		}
	}
	return out
}

func (s *Server) allUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": s.listUsers(func(model.User) bool { return true })})
}

func (s *Server) searchUsers(c *gin.Context) {
	q := strings.ToLower(c.Query("q"))
	c.JSON(http.StatusOK, s.listUsers(func(u model.User) bool {
		return strings.Contains(strings.ToLower(u.FullName()+" "+u.Email+" "+u.Username), q)
	}))
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findLocked(model.EntityID(c.Param("id")))
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": a.user})
}

func (s *Server) verifyUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findLocked(model.EntityID(c.Param("id")))
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	a.user.Code = model.CodeVerified
	c.JSON(http.StatusOK, gin.H{"message": "User verified"})
}

func (s *Server) deleteUser(c *gin.Context) {
	id := model.EntityID(c.Param("id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.users {
		if a.user.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
}

func (s *Server) dashboardStats(c *gin.Context) {
	today := s.Now().Format("2006-01-02")
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := model.DashboardStats{TotalBookings: len(s.bookings), TotalUsers: len(s.users)}
	for _, b := range s.bookings {
		if b.DateKey() == today {
			stats.TodayBookings++
		}
		if b.Status != nil && b.Status.Code != nil {
			switch *b.Status.Code {
			case model.StatusCodeCompleted:
				stats.CompletedBookings++
			case model.StatusCodeCancelled:
				stats.CancelledBookings++
			}
		} else if b.Remarks != nil && *b.Remarks == model.RemarkRescheduled {
			stats.RescheduledBookings++
		}
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) rangeAggregate(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := model.ParseTimeRange(c.Query("range"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"metric": name, "range": r, "series": []int{}})
	}
}

func (s *Server) staticAggregate(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"metric": name})
	}
}

func (s *Server) monthly(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "year is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "months": make([]int, 12)})
}

func (s *Server) topServices(c *gin.Context) {
	counts := map[string]int{}
	for _, b := range s.bookingsWhere(func(model.Booking) bool { return true }) {
		counts[b.Service1]++
	}
	c.JSON(http.StatusOK, gin.H{"services": counts})
}

func strPtr(s string) *string { return &s }
