package handler

import (
	"context"
	"errors"
	"net/http"

	"salon_admin/internal/backend"
	"salon_admin/internal/middleware"
	"salon_admin/internal/model"
	"salon_admin/internal/service"
	"salon_admin/internal/utils"

	"github.com/gin-gonic/gin"
)

// SessionManager is the session guard as seen by the auth endpoints.
type SessionManager interface {
	Login(ctx context.Context, creds model.Credentials) (*model.User, error)
	Logout(ctx context.Context) error
	Snapshot() model.Session
	Decide() service.GuardDecision
}

// AuthHandler handles sign in, sign out and session state requests
type AuthHandler struct {
	guard        SessionManager
	tokens       *utils.JWTUtil
	respond      *Responder
	homePath     string
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. tokens issues the dashboard
// credential handed to the browser at sign in; homePath is where a signed-in
// admin visiting the login entry point is sent.
func NewAuthHandler(guard SessionManager, tokens *utils.JWTUtil, respond *Responder, homePath string, secureCookie bool) *AuthHandler {
	return &AuthHandler{guard: guard, tokens: tokens, respond: respond, homePath: homePath, secureCookie: secureCookie}
}

func (h *AuthHandler) setDashboardCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.DashboardCookie, token, maxAge, "/", "", h.secureCookie, true)
}

// callerDecision applies the guard contract to this caller. Only a request
// carrying the dashboard token of the current session sees it.
func (h *AuthHandler) callerDecision(c *gin.Context) (service.GuardDecision, model.Session) {
	snapshot := h.guard.Snapshot()
	if h.guard.Decide() == service.ShowLoading {
		return service.ShowLoading, model.Session{IsLoading: true, IsInitialized: snapshot.IsInitialized}
	}
	if session, ok := middleware.CallerSession(c, h.tokens, h.guard); ok {
		return service.RenderContent, session
	}
	return service.RedirectToLogin, model.Session{IsInitialized: snapshot.IsInitialized}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var creds model.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		h.respond.BadRequest(c, "Invalid request: email or username and password are required")
		return
	}

	user, err := h.guard.Login(c.Request.Context(), creds)
	if err != nil {
		var apiErr *backend.APIError
		// the login call is anonymous, so a 401 here means bad credentials
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			h.respond.notices.Add(c, NoticeError, backend.Message(err, "Invalid credentials"))
			h.respond.Page(c, http.StatusUnauthorized, gin.H{"error": backend.Message(err, "Invalid credentials")})
			return
		}
		h.respond.Failed(c, err, "Login failed")
		return
	}

	session := h.guard.Snapshot()
	token, err := h.tokens.GenerateSessionToken(user.ID.String(), user.UserType, session.SessionID)
	if err != nil {
		h.respond.Failed(c, err, "Login failed")
		return
	}
	h.setDashboardCookie(c, token, int(h.tokens.TTL().Seconds()))

	h.respond.Success(c, "Welcome back, "+user.FullName(), gin.H{
		"message": "Login successful",
		"user":    user,
		"session": session,
	})
}

// Logout signs the admin out only for a caller holding the current dashboard
// token. Anyone else just loses their cookie. It never fails from the
// operator's point of view: memory is cleared even when the stored record
// could not be removed.
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := middleware.CallerSession(c, h.tokens, h.guard); ok {
		if err := h.guard.Logout(c.Request.Context()); err != nil {
			h.respond.log.Error("failed to clear stored session on logout", "error", err)
		}
	}
	h.setDashboardCookie(c, "", -1)
	h.respond.Success(c, "Signed out", gin.H{"message": "Logout successful"})
}

func (h *AuthHandler) Session(c *gin.Context) {
	decision, session := h.callerDecision(c)
	h.respond.Page(c, http.StatusOK, gin.H{
		"status":  decision.String(),
		"session": session,
	})
}

// LoginPage is the login entry point the guard redirects to. A signed-in
// admin is sent on to the dashboard.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	decision, session := h.callerDecision(c)
	if decision == service.RenderContent {
		c.Header("Location", h.homePath)
		c.AbortWithStatus(http.StatusSeeOther)
		return
	}
	h.respond.Page(c, http.StatusOK, gin.H{
		"status":  "login",
		"session": session,
	})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/session", h.Session)
	}
}
