package middleware

import (
	"net/http"

	"salon_admin/internal/model"
	"salon_admin/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey = "authUser"
	AuthRoleKey = "authRole"
	SessionKey  = "session"
)

// SessionGate is the read side of the session guard.
type SessionGate interface {
	Decide() service.GuardDecision
	Snapshot() model.Session
}

// SessionGuardMiddleware enforces the guard contract on protected routes:
// a loading response until the session is initialized, a bare redirect to the
// login entry point when signed out or when the caller holds no dashboard
// token for the current session, and the handler chain only for the
// authenticated admin.
func SessionGuardMiddleware(gate SessionGate, tokens TokenVerifier, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch gate.Decide() {
		case service.ShowLoading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
			return
		case service.RedirectToLogin:
			c.Header("Location", loginPath)
			c.AbortWithStatus(http.StatusSeeOther)
			return
		}

		session, ok := CallerSession(c, tokens, gate)
		if !ok {
			c.Header("Location", loginPath)
			c.AbortWithStatus(http.StatusSeeOther)
			return
		}
		c.Set(SessionKey, session)
		c.Set(AuthUserKey, session.User.ID.String())
		c.Set(AuthRoleKey, session.User.UserType)
		c.Next()
	}
}
