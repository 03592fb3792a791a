package middleware

import (
	"strings"

	"salon_admin/internal/model"
	"salon_admin/internal/utils"

	"github.com/gin-gonic/gin"
)

// DashboardCookie carries the dashboard token issued at sign in.
const DashboardCookie = "admin_token"

// TokenVerifier validates dashboard tokens.
type TokenVerifier interface {
	ValidateToken(tokenString string) (*utils.JWTClaims, error)
}

// dashboardToken reads the caller's token from a bearer Authorization header,
// falling back to the dashboard cookie.
func dashboardToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return ""
		}
		return parts[1]
	}
	token, err := c.Cookie(DashboardCookie)
	if err != nil {
		return ""
	}
	return token
}

// CallerSession returns the admin session when the request carries a valid
// dashboard token issued for it. Tokens from an earlier sign in, or for
// another user, do not match.
func CallerSession(c *gin.Context, tokens TokenVerifier, gate SessionGate) (model.Session, bool) {
	tokenString := dashboardToken(c)
	if tokenString == "" {
		return model.Session{}, false
	}
	claims, err := tokens.ValidateToken(tokenString)
	if err != nil {
		return model.Session{}, false
	}

	session := gate.Snapshot()
	if !session.IsAuthenticated || session.User == nil || session.SessionID == "" {
		return model.Session{}, false
	}
	if claims.ID != session.SessionID || claims.UserID != session.User.ID.String() {
		return model.Session{}, false
	}
	return session, true
}
